package signals

import (
	"sort"

	"github.com/matthewbaird/leadpilot/internal/types"
)

// Digest summarises the explanations of an inbox view.
type Digest struct {
	Total             int            `json:"total"`
	ByIntent          map[string]int `json:"by_intent"`
	ByUrgency         map[string]int `json:"by_urgency"`
	ByLevel           map[string]int `json:"by_level"`
	AverageConfidence float64        `json:"average_confidence"`
	DominantIntent    string         `json:"dominant_intent,omitempty"`
}

// Aggregate produces a Digest from a set of explanations.
func Aggregate(explanations []types.Explanation) Digest {
	d := Digest{
		Total:     len(explanations),
		ByIntent:  make(map[string]int),
		ByUrgency: make(map[string]int),
		ByLevel:   make(map[string]int),
	}
	if len(explanations) == 0 {
		return d
	}

	sum := 0
	for _, e := range explanations {
		d.ByIntent[SignalValue(e, SignalIntent)]++
		d.ByUrgency[SignalValue(e, SignalUrgency)]++
		d.ByLevel[string(e.Confidence.Level)]++
		sum += e.Confidence.Score
	}
	d.AverageConfidence = float64(sum) / float64(len(explanations))
	d.DominantIntent = dominant(d.ByIntent)
	return d
}

// dominant returns the key with the highest count; ties go to the
// lexicographically smallest key so the result is stable.
func dominant(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
