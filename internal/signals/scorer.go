package signals

import "github.com/matthewbaird/leadpilot/internal/types"

// Confidence bounds. A reviewer never sees 0% or 100%.
const (
	MinConfidence = 45
	MaxConfidence = 98

	// DefaultBaseScore is used when the caller does not supply one.
	DefaultBaseScore = 72

	keywordPoints = 3
	keywordCap    = 12
	scoreOffset   = 12
)

// Score combines a base score with signal weights into a bounded percentage.
func Score(baseScore, intentWeight, urgencyWeight, keywordCount int) int {
	bonus := min(keywordCount*keywordPoints, keywordCap)
	raw := baseScore + intentWeight + urgencyWeight + bonus - scoreOffset
	return max(MinConfidence, min(MaxConfidence, raw))
}

// LevelFor maps a score to its level. Every caller goes through here.
func LevelFor(score int) types.ConfidenceLevel {
	switch {
	case score >= 80:
		return types.ConfidenceHigh
	case score >= 60:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// NewConfidence pairs a score with its level.
func NewConfidence(score int) types.Confidence {
	return types.Confidence{Score: score, Level: LevelFor(score)}
}
