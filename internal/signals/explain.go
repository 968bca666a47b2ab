package signals

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matthewbaird/leadpilot/internal/types"
)

// DefaultActionType labels an explanation when the caller does not.
const DefaultActionType = "AI decision"

const noKeywords = "no dominant keywords"

// Signal labels in display order.
const (
	SignalKeywords   = "Keywords"
	SignalIntent     = "Intent"
	SignalUrgency    = "Urgency"
	SignalConfidence = "Confidence score"
)

// ExplanationInput is everything a view knows about the item being explained.
// Empty strings are treated as absent. A nil BaseScore uses DefaultBaseScore;
// an explicit zero is scored as zero.
type ExplanationInput struct {
	ActionType   string `json:"action_type,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Body         string `json:"body,omitempty"`
	Summary      string `json:"summary,omitempty"`
	Category     string `json:"category,omitempty"`
	Priority     string `json:"priority,omitempty"`
	AISuggestion string `json:"ai_suggestion,omitempty"`
	BaseScore    *int   `json:"base_score,omitempty"`
}

// BuildExplanation composes signal extraction and scoring into an
// Explanation. It accepts any input, including an empty one.
func BuildExplanation(in ExplanationInput) types.Explanation {
	actionType := in.ActionType
	if actionType == "" {
		actionType = DefaultActionType
	}
	baseScore := DefaultBaseScore
	if in.BaseScore != nil {
		baseScore = *in.BaseScore
	}

	text := joinNonEmpty(in.Subject, in.Body, in.Summary, in.AISuggestion, in.Category)
	fallback := DefaultIntentLabel
	if in.Category != "" {
		fallback = capitalize(in.Category) + " request"
	}

	sig := ExtractSignals(text, fallback, in.Priority)
	confidence := NewConfidence(Score(baseScore, sig.Intent.Weight, sig.Urgency.Weight, len(sig.Keywords)))

	intentLabel := strings.ToLower(sig.Intent.Label)
	urgencyLabel := strings.ToLower(sig.Urgency.Label)

	summary := in.Summary
	if summary == "" {
		summary = fmt.Sprintf("The model focused on %s patterns and urgency cues before finalizing this %s.",
			intentLabel, strings.ToLower(actionType))
	}

	keywords := noKeywords
	if len(sig.Keywords) > 0 {
		keywords = strings.Join(sig.Keywords, ", ")
	}

	return types.Explanation{
		ActionType: actionType,
		Summary:    summary,
		Reason: fmt.Sprintf("AI prioritized this because it detected %s intent and %s urgency language in the conversation.",
			intentLabel, urgencyLabel),
		Signals: []types.Signal{
			{
				Label: SignalKeywords,
				Value: keywords,
				Hint:  "Terms in the conversation that strongly correlate with this AI action.",
			},
			{
				Label: SignalIntent,
				Value: sig.Intent.Label,
				Hint:  "The objective the model inferred from the user message.",
			},
			{
				Label: SignalUrgency,
				Value: sig.Urgency.Label,
				Hint:  "How time-sensitive the conversation appears.",
			},
			{
				Label: SignalConfidence,
				Value: fmt.Sprintf("%d%%", confidence.Score),
				Hint:  "How certain the model is based on available signals.",
			},
		},
		Confidence: confidence,
	}
}

// SignalValue returns the value of the labelled signal, or "".
func SignalValue(e types.Explanation, label string) string {
	for _, s := range e.Signals {
		if s.Label == label {
			return s.Value
		}
	}
	return ""
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
