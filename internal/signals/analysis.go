package signals

import (
	"strings"

	"github.com/matthewbaird/leadpilot/internal/types"
)

// Email is the part of an inbound message the analyzer reads.
type Email struct {
	From    string `json:"from_email,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Analysis mirrors the backend's email analysis payload.
type Analysis struct {
	Category          string `json:"category"`
	Priority          string `json:"priority"`
	Summary           string `json:"summary"`
	Confidence        int    `json:"confidence"`
	AIReplySuggestion string `json:"ai_reply_suggestion"`
}

// Lead is the part of a lead record used to explain lead decisions.
type Lead struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Score int    `json:"score,omitempty"`
}

type keywordRule struct {
	label    string
	keywords []string
}

// categoryRules: first match wins.
var categoryRules = []keywordRule{
	{"Lead", []string{"pricing", "demo", "trial", "quote", "signup", "sales", "buy", "purchase"}},
	{"Support", []string{"help", "issue", "error", "bug", "problem", "support", "not working"}},
	{"Billing", []string{"invoice", "billing", "refund", "charge", "payment", "receipt"}},
}

var priorityRules = []keywordRule{
	{"high", []string{"urgent", "asap", "immediately", "critical", "outage", "down"}},
	{"medium", []string{"soon", "priority", "important", "follow up", "follow-up"}},
}

const (
	matchedCategoryConfidence = 88
	otherCategoryConfidence   = 72

	// SummaryMaxLength is the default summary cut-off in characters.
	SummaryMaxLength = 180

	defaultReplySuggestion = "Thanks for reaching out! We've received your message and will follow up shortly with next steps. " +
		"If you have any additional details, feel free to reply to this email."
)

func (r keywordRule) matches(text string) bool {
	for _, k := range r.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func normalizeEmailText(subject, body string) string {
	return strings.ToLower(subject + " " + body)
}

// ClassifyCategory returns the first matching category and its confidence.
func ClassifyCategory(subject, body string) (string, int) {
	text := normalizeEmailText(subject, body)
	for _, r := range categoryRules {
		if r.matches(text) {
			return r.label, matchedCategoryConfidence
		}
	}
	return "Other", otherCategoryConfidence
}

// ClassifyPriority returns "high", "medium" or "low".
func ClassifyPriority(subject, body string) string {
	text := normalizeEmailText(subject, body)
	for _, r := range priorityRules {
		if r.matches(text) {
			return r.label
		}
	}
	return "low"
}

// SummarizeEmail collapses whitespace and cuts the body to maxLength
// characters, preferring to end on a full stop. A non-positive maxLength uses
// SummaryMaxLength.
func SummarizeEmail(body string, maxLength int) string {
	text := strings.Join(strings.Fields(body), " ")
	if text == "" {
		return "No message body provided."
	}
	if maxLength <= 0 {
		maxLength = SummaryMaxLength
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	truncated := string(runes[:maxLength-1])
	if i := strings.LastIndex(truncated, "."); i >= 0 {
		return strings.TrimSpace(truncated[:i]) + "."
	}
	return strings.TrimSpace(truncated) + "..."
}

// Analyze runs the category, priority and summary heuristics. An empty
// suggestion is replaced by the generic acknowledgement reply.
func Analyze(email Email, suggestion string) Analysis {
	category, confidence := ClassifyCategory(email.Subject, email.Body)
	if suggestion == "" {
		suggestion = defaultReplySuggestion
	}
	return Analysis{
		Category:          category,
		Priority:          ClassifyPriority(email.Subject, email.Body),
		Summary:           SummarizeEmail(email.Body, SummaryMaxLength),
		Confidence:        confidence,
		AIReplySuggestion: suggestion,
	}
}

// ExplainEmail explains a suggested reply for an email.
func ExplainEmail(email Email, a Analysis) types.Explanation {
	base := 68
	if strings.ToLower(a.Priority) == "high" {
		base = 80
	}
	return BuildExplanation(ExplanationInput{
		ActionType:   "AI reply",
		Subject:      email.Subject,
		Body:         email.Body,
		Summary:      a.Summary,
		Category:     a.Category,
		Priority:     a.Priority,
		AISuggestion: a.AIReplySuggestion,
		BaseScore:    &base,
	})
}

// ExplainLead explains a lead-stage decision from the lead's latest email.
func ExplainLead(lead Lead, email Email, a Analysis) types.Explanation {
	base := lead.Score
	if base == 0 {
		base = 70
	}
	return BuildExplanation(ExplanationInput{
		ActionType:   "lead decision",
		Subject:      email.Subject,
		Body:         email.Body,
		Summary:      a.Summary,
		Category:     a.Category,
		Priority:     a.Priority,
		AISuggestion: a.AIReplySuggestion,
		BaseScore:    &base,
	})
}
