// Package signals provides the rule tables, text classifier, confidence scorer
// and explanation builder behind the AI explanation panel.
package signals

import "regexp"

// Rule is one entry of an ordered classification table. A rule matches when
// any of its patterns matches the text.
type Rule struct {
	Label    string
	Patterns []*regexp.Regexp
	Weight   int
}

// Matches reports whether any pattern of the rule matches text.
func (r Rule) Matches(text string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// patterns compiles case-insensitive expressions.
func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile("(?i)" + e)
	}
	return out
}

const (
	// DefaultIntentLabel is used when the caller supplies no fallback.
	DefaultIntentLabel  = "General request"
	DefaultIntentWeight = 6

	DefaultUrgencyLabel  = "Medium"
	DefaultUrgencyWeight = 10

	// MaxKeywords caps the keyword signal.
	MaxKeywords = 4
)

// IntentRules is evaluated in order. Among matching rules the strictly
// heaviest wins, so on equal weights the earlier rule is kept.
var IntentRules = []Rule{
	{Label: "Pricing inquiry", Patterns: patterns(`price`, `pricing`, `quote`, `budget`), Weight: 18},
	{Label: "Support request", Patterns: patterns(`issue`, `error`, `downtime`, `help`), Weight: 16},
	{Label: "Security review", Patterns: patterns(`security`, `soc2`, `compliance`, `questionnaire`), Weight: 17},
	{Label: "Onboarding", Patterns: patterns(`onboarding`, `migration`, `setup`), Weight: 12},
	{Label: "Expansion", Patterns: patterns(`upgrade`, `expansion`, `renewal`), Weight: 14},
}

// UrgencyRules follows the same selection as IntentRules.
var UrgencyRules = []Rule{
	{Label: "High", Patterns: patterns(`urgent`, `asap`, `today`, `immediately`), Weight: 20},
	{Label: "Medium", Patterns: patterns(`soon`, `this week`, `priority`), Weight: 12},
	{Label: "Low", Patterns: patterns(`whenever`, `later`, `next month`), Weight: 4},
}

// KeywordVocabulary is matched by substring against lower-cased text. Output
// keeps this order.
var KeywordVocabulary = []string{
	"pricing",
	"demo",
	"security",
	"downtime",
	"migration",
	"renewal",
	"urgent",
	"contract",
	"onboarding",
	"integration",
}
