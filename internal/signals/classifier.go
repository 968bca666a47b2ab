package signals

import "strings"

// Match is the label and weight selected from a rule table.
type Match struct {
	Label  string `json:"label"`
	Weight int    `json:"weight"`
}

// Signals is the output of ExtractSignals.
type Signals struct {
	Intent   Match    `json:"intent"`
	Urgency  Match    `json:"urgency"`
	Keywords []string `json:"keywords"`
}

// ExtractSignals runs keyword, intent and urgency detection over text.
// fallback is the intent label used when no intent rule matches; priority is
// an explicit urgency hint that overrides pattern matches.
func ExtractSignals(text, fallback, priority string) Signals {
	return Signals{
		Intent:   DetectIntent(text, fallback),
		Urgency:  DetectUrgency(text, priority),
		Keywords: TopKeywords(text),
	}
}

// TopKeywords returns up to MaxKeywords vocabulary entries contained in text,
// in vocabulary order.
func TopKeywords(text string) []string {
	normalized := strings.ToLower(text)
	matches := make([]string, 0, MaxKeywords)
	for _, token := range KeywordVocabulary {
		if len(matches) == MaxKeywords {
			break
		}
		if strings.Contains(normalized, token) {
			matches = append(matches, token)
		}
	}
	return matches
}

// DetectIntent selects the heaviest matching intent rule. An empty fallback
// means DefaultIntentLabel.
func DetectIntent(text, fallback string) Match {
	if fallback == "" {
		fallback = DefaultIntentLabel
	}
	return selectRule(IntentRules, text, Match{Label: fallback, Weight: DefaultIntentWeight})
}

// DetectUrgency selects the heaviest matching urgency rule unless priority
// is "high" or "low" (any case), which wins outright.
func DetectUrgency(text, priority string) Match {
	switch strings.ToLower(priority) {
	case "high":
		return Match{Label: "High", Weight: 20}
	case "low":
		return Match{Label: "Low", Weight: 4}
	}
	return selectRule(UrgencyRules, text, Match{Label: DefaultUrgencyLabel, Weight: DefaultUrgencyWeight})
}

// selectRule walks rules in table order and replaces the selection only on a
// strictly greater weight. The first rule wins among equal weights.
func selectRule(rules []Rule, text string, selected Match) Match {
	for _, rule := range rules {
		if rule.Weight > selected.Weight && rule.Matches(text) {
			selected = Match{Label: rule.Label, Weight: rule.Weight}
		}
	}
	return selected
}
