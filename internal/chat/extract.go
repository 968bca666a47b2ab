// Package chat runs website chat conversations and captures the visitor as a
// lead exactly once, as soon as an email address shows up.
package chat

import (
	"regexp"
	"strings"

	"github.com/matthewbaird/leadpilot/internal/types"
)

var (
	emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)name\s*[:\-]\s*([A-Za-z][A-Za-z\s'-]+)`),
		regexp.MustCompile(`(?i)(?:i am|i'm)\s+([A-Za-z][A-Za-z\s'-]+)`),
	}
	companyPattern = regexp.MustCompile(`(?i)company\s*[:\-]\s*([A-Za-z0-9&\s.'-]+)`)
)

// ExtractEmail returns the first email address in text.
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractName returns the name given as "name: X" or, failing that,
// "I am X" / "I'm X".
func ExtractName(text string) string {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ExtractCompany returns the company given as "company: X".
func ExtractCompany(text string) string {
	if m := companyPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// MergeLead folds one user turn into lead. Fields that are already set are
// never overwritten, and Message keeps the first turn's text.
func MergeLead(lead types.ChatLead, turn string) types.ChatLead {
	if lead.Message == "" {
		lead.Message = turn
	}
	if lead.Email == "" {
		lead.Email = ExtractEmail(turn)
	}
	if lead.Name == "" {
		lead.Name = ExtractName(turn)
	}
	if lead.Company == "" {
		lead.Company = ExtractCompany(turn)
	}
	return lead
}
