package filter

import (
	"strings"

	"inbox2notion/internal/config"
)

// Filter suppresses emails matching the configured ignore rules
type Filter struct {
	emails   []string
	domains  []string
	subjects []string
}

// New creates a filter from ignore rules, normalizing for case-insensitive
// matching
func New(rules config.IgnoreRules) *Filter {
	return &Filter{
		emails:   lowerAll(rules.Emails),
		domains:  lowerAll(rules.Domains),
		subjects: lowerAll(rules.Subjects),
	}
}

// ShouldIgnore reports whether a message from sender with subject matches
// any ignore rule. Checks the sender address, then its domain, then subject
// phrases, short-circuiting on the first hit.
func (f *Filter) ShouldIgnore(sender, subject string) bool {
	senderLower := strings.ToLower(strings.TrimSpace(sender))
	for _, addr := range f.emails {
		if senderLower == addr {
			return true
		}
	}

	if domain := domainOf(senderLower); domain != "" {
		for _, d := range f.domains {
			if domain == d {
				return true
			}
		}
	}

	subjectLower := strings.ToLower(subject)
	for _, phrase := range f.subjects {
		if phrase != "" && strings.Contains(subjectLower, phrase) {
			return true
		}
	}

	return false
}

// domainOf returns the part after the last @, empty when there is none
func domainOf(addr string) string {
	idx := strings.LastIndex(addr, "@")
	if idx < 0 || idx == len(addr)-1 {
		return ""
	}
	return addr[idx+1:]
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}
