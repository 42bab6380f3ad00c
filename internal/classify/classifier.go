package classify

import (
	"sort"
	"strings"
)

// FallbackType is assigned when no configured keyword matches.
const FallbackType = "other"

// Classifier assigns task-type labels to emails using keyword matching
type Classifier struct {
	keywords map[string][]string
}

// NewClassifier creates a classifier over a label -> keywords taxonomy
func NewClassifier(keywords map[string][]string) *Classifier {
	return &Classifier{keywords: keywords}
}

// DetectTypes returns every label with a keyword occurring in the subject or
// body. Matching is case-insensitive substring matching, so "exam" also
// fires inside "example". Labels are sorted; no match yields ["other"].
func (c *Classifier) DetectTypes(subject, body string) []string {
	content := strings.ToLower(subject + " " + body)

	var types []string
	for label, words := range c.keywords {
		for _, kw := range words {
			if kw == "" {
				continue
			}
			if strings.Contains(content, strings.ToLower(kw)) {
				types = append(types, label)
				break
			}
		}
	}

	if len(types) == 0 {
		return []string{FallbackType}
	}

	sort.Strings(types)
	return types
}
