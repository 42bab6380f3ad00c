package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DueDateDetector extracts due dates from email text
type DueDateDetector struct {
	patterns []*datePattern
}

type datePattern struct {
	Regex *regexp.Regexp
	Parse func(match []string) (time.Time, bool)
}

// NewDueDateDetector creates a new due date detector
func NewDueDateDetector() *DueDateDetector {
	return &DueDateDetector{
		patterns: []*datePattern{
			// Numeric dates (12/31/2024, 31-12-2024, 5/6/25)
			{
				Regex: regexp.MustCompile(`\b(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})\b`),
				Parse: parseNumericDate,
			},
			// Textual dates (15 March 2025, 1st February 2025, 3 Sep 2025)
			{
				Regex: regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?,?\s+(\d{4})\b`),
				Parse: parseTextualDate,
			},
		},
	}
}

// ParseDueDate returns the first valid date found in text as YYYY-MM-DD.
// Calendar-invalid matches are skipped and scanning continues; absence of a
// date is not an error.
func (d *DueDateDetector) ParseDueDate(text string) (string, bool) {
	for _, pattern := range d.patterns {
		matches := pattern.Regex.FindAllStringSubmatch(text, -1)
		for _, match := range matches {
			if due, ok := pattern.Parse(match); ok {
				return due.Format("2006-01-02"), true
			}
		}
	}
	return "", false
}

// parseNumericDate tries month-first order, then day-first, so both
// 12/31/2024 and 31/12/2024 resolve to December 31.
func parseNumericDate(match []string) (time.Time, bool) {
	first, _ := strconv.Atoi(match[1])
	second, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])
	if year < 100 {
		year += 2000
	}

	if t, ok := makeDate(year, first, second); ok {
		return t, true
	}
	return makeDate(year, second, first)
}

func parseTextualDate(match []string) (time.Time, bool) {
	day, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[3])

	prefix := strings.ToLower(match[2])
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	month, ok := monthsByPrefix[prefix]
	if !ok {
		return time.Time{}, false
	}

	return makeDate(year, int(month), day)
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// makeDate rejects values time.Date would silently normalize (Feb 31).
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
