package core

import (
	"regexp"
)

// Order number pattern priority: a hash-prefixed token anywhere in the
// text beats an "order 1234" phrase, which beats a bare 4-6 digit
// number. Each pattern is tried across the whole text before the next
// is attempted.
var orderNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`#(\d{4,6})`),
	regexp.MustCompile(`(?i)order\s*#?\s*(\d{4,6})`),
	regexp.MustCompile(`\b(\d{4,6})\b`),
}

// ExtractOrderNumber pulls an order number out of free text, returning
// the empty string when none of the patterns match.
func ExtractOrderNumber(text string) string {
	for _, pattern := range orderNumberPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
