package core

import (
	"strings"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// SenderFilter decides whether a message's origin should be ignored
// outright. It runs before any other pipeline step; a blocked sender
// short-circuits classification, order resolution and the policy engine.
type SenderFilter struct {
	domains  []string
	keywords []string
}

// NewSenderFilter builds a filter from the given rule set.
func NewSenderFilter(rules *Rules) *SenderFilter {
	return &SenderFilter{
		domains:  foldAll(rules.BlockedDomains),
		keywords: foldAll(rules.BlockedKeywords),
	}
}

func foldAll(fragments []string) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = fold.String(strings.TrimSpace(f))
	}
	return out
}

// ClassifySender reports whether the sender is blocked and, if so, the
// literal rule fragment that matched. The domain list is evaluated
// against the address first; the keyword list is then evaluated against
// display name and address. First match wins.
func (f *SenderFilter) ClassifySender(email, name string) (bool, string) {
	email = fold.String(email)
	name = fold.String(name)

	for _, domain := range f.domains {
		if strings.Contains(email, domain) {
			return true, "Blocked domain: " + domain
		}
	}
	for _, keyword := range f.keywords {
		if strings.Contains(name, keyword) || strings.Contains(email, keyword) {
			return true, "Blocked keyword: " + keyword
		}
	}
	return false, ""
}
