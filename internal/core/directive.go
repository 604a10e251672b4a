package core

import (
	"strings"
)

// Directive grammar of the policy engine's raw output. A directive, when
// present, occupies the first line; the action-required token may occur
// anywhere in the text.
const (
	escalatePrefix = "NEEDS_HUMAN_REVIEW:"
	spamPrefix     = "SPAM_DETECTED:"
	actionToken    = "ACTION_REQUIRED:"
)

// ParseDirective sniffs raw policy-engine text for the directive
// grammar. A directive token appearing anywhere other than its expected
// position is ordinary body text and passes through verbatim.
func ParseDirective(raw string) Directive {
	d := Directive{Kind: DirectiveNone, CleanBody: raw}

	if strings.HasPrefix(raw, escalatePrefix) {
		firstLine, rest, _ := strings.Cut(raw, "\n")
		d.Kind = DirectiveEscalate
		d.Reason = strings.TrimSpace(strings.TrimPrefix(firstLine, escalatePrefix))
		d.CleanBody = strings.TrimSpace(rest)
	} else if strings.HasPrefix(raw, spamPrefix) {
		firstLine, _, _ := strings.Cut(raw, "\n")
		d.Kind = DirectiveSpam
		d.Reason = strings.TrimSpace(strings.TrimPrefix(firstLine, spamPrefix))
	}

	// Not line-anchored; can coexist with a clean body that still
	// contains the token.
	if strings.Contains(raw, actionToken) {
		d.ActionRequired = true
	}

	return d
}
