package core

import (
	"strings"
)

// IntentClassifier is the deterministic, keyword-driven categorizer.
// Identical (body, subject) inputs always yield an identical
// Classification: no randomness, no external calls.
type IntentClassifier struct {
	spamKeywords []string
	intentRules  []IntentRule
}

// NewIntentClassifier builds a classifier from the given rule set.
func NewIntentClassifier(rules *Rules) *IntentClassifier {
	normalized := make([]IntentRule, len(rules.IntentRules))
	for i, rule := range rules.IntentRules {
		normalized[i] = IntentRule{Intent: rule.Intent, Keywords: foldAll(rule.Keywords)}
	}
	return &IntentClassifier{
		spamKeywords: foldAll(rules.SpamKeywords),
		intentRules:  normalized,
	}
}

// Classify categorizes a message body and subject. The spam gate runs
// first and returns immediately on any match. Otherwise intent rules are
// scanned in declaration order and the first rule with a match decides
// the primary intent; no match at all resolves to general.
func (c *IntentClassifier) Classify(body, subject string) Classification {
	text := fold.String(body + " " + subject)

	for _, keyword := range c.spamKeywords {
		if strings.Contains(text, keyword) {
			return Classification{
				IsSpam:     true,
				Intent:     IntentSpam,
				Confidence: 0.9,
			}
		}
	}

	var matched []Intent
	for _, rule := range c.intentRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				matched = append(matched, rule.Intent)
				break
			}
		}
	}

	primary := IntentGeneral
	if len(matched) > 0 {
		primary = matched[0]
	}
	return Classification{
		IsSpam:         false,
		Intent:         primary,
		Confidence:     0.7,
		MatchedIntents: matched,
	}
}
