package core

import "testing"

func TestParseDirective(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantKind   DirectiveKind
		wantReason string
		wantAction bool
		wantClean  string
	}{
		{
			name:      "plain reply",
			raw:       "Hi Jane,\n\nYour order shipped yesterday.",
			wantKind:  DirectiveNone,
			wantClean: "Hi Jane,\n\nYour order shipped yesterday.",
		},
		{
			name:       "escalation strips first line",
			raw:        "NEEDS_HUMAN_REVIEW: Not received - Order #1234 - 9 days overdue\nHi Jane,\n\nThanks for your patience.",
			wantKind:   DirectiveEscalate,
			wantReason: "Not received - Order #1234 - 9 days overdue",
			wantClean:  "Hi Jane,\n\nThanks for your patience.",
		},
		{
			name:       "escalation with no draft",
			raw:        "NEEDS_HUMAN_REVIEW: Unfulfilled - Order #4567",
			wantKind:   DirectiveEscalate,
			wantReason: "Unfulfilled - Order #4567",
			wantClean:  "",
		},
		{
			name:       "spam keeps body verbatim",
			raw:        "SPAM_DETECTED: SEO cold outreach\nNothing else matters here.",
			wantKind:   DirectiveSpam,
			wantReason: "SEO cold outreach",
			wantClean:  "SPAM_DETECTED: SEO cold outreach\nNothing else matters here.",
		},
		{
			name:       "action token anywhere",
			raw:        "Hi Jane,\n\nACTION_REQUIRED: update_address to 12 Oak St.\n\nAll set!",
			wantKind:   DirectiveNone,
			wantAction: true,
			wantClean:  "Hi Jane,\n\nACTION_REQUIRED: update_address to 12 Oak St.\n\nAll set!",
		},
		{
			name:       "escalation and action coexist",
			raw:        "NEEDS_HUMAN_REVIEW: Unfulfilled - Order #4567\nACTION_REQUIRED: update_address\nDraft follows.",
			wantKind:   DirectiveEscalate,
			wantReason: "Unfulfilled - Order #4567",
			wantAction: true,
			wantClean:  "ACTION_REQUIRED: update_address\nDraft follows.",
		},
		{
			name:      "escalation token mid body is plain text",
			raw:       "Hello,\nNEEDS_HUMAN_REVIEW: just quoting the bot here\nBye.",
			wantKind:  DirectiveNone,
			wantClean: "Hello,\nNEEDS_HUMAN_REVIEW: just quoting the bot here\nBye.",
		},
		{
			name:      "spam token mid text is plain text",
			raw:       "The phrase SPAM_DETECTED: appears in our docs.",
			wantKind:  DirectiveNone,
			wantClean: "The phrase SPAM_DETECTED: appears in our docs.",
		},
		{
			name:       "escalation wins over later spam token",
			raw:        "NEEDS_HUMAN_REVIEW: odd one\nSPAM_DETECTED: nope",
			wantKind:   DirectiveEscalate,
			wantReason: "odd one",
			wantClean:  "SPAM_DETECTED: nope",
		},
		{
			name:      "empty input",
			raw:       "",
			wantKind:  DirectiveNone,
			wantClean: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDirective(tt.raw)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if got.ActionRequired != tt.wantAction {
				t.Errorf("ActionRequired = %v, want %v", got.ActionRequired, tt.wantAction)
			}
			if got.CleanBody != tt.wantClean {
				t.Errorf("CleanBody = %q, want %q", got.CleanBody, tt.wantClean)
			}
		})
	}
}
