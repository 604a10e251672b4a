package core

import "testing"

func TestClassifySender(t *testing.T) {
	filter := NewSenderFilter(DefaultRules())

	tests := []struct {
		name       string
		email      string
		senderName string
		wantBlock  bool
		wantReason string
	}{
		{
			name:       "regular customer",
			email:      "jane@gmail.com",
			senderName: "Jane Doe",
			wantBlock:  false,
		},
		{
			name:       "aliexpress domain",
			email:      "orders@aliexpress.com",
			senderName: "AliExpress",
			wantBlock:  true,
			wantReason: "Blocked domain: aliexpress.com",
		},
		{
			name:       "noreply fragment in address",
			email:      "noreply@somestore.com",
			senderName: "Some Store",
			wantBlock:  true,
			wantReason: "Blocked domain: noreply",
		},
		{
			name:       "case insensitive domain match",
			email:      "Alerts@Shopify.com",
			senderName: "Shopify",
			wantBlock:  true,
			wantReason: "Blocked domain: shopify.com",
		},
		{
			name:       "keyword in display name",
			email:      "updates@example.com",
			senderName: "Shopify Notification Center",
			wantBlock:  true,
			wantReason: "Blocked keyword: shopify notification",
		},
		{
			name:       "keyword match is case folded",
			email:      "info@example.com",
			senderName: "AUTOMATIC NOTIFICATION",
			wantBlock:  true,
			wantReason: "Blocked keyword: automatic notification",
		},
		{
			name:       "customer mentioning shopify in name is fine",
			email:      "jane@gmail.com",
			senderName: "Jane",
			wantBlock:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, reason := filter.ClassifySender(tt.email, tt.senderName)
			if blocked != tt.wantBlock {
				t.Errorf("ClassifySender(%q, %q) blocked = %v, want %v", tt.email, tt.senderName, blocked, tt.wantBlock)
			}
			if tt.wantBlock && reason != tt.wantReason {
				t.Errorf("ClassifySender(%q, %q) reason = %q, want %q", tt.email, tt.senderName, reason, tt.wantReason)
			}
			if !tt.wantBlock && reason != "" {
				t.Errorf("expected empty reason for unblocked sender, got %q", reason)
			}
		})
	}
}

func TestDomainRuleBeatsKeywordRule(t *testing.T) {
	filter := NewSenderFilter(DefaultRules())

	// Matches both a blocked domain and a blocked keyword; the domain
	// list is evaluated first, and earlier entries win within it.
	blocked, reason := filter.ClassifySender("alerts@myshopify.com", "Shopify Alert")
	if !blocked {
		t.Fatal("expected sender to be blocked")
	}
	if reason != "Blocked domain: shopify.com" {
		t.Errorf("expected domain reason to win, got %q", reason)
	}
}
