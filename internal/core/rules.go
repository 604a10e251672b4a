package core

// IntentRule pairs an intent with the keyword fragments that signal it.
// Rule order is significant: the first rule with any match decides the
// primary intent.
type IntentRule struct {
	Intent   Intent
	Keywords []string
}

// Rules is the immutable rule data driving the sender filter and the
// intent classifier. It is built once at startup (from configuration or
// defaults) and injected, so tests can substitute alternate rule sets
// without touching logic.
type Rules struct {
	BlockedDomains  []string
	BlockedKeywords []string
	SpamKeywords    []string
	IntentRules     []IntentRule
}

// DefaultRules returns the production rule set: notification and
// marketing sender patterns, promotional/SEO phrasing, and the ordered
// intent keyword table.
func DefaultRules() *Rules {
	return &Rules{
		BlockedDomains: []string{
			"aliexpress.com",
			"shopify.com",
			"myshopify.com",
			"noreply",
			"no-reply",
			"donotreply",
			"notifications@",
			"marketing@",
			"sales@",
			"support@shopify",
			"alerts@",
		},
		BlockedKeywords: []string{
			"aliexpress",
			"shopify notification",
			"shopify alert",
			"automatic notification",
			"system notification",
		},
		SpamKeywords: []string{
			"seo service", "boost your sales", "increase traffic",
			"marketing service", "grow your business", "website optimization",
			"google ranking", "social media marketing", "advertising opportunity",
			"partner with us", "collaboration opportunity", "influencer",
			"backlinks", "web design", "app development", "consulting",
		},
		IntentRules: []IntentRule{
			{IntentTracking, []string{"where is my order", "tracking", "shipped", "delivery", "havent received", "not arrived"}},
			{IntentReturnRefund, []string{"return", "refund", "money back", "send back", "exchange"}},
			{IntentDefective, []string{"defective", "broken", "damaged", "wrong item", "missing", "torn"}},
			{IntentAddressChange, []string{"change address", "wrong address", "update address", "different address", "ship to"}},
			{IntentSizing, []string{"too small", "too big", "doesnt fit", "wrong size", "size issue", "fit"}},
			{IntentGeneral, []string{"question", "info", "how long", "when will", "sizing", "kids"}},
		},
	}
}
