// Package slack pushes operational alerts to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
)

type attachment struct {
	Color  string  `json:"color"`
	Title  string  `json:"title"`
	Text   string  `json:"text"`
	Fields []field `json:"fields"`
	Footer string  `json:"footer"`
	Ts     int64   `json:"ts"`
}

type field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Notifier posts attachments to one webhook URL.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNotifier creates a new Slack notifier
func NewNotifier(webhookURL string, logger *zap.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// NotifyReviewNeeded announces a freshly queued escalation.
func (n *Notifier) NotifyReviewNeeded(ctx context.Context, item *core.EscalationItem) error {
	color, emoji := priorityStyle(item.Priority)
	fields := []field{
		{Title: "Order Number", Value: "#" + item.OrderNumber, Short: true},
		{Title: "Priority", Value: fmt.Sprintf("%s %s", emoji, strings.ToUpper(string(item.Priority))), Short: true},
		{Title: "Customer", Value: item.SenderEmail},
		{Title: "Reason", Value: item.Reason},
	}
	return n.post(ctx, attachment{
		Color:  color,
		Title:  "🚩 Human Review Needed",
		Text:   "A customer support email requires your attention",
		Fields: fields,
	})
}

// NotifyError announces a processing failure.
func (n *Notifier) NotifyError(ctx context.Context, errMsg, contextInfo string) error {
	fields := []field{{Title: "Error", Value: errMsg}}
	if contextInfo != "" {
		fields = append(fields, field{Title: "Context", Value: contextInfo})
	}
	return n.post(ctx, attachment{
		Color:  "#FF0000",
		Title:  "❌ Support Bot Error",
		Text:   "An error occurred in the support bot",
		Fields: fields,
	})
}

// NotifySummary posts the daily activity summary.
func (n *Notifier) NotifySummary(ctx context.Context, stats *core.ActivityStats) error {
	fields := []field{
		{Title: "Emails Processed", Value: fmt.Sprintf("%d", stats.TotalProcessed), Short: true},
		{Title: "AI Responses Sent", Value: fmt.Sprintf("%d", stats.RepliesSent), Short: true},
		{Title: "Automation Rate", Value: fmt.Sprintf("%.1f%%", stats.AutomationRate()), Short: true},
		{Title: "Pending Reviews", Value: fmt.Sprintf("%d", stats.PendingReviews), Short: true},
		{Title: "Spam Filtered", Value: fmt.Sprintf("%d", stats.SpamFiltered), Short: true},
		{Title: "Flagged For Review", Value: fmt.Sprintf("%d", stats.Flagged), Short: true},
	}
	return n.post(ctx, attachment{
		Color:  "#36A64F",
		Title:  "📊 Daily Support Summary",
		Text:   "Here is what the support bot handled today",
		Fields: fields,
	})
}

func (n *Notifier) post(ctx context.Context, att attachment) error {
	att.Footer = "Support Bot"
	att.Ts = time.Now().Unix()

	payload := map[string]interface{}{
		"attachments": []attachment{att},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, body)
	}
	return nil
}

func priorityStyle(p core.Priority) (color, emoji string) {
	switch p {
	case core.PriorityHigh:
		return "#FF0000", "🔴"
	case core.PriorityLow:
		return "#36A64F", "🟢"
	default:
		return "#FFD700", "🟡"
	}
}

// NopNotifier drops every notification. Used when Slack is disabled.
type NopNotifier struct{}

func (NopNotifier) NotifyReviewNeeded(ctx context.Context, item *core.EscalationItem) error {
	return nil
}
func (NopNotifier) NotifyError(ctx context.Context, errMsg, contextInfo string) error { return nil }
func (NopNotifier) NotifySummary(ctx context.Context, stats *core.ActivityStats) error {
	return nil
}

var (
	_ core.Notifier = (*Notifier)(nil)
	_ core.Notifier = NopNotifier{}
)
