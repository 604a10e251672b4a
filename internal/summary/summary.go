// Package summary produces and schedules the daily activity report.
package summary

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
)

const reportTemplate = `<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; text-align: center; }
.stats { background: #f8f9fa; padding: 20px; border-radius: 0 0 10px 10px; margin-bottom: 20px; }
.stat-row { display: flex; justify-content: space-between; padding: 10px 0; border-bottom: 1px solid #dee2e6; }
.stat-label { font-weight: bold; }
.stat-value { font-size: 1.2em; color: #667eea; }
.automation-rate { font-size: 2em; color: #28a745; text-align: center; margin: 20px 0; }
ul { list-style-type: none; padding-left: 0; }
li { padding: 10px; margin: 5px 0; background: white; border-left: 3px solid #667eea; }
.footer { text-align: center; color: #6c757d; font-size: 0.9em; margin-top: 20px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>🤖 Daily Support Bot Summary</h1>
    <p>{{.ReportDate}}</p>
  </div>
  <div class="stats">
    <div class="stat-row"><span class="stat-label">📧 Total Emails Processed</span><span class="stat-value">{{.Stats.TotalProcessed}}</span></div>
    <div class="stat-row"><span class="stat-label">✅ AI Responses Sent</span><span class="stat-value">{{.Stats.RepliesSent}}</span></div>
    <div class="stat-row"><span class="stat-label">🚫 Spam Filtered</span><span class="stat-value">{{.Stats.SpamFiltered}}</span></div>
    <div class="stat-row"><span class="stat-label">🚩 Flagged for Review (24h)</span><span class="stat-value">{{.Stats.Flagged}}</span></div>
    <div class="stat-row"><span class="stat-label">📋 Pending Reviews (Total)</span><span class="stat-value">{{.Stats.PendingReviews}}</span></div>
  </div>
  <div class="automation-rate">📈 Automation Rate: {{printf "%.1f" .AutomationRate}}%</div>
  {{if .Stats.PendingItems}}
  <h3>Pending Reviews:</h3>
  <ul>
  {{range .Stats.PendingItems}}
    <li>{{priorityEmoji .Priority}} <strong>Order #{{.OrderNumber}}</strong> - {{.SenderEmail}}<br><small>{{.Reason}}</small></li>
  {{end}}
  </ul>
  {{else}}
  <p style="color: #28a745;">✅ No pending reviews - all caught up!</p>
  {{end}}
  <div class="footer">
    <p>This summary covers the last 24 hours of bot activity.</p>
    <p>Powered by {{.StoreName}} Support Bot</p>
  </div>
</div>
</body>
</html>`

var tmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"priorityEmoji": func(p core.Priority) string {
		switch p {
		case core.PriorityHigh:
			return "🔴"
		case core.PriorityLow:
			return "🟢"
		default:
			return "🟡"
		}
	},
}).Parse(reportTemplate))

// Service assembles the daily report and decides when it is due.
type Service struct {
	reporter  core.Reporter
	log       core.SummaryLog
	mail      core.MailTransport
	notifier  core.Notifier
	recipient string
	storeName string
	hour      int
	location  *time.Location
	logger    *zap.Logger
}

// NewService creates a new summary service. tzName must be an IANA
// timezone name.
func NewService(
	reporter core.Reporter,
	log core.SummaryLog,
	mail core.MailTransport,
	notifier core.Notifier,
	recipient, storeName, tzName string,
	hour int,
	logger *zap.Logger,
) (*Service, error) {
	location, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid summary timezone %q: %w", tzName, err)
	}
	return &Service{
		reporter:  reporter,
		log:       log,
		mail:      mail,
		notifier:  notifier,
		recipient: recipient,
		storeName: storeName,
		hour:      hour,
		location:  location,
		logger:    logger,
	}, nil
}

// Due reports whether a summary should be sent now. The last send is
// read from the store, so a restart inside the send hour cannot cause
// a duplicate and a crash before the send hour does not lose the run.
func (s *Service) Due(ctx context.Context, now time.Time) (bool, error) {
	local := now.In(s.location)
	if local.Hour() != s.hour {
		return false, nil
	}

	last, err := s.log.LastSummarySent(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read last summary time: %w", err)
	}
	if last.IsZero() {
		return true, nil
	}

	lastLocal := last.In(s.location)
	sameDay := lastLocal.Year() == local.Year() && lastLocal.YearDay() == local.YearDay()
	return !sameDay, nil
}

// Send builds and delivers the report for the 24 hours before now, then
// records the send.
func (s *Service) Send(ctx context.Context, now time.Time) error {
	stats, err := s.reporter.Stats(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to gather summary stats: %w", err)
	}

	local := now.In(s.location)
	reportDate := local.Format("January 2, 2006")

	var body bytes.Buffer
	err = tmpl.Execute(&body, struct {
		ReportDate     string
		Stats          *core.ActivityStats
		AutomationRate float64
		StoreName      string
	}{
		ReportDate:     reportDate,
		Stats:          stats,
		AutomationRate: stats.AutomationRate(),
		StoreName:      s.storeName,
	})
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	subject := fmt.Sprintf("📊 Daily Support Bot Summary - %s", reportDate)
	if err := s.mail.SendReply(ctx, s.recipient, subject, body.String(), ""); err != nil {
		return fmt.Errorf("failed to send summary email: %w", err)
	}

	if err := s.log.RecordSummarySent(ctx, now); err != nil {
		return fmt.Errorf("failed to record summary send: %w", err)
	}

	// Slack gets the same numbers. A webhook failure is not worth
	// failing the run over.
	if err := s.notifier.NotifySummary(ctx, stats); err != nil {
		s.logger.Warn("Failed to post summary to Slack", zap.Error(err))
	}

	s.logger.Info("Daily summary sent",
		zap.String("recipient", s.recipient),
		zap.Int("total_processed", stats.TotalProcessed),
		zap.Int("pending_reviews", stats.PendingReviews))
	return nil
}

// RunIfDue sends the summary when it is due. Errors short of a send
// failure are returned to the caller for logging.
func (s *Service) RunIfDue(ctx context.Context, now time.Time) error {
	due, err := s.Due(ctx, now)
	if err != nil {
		return err
	}
	if !due {
		return nil
	}
	return s.Send(ctx, now)
}
