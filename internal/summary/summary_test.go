package summary

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
)

type fakeReporter struct {
	stats core.ActivityStats
}

func (r *fakeReporter) Stats(ctx context.Context, since time.Time) (*core.ActivityStats, error) {
	copied := r.stats
	return &copied, nil
}

type fakeLog struct {
	last time.Time
}

func (l *fakeLog) LastSummarySent(ctx context.Context) (time.Time, error) { return l.last, nil }

func (l *fakeLog) RecordSummarySent(ctx context.Context, sentAt time.Time) error {
	l.last = sentAt
	return nil
}

type fakeMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMail) Authenticate(ctx context.Context) error { return nil }

func (m *fakeMail) FetchUnread(ctx context.Context, limit int) ([]core.InboundMessage, error) {
	return nil, nil
}

func (m *fakeMail) SendReply(ctx context.Context, to, subject, body, inReplyTo string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

func (m *fakeMail) MarkRead(ctx context.Context, messageID string) error { return nil }

type fakeNotifier struct {
	summaries int
}

func (n *fakeNotifier) NotifyReviewNeeded(ctx context.Context, item *core.EscalationItem) error {
	return nil
}

func (n *fakeNotifier) NotifyError(ctx context.Context, errMsg, contextInfo string) error {
	return nil
}

func (n *fakeNotifier) NotifySummary(ctx context.Context, stats *core.ActivityStats) error {
	n.summaries++
	return nil
}

func newTestService(t *testing.T, log *fakeLog, mail *fakeMail, notifier *fakeNotifier) *Service {
	t.Helper()
	svc, err := NewService(
		&fakeReporter{stats: core.ActivityStats{TotalProcessed: 10, RepliesSent: 8}},
		log, mail, notifier,
		"ops@animeempire.com", "Anime Empire", "UTC", 18,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestDue(t *testing.T) {
	at := func(day, hour int) time.Time {
		return time.Date(2025, 6, day, hour, 30, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		last time.Time
		now  time.Time
		want bool
	}{
		{"outside send hour", time.Time{}, at(2, 9), false},
		{"never sent, in send hour", time.Time{}, at(2, 18), true},
		{"already sent today", at(2, 18), at(2, 18), false},
		{"sent yesterday", at(1, 18), at(2, 18), true},
		{"restart later in the same hour", at(2, 18), time.Date(2025, 6, 2, 18, 55, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &fakeLog{last: tt.last}, &fakeMail{}, &fakeNotifier{})
			due, err := svc.Due(context.Background(), tt.now)
			if err != nil {
				t.Fatalf("Due: %v", err)
			}
			if due != tt.want {
				t.Errorf("Due(%v) = %v, want %v", tt.now, due, tt.want)
			}
		})
	}
}

func TestSendRecordsAndDelivers(t *testing.T) {
	log := &fakeLog{}
	mail := &fakeMail{}
	notifier := &fakeNotifier{}
	svc := newTestService(t, log, mail, notifier)

	now := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)
	if err := svc.Send(context.Background(), now); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if mail.to != "ops@animeempire.com" {
		t.Errorf("recipient = %q", mail.to)
	}
	if !strings.Contains(mail.subject, "June 2, 2025") {
		t.Errorf("subject = %q, want the report date", mail.subject)
	}
	if !strings.Contains(mail.body, "Anime Empire") {
		t.Error("report body missing store name")
	}
	if !strings.Contains(mail.body, "80.0") {
		t.Error("report body missing automation rate")
	}
	if !log.last.Equal(now) {
		t.Errorf("recorded send time = %v, want %v", log.last, now)
	}
	if notifier.summaries != 1 {
		t.Errorf("slack summaries = %d, want 1", notifier.summaries)
	}

	// The same hour is no longer due after the send.
	due, err := svc.Due(context.Background(), now.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if due {
		t.Error("summary still due immediately after a send")
	}
}

func TestNewServiceRejectsBadTimezone(t *testing.T) {
	_, err := NewService(
		&fakeReporter{}, &fakeLog{}, &fakeMail{}, &fakeNotifier{},
		"ops@animeempire.com", "Anime Empire", "Not/AZone", 18,
		zap.NewNop(),
	)
	if err == nil {
		t.Fatal("expected an error for an invalid timezone")
	}
}
