package core

import (
	"context"
	"time"
)

// MailTransport defines the contract with the support mailbox. All
// calls are synchronous; implementations cache authentication tokens
// internally and refresh them lazily.
type MailTransport interface {
	// Authenticate establishes or refreshes the transport session.
	Authenticate(ctx context.Context) error

	// FetchUnread returns up to limit unread messages, most recent first.
	FetchUnread(ctx context.Context, limit int) ([]InboundMessage, error)

	// SendReply sends a reply. When inReplyTo is non-empty the message is
	// threaded onto that original message.
	SendReply(ctx context.Context, to, subject, body, inReplyTo string) error

	// MarkRead marks a message as read so it is not fetched again.
	MarkRead(ctx context.Context, messageID string) error
}

// OrderStore defines the contract with the commerce backend.
type OrderStore interface {
	// FindByNumber returns the order with the given number, or nil when
	// no such order exists.
	FindByNumber(ctx context.Context, orderNumber string) (*OrderSnapshot, error)

	// FindBySender returns up to limit orders for the given customer
	// email, most recent first.
	FindBySender(ctx context.Context, email string, limit int) ([]OrderSnapshot, error)

	// UpdateShippingAddress rewrites the shipping address of an
	// unfulfilled order.
	UpdateShippingAddress(ctx context.Context, orderID string, address map[string]string) error
}

// PolicyEngine produces the customer-facing response text for a message.
// The returned text may begin with a directive per the grammar parsed by
// ParseDirective; no structured return shape is guaranteed beyond that.
type PolicyEngine interface {
	Generate(ctx context.Context, pctx *PolicyContext) (string, error)
}

// Notifier pushes alerts to the operations channel. Calls are fire and
// forget: failures are logged by implementations but never escalated.
type Notifier interface {
	NotifyReviewNeeded(ctx context.Context, item *EscalationItem) error
	NotifyError(ctx context.Context, errMsg, contextInfo string) error
	NotifySummary(ctx context.Context, stats *ActivityStats) error
}

// Ledger is the append-only idempotency record. Record must fail on a
// duplicate message id; Seen is the gate consulted before any other
// pipeline work.
type Ledger interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	Record(ctx context.Context, entry *LedgerEntry) error
}

// EscalationQueue is the durable human-review backlog.
type EscalationQueue interface {
	// Enqueue inserts one pending item and returns its assigned id.
	Enqueue(ctx context.Context, item *EscalationItem) (int64, error)

	// ListPending returns pending items ordered by priority descending
	// (high, medium, low) then creation time ascending.
	ListPending(ctx context.Context) ([]EscalationItem, error)

	// Get returns one item by id, or nil when it does not exist.
	Get(ctx context.Context, id int64) (*EscalationItem, error)

	// Resolve transitions an item from pending to resolved, stamping the
	// resolution time and actor. Resolving an already-resolved or
	// nonexistent id is a no-op.
	Resolve(ctx context.Context, id int64, resolvedBy string) error
}

// Reporter exposes aggregate outcomes for the dashboard and the daily
// summary.
type Reporter interface {
	// Stats aggregates activity since the given time. Pending counts and
	// items are totals, not windowed.
	Stats(ctx context.Context, since time.Time) (*ActivityStats, error)
}

// SummaryLog persists when the daily summary was last sent so the
// schedule survives process restarts.
type SummaryLog interface {
	LastSummarySent(ctx context.Context) (time.Time, error)
	RecordSummarySent(ctx context.Context, sentAt time.Time) error
}
