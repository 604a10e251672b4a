package core

import (
	"time"
)

// InboundMessage represents one unread message fetched from the mail
// transport. It is immutable once fetched; the pipeline never mutates it.
type InboundMessage struct {
	ID          string
	SenderEmail string
	SenderName  string
	Subject     string
	Body        string
	ReceivedAt  time.Time
}

// Intent is a coarse category describing why a customer wrote in.
type Intent string

const (
	IntentTracking      Intent = "tracking"
	IntentReturnRefund  Intent = "return_refund"
	IntentDefective     Intent = "defective"
	IntentAddressChange Intent = "address_change"
	IntentSizing        Intent = "sizing"
	IntentGeneral       Intent = "general"
	IntentSpam          Intent = "spam"
	IntentBlockedSender Intent = "blocked_sender"
)

// Classification is the deterministic output of the intent classifier
// for a given (body, subject) pair. It carries no identity and is never
// persisted on its own.
type Classification struct {
	IsSpam         bool
	Intent         Intent
	Confidence     float64
	MatchedIntents []Intent
}

// TrackingEntry is one shipment tracking record on an order.
type TrackingEntry struct {
	Carrier        string
	TrackingNumber string
	URL            string
	Status         string
}

// LineItem is one purchased item on an order.
type LineItem struct {
	Name     string
	Quantity int
}

// OrderSnapshot is a read-only view of one order, owned by the order
// store. The pipeline holds it only for the duration of one message.
type OrderSnapshot struct {
	OrderID           string
	OrderNumber       string
	CreatedAt         time.Time
	FulfillmentStatus string
	FinancialStatus   string
	TotalPrice        string
	Currency          string
	CustomerEmail     string
	CustomerName      string
	TrackingEntries   []TrackingEntry
	LineItems         []LineItem
}

// ExpectedDeliveryMax returns the end of the standard shipping window
// (order date plus fourteen days).
func (o *OrderSnapshot) ExpectedDeliveryMax() time.Time {
	return o.CreatedAt.AddDate(0, 0, 14)
}

// DaysPastExpected returns how many whole days the order is past its
// expected delivery window at the given time, never negative.
func (o *OrderSnapshot) DaysPastExpected(now time.Time) int {
	days := int(now.Sub(o.ExpectedDeliveryMax()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// DirectiveKind identifies the structured instruction embedded in
// otherwise free-form generated text.
type DirectiveKind string

const (
	DirectiveNone     DirectiveKind = "none"
	DirectiveEscalate DirectiveKind = "escalate"
	DirectiveSpam     DirectiveKind = "spam"
)

// Directive is the parsed result of sniffing generated text for the
// directive grammar. At most one of Escalate/Spam is meaningful per
// message; ActionRequired can coexist with either and with a clean body.
type Directive struct {
	Kind           DirectiveKind
	Reason         string
	ActionRequired bool
	CleanBody      string
}

// LedgerEntry records that one message id has been handled. A row is
// created exactly once per message id and never updated; its existence
// is the sole idempotency gate.
type LedgerEntry struct {
	MessageID   string
	SenderEmail string
	Subject     string
	ProcessedAt time.Time
	ReplySent   bool
	Escalated   bool
	OrderNumber string
	Intent      Intent
}

// Priority of an escalation item. Fixed at creation, never recomputed.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	// PriorityLow is never assigned automatically; it exists for manual
	// use of the queue.
	PriorityLow Priority = "low"
)

// EscalationStatus is the two-state lifecycle of a queue item.
type EscalationStatus string

const (
	StatusPending  EscalationStatus = "pending"
	StatusResolved EscalationStatus = "resolved"
)

// EscalationItem is one entry in the durable human-review backlog.
type EscalationItem struct {
	ID          int64
	MessageID   string
	OrderNumber string
	SenderEmail string
	Reason      string
	Priority    Priority
	CreatedAt   time.Time
	Status      EscalationStatus
	ResolvedAt  time.Time
	ResolvedBy  string
}

// Action is the terminal state the dispatcher assigns to a message.
// Every message reaches exactly one of these; there is no re-entry.
type Action string

const (
	ActionSkippedDuplicate Action = "skipped_duplicate"
	ActionBlocked          Action = "blocked"
	ActionSpam             Action = "spam"
	ActionEscalated        Action = "escalated"
	ActionSent             Action = "sent"
	ActionSendFailed       Action = "send_failed"
)

// PolicyContext is the structured context handed to the policy engine
// for one message. Adapters flatten it into provider-specific prompts.
type PolicyContext struct {
	CustomerName     string
	CustomerEmail    string
	Subject          string
	Body             string
	Order            *OrderSnapshot
	DaysPastExpected int
}

// ActivityStats summarizes pipeline outcomes for reporting.
type ActivityStats struct {
	TotalProcessed int
	RepliesSent    int
	SpamFiltered   int
	Flagged        int
	PendingReviews int
	ResolvedTotal  int
	PendingItems   []EscalationItem
}

// AutomationRate returns the percentage of processed messages that were
// answered automatically, 0 when nothing was processed.
func (s *ActivityStats) AutomationRate() float64 {
	if s.TotalProcessed == 0 {
		return 0
	}
	return float64(s.RepliesSent) / float64(s.TotalProcessed) * 100
}
