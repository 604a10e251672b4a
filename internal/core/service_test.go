package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeMail struct {
	unread      []InboundMessage
	sent        []sentReply
	read        []string
	authErr     error
	fetchErr    error
	sendErr     error
	markReadErr error
}

type sentReply struct {
	to        string
	subject   string
	body      string
	inReplyTo string
}

func (m *fakeMail) Authenticate(ctx context.Context) error { return m.authErr }

func (m *fakeMail) FetchUnread(ctx context.Context, limit int) ([]InboundMessage, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if len(m.unread) > limit {
		return m.unread[:limit], nil
	}
	return m.unread, nil
}

func (m *fakeMail) SendReply(ctx context.Context, to, subject, body, inReplyTo string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentReply{to: to, subject: subject, body: body, inReplyTo: inReplyTo})
	return nil
}

func (m *fakeMail) MarkRead(ctx context.Context, messageID string) error {
	if m.markReadErr != nil {
		return m.markReadErr
	}
	m.read = append(m.read, messageID)
	return nil
}

type fakeOrders struct {
	byNumber map[string]*OrderSnapshot
	bySender map[string][]OrderSnapshot
}

func (o *fakeOrders) FindByNumber(ctx context.Context, orderNumber string) (*OrderSnapshot, error) {
	return o.byNumber[orderNumber], nil
}

func (o *fakeOrders) FindBySender(ctx context.Context, email string, limit int) ([]OrderSnapshot, error) {
	orders := o.bySender[email]
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (o *fakeOrders) UpdateShippingAddress(ctx context.Context, orderID string, address map[string]string) error {
	return nil
}

type fakeEngine struct {
	response string
	err      error
	lastCtx  *PolicyContext
}

func (e *fakeEngine) Generate(ctx context.Context, pctx *PolicyContext) (string, error) {
	e.lastCtx = pctx
	return e.response, e.err
}

type fakeNotifier struct {
	reviews []*EscalationItem
	errMsgs []string
}

func (n *fakeNotifier) NotifyReviewNeeded(ctx context.Context, item *EscalationItem) error {
	n.reviews = append(n.reviews, item)
	return nil
}

func (n *fakeNotifier) NotifyError(ctx context.Context, errMsg, contextInfo string) error {
	n.errMsgs = append(n.errMsgs, errMsg)
	return nil
}

func (n *fakeNotifier) NotifySummary(ctx context.Context, stats *ActivityStats) error { return nil }

type fakeLedger struct {
	entries map[string]*LedgerEntry
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]*LedgerEntry)}
}

func (l *fakeLedger) Seen(ctx context.Context, messageID string) (bool, error) {
	_, ok := l.entries[messageID]
	return ok, nil
}

func (l *fakeLedger) Record(ctx context.Context, entry *LedgerEntry) error {
	if _, ok := l.entries[entry.MessageID]; ok {
		return fmt.Errorf("message %s already recorded", entry.MessageID)
	}
	l.entries[entry.MessageID] = entry
	return nil
}

type fakeQueue struct {
	items  []*EscalationItem
	nextID int64
}

func (q *fakeQueue) Enqueue(ctx context.Context, item *EscalationItem) (int64, error) {
	q.nextID++
	stored := *item
	stored.ID = q.nextID
	q.items = append(q.items, &stored)
	return q.nextID, nil
}

func (q *fakeQueue) ListPending(ctx context.Context) ([]EscalationItem, error) {
	var pending []EscalationItem
	for _, item := range q.items {
		if item.Status == StatusPending {
			pending = append(pending, *item)
		}
	}
	return pending, nil
}

func (q *fakeQueue) Get(ctx context.Context, id int64) (*EscalationItem, error) {
	for _, item := range q.items {
		if item.ID == id {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (q *fakeQueue) Resolve(ctx context.Context, id int64, resolvedBy string) error {
	for _, item := range q.items {
		if item.ID == id && item.Status == StatusPending {
			item.Status = StatusResolved
			item.ResolvedBy = resolvedBy
			item.ResolvedAt = time.Now()
		}
	}
	return nil
}

type pipelineFixture struct {
	service  *TriageService
	mail     *fakeMail
	orders   *fakeOrders
	engine   *fakeEngine
	notifier *fakeNotifier
	ledger   *fakeLedger
	queue    *fakeQueue
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		mail:     &fakeMail{},
		orders:   &fakeOrders{byNumber: map[string]*OrderSnapshot{}, bySender: map[string][]OrderSnapshot{}},
		engine:   &fakeEngine{response: "Thanks for reaching out, we are on it."},
		notifier: &fakeNotifier{},
		ledger:   newFakeLedger(),
		queue:    &fakeQueue{},
	}
	rules := DefaultRules()
	f.service = NewTriageService(
		NewSenderFilter(rules),
		NewIntentClassifier(rules),
		f.mail,
		f.orders,
		f.engine,
		f.notifier,
		f.ledger,
		f.queue,
		zap.NewNop(),
		10,
	)
	return f
}

func message(id string) *InboundMessage {
	return &InboundMessage{
		ID:          id,
		SenderEmail: "jane@gmail.com",
		SenderName:  "Jane Doe",
		Subject:     "Question about my order",
		Body:        "Hi, I have a question about my recent purchase.",
		ReceivedAt:  time.Now(),
	}
}

func TestProcessMessageSendsReply(t *testing.T) {
	f := newPipelineFixture()
	msg := message("m1")
	msg.Body = "Where is my order? I need tracking for #12345."
	f.orders.byNumber["12345"] = &OrderSnapshot{
		OrderID:     "gid-1",
		OrderNumber: "12345",
		CreatedAt:   time.Now().AddDate(0, 0, -3),
	}
	f.engine.response = "Your order shipped yesterday, here is your tracking link."

	action, err := f.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if action != ActionSent {
		t.Fatalf("action = %q, want %q", action, ActionSent)
	}

	if len(f.mail.sent) != 1 {
		t.Fatalf("sent %d replies, want 1", len(f.mail.sent))
	}
	reply := f.mail.sent[0]
	if reply.to != "jane@gmail.com" {
		t.Errorf("reply.to = %q", reply.to)
	}
	if reply.subject != "RE: Question about my order" {
		t.Errorf("reply.subject = %q", reply.subject)
	}
	if reply.inReplyTo != "m1" {
		t.Errorf("reply.inReplyTo = %q", reply.inReplyTo)
	}

	entry := f.ledger.entries["m1"]
	if entry == nil {
		t.Fatal("no ledger entry recorded")
	}
	if !entry.ReplySent || entry.Escalated {
		t.Errorf("ledger flags = (reply %v, escalated %v), want (true, false)", entry.ReplySent, entry.Escalated)
	}
	if entry.Intent != IntentTracking {
		t.Errorf("ledger intent = %q, want %q", entry.Intent, IntentTracking)
	}
	if entry.OrderNumber != "12345" {
		t.Errorf("ledger order number = %q, want 12345", entry.OrderNumber)
	}
	if len(f.mail.read) != 1 || f.mail.read[0] != "m1" {
		t.Errorf("marked read = %v, want [m1]", f.mail.read)
	}

	if f.engine.lastCtx == nil || f.engine.lastCtx.Order == nil {
		t.Fatal("policy context missing order snapshot")
	}
	if f.engine.lastCtx.CustomerName != "Jane Doe" {
		t.Errorf("policy customer name = %q", f.engine.lastCtx.CustomerName)
	}
}

func TestProcessMessageDuplicateIsSkipped(t *testing.T) {
	f := newPipelineFixture()
	msg := message("m1")

	if _, err := f.service.ProcessMessage(context.Background(), msg); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	action, err := f.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if action != ActionSkippedDuplicate {
		t.Fatalf("action = %q, want %q", action, ActionSkippedDuplicate)
	}
	if len(f.mail.sent) != 1 {
		t.Errorf("sent %d replies, want 1", len(f.mail.sent))
	}
}

func TestProcessMessageBlockedSender(t *testing.T) {
	f := newPipelineFixture()
	msg := message("m1")
	msg.SenderEmail = "orders@aliexpress.com"

	action, err := f.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if action != ActionBlocked {
		t.Fatalf("action = %q, want %q", action, ActionBlocked)
	}
	if f.engine.lastCtx != nil {
		t.Error("policy engine was invoked for a blocked sender")
	}
	entry := f.ledger.entries["m1"]
	if entry == nil || entry.Intent != IntentBlockedSender {
		t.Fatalf("ledger entry = %+v, want blocked_sender intent", entry)
	}
	if len(f.mail.read) != 1 {
		t.Errorf("marked read = %v, want one id", f.mail.read)
	}
}

func TestProcessMessageClassifierSpam(t *testing.T) {
	f := newPipelineFixture()
	msg := message("m1")
	msg.Body = "We offer an SEO service to boost your sales immediately."

	action, err := f.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if action != ActionSpam {
		t.Fatalf("action = %q, want %q", action, ActionSpam)
	}
	if f.engine.lastCtx != nil {
		t.Error("policy engine was invoked for classifier spam")
	}
	entry := f.ledger.entries["m1"]
	if entry == nil || entry.Intent != IntentSpam {
		t.Fatalf("ledger entry = %+v, want spam intent", entry)
	}
}

func TestProcessMessageEngineSpamDirective(t *testing.T) {
	f := newPipelineFixture()
	msg := message("m1")
	f.engine.response = "SPAM_DETECTED: unsolicited bulk mail"

	action, err := f.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if action != ActionSpam {
		t.Fatalf("action = %q, want %q", action, ActionSpam)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("sent %d replies, want 0", len(f.mail.sent))
	}
	entry := f.ledger.entries["m1"]
	if entry == nil || entry.Intent != IntentSpam {
		t.Fatalf("ledger entry = %+v, want spam intent", entry)
	}
}

func TestProcessMessageEscalation(t *testing.T) {
	f := newPipelineFixture()
	msg := message("m1")
	msg.Subject = "Refund request for order #4567"
	msg.Body = "I want a refund for order #4567, it never arrived."
	f.orders.byNumber["4567"] = &OrderSnapshot{
		OrderID:     "gid-2",
		OrderNumber: "4567",
		CreatedAt:   time.Now().AddDate(0, 0, -30),
	}
	f.engine.response = "NEEDS_HUMAN_REVIEW: order is 16 days overdue\nDraft reply text."

	action, err := f.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if action != ActionEscalated {
		t.Fatalf("action = %q, want %q", action, ActionEscalated)
	}

	if len(f.queue.items) != 1 {
		t.Fatalf("enqueued %d items, want 1", len(f.queue.items))
	}
	item := f.queue.items[0]
	if item.Priority != PriorityHigh {
		t.Errorf("priority = %q, want high for an overdue reason", item.Priority)
	}
	if item.OrderNumber != "4567" {
		t.Errorf("order number = %q, want 4567", item.OrderNumber)
	}
	if item.Reason != "order is 16 days overdue" {
		t.Errorf("reason = %q", item.Reason)
	}
	if item.Status != StatusPending {
		t.Errorf("status = %q, want pending", item.Status)
	}

	if len(f.notifier.reviews) != 1 {
		t.Fatalf("sent %d review notifications, want 1", len(f.notifier.reviews))
	}
	if f.notifier.reviews[0].ID != item.ID {
		t.Errorf("notified item id = %d, want %d", f.notifier.reviews[0].ID, item.ID)
	}

	entry := f.ledger.entries["m1"]
	if entry == nil {
		t.Fatal("no ledger entry recorded")
	}
	if !entry.Escalated || entry.ReplySent {
		t.Errorf("ledger flags = (reply %v, escalated %v), want (false, true)", entry.ReplySent, entry.Escalated)
	}
	if entry.Intent != IntentReturnRefund {
		t.Errorf("ledger intent = %q, want %q", entry.Intent, IntentReturnRefund)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("sent %d replies, want 0", len(f.mail.sent))
	}
}

func TestProcessMessageEscalationWithoutOrder(t *testing.T) {
	f := newPipelineFixture()
	msg := message("m1")
	f.engine.response = "NEEDS_HUMAN_REVIEW: customer is threatening a chargeback"

	action, err := f.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if action != ActionEscalated {
		t.Fatalf("action = %q, want %q", action, ActionEscalated)
	}
	item := f.queue.items[0]
	if item.OrderNumber != "N/A" {
		t.Errorf("order number = %q, want N/A", item.OrderNumber)
	}
	if item.Priority != PriorityMedium {
		t.Errorf("priority = %q, want medium", item.Priority)
	}
}

func TestProcessMessageSendFailureLeavesNoLedgerEntry(t *testing.T) {
	f := newPipelineFixture()
	f.mail.sendErr = errors.New("smtp connection reset")
	msg := message("m1")

	action, err := f.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if action != ActionSendFailed {
		t.Fatalf("action = %q, want %q", action, ActionSendFailed)
	}
	if _, ok := f.ledger.entries["m1"]; ok {
		t.Error("ledger entry written for a failed send")
	}
	if len(f.mail.read) != 0 {
		t.Errorf("marked read = %v, want none", f.mail.read)
	}

	// The next cycle retries and succeeds.
	f.mail.sendErr = nil
	action, err = f.service.ProcessMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if action != ActionSent {
		t.Fatalf("retry action = %q, want %q", action, ActionSent)
	}
	if _, ok := f.ledger.entries["m1"]; !ok {
		t.Error("no ledger entry after successful retry")
	}
}

func TestProcessMessageEngineErrorPropagates(t *testing.T) {
	f := newPipelineFixture()
	f.engine.err = errors.New("model timed out")
	msg := message("m1")

	_, err := f.service.ProcessMessage(context.Background(), msg)
	if err == nil {
		t.Fatal("expected an error from a failing policy engine")
	}
	if !strings.Contains(err.Error(), "policy engine failed") {
		t.Errorf("err = %v", err)
	}
	if _, ok := f.ledger.entries["m1"]; ok {
		t.Error("ledger entry written despite engine failure")
	}
}

func TestProcessMessageEmptyReplyBodyIsError(t *testing.T) {
	f := newPipelineFixture()
	f.engine.response = ""
	msg := message("m1")

	_, err := f.service.ProcessMessage(context.Background(), msg)
	if err == nil {
		t.Fatal("expected an error for an empty reply body")
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("sent %d replies, want 0", len(f.mail.sent))
	}
}

func TestProcessMessageFallsBackToSenderOrder(t *testing.T) {
	f := newPipelineFixture()
	msg := message("m1")
	msg.Body = "Has my order shipped yet?"
	f.orders.bySender["jane@gmail.com"] = []OrderSnapshot{
		{OrderID: "gid-9", OrderNumber: "9001", CreatedAt: time.Now().AddDate(0, 0, -2)},
	}

	if _, err := f.service.ProcessMessage(context.Background(), msg); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if f.engine.lastCtx.Order == nil || f.engine.lastCtx.Order.OrderNumber != "9001" {
		t.Fatalf("policy order = %+v, want sender fallback order 9001", f.engine.lastCtx.Order)
	}
	if f.ledger.entries["m1"].OrderNumber != "9001" {
		t.Errorf("ledger order number = %q, want 9001", f.ledger.entries["m1"].OrderNumber)
	}
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	f := newPipelineFixture()
	f.engine.response = "All good, thanks for your patience."
	f.mail.unread = []InboundMessage{
		*message("m1"),
		*message("m2"),
		*message("m3"),
	}
	f.mail.unread[1].Subject = "Broken item"
	f.mail.unread[1].Body = "My item arrived damaged."

	// Fail the engine only for the second message.
	calls := 0
	f.service.engine = policyFunc(func(ctx context.Context, pctx *PolicyContext) (string, error) {
		calls++
		if pctx.Subject == "Broken item" {
			return "", errors.New("model unavailable")
		}
		return "Reply body.", nil
	})

	processed, total, err := f.service.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
	if calls != 3 {
		t.Errorf("engine calls = %d, want 3", calls)
	}
	if len(f.notifier.errMsgs) != 1 {
		t.Errorf("error notifications = %d, want 1", len(f.notifier.errMsgs))
	}
}

func TestProcessBatchAuthFailureAborts(t *testing.T) {
	f := newPipelineFixture()
	f.mail.authErr = errors.New("invalid client secret")

	_, _, err := f.service.ProcessBatch(context.Background())
	if err == nil {
		t.Fatal("expected an authentication error")
	}
	if len(f.notifier.errMsgs) != 1 {
		t.Errorf("error notifications = %d, want 1", len(f.notifier.errMsgs))
	}
}

func TestAssignPriority(t *testing.T) {
	tests := []struct {
		reason string
		want   Priority
	}{
		{"order is 10 days overdue", PriorityHigh},
		{"Order OVERDUE by two weeks", PriorityHigh},
		{"Unfulfilled order escalation", PriorityMedium},
		{"customer dispute", PriorityMedium},
		{"", PriorityMedium},
	}
	for _, tt := range tests {
		if got := AssignPriority(tt.reason); got != tt.want {
			t.Errorf("AssignPriority(%q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestReplySubject(t *testing.T) {
	if got := replySubject("Where is my order"); got != "RE: Where is my order" {
		t.Errorf("replySubject = %q", got)
	}
	if got := replySubject("RE: Where is my order"); got != "RE: Where is my order" {
		t.Errorf("replySubject kept prefix wrong: %q", got)
	}
}

// policyFunc adapts a function to the PolicyEngine interface for tests.
type policyFunc func(ctx context.Context, pctx *PolicyContext) (string, error)

func (f policyFunc) Generate(ctx context.Context, pctx *PolicyContext) (string, error) {
	return f(ctx, pctx)
}
