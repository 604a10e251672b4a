package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TriageService drives one message through the pipeline: sender filter,
// intent classifier, order resolution, policy engine, directive parser,
// and finally the dispatch to exactly one terminal action. The ledger
// insert is the commit point for "this message will not be acted on
// again"; a message whose reply send fails is intentionally left out of
// the ledger so the next polling cycle retries it.
type TriageService struct {
	filter     *SenderFilter
	classifier *IntentClassifier
	mail       MailTransport
	orders     OrderStore
	engine     PolicyEngine
	notifier   Notifier
	ledger     Ledger
	queue      EscalationQueue
	logger     *zap.Logger
	batchSize  int
}

// NewTriageService creates the pipeline service.
func NewTriageService(
	filter *SenderFilter,
	classifier *IntentClassifier,
	mail MailTransport,
	orders OrderStore,
	engine PolicyEngine,
	notifier Notifier,
	ledger Ledger,
	queue EscalationQueue,
	logger *zap.Logger,
	batchSize int,
) *TriageService {
	return &TriageService{
		filter:     filter,
		classifier: classifier,
		mail:       mail,
		orders:     orders,
		engine:     engine,
		notifier:   notifier,
		ledger:     ledger,
		queue:      queue,
		logger:     logger,
		batchSize:  batchSize,
	}
}

// ProcessBatch runs one polling cycle: authenticate, fetch unread
// messages, and process them strictly sequentially. A failure on one
// message is logged and reported but never aborts the rest of the
// batch; an authentication failure aborts the whole batch.
func (s *TriageService) ProcessBatch(ctx context.Context) (processed, total int, err error) {
	if err := s.mail.Authenticate(ctx); err != nil {
		s.notifyError(ctx, err.Error(), "mailbox authentication")
		return 0, 0, fmt.Errorf("mailbox authentication failed: %w", err)
	}

	messages, err := s.mail.FetchUnread(ctx, s.batchSize)
	if err != nil {
		s.notifyError(ctx, err.Error(), "fetching unread messages")
		return 0, 0, fmt.Errorf("failed to fetch unread messages: %w", err)
	}

	s.logger.Info("Fetched unread messages", zap.Int("count", len(messages)))

	for i := range messages {
		msg := &messages[i]
		action, perr := s.ProcessMessage(ctx, msg)
		if perr != nil {
			s.logger.Error("Failed to process message",
				zap.String("message_id", msg.ID),
				zap.String("subject", msg.Subject),
				zap.Error(perr))
			s.notifyError(ctx, perr.Error(), "Message: "+msg.Subject)
			continue
		}
		s.logger.Info("Message processed",
			zap.String("message_id", msg.ID),
			zap.String("action", string(action)))
		processed++
	}

	return processed, len(messages), nil
}

// ProcessMessage runs one message through the full pipeline and returns
// the terminal action it reached. Transition precedence is fixed:
// duplicate, blocked sender, spam, escalation, reply.
func (s *TriageService) ProcessMessage(ctx context.Context, msg *InboundMessage) (Action, error) {
	seen, err := s.ledger.Seen(ctx, msg.ID)
	if err != nil {
		return "", fmt.Errorf("ledger lookup failed: %w", err)
	}
	if seen {
		s.logger.Debug("Skipping already processed message", zap.String("message_id", msg.ID))
		return ActionSkippedDuplicate, nil
	}

	if blocked, reason := s.filter.ClassifySender(msg.SenderEmail, msg.SenderName); blocked {
		s.logger.Info("Blocked sender",
			zap.String("sender", msg.SenderEmail),
			zap.String("reason", reason))
		if err := s.recordLedger(ctx, msg, false, false, "", IntentBlockedSender); err != nil {
			return "", err
		}
		s.markRead(ctx, msg.ID)
		return ActionBlocked, nil
	}

	classification := s.classifier.Classify(msg.Body, msg.Subject)
	if classification.IsSpam {
		s.logger.Info("Spam filtered by classifier", zap.String("sender", msg.SenderEmail))
		if err := s.recordLedger(ctx, msg, false, false, "", IntentSpam); err != nil {
			return "", err
		}
		s.markRead(ctx, msg.ID)
		return ActionSpam, nil
	}

	order, orderNumber := s.resolveOrder(ctx, msg)

	pctx := &PolicyContext{
		CustomerName:  customerName(msg.SenderName),
		CustomerEmail: msg.SenderEmail,
		Subject:       msg.Subject,
		Body:          msg.Body,
		Order:         order,
	}
	if order != nil {
		pctx.DaysPastExpected = order.DaysPastExpected(time.Now())
	}

	raw, err := s.engine.Generate(ctx, pctx)
	if err != nil {
		return "", fmt.Errorf("policy engine failed: %w", err)
	}

	directive := ParseDirective(raw)
	if directive.ActionRequired {
		s.logger.Info("Policy engine requested an action",
			zap.String("message_id", msg.ID),
			zap.String("order_number", orderNumber))
	}

	switch directive.Kind {
	case DirectiveSpam:
		s.logger.Info("Spam filtered by policy engine",
			zap.String("sender", msg.SenderEmail),
			zap.String("reason", directive.Reason))
		if err := s.recordLedger(ctx, msg, false, false, orderNumber, IntentSpam); err != nil {
			return "", err
		}
		s.markRead(ctx, msg.ID)
		return ActionSpam, nil

	case DirectiveEscalate:
		if err := s.escalate(ctx, msg, orderNumber, directive.Reason); err != nil {
			return "", err
		}
		if err := s.recordLedger(ctx, msg, false, true, orderNumber, classification.Intent); err != nil {
			return "", err
		}
		s.markRead(ctx, msg.ID)
		return ActionEscalated, nil
	}

	if directive.CleanBody == "" {
		return "", fmt.Errorf("policy engine returned no reply body for message %s", msg.ID)
	}

	if err := s.mail.SendReply(ctx, msg.SenderEmail, replySubject(msg.Subject), directive.CleanBody, msg.ID); err != nil {
		// No ledger write: the message stays eligible for retry on the
		// next cycle.
		s.logger.Error("Failed to send reply",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return ActionSendFailed, nil
	}

	s.markRead(ctx, msg.ID)
	if err := s.recordLedger(ctx, msg, true, false, orderNumber, classification.Intent); err != nil {
		return "", err
	}
	return ActionSent, nil
}

// resolveOrder maps a message to at most one order snapshot: by explicit
// order number first, falling back to the sender's most recent order.
func (s *TriageService) resolveOrder(ctx context.Context, msg *InboundMessage) (*OrderSnapshot, string) {
	orderNumber := ExtractOrderNumber(msg.Subject + " " + msg.Body)

	if orderNumber != "" {
		s.logger.Debug("Found order number in message", zap.String("order_number", orderNumber))
		order, err := s.orders.FindByNumber(ctx, orderNumber)
		if err != nil {
			s.logger.Warn("Order lookup by number failed", zap.Error(err))
		}
		if order != nil {
			return order, order.OrderNumber
		}
	}

	orders, err := s.orders.FindBySender(ctx, msg.SenderEmail, 1)
	if err != nil {
		s.logger.Warn("Order lookup by sender failed", zap.Error(err))
	}
	if len(orders) > 0 {
		order := &orders[0]
		s.logger.Debug("Matched order by sender email", zap.String("order_number", order.OrderNumber))
		return order, order.OrderNumber
	}

	return nil, orderNumber
}

// escalate enqueues one pending review item and fires the alert.
func (s *TriageService) escalate(ctx context.Context, msg *InboundMessage, orderNumber, reason string) error {
	item := &EscalationItem{
		MessageID:   msg.ID,
		OrderNumber: orderNumber,
		SenderEmail: msg.SenderEmail,
		Reason:      reason,
		Priority:    AssignPriority(reason),
		CreatedAt:   time.Now(),
		Status:      StatusPending,
	}
	if item.OrderNumber == "" {
		item.OrderNumber = "N/A"
	}

	id, err := s.queue.Enqueue(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to enqueue escalation: %w", err)
	}
	item.ID = id

	s.logger.Warn("Flagged for human review",
		zap.Int64("escalation_id", id),
		zap.String("order_number", item.OrderNumber),
		zap.String("reason", reason),
		zap.String("priority", string(item.Priority)))

	if err := s.notifier.NotifyReviewNeeded(ctx, item); err != nil {
		s.logger.Error("Failed to send review notification", zap.Error(err))
	}
	return nil
}

// AssignPriority maps an escalation reason to a queue priority: reasons
// mentioning an overdue shipment are high, everything else medium. Low
// is reserved for manual queue use.
func AssignPriority(reason string) Priority {
	if strings.Contains(fold.String(reason), "overdue") {
		return PriorityHigh
	}
	return PriorityMedium
}

func (s *TriageService) recordLedger(ctx context.Context, msg *InboundMessage, replySent, escalated bool, orderNumber string, intent Intent) error {
	entry := &LedgerEntry{
		MessageID:   msg.ID,
		SenderEmail: msg.SenderEmail,
		Subject:     msg.Subject,
		ProcessedAt: time.Now(),
		ReplySent:   replySent,
		Escalated:   escalated,
		OrderNumber: orderNumber,
		Intent:      intent,
	}
	if err := s.ledger.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

// markRead is best effort; a message that stays unread is caught by the
// ledger gate on the next cycle.
func (s *TriageService) markRead(ctx context.Context, messageID string) {
	if err := s.mail.MarkRead(ctx, messageID); err != nil {
		s.logger.Warn("Failed to mark message read",
			zap.String("message_id", messageID),
			zap.Error(err))
	}
}

func (s *TriageService) notifyError(ctx context.Context, errMsg, contextInfo string) {
	if err := s.notifier.NotifyError(ctx, errMsg, contextInfo); err != nil {
		s.logger.Error("Failed to send error notification", zap.Error(err))
	}
}

func customerName(name string) string {
	if name == "" {
		return "Valued Customer"
	}
	return name
}

func replySubject(subject string) string {
	if strings.HasPrefix(subject, "RE:") {
		return subject
	}
	return "RE: " + subject
}
