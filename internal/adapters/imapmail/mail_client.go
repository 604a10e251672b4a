// Package imapmail implements the mail transport over plain IMAP and
// SMTP submission, for mailboxes outside Microsoft 365.
package imapmail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
)

// MailClient fetches over IMAP and submits over SMTP.
type MailClient struct {
	imapAddr string
	username string
	password string
	mailbox  string

	smtpAddr string
	smtpUser string
	smtpPass string
	from     string

	logger *zap.Logger

	mu     sync.Mutex
	client *client.Client
	// Message ids are what the pipeline tracks; IMAP wants UIDs back.
	uids map[string]uint32
}

// NewMailClient creates a new IMAP/SMTP mail client
func NewMailClient(imapServer string, imapPort int, username, password, mailbox,
	smtpServer string, smtpPort int, smtpUser, smtpPass, from string,
	logger *zap.Logger) *MailClient {
	return &MailClient{
		imapAddr: fmt.Sprintf("%s:%d", imapServer, imapPort),
		username: username,
		password: password,
		mailbox:  mailbox,
		smtpAddr: fmt.Sprintf("%s:%d", smtpServer, smtpPort),
		smtpUser: smtpUser,
		smtpPass: smtpPass,
		from:     from,
		logger:   logger,
		uids:     make(map[string]uint32),
	}
}

// Authenticate dials the IMAP server and logs in. An existing live
// session is reused.
func (c *MailClient) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		if err := c.client.Noop(); err == nil {
			return nil
		}
		c.client.Logout()
		c.client = nil
	}

	conn, err := client.DialTLS(c.imapAddr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	if err := conn.Login(c.username, c.password); err != nil {
		conn.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	c.client = conn
	c.logger.Debug("IMAP session established", zap.String("server", c.imapAddr))
	return nil
}

// FetchUnread returns up to limit unseen messages. Bodies are fetched
// with Peek so the server does not mark them seen; the pipeline decides
// that per message.
func (c *MailClient) FetchUnread(ctx context.Context, limit int) ([]core.InboundMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil, fmt.Errorf("not connected to IMAP server")
	}

	if _, err := c.client.Select(c.mailbox, false); err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", c.mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search for unseen messages: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	// Newest first, bounded by the batch size.
	if len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	var out []core.InboundMessage
	for msg := range messages {
		parsed, err := c.parseMessage(msg, section)
		if err != nil {
			c.logger.Warn("Failed to parse message", zap.Error(err))
			continue
		}
		if parsed != nil {
			out = append(out, *parsed)
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	// Search returns oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (c *MailClient) parseMessage(msg *imap.Message, section *imap.BodySectionName) (*core.InboundMessage, error) {
	if msg == nil || msg.Envelope == nil {
		return nil, nil
	}

	id := msg.Envelope.MessageId
	if id == "" {
		id = fmt.Sprintf("imap-uid-%d", msg.Uid)
	}
	c.uids[id] = msg.Uid

	out := &core.InboundMessage{
		ID:         id,
		Subject:    msg.Envelope.Subject,
		ReceivedAt: msg.Envelope.Date,
	}
	if len(msg.Envelope.From) > 0 {
		from := msg.Envelope.From[0]
		out.SenderEmail = from.Address()
		out.SenderName = from.PersonalName
	}

	r := msg.GetBody(section)
	if r == nil {
		return out, nil
	}
	mr, err := mail.CreateReader(r)
	if err != nil {
		return out, nil
	}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if h, ok := p.Header.(*mail.InlineHeader); ok {
			ct, _, _ := h.ContentType()
			if strings.HasPrefix(ct, "text/plain") && out.Body == "" {
				body, _ := io.ReadAll(p.Body)
				out.Body = string(body)
			}
		}
	}
	return out, nil
}

// SendReply submits a plain-text reply over SMTP, threading it when the
// original message id is known.
func (c *MailClient) SendReply(ctx context.Context, to, subject, body, inReplyTo string) error {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: c.from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)
	if inReplyTo != "" {
		h.Set("In-Reply-To", inReplyTo)
		h.Set("References", inReplyTo)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return fmt.Errorf("failed to compose message: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message body: %w", err)
	}
	w.Close()

	auth := sasl.NewPlainClient("", c.smtpUser, c.smtpPass)
	if err := smtp.SendMail(c.smtpAddr, auth, c.from, []string{to}, &buf); err != nil {
		return fmt.Errorf("failed to submit message: %w", err)
	}

	c.logger.Debug("Reply submitted", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// MarkRead sets the \Seen flag on the message.
func (c *MailClient) MarkRead(ctx context.Context, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return fmt.Errorf("not connected to IMAP server")
	}
	uid, ok := c.uids[messageID]
	if !ok {
		return fmt.Errorf("unknown message id %s", messageID)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := c.client.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("failed to mark message seen: %w", err)
	}
	return nil
}

// Close logs out of the IMAP session.
func (c *MailClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		err := c.client.Logout()
		c.client = nil
		return err
	}
	return nil
}

var _ core.MailTransport = (*MailClient)(nil)
