// Package graph implements the mail transport against the Microsoft
// Graph API using client-credential OAuth.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
)

const (
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	graphBaseURL   = "https://graph.microsoft.com/v1.0"
	graphScope     = "https://graph.microsoft.com/.default"
)

// MailClient talks to one mailbox through the Graph API.
type MailClient struct {
	tenantID     string
	clientID     string
	clientSecret string
	mailbox      string
	httpClient   *http.Client
	logger       *zap.Logger

	token       string
	tokenExpiry time.Time
}

// NewMailClient creates a new Graph mail client
func NewMailClient(tenantID, clientID, clientSecret, mailbox string, logger *zap.Logger) *MailClient {
	return &MailClient{
		tenantID:     tenantID,
		clientID:     clientID,
		clientSecret: clientSecret,
		mailbox:      mailbox,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

// Authenticate fetches a fresh application token when the cached one is
// missing or about to expire.
func (c *MailClient) Authenticate(ctx context.Context) error {
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", graphScope)
	form.Set("grant_type", "client_credentials")

	tokenURL := fmt.Sprintf(tokenURLFormat, c.tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, body)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return fmt.Errorf("token response contained no access token")
	}

	c.token = tokenResp.AccessToken
	// Refresh a minute early so in-flight calls never carry a stale token.
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - time.Minute)
	c.logger.Debug("Graph token refreshed", zap.Time("expiry", c.tokenExpiry))
	return nil
}

type graphMessage struct {
	ID               string `json:"id"`
	Subject          string `json:"subject"`
	ReceivedDateTime string `json:"receivedDateTime"`
	From             struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	Body struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	BodyPreview string `json:"bodyPreview"`
}

// FetchUnread returns up to limit unread messages from the inbox.
func (c *MailClient) FetchUnread(ctx context.Context, limit int) ([]core.InboundMessage, error) {
	if err := c.Authenticate(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/users/%s/mailFolders/inbox/messages?$filter=%s&$top=%d&$orderby=receivedDateTime desc",
		graphBaseURL, url.PathEscape(c.mailbox), url.QueryEscape("isRead eq false"), limit)

	var listResp struct {
		Value []graphMessage `json:"value"`
	}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &listResp); err != nil {
		return nil, fmt.Errorf("failed to fetch unread messages: %w", err)
	}

	messages := make([]core.InboundMessage, 0, len(listResp.Value))
	for _, m := range listResp.Value {
		received, _ := time.Parse(time.RFC3339, m.ReceivedDateTime)
		body := m.Body.Content
		if strings.EqualFold(m.Body.ContentType, "html") {
			// The preview is plain text; good enough for classification
			// and prompt assembly without dragging in an HTML parser.
			body = m.BodyPreview
		}
		messages = append(messages, core.InboundMessage{
			ID:          m.ID,
			SenderEmail: m.From.EmailAddress.Address,
			SenderName:  m.From.EmailAddress.Name,
			Subject:     m.Subject,
			Body:        body,
			ReceivedAt:  received,
		})
	}
	return messages, nil
}

// SendReply sends body to the recipient. When inReplyTo names a message
// id the Graph reply endpoint is used so the thread stays intact.
func (c *MailClient) SendReply(ctx context.Context, to, subject, body, inReplyTo string) error {
	if err := c.Authenticate(ctx); err != nil {
		return err
	}

	if inReplyTo != "" {
		payload := map[string]interface{}{
			"comment": body,
		}
		endpoint := fmt.Sprintf("%s/users/%s/messages/%s/reply",
			graphBaseURL, url.PathEscape(c.mailbox), url.PathEscape(inReplyTo))
		if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
			return fmt.Errorf("failed to send reply: %w", err)
		}
		return nil
	}

	payload := map[string]interface{}{
		"message": map[string]interface{}{
			"subject": subject,
			"body": map[string]string{
				"contentType": "Text",
				"content":     body,
			},
			"toRecipients": []map[string]interface{}{
				{"emailAddress": map[string]string{"address": to}},
			},
		},
	}
	endpoint := fmt.Sprintf("%s/users/%s/sendMail", graphBaseURL, url.PathEscape(c.mailbox))
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// MarkRead flips the isRead flag on a message.
func (c *MailClient) MarkRead(ctx context.Context, messageID string) error {
	if err := c.Authenticate(ctx); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/users/%s/messages/%s",
		graphBaseURL, url.PathEscape(c.mailbox), url.PathEscape(messageID))
	payload := map[string]interface{}{"isRead": true}
	if err := c.doJSON(ctx, http.MethodPatch, endpoint, payload, nil); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// doJSON performs one authenticated Graph call, optionally decoding the
// response into out.
func (c *MailClient) doJSON(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("graph call failed with status %d: %s", resp.StatusCode, body)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

var _ core.MailTransport = (*MailClient)(nil)
