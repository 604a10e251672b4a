package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/adapters/graph"
	"github.com/animeempire/support-bot/internal/adapters/imapmail"
	"github.com/animeempire/support-bot/internal/config"
	"github.com/animeempire/support-bot/internal/core"
)

// MailFactory creates mail transports based on configuration
type MailFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailFactory creates a new mail transport factory
func NewMailFactory(cfg *config.Config, logger *zap.Logger) *MailFactory {
	return &MailFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailTransport creates a mail transport based on the configuration
func (f *MailFactory) CreateMailTransport() (core.MailTransport, error) {
	switch provider := f.cfg.GetString("mail.provider"); provider {
	case "graph":
		graphCfg := f.cfg.GetGraph()
		return graph.NewMailClient(
			graphCfg.TenantID,
			graphCfg.ClientID,
			graphCfg.ClientSecret,
			graphCfg.Mailbox,
			f.logger,
		), nil
	case "imap":
		imapCfg := f.cfg.GetIMAP()
		smtpCfg := f.cfg.GetSMTP()
		return imapmail.NewMailClient(
			imapCfg.Server,
			imapCfg.Port,
			imapCfg.Username,
			imapCfg.Password,
			imapCfg.Mailbox,
			smtpCfg.Server,
			smtpCfg.Port,
			smtpCfg.Username,
			smtpCfg.Password,
			smtpCfg.From,
			f.logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
