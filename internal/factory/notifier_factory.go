package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/adapters/slack"
	"github.com/animeempire/support-bot/internal/config"
	"github.com/animeempire/support-bot/internal/core"
)

// NotifierFactory creates notifiers based on configuration
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates a notifier based on the configuration
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	slackCfg := f.cfg.GetSlack()
	if !slackCfg.Enabled {
		f.logger.Info("Slack notifications disabled")
		return slack.NopNotifier{}, nil
	}
	if slackCfg.WebhookURL == "" {
		return nil, fmt.Errorf("slack is enabled but no webhook URL is configured")
	}
	return slack.NewNotifier(slackCfg.WebhookURL, f.logger), nil
}
