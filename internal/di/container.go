// Package di wires the application together.
package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/adapters/shopify"
	"github.com/animeempire/support-bot/internal/adapters/store"
	"github.com/animeempire/support-bot/internal/bot"
	"github.com/animeempire/support-bot/internal/config"
	"github.com/animeempire/support-bot/internal/core"
	"github.com/animeempire/support-bot/internal/factory"
	"github.com/animeempire/support-bot/internal/logging"
	"github.com/animeempire/support-bot/internal/summary"
	"github.com/animeempire/support-bot/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewPolicyFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNotifierFactory); err != nil {
		return nil, err
	}

	// Register policy engine
	if err := container.Provide(func(f *factory.PolicyFactory) (core.PolicyEngine, error) {
		return f.CreatePolicyEngine()
	}); err != nil {
		return nil, err
	}

	// Register store
	if err := container.Provide(func(f *factory.StoreFactory) (store.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}

	// Register mail transport
	if err := container.Provide(func(f *factory.MailFactory) (core.MailTransport, error) {
		return f.CreateMailTransport()
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register sender filter and intent classifier
	if err := container.Provide(func() *core.Rules {
		return core.DefaultRules()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewSenderFilter); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewIntentClassifier); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		filter *core.SenderFilter,
		classifier *core.IntentClassifier,
		mail core.MailTransport,
		orders core.OrderStore,
		engine core.PolicyEngine,
		notifier core.Notifier,
		st store.Store,
		cfg *config.Config,
		logger *zap.Logger,
	) (*core.TriageService, error) {
		botCfg, err := cfg.GetBot()
		if err != nil {
			return nil, err
		}
		return core.NewTriageService(
			filter, classifier, mail, orders, engine, notifier,
			st, st, logger, botCfg.BatchSize,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register order store
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.OrderStore {
		shopifyCfg := cfg.GetShopify()
		return shopify.NewOrderStore(shopifyCfg.ShopDomain, shopifyCfg.AccessToken, shopifyCfg.APIVersion, logger)
	}); err != nil {
		return nil, err
	}

	// Register summary service; nil when disabled
	if err := container.Provide(func(
		cfg *config.Config,
		st store.Store,
		mail core.MailTransport,
		notifier core.Notifier,
		logger *zap.Logger,
	) (*summary.Service, error) {
		summaryCfg := cfg.GetSummary()
		if !summaryCfg.Enabled || summaryCfg.Recipient == "" {
			logger.Info("Daily summary disabled")
			return nil, nil
		}
		botCfg, err := cfg.GetBot()
		if err != nil {
			return nil, err
		}
		return summary.NewService(
			st, st, mail, notifier,
			summaryCfg.Recipient, botCfg.StoreName, summaryCfg.Timezone,
			summaryCfg.Hour, logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register runner
	if err := container.Provide(func(
		service *core.TriageService,
		summarySvc *summary.Service,
		cfg *config.Config,
		logger *zap.Logger,
	) (*bot.Runner, error) {
		botCfg, err := cfg.GetBot()
		if err != nil {
			return nil, err
		}
		return bot.NewRunner(service, summarySvc, botCfg.PollInterval, logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
