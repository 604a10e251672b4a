package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/adapters/store"
	"github.com/animeempire/support-bot/internal/config"
)

// StoreFactory creates persistence backends based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates a store based on the configuration
func (f *StoreFactory) CreateStore() (store.Store, error) {
	switch storeType := f.cfg.GetString("store.type"); storeType {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("store.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(sqlitePath, f.logger)
	case "mysql":
		mysqlCfg := f.cfg.GetMySQL()
		return store.NewMySQLStore(
			mysqlCfg.Host,
			mysqlCfg.Port,
			mysqlCfg.User,
			mysqlCfg.Password,
			mysqlCfg.Database,
			f.logger,
		)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
