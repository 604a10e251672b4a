package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/adapters/store"
	"github.com/animeempire/support-bot/internal/bot"
	"github.com/animeempire/support-bot/internal/core"
	"github.com/animeempire/support-bot/internal/di"
)

var once = flag.Bool("once", false, "process one batch and exit")

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	runner *bot.Runner,
	st store.Store,
	engine core.PolicyEngine,
) error {
	defer logger.Sync()
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
		if closer, ok := engine.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close policy engine", zap.Error(err))
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		return runner.RunOnce(ctx)
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		cancel()
	}()

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}
