package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/di"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/logging"
)

func main() {
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
	verbose *logging.VerboseLogger,
	cfg *config.Config,
	service *core.WatchService,
	history core.History,
) error {
	defer logger.Sync()
	defer verbose.Sync()

	// A signal interrupts the sleep phase promptly; message processing
	// finishes its current step since mark-seen is the last observable
	// action per message.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := service.Run(ctx, cfg.GetPoll().Interval)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Watch loop terminated", zap.Error(err))
		return err
	}

	logger.Info("Shutting down...")

	// Stop the history store if needed
	if stopper, ok := history.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
