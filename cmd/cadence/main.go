package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cadencebilling/cadence/adapter/cli"
	cliBilling "github.com/cadencebilling/cadence/adapter/cli/billing"
	cliOrder "github.com/cadencebilling/cadence/adapter/cli/order"
	cliSubscription "github.com/cadencebilling/cadence/adapter/cli/subscription"
	"github.com/cadencebilling/cadence/internal/app"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/migrations"
	"github.com/cadencebilling/cadence/pkg/config"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	// Update logger level based on config
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	cli.SetLogger(logger)

	// Try to initialize the full container
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
			cliApp = nil
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		if err := migrations.RunPostgresMigrations(ctx, container.DB); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		// Start outbox processor in background (optional in CLI)
		if cfg.OutboxProcessorEnabled {
			go container.OutboxProcessor.Start(ctx)
		} else {
			logger.Info("outbox processor disabled in CLI")
		}

		// Create CLI app with handlers
		cliApp = cli.NewApp(
			container.CreateSubscriptionHandler,
			container.ActivateSubscriptionHandler,
			container.PauseSubscriptionHandler,
			container.ResumeSubscriptionHandler,
			container.ChangePlanHandler,
			container.CancelSubscriptionHandler,
			container.GetSubscriptionHandler,
			container.ListCustomerSubscriptionsHandler,
			container.CreateOrderHandler,
			container.ConfirmOrderHandler,
			container.CancelOrderHandler,
			container.GetOrderHandler,
			container.ListCustomerOrdersHandler,
			container.BillingProcessor,
		)
	}

	// Set the CLI app
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(cliSubscription.Cmd)
	cli.AddCommand(cliOrder.Cmd)
	cli.AddCommand(cliBilling.Cmd)

	// Execute CLI
	cli.Execute()
}
