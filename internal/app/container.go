package app

import (
	"context"
	"fmt"
	"log/slog"

	orderCommands "github.com/cadencebilling/cadence/internal/orders/application/commands"
	orderQueries "github.com/cadencebilling/cadence/internal/orders/application/queries"
	orderSubs "github.com/cadencebilling/cadence/internal/orders/application/subscribers"
	"github.com/cadencebilling/cadence/internal/orders/domain/order"
	orderPersistence "github.com/cadencebilling/cadence/internal/orders/infrastructure/persistence"
	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/eventbus"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/cadencebilling/cadence/internal/shared/infrastructure/persistence"
	subCommands "github.com/cadencebilling/cadence/internal/subscriptions/application/commands"
	subQueries "github.com/cadencebilling/cadence/internal/subscriptions/application/queries"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/services"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	subCache "github.com/cadencebilling/cadence/internal/subscriptions/infrastructure/cache"
	"github.com/cadencebilling/cadence/internal/subscriptions/infrastructure/gateway"
	subPersistence "github.com/cadencebilling/cadence/internal/subscriptions/infrastructure/persistence"
	"github.com/cadencebilling/cadence/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DB *pgxpool.Pool

	// Redis
	RedisClient *redis.Client

	// Repositories
	SubscriptionRepo subscription.Repository
	OrderRepo        order.Repository
	OutboxRepo       outbox.Repository
	ProcessedEvents  eventbus.ProcessedEventStore

	// Billing provider
	BillingGateway subscription.BillingGateway

	// Publishers
	EventPublisher eventbus.Publisher

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Subscription command handlers
	CreateSubscriptionHandler   *subCommands.CreateSubscriptionHandler
	ActivateSubscriptionHandler *subCommands.ActivateSubscriptionHandler
	PauseSubscriptionHandler    *subCommands.PauseSubscriptionHandler
	ResumeSubscriptionHandler   *subCommands.ResumeSubscriptionHandler
	ChangePlanHandler           *subCommands.ChangePlanHandler
	CancelSubscriptionHandler   *subCommands.CancelSubscriptionHandler

	// Subscription query handlers
	GetSubscriptionHandler           *subQueries.GetSubscriptionHandler
	ListCustomerSubscriptionsHandler *subQueries.ListCustomerSubscriptionsHandler

	// Order command handlers
	CreateOrderHandler  *orderCommands.CreateOrderHandler
	ConfirmOrderHandler *orderCommands.ConfirmOrderHandler
	CancelOrderHandler  *orderCommands.CancelOrderHandler

	// Order query handlers
	GetOrderHandler           *orderQueries.GetOrderHandler
	ListCustomerOrdersHandler *orderQueries.ListCustomerOrdersHandler

	// Billing runs
	BillingProcessor *services.BillingProcessor

	// Event subscribers
	SubscriptionActivatedSubscriber *orderSubs.SubscriptionActivatedSubscriber

	// Outbox processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Connect to PostgreSQL
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c.DB = pool
	logger.Info("connected to database")

	// Connect to Redis (optional in development)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, subscription cache disabled", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					pool.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, subscription cache disabled", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	// Create repositories
	subRepo := subscription.Repository(subPersistence.NewPostgresSubscriptionRepository(pool))
	if cfg.SubscriptionCache && c.RedisClient != nil {
		subRepo = subCache.NewCachedSubscriptionRepository(subRepo, c.RedisClient, cfg.CacheTTL, logger)
	}
	c.SubscriptionRepo = subRepo
	c.OrderRepo = orderPersistence.NewPostgresOrderRepository(pool)
	c.OutboxRepo = outbox.NewPostgresRepository(pool)
	c.ProcessedEvents = eventbus.NewPostgresProcessedEventStore(pool)
	c.UnitOfWork = sharedPersistence.NewPostgresUnitOfWork(pool)

	// Create billing gateway
	if cfg.BillingUseFakeGateway || cfg.BillingProviderURL == "" {
		c.BillingGateway = gateway.NewFakeBillingGateway()
		logger.Info("using fake billing gateway")
	} else {
		gatewayConfig := gateway.DefaultHTTPBillingGatewayConfig(cfg.BillingProviderURL, cfg.BillingProviderAPIKey)
		c.BillingGateway = gateway.NewHTTPBillingGateway(gatewayConfig, logger)
		logger.Info("using HTTP billing gateway", "url", cfg.BillingProviderURL)
	}

	// Create event publisher
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to noop publisher in development
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	// Create subscription command handlers
	c.CreateSubscriptionHandler = subCommands.NewCreateSubscriptionHandler(c.SubscriptionRepo, c.BillingGateway, c.OutboxRepo, c.UnitOfWork, logger)
	c.ActivateSubscriptionHandler = subCommands.NewActivateSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork)
	c.PauseSubscriptionHandler = subCommands.NewPauseSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork)
	c.ResumeSubscriptionHandler = subCommands.NewResumeSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork)
	c.ChangePlanHandler = subCommands.NewChangePlanHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork)
	c.CancelSubscriptionHandler = subCommands.NewCancelSubscriptionHandler(c.SubscriptionRepo, c.BillingGateway, c.OutboxRepo, c.UnitOfWork, logger)

	// Create subscription query handlers
	c.GetSubscriptionHandler = subQueries.NewGetSubscriptionHandler(c.SubscriptionRepo)
	c.ListCustomerSubscriptionsHandler = subQueries.NewListCustomerSubscriptionsHandler(c.SubscriptionRepo)

	// Create order command handlers
	c.CreateOrderHandler = orderCommands.NewCreateOrderHandler(c.OrderRepo, c.OutboxRepo, c.UnitOfWork)
	c.ConfirmOrderHandler = orderCommands.NewConfirmOrderHandler(c.OrderRepo, c.OutboxRepo, c.UnitOfWork)
	c.CancelOrderHandler = orderCommands.NewCancelOrderHandler(c.OrderRepo, c.OutboxRepo, c.UnitOfWork)

	// Create order query handlers
	c.GetOrderHandler = orderQueries.NewGetOrderHandler(c.OrderRepo)
	c.ListCustomerOrdersHandler = orderQueries.NewListCustomerOrdersHandler(c.OrderRepo)

	// Create billing processor
	processorCfg := services.BillingProcessorConfig{
		BatchSize: cfg.BillingBatchSize,
		Workers:   cfg.BillingWorkers,
	}
	c.BillingProcessor = services.NewBillingProcessor(c.SubscriptionRepo, c.BillingGateway, c.OutboxRepo, c.UnitOfWork, processorCfg, logger)

	// Create event subscribers
	c.SubscriptionActivatedSubscriber = orderSubs.NewSubscriptionActivatedSubscriber(c.OrderRepo, c.OutboxRepo, c.ProcessedEvents, c.UnitOfWork, logger)

	// Create outbox processor
	outboxCfg := outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxRetries:   cfg.OutboxMaxRetries,
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outboxCfg, logger)

	return c, nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("PostgreSQL connection closed")
	}
}
