package cli

import (
	orderCommands "github.com/cadencebilling/cadence/internal/orders/application/commands"
	orderQueries "github.com/cadencebilling/cadence/internal/orders/application/queries"
	subCommands "github.com/cadencebilling/cadence/internal/subscriptions/application/commands"
	subQueries "github.com/cadencebilling/cadence/internal/subscriptions/application/queries"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/services"
)

// App holds the CLI application dependencies.
type App struct {
	// Subscription Command Handlers
	CreateSubscriptionHandler   *subCommands.CreateSubscriptionHandler
	ActivateSubscriptionHandler *subCommands.ActivateSubscriptionHandler
	PauseSubscriptionHandler    *subCommands.PauseSubscriptionHandler
	ResumeSubscriptionHandler   *subCommands.ResumeSubscriptionHandler
	ChangePlanHandler           *subCommands.ChangePlanHandler
	CancelSubscriptionHandler   *subCommands.CancelSubscriptionHandler

	// Subscription Query Handlers
	GetSubscriptionHandler           *subQueries.GetSubscriptionHandler
	ListCustomerSubscriptionsHandler *subQueries.ListCustomerSubscriptionsHandler

	// Order Command Handlers
	CreateOrderHandler  *orderCommands.CreateOrderHandler
	ConfirmOrderHandler *orderCommands.ConfirmOrderHandler
	CancelOrderHandler  *orderCommands.CancelOrderHandler

	// Order Query Handlers
	GetOrderHandler           *orderQueries.GetOrderHandler
	ListCustomerOrdersHandler *orderQueries.ListCustomerOrdersHandler

	// Billing Runs
	BillingProcessor *services.BillingProcessor
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	createSubscriptionHandler *subCommands.CreateSubscriptionHandler,
	activateSubscriptionHandler *subCommands.ActivateSubscriptionHandler,
	pauseSubscriptionHandler *subCommands.PauseSubscriptionHandler,
	resumeSubscriptionHandler *subCommands.ResumeSubscriptionHandler,
	changePlanHandler *subCommands.ChangePlanHandler,
	cancelSubscriptionHandler *subCommands.CancelSubscriptionHandler,
	getSubscriptionHandler *subQueries.GetSubscriptionHandler,
	listCustomerSubscriptionsHandler *subQueries.ListCustomerSubscriptionsHandler,
	createOrderHandler *orderCommands.CreateOrderHandler,
	confirmOrderHandler *orderCommands.ConfirmOrderHandler,
	cancelOrderHandler *orderCommands.CancelOrderHandler,
	getOrderHandler *orderQueries.GetOrderHandler,
	listCustomerOrdersHandler *orderQueries.ListCustomerOrdersHandler,
	billingProcessor *services.BillingProcessor,
) *App {
	return &App{
		CreateSubscriptionHandler:        createSubscriptionHandler,
		ActivateSubscriptionHandler:      activateSubscriptionHandler,
		PauseSubscriptionHandler:         pauseSubscriptionHandler,
		ResumeSubscriptionHandler:        resumeSubscriptionHandler,
		ChangePlanHandler:                changePlanHandler,
		CancelSubscriptionHandler:        cancelSubscriptionHandler,
		GetSubscriptionHandler:           getSubscriptionHandler,
		ListCustomerSubscriptionsHandler: listCustomerSubscriptionsHandler,
		CreateOrderHandler:               createOrderHandler,
		ConfirmOrderHandler:              confirmOrderHandler,
		CancelOrderHandler:               cancelOrderHandler,
		GetOrderHandler:                  getOrderHandler,
		ListCustomerOrdersHandler:        listCustomerOrdersHandler,
		BillingProcessor:                 billingProcessor,
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
