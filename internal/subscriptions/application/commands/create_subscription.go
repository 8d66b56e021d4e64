package commands

import (
	"context"
	"log/slog"

	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
)

// CreateSubscriptionCommand contains the data needed to create a subscription.
type CreateSubscriptionCommand struct {
	CustomerID      string
	CustomerEmail   string
	PlanID          string
	BillingCycle    string
	MonthlyPrice    float64
	Currency        string
	TrialPeriodDays int
	PaymentMethodID string
}

// CreateSubscriptionResult contains the result of creating a subscription.
type CreateSubscriptionResult struct {
	SubscriptionID  uuid.UUID
	Status          string
	NextBillingDate string
}

// CreateSubscriptionHandler handles the CreateSubscriptionCommand.
type CreateSubscriptionHandler struct {
	subRepo    subscription.Repository
	gateway    subscription.BillingGateway
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewCreateSubscriptionHandler creates a new CreateSubscriptionHandler.
func NewCreateSubscriptionHandler(
	subRepo subscription.Repository,
	gateway subscription.BillingGateway,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *CreateSubscriptionHandler {
	return &CreateSubscriptionHandler{
		subRepo:    subRepo,
		gateway:    gateway,
		outboxRepo: outboxRepo,
		uow:        uow,
		logger:     logger,
	}
}

// Handle executes the CreateSubscriptionCommand.
func (h *CreateSubscriptionHandler) Handle(ctx context.Context, cmd CreateSubscriptionCommand) (*CreateSubscriptionResult, error) {
	cycle, err := subscription.ParseBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, err
	}

	price, err := domain.NewMoney(cmd.MonthlyPrice, cmd.Currency)
	if err != nil {
		return nil, err
	}

	var (
		result *CreateSubscriptionResult
		sub    *subscription.Subscription
	)

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err = subscription.New(
			domain.NewCustomerID(cmd.CustomerID),
			cmd.CustomerEmail,
			cmd.PlanID,
			cycle,
			price,
			cmd.TrialPeriodDays,
			cmd.PaymentMethodID,
		)
		if err != nil {
			return err
		}

		if err := h.subRepo.Save(txCtx, sub); err != nil {
			return err
		}

		events := sub.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata())

		msgs, err := outbox.FromDomainEvents(events)
		if err != nil {
			return err
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		result = &CreateSubscriptionResult{
			SubscriptionID:  sub.ID(),
			Status:          string(sub.Status()),
			NextBillingDate: sub.NextBillingDate().Format("2006-01-02"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Register the schedule with the payment provider after commit. A
	// provider-side failure does not undo the subscription; the scheduled
	// billing run will still charge on the computed date.
	if next := sub.NextBillingDate(); next != nil {
		if _, err := h.gateway.ScheduleBilling(ctx, sub.ID(), sub.CalculateBillingAmount(), *next, sub.PaymentMethodID()); err != nil {
			h.logger.Warn("failed to register billing schedule with provider",
				slog.String("subscription_id", sub.ID().String()),
				slog.String("error", err.Error()))
		}
	}

	return result, nil
}
