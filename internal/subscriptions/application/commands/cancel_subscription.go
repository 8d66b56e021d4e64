package commands

import (
	"context"
	"log/slog"

	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
)

// CancelSubscriptionCommand contains the data needed to cancel a subscription.
type CancelSubscriptionCommand struct {
	SubscriptionID uuid.UUID
	Reason         string
}

// CancelSubscriptionHandler handles the CancelSubscriptionCommand.
type CancelSubscriptionHandler struct {
	subRepo    subscription.Repository
	gateway    subscription.BillingGateway
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewCancelSubscriptionHandler creates a new CancelSubscriptionHandler.
func NewCancelSubscriptionHandler(
	subRepo subscription.Repository,
	gateway subscription.BillingGateway,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *CancelSubscriptionHandler {
	return &CancelSubscriptionHandler{
		subRepo:    subRepo,
		gateway:    gateway,
		outboxRepo: outboxRepo,
		uow:        uow,
		logger:     logger,
	}
}

// Handle executes the CancelSubscriptionCommand.
func (h *CancelSubscriptionHandler) Handle(ctx context.Context, cmd CancelSubscriptionCommand) error {
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subRepo.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		if err := sub.Cancel(cmd.Reason); err != nil {
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
		return h.outboxRepo.SaveBatch(txCtx, msgs)
	})
	if err != nil {
		return err
	}

	// Tear down the provider-side schedule after commit. The subscription is
	// cancelled either way; a leftover provider schedule charges nothing
	// because the billing run skips cancelled subscriptions.
	if err := h.gateway.CancelBilling(ctx, cmd.SubscriptionID); err != nil {
		h.logger.Warn("failed to cancel provider billing schedule",
			slog.String("subscription_id", cmd.SubscriptionID.String()),
			slog.String("error", err.Error()))
	}

	return nil
}
