package commands

import (
	"context"

	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
)

// PauseSubscriptionCommand contains the data needed to pause a subscription.
type PauseSubscriptionCommand struct {
	SubscriptionID uuid.UUID
}

// PauseSubscriptionHandler handles the PauseSubscriptionCommand.
type PauseSubscriptionHandler struct {
	subRepo    subscription.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewPauseSubscriptionHandler creates a new PauseSubscriptionHandler.
func NewPauseSubscriptionHandler(subRepo subscription.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *PauseSubscriptionHandler {
	return &PauseSubscriptionHandler{
		subRepo:    subRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the PauseSubscriptionCommand.
func (h *PauseSubscriptionHandler) Handle(ctx context.Context, cmd PauseSubscriptionCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subRepo.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		if err := sub.Pause(); err != nil {
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
}
