package commands

import (
	"context"
	"errors"

	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
)

// ErrSubscriptionNotFound is returned when the target subscription does not exist.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// ActivateSubscriptionCommand contains the data needed to activate a subscription.
type ActivateSubscriptionCommand struct {
	SubscriptionID uuid.UUID
}

// ActivateSubscriptionHandler handles the ActivateSubscriptionCommand.
type ActivateSubscriptionHandler struct {
	subRepo    subscription.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewActivateSubscriptionHandler creates a new ActivateSubscriptionHandler.
func NewActivateSubscriptionHandler(subRepo subscription.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ActivateSubscriptionHandler {
	return &ActivateSubscriptionHandler{
		subRepo:    subRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the ActivateSubscriptionCommand.
func (h *ActivateSubscriptionHandler) Handle(ctx context.Context, cmd ActivateSubscriptionCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subRepo.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		if err := sub.Activate(); err != nil {
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
