package commands

import (
	"context"

	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
)

// ResumeSubscriptionCommand contains the data needed to resume a paused subscription.
type ResumeSubscriptionCommand struct {
	SubscriptionID uuid.UUID
}

// ResumeSubscriptionHandler handles the ResumeSubscriptionCommand.
type ResumeSubscriptionHandler struct {
	subRepo    subscription.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewResumeSubscriptionHandler creates a new ResumeSubscriptionHandler.
func NewResumeSubscriptionHandler(subRepo subscription.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ResumeSubscriptionHandler {
	return &ResumeSubscriptionHandler{
		subRepo:    subRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the ResumeSubscriptionCommand.
func (h *ResumeSubscriptionHandler) Handle(ctx context.Context, cmd ResumeSubscriptionCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subRepo.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		if err := sub.Resume(); err != nil {
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
