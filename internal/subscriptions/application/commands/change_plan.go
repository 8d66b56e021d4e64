package commands

import (
	"context"

	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
)

// ChangePlanCommand contains the data needed to switch a subscription to a new plan.
type ChangePlanCommand struct {
	SubscriptionID  uuid.UUID
	NewPlanID       string
	NewMonthlyPrice float64
	Currency        string
}

// ChangePlanHandler handles the ChangePlanCommand.
type ChangePlanHandler struct {
	subRepo    subscription.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewChangePlanHandler creates a new ChangePlanHandler.
func NewChangePlanHandler(subRepo subscription.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ChangePlanHandler {
	return &ChangePlanHandler{
		subRepo:    subRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the ChangePlanCommand.
func (h *ChangePlanHandler) Handle(ctx context.Context, cmd ChangePlanCommand) error {
	newPrice, err := domain.NewMoney(cmd.NewMonthlyPrice, cmd.Currency)
	if err != nil {
		return err
	}

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subRepo.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		if err := sub.ChangePlan(cmd.NewPlanID, newPrice); err != nil {
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
