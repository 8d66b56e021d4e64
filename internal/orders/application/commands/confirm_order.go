package commands

import (
	"context"

	"github.com/cadencebilling/cadence/internal/orders/domain/order"
	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ConfirmOrderCommand contains the data needed to confirm an order.
type ConfirmOrderCommand struct {
	OrderID uuid.UUID
}

// ConfirmOrderHandler handles the ConfirmOrderCommand.
type ConfirmOrderHandler struct {
	orderRepo  order.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewConfirmOrderHandler creates a new ConfirmOrderHandler.
func NewConfirmOrderHandler(orderRepo order.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ConfirmOrderHandler {
	return &ConfirmOrderHandler{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the ConfirmOrderCommand.
func (h *ConfirmOrderHandler) Handle(ctx context.Context, cmd ConfirmOrderCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		o, err := h.orderRepo.FindByID(txCtx, cmd.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}

		if err := o.Confirm(); err != nil {
			return err
		}

		if err := h.orderRepo.Save(txCtx, o); err != nil {
			return err
		}

		events := o.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata())

		msgs, err := outbox.FromDomainEvents(events)
		if err != nil {
			return err
		}
		return h.outboxRepo.SaveBatch(txCtx, msgs)
	})
}
