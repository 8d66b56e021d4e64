package commands

import (
	"context"

	"github.com/cadencebilling/cadence/internal/orders/domain/order"
	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CancelOrderCommand contains the data needed to cancel an order.
type CancelOrderCommand struct {
	OrderID uuid.UUID
	Reason  string
}

// CancelOrderHandler handles the CancelOrderCommand.
type CancelOrderHandler struct {
	orderRepo  order.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCancelOrderHandler creates a new CancelOrderHandler.
func NewCancelOrderHandler(orderRepo order.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CancelOrderHandler {
	return &CancelOrderHandler{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CancelOrderCommand.
func (h *CancelOrderHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		o, err := h.orderRepo.FindByID(txCtx, cmd.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}

		if err := o.Cancel(cmd.Reason); err != nil {
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
