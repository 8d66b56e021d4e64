package commands

import (
	"context"
	"errors"

	"github.com/cadencebilling/cadence/internal/orders/domain/order"
	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ErrOrderNotFound is returned when the target order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// OrderItemInput describes one line item of a new order.
type OrderItemInput struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   float64
}

// CreateOrderCommand contains the data needed to create a one-time order.
type CreateOrderCommand struct {
	CustomerID string
	Currency   string
	Items      []OrderItemInput
}

// CreateOrderResult contains the result of creating an order.
type CreateOrderResult struct {
	OrderID     uuid.UUID
	TotalAmount float64
}

// CreateOrderHandler handles the CreateOrderCommand.
type CreateOrderHandler struct {
	orderRepo  order.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateOrderHandler creates a new CreateOrderHandler.
func NewCreateOrderHandler(orderRepo order.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateOrderHandler {
	return &CreateOrderHandler{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CreateOrderCommand.
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error) {
	var result *CreateOrderResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		o, err := order.New(domain.NewCustomerID(cmd.CustomerID), cmd.Currency)
		if err != nil {
			return err
		}

		for _, item := range cmd.Items {
			price, err := domain.NewMoney(item.UnitPrice, cmd.Currency)
			if err != nil {
				return err
			}
			if err := o.AddItem(item.ProductID, item.ProductName, item.Quantity, price); err != nil {
				return err
			}
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
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		result = &CreateOrderResult{
			OrderID:     o.ID(),
			TotalAmount: o.TotalAmount().Amount(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
