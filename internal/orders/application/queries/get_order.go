package queries

import (
	"context"
	"errors"
	"time"

	"github.com/cadencebilling/cadence/internal/orders/domain/order"
	sharedDomain "github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// ErrOrderNotFound is returned when an order is not found.
var ErrOrderNotFound = errors.New("order not found")

// OrderItemDTO is one order line in the read model.
type OrderItemDTO struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// OrderDTO is the read model returned by order queries.
type OrderDTO struct {
	ID             uuid.UUID      `json:"id"`
	CustomerID     string         `json:"customer_id"`
	Status         string         `json:"status"`
	OrderType      string         `json:"order_type"`
	SubscriptionID *uuid.UUID     `json:"subscription_id,omitempty"`
	Currency       string         `json:"currency"`
	TotalAmount    float64        `json:"total_amount"`
	Items          []OrderItemDTO `json:"items"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func toDTO(o *order.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, OrderItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.Amount(),
			Subtotal:    item.Subtotal().Amount(),
		})
	}
	return &OrderDTO{
		ID:             o.ID(),
		CustomerID:     o.CustomerID().String(),
		Status:         string(o.Status()),
		OrderType:      string(o.OrderType()),
		SubscriptionID: o.SubscriptionID(),
		Currency:       o.Currency(),
		TotalAmount:    o.TotalAmount().Amount(),
		Items:          items,
		CreatedAt:      o.CreatedAt(),
		UpdatedAt:      o.UpdatedAt(),
	}
}

// GetOrderQuery contains the parameters for getting a single order.
type GetOrderQuery struct {
	OrderID uuid.UUID
}

// GetOrderHandler handles the GetOrderQuery.
type GetOrderHandler struct {
	orderRepo order.Repository
}

// NewGetOrderHandler creates a new GetOrderHandler.
func NewGetOrderHandler(orderRepo order.Repository) *GetOrderHandler {
	return &GetOrderHandler{orderRepo: orderRepo}
}

// Handle executes the GetOrderQuery.
func (h *GetOrderHandler) Handle(ctx context.Context, query GetOrderQuery) (*OrderDTO, error) {
	o, err := h.orderRepo.FindByID(ctx, query.OrderID)
	if err != nil {
		if errors.Is(err, sharedDomain.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return toDTO(o), nil
}

// ListCustomerOrdersQuery contains the parameters for listing a customer's orders.
type ListCustomerOrdersQuery struct {
	CustomerID string
}

// ListCustomerOrdersHandler handles the ListCustomerOrdersQuery.
type ListCustomerOrdersHandler struct {
	orderRepo order.Repository
}

// NewListCustomerOrdersHandler creates a new ListCustomerOrdersHandler.
func NewListCustomerOrdersHandler(orderRepo order.Repository) *ListCustomerOrdersHandler {
	return &ListCustomerOrdersHandler{orderRepo: orderRepo}
}

// Handle executes the ListCustomerOrdersQuery.
func (h *ListCustomerOrdersHandler) Handle(ctx context.Context, query ListCustomerOrdersQuery) ([]*OrderDTO, error) {
	orders, err := h.orderRepo.FindByCustomerID(ctx, query.CustomerID)
	if err != nil {
		return nil, err
	}
	dtos := make([]*OrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toDTO(o))
	}
	return dtos, nil
}
