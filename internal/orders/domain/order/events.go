package order

import (
	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Order"

	RoutingKeyCreated   = "order.created"
	RoutingKeyConfirmed = "order.confirmed"
	RoutingKeyPaid      = "order.paid"
	RoutingKeyShipped   = "order.shipped"
	RoutingKeyDelivered = "order.delivered"
	RoutingKeyCancelled = "order.cancelled"
)

// Created is emitted when a new order is created.
type Created struct {
	domain.BaseEvent
	CustomerID     string     `json:"customer_id"`
	OrderType      string     `json:"order_type"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
}

// NewCreated creates a Created event.
func NewCreated(orderID uuid.UUID, customerID, orderType string, subscriptionID *uuid.UUID) *Created {
	return &Created{
		BaseEvent:      domain.NewBaseEvent(orderID, AggregateType, RoutingKeyCreated),
		CustomerID:     customerID,
		OrderType:      orderType,
		SubscriptionID: subscriptionID,
	}
}

// Confirmed is emitted when an order is confirmed.
type Confirmed struct {
	domain.BaseEvent
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
}

// NewConfirmed creates a Confirmed event.
func NewConfirmed(orderID uuid.UUID, totalCents int64, currency string) *Confirmed {
	return &Confirmed{
		BaseEvent:  domain.NewBaseEvent(orderID, AggregateType, RoutingKeyConfirmed),
		TotalCents: totalCents,
		Currency:   currency,
	}
}

// Paid is emitted when payment for an order is recorded.
type Paid struct {
	domain.BaseEvent
}

// NewPaid creates a Paid event.
func NewPaid(orderID uuid.UUID) *Paid {
	return &Paid{
		BaseEvent: domain.NewBaseEvent(orderID, AggregateType, RoutingKeyPaid),
	}
}

// Shipped is emitted when an order ships.
type Shipped struct {
	domain.BaseEvent
}

// NewShipped creates a Shipped event.
func NewShipped(orderID uuid.UUID) *Shipped {
	return &Shipped{
		BaseEvent: domain.NewBaseEvent(orderID, AggregateType, RoutingKeyShipped),
	}
}

// Delivered is emitted when an order is delivered.
type Delivered struct {
	domain.BaseEvent
}

// NewDelivered creates a Delivered event.
func NewDelivered(orderID uuid.UUID) *Delivered {
	return &Delivered{
		BaseEvent: domain.NewBaseEvent(orderID, AggregateType, RoutingKeyDelivered),
	}
}

// Cancelled is emitted when an order is cancelled.
type Cancelled struct {
	domain.BaseEvent
	Reason string `json:"reason"`
}

// NewCancelled creates a Cancelled event.
func NewCancelled(orderID uuid.UUID, reason string) *Cancelled {
	return &Cancelled{
		BaseEvent: domain.NewBaseEvent(orderID, AggregateType, RoutingKeyCancelled),
		Reason:    reason,
	}
}
