package order

import (
	"errors"
	"strings"

	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrEmptyCustomerID     = errors.New("order customer id cannot be empty")
	ErrEmptyProductID      = errors.New("order item product id cannot be empty")
	ErrNonPositiveQty      = errors.New("order item quantity must be positive")
	ErrTooManyItems        = errors.New("cannot exceed 50 items")
	ErrNoItems             = errors.New("order must have at least one item")
	ErrNotPending          = errors.New("order items can only change while pending")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrAlreadyCancelled    = errors.New("order is already cancelled")
	ErrTerminalStatus      = errors.New("order is in a terminal status")
	ErrMissingSubscription = errors.New("recurring order requires a subscription id")
)

// MaxItems is the item cap per order.
const MaxItems = 50

// Status represents the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Type distinguishes customer checkouts from saga-generated recurring orders.
type Type string

const (
	TypeOneTime               Type = "one_time"
	TypeSubscriptionGenerated Type = "subscription_generated"
)

// Item is one order line. Items are value data owned by the order.
type Item struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   domain.Money
}

// Subtotal returns quantity times unit price.
func (i Item) Subtotal() domain.Money {
	sub, _ := i.UnitPrice.MultiplyInt(i.Quantity)
	return sub
}

// Order is the aggregate root for a purchase. Items are mutable only while
// PENDING; the total is recomputed on every item mutation.
type Order struct {
	domain.BaseAggregateRoot
	customerID     domain.CustomerID
	status         Status
	orderType      Type
	subscriptionID *uuid.UUID
	currency       string
	items          []Item
	totalAmount    domain.Money
}

// New creates a one-time order in PENDING status.
func New(customerID domain.CustomerID, currency string) (*Order, error) {
	if customerID.IsEmpty() {
		return nil, ErrEmptyCustomerID
	}
	total, err := domain.NewMoney(0, currency)
	if err != nil {
		return nil, err
	}

	o := &Order{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		customerID:        customerID,
		status:            StatusPending,
		orderType:         TypeOneTime,
		currency:          total.Currency(),
		totalAmount:       total,
	}

	o.AddDomainEvent(NewCreated(o.ID(), customerID.String(), string(TypeOneTime), nil))

	return o, nil
}

// NewRecurring creates an order generated from an activated subscription.
func NewRecurring(customerID domain.CustomerID, subscriptionID uuid.UUID, currency string) (*Order, error) {
	if customerID.IsEmpty() {
		return nil, ErrEmptyCustomerID
	}
	if subscriptionID == uuid.Nil {
		return nil, ErrMissingSubscription
	}
	total, err := domain.NewMoney(0, currency)
	if err != nil {
		return nil, err
	}

	o := &Order{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		customerID:        customerID,
		status:            StatusPending,
		orderType:         TypeSubscriptionGenerated,
		subscriptionID:    &subscriptionID,
		currency:          total.Currency(),
		totalAmount:       total,
	}

	o.AddDomainEvent(NewCreated(o.ID(), customerID.String(), string(TypeSubscriptionGenerated), &subscriptionID))

	return o, nil
}

// Rehydrate recreates an order from persisted state.
func Rehydrate(
	entity domain.BaseEntity,
	version int,
	customerID domain.CustomerID,
	status Status,
	orderType Type,
	subscriptionID *uuid.UUID,
	currency string,
	items []Item,
) *Order {
	o := &Order{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity, version),
		customerID:        customerID,
		status:            status,
		orderType:         orderType,
		subscriptionID:    subscriptionID,
		currency:          currency,
		items:             items,
	}
	o.recomputeTotal()
	return o
}

// Getters

func (o *Order) CustomerID() domain.CustomerID { return o.customerID }
func (o *Order) Status() Status                { return o.status }
func (o *Order) OrderType() Type               { return o.orderType }
func (o *Order) SubscriptionID() *uuid.UUID    { return o.subscriptionID }
func (o *Order) Currency() string              { return o.currency }
func (o *Order) TotalAmount() domain.Money     { return o.totalAmount }

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

func (o *Order) isTerminal() bool {
	return o.status == StatusDelivered || o.status == StatusCancelled
}

// AddItem appends a line while the order is PENDING.
func (o *Order) AddItem(productID, productName string, quantity int, unitPrice domain.Money) error {
	if o.status != StatusPending {
		return ErrNotPending
	}
	if strings.TrimSpace(productID) == "" {
		return ErrEmptyProductID
	}
	if quantity <= 0 {
		return ErrNonPositiveQty
	}
	if unitPrice.Currency() != o.currency {
		return domain.ErrCurrencyMismatch
	}
	if len(o.items) >= MaxItems {
		return ErrTooManyItems
	}

	o.items = append(o.items, Item{
		ProductID:   strings.TrimSpace(productID),
		ProductName: strings.TrimSpace(productName),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	})
	o.recomputeTotal()
	o.Touch()

	return nil
}

// RemoveItem deletes the line at the given position while PENDING.
func (o *Order) RemoveItem(position int) error {
	if o.status != StatusPending {
		return ErrNotPending
	}
	if position < 0 || position >= len(o.items) {
		return errors.New("order item position out of range")
	}

	o.items = append(o.items[:position], o.items[position+1:]...)
	o.recomputeTotal()
	o.Touch()

	return nil
}

// Confirm moves a PENDING order with at least one item to CONFIRMED.
func (o *Order) Confirm() error {
	if o.status != StatusPending {
		return ErrInvalidTransition
	}
	if len(o.items) == 0 {
		return ErrNoItems
	}

	o.status = StatusConfirmed
	o.Touch()
	o.AddDomainEvent(NewConfirmed(o.ID(), o.totalAmount.Cents(), o.currency))

	return nil
}

// MarkPaid moves a CONFIRMED order to PAID.
func (o *Order) MarkPaid() error {
	if o.status != StatusConfirmed {
		return ErrInvalidTransition
	}
	o.status = StatusPaid
	o.Touch()
	o.AddDomainEvent(NewPaid(o.ID()))
	return nil
}

// MarkShipped moves a PAID order to SHIPPED.
func (o *Order) MarkShipped() error {
	if o.status != StatusPaid {
		return ErrInvalidTransition
	}
	o.status = StatusShipped
	o.Touch()
	o.AddDomainEvent(NewShipped(o.ID()))
	return nil
}

// MarkDelivered moves a SHIPPED order to DELIVERED.
func (o *Order) MarkDelivered() error {
	if o.status != StatusShipped {
		return ErrInvalidTransition
	}
	o.status = StatusDelivered
	o.Touch()
	o.AddDomainEvent(NewDelivered(o.ID()))
	return nil
}

// Cancel terminates the order from any non-terminal status.
func (o *Order) Cancel(reason string) error {
	if o.status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if o.isTerminal() {
		return ErrTerminalStatus
	}

	o.status = StatusCancelled
	o.Touch()
	o.AddDomainEvent(NewCancelled(o.ID(), strings.TrimSpace(reason)))

	return nil
}

func (o *Order) recomputeTotal() {
	total, _ := domain.NewMoney(0, o.currency)
	for _, item := range o.items {
		total, _ = total.Add(item.Subtotal())
	}
	o.totalAmount = total
}
