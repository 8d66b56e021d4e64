package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for order persistence.
type Repository interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*Order, error)

	// FindBySubscriptionID returns the recurring order generated for a
	// subscription, or nil when none exists. The saga consumer uses this as
	// its idempotency check.
	FindBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) (*Order, error)
}
