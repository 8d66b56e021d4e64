package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for subscription persistence.
type Repository interface {
	Save(ctx context.Context, sub *Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*Subscription, error)

	// FindDueForBilling returns ACTIVE subscriptions whose next billing date
	// is on or before asOf.
	FindDueForBilling(ctx context.Context, asOf time.Time, limit int) ([]*Subscription, error)

	// FindSuspendedInGrace returns SUSPENDED subscriptions still inside their
	// grace period as of asOf.
	FindSuspendedInGrace(ctx context.Context, asOf time.Time, limit int) ([]*Subscription, error)

	// FindGraceExpired returns SUSPENDED subscriptions whose grace period
	// elapsed before asOf.
	FindGraceExpired(ctx context.Context, asOf time.Time, limit int) ([]*Subscription, error)
}
