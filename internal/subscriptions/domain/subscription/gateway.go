package subscription

import (
	"context"
	"time"

	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// BillingStatus is the gateway's view of a subscription's billing setup.
type BillingStatus string

const (
	BillingStatusActive    BillingStatus = "ACTIVE"
	BillingStatusFailed    BillingStatus = "FAILED"
	BillingStatusCancelled BillingStatus = "CANCELLED"
	BillingStatusUnknown   BillingStatus = "UNKNOWN"
)

// ChargeResult is the outcome of a charge attempt. A declined charge is a
// result, not an error: Success is false and DeclineCode/DeclineMessage say
// why. Errors are reserved for transport or gateway malfunction.
type ChargeResult struct {
	Success        bool
	TransactionID  string
	ChargedAmount  domain.Money
	DeclineCode    string
	DeclineMessage string
}

// ScheduleResult is the outcome of registering a recurring billing schedule.
type ScheduleResult struct {
	BillingID string
	NextDate  time.Time
}

// BillingGateway is the port to the external payment provider. Card
// tokenization and the provider's own retry rules live behind it.
type BillingGateway interface {
	// ScheduleBilling registers a recurring schedule with the provider.
	ScheduleBilling(ctx context.Context, subscriptionID uuid.UUID, amount domain.Money, firstBillingDate time.Time, paymentMethodID string) (*ScheduleResult, error)

	// ProcessBilling charges the payment method once. isRetry marks a
	// past-due retry so the provider can apply distinct velocity rules.
	ProcessBilling(ctx context.Context, subscriptionID uuid.UUID, amount domain.Money, paymentMethodID string, isRetry bool) (*ChargeResult, error)

	// CancelBilling tears down the provider-side schedule.
	CancelBilling(ctx context.Context, subscriptionID uuid.UUID) error

	// GetBillingStatus reports the provider-side status.
	GetBillingStatus(ctx context.Context, subscriptionID uuid.UUID) (BillingStatus, error)
}
