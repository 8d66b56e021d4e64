package queries

import (
	"context"
	"errors"
	"time"

	sharedDomain "github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
)

// ErrSubscriptionNotFound is returned when a subscription is not found.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionDTO is the read model returned by subscription queries.
type SubscriptionDTO struct {
	ID                    uuid.UUID  `json:"id"`
	CustomerID            string     `json:"customer_id"`
	CustomerEmail         string     `json:"customer_email"`
	PlanID                string     `json:"plan_id"`
	Status                string     `json:"status"`
	BillingCycle          string     `json:"billing_cycle"`
	MonthlyPrice          float64    `json:"monthly_price"`
	Currency              string     `json:"currency"`
	CycleAmount           float64    `json:"cycle_amount"`
	TrialPeriodDays       int        `json:"trial_period_days"`
	NextBillingDate       *time.Time `json:"next_billing_date,omitempty"`
	GracePeriodEnd        *time.Time `json:"grace_period_end,omitempty"`
	FailedPaymentAttempts int        `json:"failed_payment_attempts"`
	CancellationReason    string     `json:"cancellation_reason,omitempty"`
	ActivatedAt           *time.Time `json:"activated_at,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

func toDTO(sub *subscription.Subscription) *SubscriptionDTO {
	return &SubscriptionDTO{
		ID:                    sub.ID(),
		CustomerID:            sub.CustomerID().String(),
		CustomerEmail:         sub.CustomerEmail(),
		PlanID:                sub.PlanID(),
		Status:                string(sub.Status()),
		BillingCycle:          string(sub.BillingCycle()),
		MonthlyPrice:          sub.MonthlyPrice().Amount(),
		Currency:              sub.MonthlyPrice().Currency(),
		CycleAmount:           sub.CalculateBillingAmount().Amount(),
		TrialPeriodDays:       sub.TrialPeriodDays(),
		NextBillingDate:       sub.NextBillingDate(),
		GracePeriodEnd:        sub.GracePeriodEnd(),
		FailedPaymentAttempts: sub.FailedPaymentAttempts(),
		CancellationReason:    sub.CancellationReason(),
		ActivatedAt:           sub.ActivatedAt(),
		CancelledAt:           sub.CancelledAt(),
		CreatedAt:             sub.CreatedAt(),
	}
}

// GetSubscriptionQuery contains the parameters for getting a single subscription.
type GetSubscriptionQuery struct {
	SubscriptionID uuid.UUID
}

// GetSubscriptionHandler handles the GetSubscriptionQuery.
type GetSubscriptionHandler struct {
	subRepo subscription.Repository
}

// NewGetSubscriptionHandler creates a new GetSubscriptionHandler.
func NewGetSubscriptionHandler(subRepo subscription.Repository) *GetSubscriptionHandler {
	return &GetSubscriptionHandler{subRepo: subRepo}
}

// Handle executes the GetSubscriptionQuery.
func (h *GetSubscriptionHandler) Handle(ctx context.Context, query GetSubscriptionQuery) (*SubscriptionDTO, error) {
	sub, err := h.subRepo.FindByID(ctx, query.SubscriptionID)
	if err != nil {
		if errors.Is(err, sharedDomain.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	return toDTO(sub), nil
}

// ListCustomerSubscriptionsQuery contains the parameters for listing a
// customer's subscriptions.
type ListCustomerSubscriptionsQuery struct {
	CustomerID string
}

// ListCustomerSubscriptionsHandler handles the ListCustomerSubscriptionsQuery.
type ListCustomerSubscriptionsHandler struct {
	subRepo subscription.Repository
}

// NewListCustomerSubscriptionsHandler creates a new ListCustomerSubscriptionsHandler.
func NewListCustomerSubscriptionsHandler(subRepo subscription.Repository) *ListCustomerSubscriptionsHandler {
	return &ListCustomerSubscriptionsHandler{subRepo: subRepo}
}

// Handle executes the ListCustomerSubscriptionsQuery.
func (h *ListCustomerSubscriptionsHandler) Handle(ctx context.Context, query ListCustomerSubscriptionsQuery) ([]*SubscriptionDTO, error) {
	subs, err := h.subRepo.FindByCustomerID(ctx, query.CustomerID)
	if err != nil {
		return nil, err
	}

	dtos := make([]*SubscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		dtos = append(dtos, toDTO(sub))
	}
	return dtos, nil
}
