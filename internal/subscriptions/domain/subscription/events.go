package subscription

import (
	"time"

	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Subscription"

	RoutingKeyCreated          = "subscription.created"
	RoutingKeyActivated        = "subscription.activated"
	RoutingKeyPaused           = "subscription.paused"
	RoutingKeyResumed          = "subscription.resumed"
	RoutingKeyPlanChanged      = "subscription.plan_changed"
	RoutingKeyCancelled        = "subscription.cancelled"
	RoutingKeyBillingProcessed = "billing.processed"
	RoutingKeyBillingFailed    = "billing.failed"
)

// Created is emitted when a new subscription is created.
type Created struct {
	domain.BaseEvent
	CustomerID      string `json:"customer_id"`
	PlanID          string `json:"plan_id"`
	BillingCycle    string `json:"billing_cycle"`
	MonthlyCents    int64  `json:"monthly_cents"`
	Currency        string `json:"currency"`
	TrialPeriodDays int    `json:"trial_period_days"`
}

// NewCreated creates a Created event.
func NewCreated(subscriptionID uuid.UUID, customerID, planID, cycle string, monthlyCents int64, currency string, trialDays int) *Created {
	return &Created{
		BaseEvent:       domain.NewBaseEvent(subscriptionID, AggregateType, RoutingKeyCreated),
		CustomerID:      customerID,
		PlanID:          planID,
		BillingCycle:    cycle,
		MonthlyCents:    monthlyCents,
		Currency:        currency,
		TrialPeriodDays: trialDays,
	}
}

// Activated is emitted when a subscription becomes ACTIVE. It carries
// everything the order side needs to build the recurring order.
type Activated struct {
	domain.BaseEvent
	CustomerID      string    `json:"customer_id"`
	PlanID          string    `json:"plan_id"`
	BillingCycle    string    `json:"billing_cycle"`
	CycleCents      int64     `json:"cycle_cents"`
	Currency        string    `json:"currency"`
	NextBillingDate time.Time `json:"next_billing_date"`
}

// NewActivated creates an Activated event.
func NewActivated(subscriptionID uuid.UUID, customerID, planID, cycle string, cycleCents int64, currency string, nextBillingDate time.Time) *Activated {
	return &Activated{
		BaseEvent:       domain.NewBaseEvent(subscriptionID, AggregateType, RoutingKeyActivated),
		CustomerID:      customerID,
		PlanID:          planID,
		BillingCycle:    cycle,
		CycleCents:      cycleCents,
		Currency:        currency,
		NextBillingDate: nextBillingDate,
	}
}

// Paused is emitted when billing is paused.
type Paused struct {
	domain.BaseEvent
}

// NewPaused creates a Paused event.
func NewPaused(subscriptionID uuid.UUID) *Paused {
	return &Paused{
		BaseEvent: domain.NewBaseEvent(subscriptionID, AggregateType, RoutingKeyPaused),
	}
}

// Resumed is emitted when a paused subscription reactivates.
type Resumed struct {
	domain.BaseEvent
}

// NewResumed creates a Resumed event.
func NewResumed(subscriptionID uuid.UUID) *Resumed {
	return &Resumed{
		BaseEvent: domain.NewBaseEvent(subscriptionID, AggregateType, RoutingKeyResumed),
	}
}

// PlanChanged is emitted when the plan or price changes.
type PlanChanged struct {
	domain.BaseEvent
	OldPlanID    string `json:"old_plan_id"`
	NewPlanID    string `json:"new_plan_id"`
	MonthlyCents int64  `json:"monthly_cents"`
	Currency     string `json:"currency"`
}

// NewPlanChanged creates a PlanChanged event.
func NewPlanChanged(subscriptionID uuid.UUID, oldPlanID, newPlanID string, monthlyCents int64, currency string) *PlanChanged {
	return &PlanChanged{
		BaseEvent:    domain.NewBaseEvent(subscriptionID, AggregateType, RoutingKeyPlanChanged),
		OldPlanID:    oldPlanID,
		NewPlanID:    newPlanID,
		MonthlyCents: monthlyCents,
		Currency:     currency,
	}
}

// Cancelled is emitted when a subscription terminates.
type Cancelled struct {
	domain.BaseEvent
	CustomerID string `json:"customer_id"`
	Reason     string `json:"reason"`
}

// NewCancelled creates a Cancelled event.
func NewCancelled(subscriptionID uuid.UUID, customerID, reason string) *Cancelled {
	return &Cancelled{
		BaseEvent:  domain.NewBaseEvent(subscriptionID, AggregateType, RoutingKeyCancelled),
		CustomerID: customerID,
		Reason:     reason,
	}
}

// BillingProcessed is emitted after a successful charge.
type BillingProcessed struct {
	domain.BaseEvent
	TransactionID   string    `json:"transaction_id"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	NextBillingDate time.Time `json:"next_billing_date"`
}

// NewBillingProcessed creates a BillingProcessed event.
func NewBillingProcessed(subscriptionID uuid.UUID, transactionID string, amountCents int64, currency string, nextBillingDate time.Time) *BillingProcessed {
	return &BillingProcessed{
		BaseEvent:       domain.NewBaseEvent(subscriptionID, AggregateType, RoutingKeyBillingProcessed),
		TransactionID:   transactionID,
		AmountCents:     amountCents,
		Currency:        currency,
		NextBillingDate: nextBillingDate,
	}
}

// BillingFailed is emitted after a failed charge attempt.
type BillingFailed struct {
	domain.BaseEvent
	Attempt int    `json:"attempt"`
	Reason  string `json:"reason"`
}

// NewBillingFailed creates a BillingFailed event.
func NewBillingFailed(subscriptionID uuid.UUID, attempt int, reason string) *BillingFailed {
	return &BillingFailed{
		BaseEvent: domain.NewBaseEvent(subscriptionID, AggregateType, RoutingKeyBillingFailed),
		Attempt:   attempt,
		Reason:    reason,
	}
}
