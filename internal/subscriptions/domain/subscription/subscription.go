package subscription

import (
	"errors"
	"strings"
	"time"

	"github.com/cadencebilling/cadence/internal/shared/domain"
)

var (
	ErrEmptyCustomerID     = errors.New("subscription customer id cannot be empty")
	ErrEmptyCustomerEmail  = errors.New("subscription customer email cannot be empty")
	ErrEmptyPlanID         = errors.New("subscription plan id cannot be empty")
	ErrEmptyPaymentMethod  = errors.New("subscription payment method id cannot be empty")
	ErrNonPositivePrice    = errors.New("subscription monthly price must be positive")
	ErrNegativeTrialPeriod = errors.New("trial period days cannot be negative")
	ErrInvalidBillingCycle = errors.New("invalid billing cycle")
	ErrNotActive           = errors.New("subscription is not active")
	ErrNotPaused           = errors.New("subscription is not paused")
	ErrNotActivatable      = errors.New("subscription cannot be activated from its current status")
	ErrAlreadyCancelled    = errors.New("subscription is already cancelled")
	ErrBillingNotAllowed   = errors.New("subscription status does not allow billing")
	ErrBillingNotDue       = errors.New("billing date not reached")
)

const (
	// MaxFailedPaymentAttempts is the consecutive-failure cap; reaching it
	// cancels the subscription immediately.
	MaxFailedPaymentAttempts = 3

	// GracePeriodDays is how long a suspended subscription stays recoverable
	// after a failed charge.
	GracePeriodDays = 7
)

// Status represents the subscription lifecycle state.
type Status string

const (
	// StatusPendingActivation is the initial state of a subscription created
	// without a trial, awaiting its first charge.
	StatusPendingActivation Status = "pending_activation"
	StatusTrial             Status = "trial"
	StatusActive            Status = "active"
	StatusPaused            Status = "paused"
	StatusSuspended         Status = "suspended"
	StatusCancelled         Status = "cancelled"
)

// BillingCycle is the cadence at which a subscription is charged.
type BillingCycle string

const (
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// ParseBillingCycle parses a billing cycle string.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch BillingCycle(strings.ToLower(strings.TrimSpace(s))) {
	case CycleMonthly:
		return CycleMonthly, nil
	case CycleQuarterly:
		return CycleQuarterly, nil
	case CycleYearly:
		return CycleYearly, nil
	default:
		return "", ErrInvalidBillingCycle
	}
}

// Months returns the cycle length in months, which is also the multiplier
// applied to the monthly price for one charge.
func (c BillingCycle) Months() int {
	switch c {
	case CycleQuarterly:
		return 3
	case CycleYearly:
		return 12
	default:
		return 1
	}
}

// Subscription is the aggregate root for one customer-plan billing
// relationship. All status and billing-date mutation goes through its
// methods; nothing else writes these fields.
type Subscription struct {
	domain.BaseAggregateRoot
	customerID            domain.CustomerID
	customerEmail         string
	planID                string
	status                Status
	billingCycle          BillingCycle
	monthlyPrice          domain.Money
	trialPeriodDays       int
	paymentMethodID       string
	nextBillingDate       *time.Time
	gracePeriodEnd        *time.Time
	failedPaymentAttempts int
	cancellationReason    string
	activatedAt           *time.Time
	cancelledAt           *time.Time
}

// New creates a subscription. The initial status is TRIAL when a trial period
// is configured, otherwise PENDING_ACTIVATION awaiting the first charge.
func New(
	customerID domain.CustomerID,
	customerEmail string,
	planID string,
	cycle BillingCycle,
	monthlyPrice domain.Money,
	trialPeriodDays int,
	paymentMethodID string,
) (*Subscription, error) {
	customerEmail = strings.TrimSpace(customerEmail)
	planID = strings.TrimSpace(planID)
	paymentMethodID = strings.TrimSpace(paymentMethodID)

	if customerID.IsEmpty() {
		return nil, ErrEmptyCustomerID
	}
	if customerEmail == "" || !strings.Contains(customerEmail, "@") {
		return nil, ErrEmptyCustomerEmail
	}
	if planID == "" {
		return nil, ErrEmptyPlanID
	}
	if paymentMethodID == "" {
		return nil, ErrEmptyPaymentMethod
	}
	if !monthlyPrice.IsPositive() {
		return nil, ErrNonPositivePrice
	}
	if trialPeriodDays < 0 {
		return nil, ErrNegativeTrialPeriod
	}
	if _, err := ParseBillingCycle(string(cycle)); err != nil {
		return nil, err
	}

	s := &Subscription{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		customerID:        customerID,
		customerEmail:     customerEmail,
		planID:            planID,
		billingCycle:      cycle,
		monthlyPrice:      monthlyPrice,
		trialPeriodDays:   trialPeriodDays,
		paymentMethodID:   paymentMethodID,
	}

	if trialPeriodDays > 0 {
		s.status = StatusTrial
	} else {
		s.status = StatusPendingActivation
	}

	next := s.CalculateNextBillingDate()
	s.nextBillingDate = &next

	s.AddDomainEvent(NewCreated(s.ID(), customerID.String(), planID, string(cycle), monthlyPrice.Cents(), monthlyPrice.Currency(), trialPeriodDays))

	return s, nil
}

// Rehydrate recreates a subscription from persisted state.
func Rehydrate(
	entity domain.BaseEntity,
	version int,
	customerID domain.CustomerID,
	customerEmail string,
	planID string,
	status Status,
	cycle BillingCycle,
	monthlyPrice domain.Money,
	trialPeriodDays int,
	paymentMethodID string,
	nextBillingDate *time.Time,
	gracePeriodEnd *time.Time,
	failedPaymentAttempts int,
	cancellationReason string,
	activatedAt *time.Time,
	cancelledAt *time.Time,
) *Subscription {
	return &Subscription{
		BaseAggregateRoot:     domain.RehydrateBaseAggregateRoot(entity, version),
		customerID:            customerID,
		customerEmail:         customerEmail,
		planID:                planID,
		status:                status,
		billingCycle:          cycle,
		monthlyPrice:          monthlyPrice,
		trialPeriodDays:       trialPeriodDays,
		paymentMethodID:       paymentMethodID,
		nextBillingDate:       nextBillingDate,
		gracePeriodEnd:        gracePeriodEnd,
		failedPaymentAttempts: failedPaymentAttempts,
		cancellationReason:    cancellationReason,
		activatedAt:           activatedAt,
		cancelledAt:           cancelledAt,
	}
}

// Getters

func (s *Subscription) CustomerID() domain.CustomerID { return s.customerID }
func (s *Subscription) CustomerEmail() string         { return s.customerEmail }
func (s *Subscription) PlanID() string                { return s.planID }
func (s *Subscription) Status() Status                { return s.status }
func (s *Subscription) BillingCycle() BillingCycle    { return s.billingCycle }
func (s *Subscription) MonthlyPrice() domain.Money    { return s.monthlyPrice }
func (s *Subscription) TrialPeriodDays() int          { return s.trialPeriodDays }
func (s *Subscription) PaymentMethodID() string       { return s.paymentMethodID }
func (s *Subscription) NextBillingDate() *time.Time   { return s.nextBillingDate }
func (s *Subscription) GracePeriodEnd() *time.Time    { return s.gracePeriodEnd }
func (s *Subscription) FailedPaymentAttempts() int    { return s.failedPaymentAttempts }
func (s *Subscription) CancellationReason() string    { return s.cancellationReason }
func (s *Subscription) ActivatedAt() *time.Time       { return s.activatedAt }
func (s *Subscription) CancelledAt() *time.Time       { return s.cancelledAt }
func (s *Subscription) IsCancelled() bool             { return s.status == StatusCancelled }

// CalculateNextBillingDate computes the next charge date. The anchor is the
// activation date when set, otherwise the creation date. An unconsumed trial
// window pushes the first charge to anchor + trialPeriodDays; afterwards the
// anchor advances by one cycle unit.
func (s *Subscription) CalculateNextBillingDate() time.Time {
	anchor := s.CreatedAt()
	if s.activatedAt != nil {
		anchor = *s.activatedAt
	}

	if s.trialPeriodDays > 0 && s.activatedAt == nil {
		return truncateToDay(anchor.AddDate(0, 0, s.trialPeriodDays))
	}

	return truncateToDay(advanceByCycle(anchor, s.billingCycle))
}

// CalculateBillingAmount derives the charge for one cycle from the stored
// monthly price.
func (s *Subscription) CalculateBillingAmount() domain.Money {
	amount, _ := s.monthlyPrice.MultiplyInt(s.billingCycle.Months())
	return amount
}

// NeedsBilling reports whether the subscription is due for a charge.
func (s *Subscription) NeedsBilling() bool {
	return s.NeedsBillingAt(time.Now().UTC())
}

// NeedsBillingAt reports whether the subscription is due as of the given time.
func (s *Subscription) NeedsBillingAt(asOf time.Time) bool {
	if s.status != StatusActive || s.nextBillingDate == nil {
		return false
	}
	return !s.nextBillingDate.After(truncateToDay(asOf))
}

// Activate transitions a trial or pending subscription to ACTIVE and anchors
// future billing dates on the activation date.
func (s *Subscription) Activate() error {
	if s.status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if s.status != StatusTrial && s.status != StatusPendingActivation {
		return ErrNotActivatable
	}

	now := time.Now().UTC()
	s.activatedAt = &now
	s.status = StatusActive
	next := s.CalculateNextBillingDate()
	s.nextBillingDate = &next
	s.Touch()

	amount := s.CalculateBillingAmount()
	s.AddDomainEvent(NewActivated(s.ID(), s.customerID.String(), s.planID, string(s.billingCycle), amount.Cents(), amount.Currency(), next))

	return nil
}

// Pause suspends billing without starting a grace period. Only an active
// subscription can be paused.
func (s *Subscription) Pause() error {
	if s.status != StatusActive {
		return ErrNotActive
	}

	s.status = StatusPaused
	s.Touch()
	s.AddDomainEvent(NewPaused(s.ID()))

	return nil
}

// Resume reactivates a paused subscription. A billing date that elapsed
// while paused makes the subscription due on the next billing run.
func (s *Subscription) Resume() error {
	if s.status != StatusPaused {
		return ErrNotPaused
	}

	s.status = StatusActive
	s.Touch()
	s.AddDomainEvent(NewResumed(s.ID()))

	return nil
}

// ChangePlan switches the plan and price immediately, without proration of
// the current cycle. Allowed only while ACTIVE.
func (s *Subscription) ChangePlan(newPlanID string, newPrice domain.Money) error {
	if s.status != StatusActive {
		return ErrNotActive
	}
	newPlanID = strings.TrimSpace(newPlanID)
	if newPlanID == "" {
		return ErrEmptyPlanID
	}
	if !newPrice.IsPositive() {
		return ErrNonPositivePrice
	}

	oldPlanID := s.planID
	s.planID = newPlanID
	s.monthlyPrice = newPrice
	s.Touch()
	s.AddDomainEvent(NewPlanChanged(s.ID(), oldPlanID, newPlanID, newPrice.Cents(), newPrice.Currency()))

	return nil
}

// Cancel terminates the subscription. Terminal; every non-cancelled status
// may transition here.
func (s *Subscription) Cancel(reason string) error {
	if s.status == StatusCancelled {
		return ErrAlreadyCancelled
	}

	now := time.Now().UTC()
	s.status = StatusCancelled
	s.cancelledAt = &now
	s.cancellationReason = strings.TrimSpace(reason)
	s.gracePeriodEnd = nil
	s.Touch()
	s.AddDomainEvent(NewCancelled(s.ID(), s.customerID.String(), s.cancellationReason))

	return nil
}

// ProcessSuccessfulBilling records a successful charge: the failure counter
// resets, any grace period clears, a suspended subscription recovers to
// ACTIVE and the billing date rolls forward one cycle.
func (s *Subscription) ProcessSuccessfulBilling(transactionID string) error {
	if s.status != StatusActive && s.status != StatusSuspended {
		return ErrBillingNotAllowed
	}

	amount := s.CalculateBillingAmount()

	s.failedPaymentAttempts = 0
	s.gracePeriodEnd = nil
	s.status = StatusActive

	// Roll forward from the date that was just billed so the schedule stays
	// anchored; fall back to the anchor calculation when the date is missing.
	var next time.Time
	if s.nextBillingDate != nil {
		next = truncateToDay(advanceByCycle(*s.nextBillingDate, s.billingCycle))
	} else {
		next = s.CalculateNextBillingDate()
	}
	s.nextBillingDate = &next
	s.Touch()

	s.AddDomainEvent(NewBillingProcessed(s.ID(), transactionID, amount.Cents(), amount.Currency(), next))

	return nil
}

// ProcessFailedBilling records a failed charge. The subscription suspends
// with a fresh grace period, and the third consecutive failure cancels it
// immediately.
func (s *Subscription) ProcessFailedBilling(reason string) error {
	if s.status != StatusActive && s.status != StatusSuspended {
		return ErrBillingNotAllowed
	}

	s.failedPaymentAttempts++

	if s.failedPaymentAttempts >= MaxFailedPaymentAttempts {
		s.AddDomainEvent(NewBillingFailed(s.ID(), s.failedPaymentAttempts, reason))
		return s.Cancel("max failed payment attempts reached")
	}

	now := time.Now().UTC()
	graceEnd := now.AddDate(0, 0, GracePeriodDays)
	s.status = StatusSuspended
	s.gracePeriodEnd = &graceEnd
	s.Touch()

	s.AddDomainEvent(NewBillingFailed(s.ID(), s.failedPaymentAttempts, reason))

	return nil
}

// IsGraceExpired reports whether the grace period elapsed without a cure.
func (s *Subscription) IsGraceExpired(asOf time.Time) bool {
	return s.status == StatusSuspended && s.gracePeriodEnd != nil && s.gracePeriodEnd.Before(asOf)
}

func advanceByCycle(t time.Time, cycle BillingCycle) time.Time {
	switch cycle {
	case CycleQuarterly:
		return t.AddDate(0, 3, 0)
	case CycleYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
