package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
)

// FakeBillingGateway is a deterministic in-memory provider for local runs
// and tests. Payment methods whose id contains "declined" are declined with
// an insufficient-funds code; everything else charges successfully.
type FakeBillingGateway struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]string
	charges   int
}

// NewFakeBillingGateway creates a new fake provider.
func NewFakeBillingGateway() *FakeBillingGateway {
	return &FakeBillingGateway{schedules: make(map[uuid.UUID]string)}
}

// ScheduleBilling records the schedule in memory.
func (g *FakeBillingGateway) ScheduleBilling(_ context.Context, subscriptionID uuid.UUID, _ domain.Money, firstBillingDate time.Time, _ string) (*subscription.ScheduleResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	billingID := fmt.Sprintf("fake_sched_%s", subscriptionID)
	g.schedules[subscriptionID] = billingID
	return &subscription.ScheduleResult{
		BillingID: billingID,
		NextDate:  firstBillingDate,
	}, nil
}

// ProcessBilling charges or declines deterministically by payment method id.
func (g *FakeBillingGateway) ProcessBilling(_ context.Context, subscriptionID uuid.UUID, amount domain.Money, paymentMethodID string, _ bool) (*subscription.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.Contains(paymentMethodID, "declined") {
		return &subscription.ChargeResult{
			Success:        false,
			DeclineCode:    "insufficient_funds",
			DeclineMessage: "insufficient funds",
		}, nil
	}

	g.charges++
	return &subscription.ChargeResult{
		Success:       true,
		TransactionID: fmt.Sprintf("fake_txn_%s_%d", subscriptionID, g.charges),
		ChargedAmount: amount,
	}, nil
}

// CancelBilling forgets the schedule.
func (g *FakeBillingGateway) CancelBilling(_ context.Context, subscriptionID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.schedules, subscriptionID)
	return nil
}

// GetBillingStatus reports ACTIVE for scheduled subscriptions.
func (g *FakeBillingGateway) GetBillingStatus(_ context.Context, subscriptionID uuid.UUID) (subscription.BillingStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.schedules[subscriptionID]; ok {
		return subscription.BillingStatusActive, nil
	}
	return subscription.BillingStatusUnknown, nil
}
