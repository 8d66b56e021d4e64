package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockSubscriptionRepo is a mock implementation of subscription.Repository.
type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) Save(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindByCustomerID(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindDueForBilling(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindSuspendedInGrace(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindGraceExpired(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

// mockBillingGateway is a mock implementation of subscription.BillingGateway.
type mockBillingGateway struct {
	mock.Mock
}

func (m *mockBillingGateway) ScheduleBilling(ctx context.Context, subscriptionID uuid.UUID, amount domain.Money, firstBillingDate time.Time, paymentMethodID string) (*subscription.ScheduleResult, error) {
	args := m.Called(ctx, subscriptionID, amount, firstBillingDate, paymentMethodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.ScheduleResult), args.Error(1)
}

func (m *mockBillingGateway) ProcessBilling(ctx context.Context, subscriptionID uuid.UUID, amount domain.Money, paymentMethodID string, isRetry bool) (*subscription.ChargeResult, error) {
	args := m.Called(ctx, subscriptionID, amount, paymentMethodID, isRetry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.ChargeResult), args.Error(1)
}

func (m *mockBillingGateway) CancelBilling(ctx context.Context, subscriptionID uuid.UUID) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

func (m *mockBillingGateway) GetBillingStatus(ctx context.Context, subscriptionID uuid.UUID) (subscription.BillingStatus, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).(subscription.BillingStatus), args.Error(1)
}

// mockOutboxRepo is a mock implementation of outbox.Repository.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, errMsg, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// passthroughUnitOfWork commits without a real transaction.
type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (passthroughUnitOfWork) Commit(ctx context.Context) error                   { return nil }
func (passthroughUnitOfWork) Rollback(ctx context.Context) error                 { return nil }

func testProcessor(subRepo *mockSubscriptionRepo, gateway *mockBillingGateway, outboxRepo *mockOutboxRepo) *BillingProcessor {
	return NewBillingProcessor(
		subRepo,
		gateway,
		outboxRepo,
		passthroughUnitOfWork{},
		DefaultBillingProcessorConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

// dueSubscription builds an ACTIVE subscription whose billing date was
// reached daysAgo days in the past.
func dueSubscription(t *testing.T, daysAgo int) *subscription.Subscription {
	t.Helper()
	now := time.Now().UTC()
	activated := now.AddDate(0, -1, -daysAgo)
	next := now.AddDate(0, 0, -daysAgo)
	return subscription.Rehydrate(
		domain.RehydrateBaseEntity(uuid.New(), activated, activated),
		1,
		domain.NewCustomerID("cust-1"),
		"ana@example.com",
		"PREMIUM",
		subscription.StatusActive,
		subscription.CycleMonthly,
		domain.MustMoney(29.99, "BRL"),
		0,
		"pm_123",
		&next,
		nil,
		0,
		"",
		&activated,
		nil,
	)
}

// suspendedSubscription builds a SUSPENDED subscription inside its grace
// period with the given failure count.
func suspendedSubscription(t *testing.T, failures int, graceEnd time.Time) *subscription.Subscription {
	t.Helper()
	now := time.Now().UTC()
	activated := now.AddDate(0, -2, 0)
	next := now.AddDate(0, 0, -3)
	return subscription.Rehydrate(
		domain.RehydrateBaseEntity(uuid.New(), activated, now),
		2,
		domain.NewCustomerID("cust-1"),
		"ana@example.com",
		"PREMIUM",
		subscription.StatusSuspended,
		subscription.CycleMonthly,
		domain.MustMoney(29.99, "BRL"),
		0,
		"pm_123",
		&next,
		&graceEnd,
		failures,
		"",
		&activated,
		nil,
	)
}

func TestProcessSingleSubscriptionBilling(t *testing.T) {
	ctx := context.Background()

	t.Run("successful charge advances billing date", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		sub := dueSubscription(t, 0)
		before := *sub.NextBillingDate()

		subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)
		gateway.On("ProcessBilling", ctx, sub.ID(), sub.CalculateBillingAmount(), "pm_123", false).
			Return(&subscription.ChargeResult{Success: true, TransactionID: "txn_1", ChargedAmount: sub.CalculateBillingAmount()}, nil)
		subRepo.On("Save", ctx, sub).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		out, err := p.ProcessSingleSubscriptionBilling(ctx, sub.ID(), false)

		require.NoError(t, err)
		assert.True(t, out.Charged)
		assert.Equal(t, "txn_1", out.TransactionID)
		assert.True(t, sub.NextBillingDate().After(before))
		assert.Equal(t, 0, sub.FailedPaymentAttempts())
		assert.False(t, sub.NeedsBilling())

		subRepo.AssertExpectations(t)
		gateway.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("rejects subscription whose billing date is in the future", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		sub := newActiveNotDue(t)
		before := *sub.NextBillingDate()

		subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)

		out, err := p.ProcessSingleSubscriptionBilling(ctx, sub.ID(), false)

		require.Error(t, err)
		assert.ErrorIs(t, err, subscription.ErrBillingNotDue)
		assert.Contains(t, err.Error(), "billing date not reached")
		assert.Nil(t, out)
		assert.Equal(t, before, *sub.NextBillingDate())
		gateway.AssertNotCalled(t, "ProcessBilling", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		subRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("declined charge suspends the subscription", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		sub := dueSubscription(t, 1)

		subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)
		gateway.On("ProcessBilling", ctx, sub.ID(), sub.CalculateBillingAmount(), "pm_123", false).
			Return(&subscription.ChargeResult{Success: false, DeclineCode: "card_declined", DeclineMessage: "insufficient funds"}, nil)
		subRepo.On("Save", ctx, sub).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		out, err := p.ProcessSingleSubscriptionBilling(ctx, sub.ID(), false)

		require.NoError(t, err)
		assert.False(t, out.Charged)
		assert.Equal(t, "card_declined", out.DeclineCode)
		assert.Equal(t, subscription.StatusSuspended, sub.Status())
		assert.Equal(t, 1, sub.FailedPaymentAttempts())
		require.NotNil(t, sub.GracePeriodEnd())
	})

	t.Run("gateway transport error counts as a failed attempt", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		sub := dueSubscription(t, 0)

		subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)
		gateway.On("ProcessBilling", ctx, sub.ID(), sub.CalculateBillingAmount(), "pm_123", false).
			Return(nil, errors.New("connection reset"))
		subRepo.On("Save", ctx, sub).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		out, err := p.ProcessSingleSubscriptionBilling(ctx, sub.ID(), false)

		require.NoError(t, err)
		assert.False(t, out.Charged)
		assert.Equal(t, "gateway_error", out.DeclineCode)
		assert.Equal(t, subscription.StatusSuspended, sub.Status())
	})

	t.Run("retry charges a suspended subscription and recovers it", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		graceEnd := time.Now().UTC().AddDate(0, 0, 4)
		sub := suspendedSubscription(t, 1, graceEnd)

		subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)
		gateway.On("ProcessBilling", ctx, sub.ID(), sub.CalculateBillingAmount(), "pm_123", true).
			Return(&subscription.ChargeResult{Success: true, TransactionID: "txn_retry"}, nil)
		subRepo.On("Save", ctx, sub).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		out, err := p.ProcessSingleSubscriptionBilling(ctx, sub.ID(), true)

		require.NoError(t, err)
		assert.True(t, out.Charged)
		assert.Equal(t, subscription.StatusActive, sub.Status())
		assert.Equal(t, 0, sub.FailedPaymentAttempts())
		assert.Nil(t, sub.GracePeriodEnd())
		gateway.AssertExpectations(t)
	})

	t.Run("retry rejects a subscription that is not suspended", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		sub := dueSubscription(t, 0)
		subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)

		_, err := p.ProcessSingleSubscriptionBilling(ctx, sub.ID(), true)

		assert.ErrorIs(t, err, subscription.ErrBillingNotAllowed)
	})
}

func TestProcessScheduledBilling(t *testing.T) {
	ctx := context.Background()

	t.Run("one failure does not abort the batch", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		good := dueSubscription(t, 0)
		declined := dueSubscription(t, 2)

		subRepo.On("FindDueForBilling", ctx, mock.AnythingOfType("time.Time"), DefaultBatchSize).
			Return([]*subscription.Subscription{good, declined}, nil)
		subRepo.On("FindByID", ctx, good.ID()).Return(good, nil)
		subRepo.On("FindByID", ctx, declined.ID()).Return(declined, nil)
		gateway.On("ProcessBilling", ctx, good.ID(), mock.AnythingOfType("domain.Money"), "pm_123", false).
			Return(&subscription.ChargeResult{Success: true, TransactionID: "txn_1"}, nil)
		gateway.On("ProcessBilling", ctx, declined.ID(), mock.AnythingOfType("domain.Money"), "pm_123", false).
			Return(&subscription.ChargeResult{Success: false, DeclineCode: "card_declined"}, nil)
		subRepo.On("Save", ctx, mock.AnythingOfType("*subscription.Subscription")).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		result, err := p.ProcessScheduledBilling(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Succeeded)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 0, result.Skipped)
		assert.Contains(t, result.Message, "scheduled billing")
	})

	t.Run("optimistic lock conflict is counted as a skip", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		sub := dueSubscription(t, 0)

		subRepo.On("FindDueForBilling", ctx, mock.AnythingOfType("time.Time"), DefaultBatchSize).
			Return([]*subscription.Subscription{sub}, nil)
		subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)
		gateway.On("ProcessBilling", ctx, sub.ID(), mock.AnythingOfType("domain.Money"), "pm_123", false).
			Return(&subscription.ChargeResult{Success: true, TransactionID: "txn_1"}, nil)
		subRepo.On("Save", ctx, sub).Return(domain.ErrConcurrentModification)

		result, err := p.ProcessScheduledBilling(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Succeeded)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("empty batch", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		subRepo.On("FindDueForBilling", ctx, mock.AnythingOfType("time.Time"), DefaultBatchSize).
			Return([]*subscription.Subscription{}, nil)

		result, err := p.ProcessScheduledBilling(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Succeeded)
		assert.Equal(t, 0, result.Failed)
	})
}

func TestProcessExpiredGracePeriods(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels expired subscriptions with the expiry reason", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		graceEnd := time.Now().UTC().AddDate(0, 0, -1)
		sub := suspendedSubscription(t, 2, graceEnd)

		subRepo.On("FindGraceExpired", ctx, mock.AnythingOfType("time.Time"), DefaultBatchSize).
			Return([]*subscription.Subscription{sub}, nil)
		subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)
		subRepo.On("Save", ctx, sub).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		result, err := p.ProcessExpiredGracePeriods(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Succeeded)
		assert.Equal(t, subscription.StatusCancelled, sub.Status())
		assert.Equal(t, "grace period expired", sub.CancellationReason())
	})

	t.Run("skips a subscription cured between query and load", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepo)
		gateway := new(mockBillingGateway)
		outboxRepo := new(mockOutboxRepo)
		p := testProcessor(subRepo, gateway, outboxRepo)

		// Grace end in the future: a retry cured it after the sweep query.
		graceEnd := time.Now().UTC().AddDate(0, 0, 3)
		sub := suspendedSubscription(t, 1, graceEnd)

		subRepo.On("FindGraceExpired", ctx, mock.AnythingOfType("time.Time"), DefaultBatchSize).
			Return([]*subscription.Subscription{sub}, nil)
		subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)

		result, err := p.ProcessExpiredGracePeriods(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, subscription.StatusSuspended, sub.Status())
		subRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestProcessFailedBillingRetries(t *testing.T) {
	ctx := context.Background()

	subRepo := new(mockSubscriptionRepo)
	gateway := new(mockBillingGateway)
	outboxRepo := new(mockOutboxRepo)
	p := testProcessor(subRepo, gateway, outboxRepo)

	graceEnd := time.Now().UTC().AddDate(0, 0, 4)
	sub := suspendedSubscription(t, 1, graceEnd)

	subRepo.On("FindSuspendedInGrace", ctx, mock.AnythingOfType("time.Time"), DefaultBatchSize).
		Return([]*subscription.Subscription{sub}, nil)
	subRepo.On("FindByID", ctx, sub.ID()).Return(sub, nil)
	gateway.On("ProcessBilling", ctx, sub.ID(), mock.AnythingOfType("domain.Money"), "pm_123", true).
		Return(&subscription.ChargeResult{Success: true, TransactionID: "txn_retry"}, nil)
	subRepo.On("Save", ctx, sub).Return(nil)
	outboxRepo.On("SaveBatch", ctx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

	result, err := p.ProcessFailedBillingRetries(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, subscription.StatusActive, sub.Status())
	gateway.AssertExpectations(t)
}

// newActiveNotDue builds an ACTIVE subscription billed a month from now.
func newActiveNotDue(t *testing.T) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.New(
		domain.NewCustomerID("cust-1"),
		"ana@example.com",
		"PREMIUM",
		subscription.CycleMonthly,
		domain.MustMoney(29.99, "BRL"),
		0,
		"pm_123",
	)
	require.NoError(t, err)
	require.NoError(t, sub.Activate())
	sub.ClearDomainEvents()
	return sub
}
