package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cadencebilling/cadence/internal/orders/domain/order"
	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/eventbus"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockOrderRepo is a mock implementation of order.Repository.
type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrderRepo) FindByCustomerID(ctx context.Context, customerID string) ([]*order.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *mockOrderRepo) FindBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
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

// mockProcessedStore is a mock implementation of eventbus.ProcessedEventStore.
type mockProcessedStore struct {
	mock.Mock
}

func (m *mockProcessedStore) MarkProcessed(ctx context.Context, eventID uuid.UUID, consumer string) (bool, error) {
	args := m.Called(ctx, eventID, consumer)
	return args.Bool(0), args.Error(1)
}

type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (passthroughUnitOfWork) Commit(ctx context.Context) error                   { return nil }
func (passthroughUnitOfWork) Rollback(ctx context.Context) error                 { return nil }

func activatedEvent(t *testing.T, subscriptionID uuid.UUID) *eventbus.ConsumedEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"customer_id":   "cust-1",
		"plan_id":       "PREMIUM",
		"billing_cycle": "monthly",
		"cycle_cents":   2999,
		"currency":      "BRL",
	})
	require.NoError(t, err)
	return &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   subscriptionID,
		AggregateType: "Subscription",
		RoutingKey:    "subscription.activated",
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}
}

func newSubscriber(orderRepo *mockOrderRepo, outboxRepo *mockOutboxRepo, processed *mockProcessedStore) *SubscriptionActivatedSubscriber {
	var store eventbus.ProcessedEventStore
	if processed != nil {
		store = processed
	}
	return NewSubscriptionActivatedSubscriber(orderRepo, outboxRepo, store, passthroughUnitOfWork{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSubscriptionActivatedSubscriber_EventTypes(t *testing.T) {
	s := newSubscriber(new(mockOrderRepo), new(mockOutboxRepo), nil)

	assert.Equal(t, []string{"subscription.activated"}, s.EventTypes())
}

func TestSubscriptionActivatedSubscriber_Handle(t *testing.T) {
	ctx := context.Background()
	subscriptionID := uuid.New()

	t.Run("creates a confirmed recurring order", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		outboxRepo := new(mockOutboxRepo)
		processed := new(mockProcessedStore)
		s := newSubscriber(orderRepo, outboxRepo, processed)

		var saved *order.Order
		orderRepo.On("FindBySubscriptionID", ctx, subscriptionID).Return(nil, nil)
		processed.On("MarkProcessed", ctx, mock.AnythingOfType("uuid.UUID"), consumerName).Return(true, nil)
		orderRepo.On("Save", ctx, mock.AnythingOfType("*order.Order")).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*order.Order)
		}).Return(nil)
		outboxRepo.On("SaveBatch", ctx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		err := s.Handle(ctx, activatedEvent(t, subscriptionID))

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, order.StatusConfirmed, saved.Status())
		assert.Equal(t, order.TypeSubscriptionGenerated, saved.OrderType())
		require.NotNil(t, saved.SubscriptionID())
		assert.Equal(t, subscriptionID, *saved.SubscriptionID())
		require.Len(t, saved.Items(), 1)
		assert.Equal(t, "PREMIUM", saved.Items()[0].ProductID)
		assert.Equal(t, int64(2999), saved.TotalAmount().Cents())

		orderRepo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		processed.AssertExpectations(t)
	})

	t.Run("duplicate delivery is a no-op when an order already exists", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		outboxRepo := new(mockOutboxRepo)
		s := newSubscriber(orderRepo, outboxRepo, nil)

		existing, err := order.NewRecurring(domain.NewCustomerID("cust-1"), subscriptionID, "BRL")
		require.NoError(t, err)

		orderRepo.On("FindBySubscriptionID", ctx, subscriptionID).Return(existing, nil)

		err = s.Handle(ctx, activatedEvent(t, subscriptionID))

		require.NoError(t, err)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		outboxRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})

	t.Run("duplicate delivery is caught by the processed-event store", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		outboxRepo := new(mockOutboxRepo)
		processed := new(mockProcessedStore)
		s := newSubscriber(orderRepo, outboxRepo, processed)

		orderRepo.On("FindBySubscriptionID", ctx, subscriptionID).Return(nil, nil)
		processed.On("MarkProcessed", ctx, mock.AnythingOfType("uuid.UUID"), consumerName).Return(false, nil)

		err := s.Handle(ctx, activatedEvent(t, subscriptionID))

		require.NoError(t, err)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("persistence failure propagates for redelivery", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		outboxRepo := new(mockOutboxRepo)
		s := newSubscriber(orderRepo, outboxRepo, nil)

		orderRepo.On("FindBySubscriptionID", ctx, subscriptionID).Return(nil, nil)
		orderRepo.On("Save", ctx, mock.AnythingOfType("*order.Order")).Return(errors.New("connection refused"))

		err := s.Handle(ctx, activatedEvent(t, subscriptionID))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("malformed payload is discarded without error", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		outboxRepo := new(mockOutboxRepo)
		s := newSubscriber(orderRepo, outboxRepo, nil)

		event := activatedEvent(t, subscriptionID)
		event.Payload = []byte("{not json")

		err := s.Handle(ctx, event)

		require.NoError(t, err)
		orderRepo.AssertNotCalled(t, "FindBySubscriptionID", mock.Anything, mock.Anything)
	})
}
