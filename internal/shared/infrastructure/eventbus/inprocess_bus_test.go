package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type busTestEvent struct {
	domain.BaseEvent
	Data string `json:"data"`
}

func newBusTestEvent(aggregateID uuid.UUID, data string) *busTestEvent {
	return &busTestEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "Subscription", "subscription.activated"),
		Data:      data,
	}
}

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())

	consumer := &mockConsumer{
		eventTypes: []string{"subscription.activated"},
	}
	bus.RegisterConsumer(consumer)

	envelope, err := json.Marshal(&eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "Subscription",
		RoutingKey:    "subscription.activated",
		OccurredAt:    time.Now().UTC(),
		Payload:       json.RawMessage(`{"data":"hello"}`),
	})
	require.NoError(t, err)

	err = bus.Publish(context.Background(), "subscription.activated", envelope)
	require.NoError(t, err)

	require.Len(t, consumer.events, 1)
	assert.Equal(t, "subscription.activated", consumer.events[0].RoutingKey)
	assert.JSONEq(t, `{"data":"hello"}`, string(consumer.events[0].Payload))
}

func TestInProcessEventBus_PublishFillsRoutingKey(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())

	consumer := &mockConsumer{
		eventTypes: []string{"subscription.cancelled"},
	}
	bus.RegisterConsumer(consumer)

	// Envelope without a routing key; the transport key should be used.
	envelope, err := json.Marshal(&eventbus.ConsumedEvent{
		EventID:     uuid.New(),
		AggregateID: uuid.New(),
	})
	require.NoError(t, err)

	err = bus.Publish(context.Background(), "subscription.cancelled", envelope)
	require.NoError(t, err)

	require.Len(t, consumer.events, 1)
	assert.Equal(t, "subscription.cancelled", consumer.events[0].RoutingKey)
}

func TestInProcessEventBus_PublishInvalidPayload(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())

	consumer := &mockConsumer{
		eventTypes: []string{"subscription.activated"},
	}
	bus.RegisterConsumer(consumer)

	// Malformed envelopes are logged and dropped, not returned as errors.
	err := bus.Publish(context.Background(), "subscription.activated", []byte("not json"))
	require.NoError(t, err)

	assert.Empty(t, consumer.events)
}

func TestInProcessEventBus_PublishConsumerError(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())

	consumer := &mockConsumer{
		eventTypes: []string{"subscription.activated"},
		err:        errors.New("handler failure"),
	}
	bus.RegisterConsumer(consumer)

	envelope, err := json.Marshal(&eventbus.ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: "subscription.activated",
	})
	require.NoError(t, err)

	// Synchronous delivery has no redelivery, so consumer errors are swallowed.
	err = bus.Publish(context.Background(), "subscription.activated", envelope)
	require.NoError(t, err)

	assert.Len(t, consumer.events, 1)
}

func TestInProcessEventBus_PublishDomainEvent(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())

	consumer := &mockConsumer{
		eventTypes: []string{"subscription.activated"},
	}
	bus.RegisterConsumer(consumer)

	aggregateID := uuid.New()
	event := newBusTestEvent(aggregateID, "round trip")

	err := bus.PublishDomainEvent(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, consumer.events, 1)
	received := consumer.events[0]
	assert.Equal(t, event.EventID(), received.EventID)
	assert.Equal(t, aggregateID, received.AggregateID)
	assert.Equal(t, "Subscription", received.AggregateType)
	assert.Equal(t, "subscription.activated", received.RoutingKey)
	assert.Contains(t, string(received.Payload), "round trip")
}

func TestInProcessEventBus_Registry(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())

	consumer := &mockConsumer{
		eventTypes: []string{"order.created"},
	}
	bus.RegisterConsumer(consumer)

	registry := bus.Registry()
	require.NotNil(t, registry)
	assert.Len(t, registry.GetConsumers("order.created"), 1)
}

func TestInProcessEventBus_Close(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	assert.NoError(t, bus.Close())
}
