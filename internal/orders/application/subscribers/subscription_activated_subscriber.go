package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cadencebilling/cadence/internal/orders/domain/order"
	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/eventbus"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
)

const consumerName = "orders.subscription_activated"

// subscriptionActivatedPayload mirrors the subscription context's event
// shape. The two contexts share nothing but the wire format.
type subscriptionActivatedPayload struct {
	CustomerID   string `json:"customer_id"`
	PlanID       string `json:"plan_id"`
	BillingCycle string `json:"billing_cycle"`
	CycleCents   int64  `json:"cycle_cents"`
	Currency     string `json:"currency"`
}

// SubscriptionActivatedSubscriber reacts to subscription activations by
// creating a confirmed recurring order for the plan's cycle price.
//
// Delivery is at-least-once, so the subscriber is idempotent twice over: it
// checks for an existing order for the subscription, and it records the
// event id in the same transaction as the order. A failure to create the
// order propagates to the transport for redelivery; the subscription itself
// is never touched.
type SubscriptionActivatedSubscriber struct {
	orderRepo  order.Repository
	outboxRepo outbox.Repository
	processed  eventbus.ProcessedEventStore
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewSubscriptionActivatedSubscriber creates a new subscriber.
func NewSubscriptionActivatedSubscriber(
	orderRepo order.Repository,
	outboxRepo outbox.Repository,
	processed eventbus.ProcessedEventStore,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *SubscriptionActivatedSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionActivatedSubscriber{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		processed:  processed,
		uow:        uow,
		logger:     logger,
	}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *SubscriptionActivatedSubscriber) EventTypes() []string {
	return []string{"subscription.activated"}
}

// Handle creates a confirmed recurring order for the activated subscription.
func (s *SubscriptionActivatedSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload subscriptionActivatedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		// Malformed payloads never become valid on redelivery.
		s.logger.Error("discarding malformed subscription.activated payload",
			slog.String("event_id", event.EventID.String()),
			slog.String("error", err.Error()))
		return nil
	}

	subscriptionID := event.AggregateID

	// Cheap pre-check outside the transaction. The unique index on
	// orders.subscription_id backs this up under concurrent deliveries.
	existing, err := s.orderRepo.FindBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("checking for existing order: %w", err)
	}
	if existing != nil {
		s.logger.Info("order already exists for subscription, ignoring duplicate delivery",
			slog.String("subscription_id", subscriptionID.String()),
			slog.String("order_id", existing.ID().String()))
		return nil
	}

	return sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		if s.processed != nil {
			first, err := s.processed.MarkProcessed(txCtx, event.EventID, consumerName)
			if err != nil {
				return err
			}
			if !first {
				s.logger.Info("event already processed, ignoring duplicate delivery",
					slog.String("event_id", event.EventID.String()))
				return nil
			}
		}

		o, err := order.NewRecurring(domain.NewCustomerID(payload.CustomerID), subscriptionID, payload.Currency)
		if err != nil {
			return err
		}

		cyclePrice, err := domain.NewMoneyFromCents(payload.CycleCents, payload.Currency)
		if err != nil {
			return err
		}
		if err := o.AddItem(payload.PlanID, fmt.Sprintf("%s plan (%s)", payload.PlanID, payload.BillingCycle), 1, cyclePrice); err != nil {
			return err
		}

		// Recurring orders are pre-paid by the subscription, so they skip
		// the pending confirmation gate used for one-time orders.
		if err := o.Confirm(); err != nil {
			return err
		}

		if err := s.orderRepo.Save(txCtx, o); err != nil {
			return err
		}

		events := o.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata())

		msgs, err := outbox.FromDomainEvents(events)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		s.logger.Info("created recurring order for activated subscription",
			slog.String("subscription_id", subscriptionID.String()),
			slog.String("order_id", o.ID().String()),
			slog.Int64("total_cents", o.TotalAmount().Cents()))
		return nil
	})
}
