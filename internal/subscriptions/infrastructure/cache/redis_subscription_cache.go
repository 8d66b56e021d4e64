package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	sharedDomain "github.com/cadencebilling/cadence/internal/shared/domain"
	sharedPersistence "github.com/cadencebilling/cadence/internal/shared/infrastructure/persistence"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a cached subscription stays valid.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "subscription:"

// subscriptionRecord is the cache serialization of a subscription. The
// aggregate itself is never marshaled; it is rebuilt through Rehydrate.
type subscriptionRecord struct {
	ID                    uuid.UUID  `json:"id"`
	CustomerID            string     `json:"customer_id"`
	CustomerEmail         string     `json:"customer_email"`
	PlanID                string     `json:"plan_id"`
	Status                string     `json:"status"`
	BillingCycle          string     `json:"billing_cycle"`
	MonthlyPriceCents     int64      `json:"monthly_price_cents"`
	Currency              string     `json:"currency"`
	TrialPeriodDays       int        `json:"trial_period_days"`
	PaymentMethodID       string     `json:"payment_method_id"`
	NextBillingDate       *time.Time `json:"next_billing_date,omitempty"`
	GracePeriodEnd        *time.Time `json:"grace_period_end,omitempty"`
	FailedPaymentAttempts int        `json:"failed_payment_attempts"`
	CancellationReason    string     `json:"cancellation_reason,omitempty"`
	ActivatedAt           *time.Time `json:"activated_at,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
	Version               int        `json:"version"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CachedSubscriptionRepository decorates a subscription.Repository with a
// Redis read-through cache on FindByID. Saves write through to the inner
// repository and invalidate the cached entry. Batch billing queries bypass
// the cache entirely; billing decisions always read fresh rows.
//
// Cache errors are soft: a failed Redis round trip falls back to the inner
// repository and is logged, never surfaced.
type CachedSubscriptionRepository struct {
	inner  subscription.Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSubscriptionRepository creates a new cached repository.
func NewCachedSubscriptionRepository(inner subscription.Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSubscriptionRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSubscriptionRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Save writes through and invalidates the cached entry.
func (r *CachedSubscriptionRepository) Save(ctx context.Context, sub *subscription.Subscription) error {
	if err := r.inner.Save(ctx, sub); err != nil {
		return err
	}
	if err := r.client.Del(ctx, keyPrefix+sub.ID().String()).Err(); err != nil {
		r.logger.Warn("failed to invalidate cached subscription",
			slog.String("subscription_id", sub.ID().String()),
			slog.String("error", err.Error()))
	}
	return nil
}

// FindByID reads through the cache. Transactional reads skip the cache so a
// load inside a unit of work always observes committed row state.
func (r *CachedSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	if _, inTx := sharedPersistence.TxInfoFromContext(ctx); inTx {
		return r.inner.FindByID(ctx, id)
	}

	key := keyPrefix + id.String()

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var rec subscriptionRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			if sub := rec.rehydrate(); sub != nil {
				return sub, nil
			}
		}
		// Unreadable entry, drop it and fall through.
		_ = r.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		r.logger.Warn("subscription cache read failed",
			slog.String("subscription_id", id.String()),
			slog.String("error", err.Error()))
	}

	sub, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(toRecord(sub)); err == nil {
		if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.logger.Warn("subscription cache write failed",
				slog.String("subscription_id", id.String()),
				slog.String("error", err.Error()))
		}
	}
	return sub, nil
}

// FindByCustomerID delegates to the inner repository.
func (r *CachedSubscriptionRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	return r.inner.FindByCustomerID(ctx, customerID)
}

// FindDueForBilling delegates to the inner repository.
func (r *CachedSubscriptionRepository) FindDueForBilling(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	return r.inner.FindDueForBilling(ctx, asOf, limit)
}

// FindSuspendedInGrace delegates to the inner repository.
func (r *CachedSubscriptionRepository) FindSuspendedInGrace(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	return r.inner.FindSuspendedInGrace(ctx, asOf, limit)
}

// FindGraceExpired delegates to the inner repository.
func (r *CachedSubscriptionRepository) FindGraceExpired(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	return r.inner.FindGraceExpired(ctx, asOf, limit)
}

func toRecord(sub *subscription.Subscription) subscriptionRecord {
	return subscriptionRecord{
		ID:                    sub.ID(),
		CustomerID:            sub.CustomerID().String(),
		CustomerEmail:         sub.CustomerEmail(),
		PlanID:                sub.PlanID(),
		Status:                string(sub.Status()),
		BillingCycle:          string(sub.BillingCycle()),
		MonthlyPriceCents:     sub.MonthlyPrice().Cents(),
		Currency:              sub.MonthlyPrice().Currency(),
		TrialPeriodDays:       sub.TrialPeriodDays(),
		PaymentMethodID:       sub.PaymentMethodID(),
		NextBillingDate:       sub.NextBillingDate(),
		GracePeriodEnd:        sub.GracePeriodEnd(),
		FailedPaymentAttempts: sub.FailedPaymentAttempts(),
		CancellationReason:    sub.CancellationReason(),
		ActivatedAt:           sub.ActivatedAt(),
		CancelledAt:           sub.CancelledAt(),
		Version:               sub.Version(),
		CreatedAt:             sub.CreatedAt(),
		UpdatedAt:             sub.UpdatedAt(),
	}
}

func (rec subscriptionRecord) rehydrate() *subscription.Subscription {
	price, err := sharedDomain.NewMoneyFromCents(rec.MonthlyPriceCents, rec.Currency)
	if err != nil {
		// A corrupted record never leaves the cache layer; treat it as a miss.
		return nil
	}
	return subscription.Rehydrate(
		sharedDomain.RehydrateBaseEntity(rec.ID, rec.CreatedAt, rec.UpdatedAt),
		rec.Version,
		sharedDomain.NewCustomerID(rec.CustomerID),
		rec.CustomerEmail,
		rec.PlanID,
		subscription.Status(rec.Status),
		subscription.BillingCycle(rec.BillingCycle),
		price,
		rec.TrialPeriodDays,
		rec.PaymentMethodID,
		rec.NextBillingDate,
		rec.GracePeriodEnd,
		rec.FailedPaymentAttempts,
		rec.CancellationReason,
		rec.ActivatedAt,
		rec.CancelledAt,
	)
}
