package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/cadencebilling/cadence/internal/shared/domain"
	sharedPersistence "github.com/cadencebilling/cadence/internal/shared/infrastructure/persistence"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriptionColumns = `
	id, customer_id, customer_email, plan_id, status, billing_cycle,
	monthly_price_cents, currency, trial_period_days, payment_method_id,
	next_billing_date, grace_period_end, failed_payment_attempts,
	cancellation_reason, activated_at, cancelled_at, version, created_at, updated_at
`

// PostgresSubscriptionRepository implements subscription.Repository using PostgreSQL.
type PostgresSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSubscriptionRepository creates a new PostgreSQL subscription repository.
func NewPostgresSubscriptionRepository(pool *pgxpool.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Save persists a subscription with optimistic concurrency control. A version
// mismatch means another worker saved the aggregate since it was loaded and
// surfaces as ErrConcurrentModification.
func (r *PostgresSubscriptionRepository) Save(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, customer_id, customer_email, plan_id, status, billing_cycle,
			monthly_price_cents, currency, trial_period_days, payment_method_id,
			next_billing_date, grace_period_end, failed_payment_attempts,
			cancellation_reason, activated_at, cancelled_at, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			billing_cycle = EXCLUDED.billing_cycle,
			monthly_price_cents = EXCLUDED.monthly_price_cents,
			currency = EXCLUDED.currency,
			payment_method_id = EXCLUDED.payment_method_id,
			next_billing_date = EXCLUDED.next_billing_date,
			grace_period_end = EXCLUDED.grace_period_end,
			failed_payment_attempts = EXCLUDED.failed_payment_attempts,
			cancellation_reason = EXCLUDED.cancellation_reason,
			activated_at = EXCLUDED.activated_at,
			cancelled_at = EXCLUDED.cancelled_at,
			version = subscriptions.version + 1,
			updated_at = NOW()
		WHERE subscriptions.version = $17
		RETURNING version
	`

	var cancellationReason *string
	if sub.CancellationReason() != "" {
		reason := sub.CancellationReason()
		cancellationReason = &reason
	}

	var newVersion int
	exec := sharedPersistence.Executor(ctx, r.pool)
	err := exec.QueryRow(ctx, query,
		sub.ID(),
		sub.CustomerID().String(),
		sub.CustomerEmail(),
		sub.PlanID(),
		string(sub.Status()),
		string(sub.BillingCycle()),
		sub.MonthlyPrice().Cents(),
		sub.MonthlyPrice().Currency(),
		sub.TrialPeriodDays(),
		sub.PaymentMethodID(),
		sub.NextBillingDate(),
		sub.GracePeriodEnd(),
		sub.FailedPaymentAttempts(),
		cancellationReason,
		sub.ActivatedAt(),
		sub.CancelledAt(),
		sub.Version(),
		sub.CreatedAt(),
		sub.UpdatedAt(),
	).Scan(&newVersion)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: subscription %s", sharedDomain.ErrConcurrentModification, sub.ID())
		}
		return fmt.Errorf("saving subscription: %w", err)
	}

	return nil
}

// FindByID retrieves a subscription by its ID.
func (r *PostgresSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	exec := sharedPersistence.Executor(ctx, r.pool)
	sub, err := scanSubscription(exec.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: subscription %s", sharedDomain.ErrNotFound, id)
		}
		return nil, err
	}
	return sub, nil
}

// FindByCustomerID retrieves all subscriptions of a customer, newest first.
func (r *PostgresSubscriptionRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE customer_id = $1 ORDER BY created_at DESC`

	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// FindDueForBilling retrieves ACTIVE subscriptions whose billing date has
// been reached, oldest due first.
func (r *PostgresSubscriptionRepository) FindDueForBilling(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'active' AND next_billing_date <= $1
		ORDER BY next_billing_date
		LIMIT $2`

	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// FindSuspendedInGrace retrieves SUSPENDED subscriptions still inside their
// grace period.
func (r *PostgresSubscriptionRepository) FindSuspendedInGrace(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'suspended' AND grace_period_end > $1
		ORDER BY grace_period_end
		LIMIT $2`

	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// FindGraceExpired retrieves SUSPENDED subscriptions whose grace period has
// elapsed.
func (r *PostgresSubscriptionRepository) FindGraceExpired(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'suspended' AND grace_period_end <= $1
		ORDER BY grace_period_end
		LIMIT $2`

	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		id                    uuid.UUID
		customerID            string
		customerEmail         string
		planID                string
		status                string
		billingCycle          string
		monthlyPriceCents     int64
		currency              string
		trialPeriodDays       int
		paymentMethodID       string
		nextBillingDate       *time.Time
		gracePeriodEnd        *time.Time
		failedPaymentAttempts int
		cancellationReason    *string
		activatedAt           *time.Time
		cancelledAt           *time.Time
		version               int
		createdAt             time.Time
		updatedAt             time.Time
	)

	err := row.Scan(
		&id, &customerID, &customerEmail, &planID, &status, &billingCycle,
		&monthlyPriceCents, &currency, &trialPeriodDays, &paymentMethodID,
		&nextBillingDate, &gracePeriodEnd, &failedPaymentAttempts,
		&cancellationReason, &activatedAt, &cancelledAt, &version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	price, err := sharedDomain.NewMoneyFromCents(monthlyPriceCents, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid price in database: %w", err)
	}

	reason := ""
	if cancellationReason != nil {
		reason = *cancellationReason
	}

	return subscription.Rehydrate(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		version,
		sharedDomain.NewCustomerID(customerID),
		customerEmail,
		planID,
		subscription.Status(status),
		subscription.BillingCycle(billingCycle),
		price,
		trialPeriodDays,
		paymentMethodID,
		nextBillingDate,
		gracePeriodEnd,
		failedPaymentAttempts,
		reason,
		activatedAt,
		cancelledAt,
	), nil
}

func scanSubscriptions(rows pgx.Rows) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}
