package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cadencebilling/cadence/internal/orders/domain/order"
	sharedDomain "github.com/cadencebilling/cadence/internal/shared/domain"
	sharedPersistence "github.com/cadencebilling/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// PostgresOrderRepository implements order.Repository using PostgreSQL.
type PostgresOrderRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(pool *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{pool: pool}
}

// Save persists an order and its items with optimistic concurrency control.
// The unique index on subscription_id turns a concurrent duplicate recurring
// order into ErrConcurrentModification instead of a second row.
func (r *PostgresOrderRepository) Save(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (
			id, customer_id, status, order_type, subscription_id,
			currency, total_amount_cents, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			total_amount_cents = EXCLUDED.total_amount_cents,
			version = orders.version + 1,
			updated_at = NOW()
		WHERE orders.version = $8
		RETURNING version
	`

	exec := sharedPersistence.Executor(ctx, r.pool)

	var newVersion int
	err := exec.QueryRow(ctx, query,
		o.ID(),
		o.CustomerID().String(),
		string(o.Status()),
		string(o.OrderType()),
		o.SubscriptionID(),
		o.Currency(),
		o.TotalAmount().Cents(),
		o.Version(),
		o.CreatedAt(),
		o.UpdatedAt(),
	).Scan(&newVersion)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: order %s", sharedDomain.ErrConcurrentModification, o.ID())
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: order for subscription already exists", sharedDomain.ErrConcurrentModification)
		}
		return fmt.Errorf("saving order: %w", err)
	}

	if _, err := exec.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID()); err != nil {
		return fmt.Errorf("clearing order items: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, product_name, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, item := range o.Items() {
		if _, err := exec.Exec(ctx, itemQuery, o.ID(), i, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice.Cents()); err != nil {
			return fmt.Errorf("saving order item %d: %w", i, err)
		}
	}

	return nil
}

// FindByID retrieves an order by its ID.
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	o, err := r.findOne(ctx, exec, `WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", sharedDomain.ErrNotFound, id)
		}
		return nil, err
	}
	return o, nil
}

// FindByCustomerID retrieves all orders of a customer, newest first.
func (r *PostgresOrderRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*order.Order, error) {
	query := `
		SELECT id, customer_id, status, order_type, subscription_id,
		       currency, total_amount_cents, version, created_at, updated_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}

	heads, err := scanOrderRows(rows)
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(heads))
	for _, head := range heads {
		items, err := r.loadItems(ctx, exec, head.id, head.currency)
		if err != nil {
			return nil, err
		}
		orders = append(orders, head.rehydrate(items))
	}
	return orders, nil
}

// FindBySubscriptionID retrieves the recurring order generated for a
// subscription. It returns nil without error when none exists, which is the
// saga's duplicate-delivery check.
func (r *PostgresOrderRepository) FindBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) (*order.Order, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	o, err := r.findOne(ctx, exec, `WHERE subscription_id = $1`, subscriptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (r *PostgresOrderRepository) findOne(ctx context.Context, exec sharedPersistence.DBExecutor, where string, arg any) (*order.Order, error) {
	query := `
		SELECT id, customer_id, status, order_type, subscription_id,
		       currency, total_amount_cents, version, created_at, updated_at
		FROM orders ` + where

	var head orderRow
	err := exec.QueryRow(ctx, query, arg).Scan(
		&head.id, &head.customerID, &head.status, &head.orderType, &head.subscriptionID,
		&head.currency, &head.totalCents, &head.version, &head.createdAt, &head.updatedAt,
	)
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, exec, head.id, head.currency)
	if err != nil {
		return nil, err
	}
	return head.rehydrate(items), nil
}

func (r *PostgresOrderRepository) loadItems(ctx context.Context, exec sharedPersistence.DBExecutor, orderID uuid.UUID, currency string) ([]order.Item, error) {
	query := `
		SELECT product_id, product_name, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`

	rows, err := exec.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var (
			productID   string
			productName string
			quantity    int
			priceCents  int64
		)
		if err := rows.Scan(&productID, &productName, &quantity, &priceCents); err != nil {
			return nil, err
		}
		price, err := sharedDomain.NewMoneyFromCents(priceCents, currency)
		if err != nil {
			return nil, fmt.Errorf("invalid item price in database: %w", err)
		}
		items = append(items, order.Item{
			ProductID:   productID,
			ProductName: productName,
			Quantity:    quantity,
			UnitPrice:   price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type orderRow struct {
	id             uuid.UUID
	customerID     string
	status         string
	orderType      string
	subscriptionID *uuid.UUID
	currency       string
	totalCents     int64
	version        int
	createdAt      time.Time
	updatedAt      time.Time
}

func (row orderRow) rehydrate(items []order.Item) *order.Order {
	return order.Rehydrate(
		sharedDomain.RehydrateBaseEntity(row.id, row.createdAt, row.updatedAt),
		row.version,
		sharedDomain.NewCustomerID(row.customerID),
		order.Status(row.status),
		order.Type(row.orderType),
		row.subscriptionID,
		row.currency,
		items,
	)
}

func scanOrderRows(rows pgx.Rows) ([]orderRow, error) {
	defer rows.Close()

	var heads []orderRow
	for rows.Next() {
		var head orderRow
		err := rows.Scan(
			&head.id, &head.customerID, &head.status, &head.orderType, &head.subscriptionID,
			&head.currency, &head.totalCents, &head.version, &head.createdAt, &head.updatedAt,
		)
		if err != nil {
			return nil, err
		}
		heads = append(heads, head)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return heads, nil
}
