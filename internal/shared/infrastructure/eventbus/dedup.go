package eventbus

import (
	"context"
	"fmt"

	"github.com/cadencebilling/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessedEventStore records handled event ids so redelivered messages can be
// recognized. MarkProcessed reports false when the event was already recorded.
type ProcessedEventStore interface {
	MarkProcessed(ctx context.Context, eventID uuid.UUID, consumer string) (bool, error)
}

// PostgresProcessedEventStore tracks processed event ids in Postgres.
type PostgresProcessedEventStore struct {
	pool *pgxpool.Pool
}

// NewPostgresProcessedEventStore creates a new store.
func NewPostgresProcessedEventStore(pool *pgxpool.Pool) *PostgresProcessedEventStore {
	return &PostgresProcessedEventStore{pool: pool}
}

// MarkProcessed inserts the event id for the consumer. The primary key on
// (event_id, consumer) makes the insert race-safe across workers; a conflict
// means a duplicate delivery.
func (s *PostgresProcessedEventStore) MarkProcessed(ctx context.Context, eventID uuid.UUID, consumer string) (bool, error) {
	query := `
		INSERT INTO processed_events (event_id, consumer, processed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id, consumer) DO NOTHING
	`
	exec := persistence.Executor(ctx, s.pool)
	tag, err := exec.Exec(ctx, query, eventID, consumer)
	if err != nil {
		return false, fmt.Errorf("failed to record processed event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
