package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages. SaveBatch runs in the caller's
// transaction so the messages commit atomically with the aggregate state
// that produced them; the remaining methods are called by the relay loop
// outside any business transaction.
type Repository interface {
	// Save stores a single outbox message.
	Save(ctx context.Context, msg *Message) error

	// SaveBatch stores messages atomically alongside the ambient transaction.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns publishable messages oldest-first, skipping
	// dead-lettered ones and those whose retry window has not opened yet.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished stamps the publish time.
	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed bumps the retry count and schedules the next attempt.
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error

	// MarkDead parks the message for manual inspection.
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld prunes published messages past the retention window and
	// returns how many rows were removed.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
