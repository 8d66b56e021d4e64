package eventbus

import (
	"context"
)

// Publisher is the broker-facing side of the outbox relay.
type Publisher interface {
	// Publish sends a message with the given routing key. The ordering key is
	// the aggregate id embedded in the payload envelope; the broker keeps
	// per-key emission order on a single queue.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close releases the broker connection.
	Close() error
}
