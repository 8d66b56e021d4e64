package application

import (
	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// NewEventMetadata mints correlation and causation ids for one command
// execution. All events emitted by that command share the metadata, so a
// whole saga step can be traced from the first correlation id.
func NewEventMetadata() domain.EventMetadata {
	return domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
	}
}

// ApplyEventMetadata stamps the metadata on every event that accepts it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
