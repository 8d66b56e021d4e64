package domain

// AggregateRoot is the consistency boundary for writes. State changes go
// through the root, which buffers the resulting domain events until the
// repository persists them alongside the state.
type AggregateRoot interface {
	Entity
	DomainEvents() []DomainEvent
	ClearDomainEvents()
	AddDomainEvent(event DomainEvent)
	Version() int
}

// BaseAggregateRoot adds an event buffer and an optimistic-concurrency
// version on top of BaseEntity. The version is the number of successful
// saves; repositories compare it in the WHERE clause of their upsert.
type BaseAggregateRoot struct {
	BaseEntity
	domainEvents []DomainEvent
	version      int
}

// NewBaseAggregateRoot starts a new aggregate at version zero.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
	}
}

// RehydrateBaseAggregateRoot rebuilds the root at its persisted version with
// an empty event buffer.
func RehydrateBaseAggregateRoot(entity BaseEntity, version int) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: entity,
		version:    version,
	}
}

// DomainEvents returns the buffered, not-yet-persisted events.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents empties the buffer after the events have been handed to
// the outbox.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// AddDomainEvent buffers an event for the next save.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// Version returns the persisted version the aggregate was loaded at.
func (a *BaseAggregateRoot) Version() int {
	return a.version
}
