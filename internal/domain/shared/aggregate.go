package shared

// BaseAggregateRoot is embedded by products and users. It tracks the
// optimistic-lock version and buffers the events raised since the last save.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	stored       int
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot starts a fresh aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// RestoreVersion sets the version loaded from or just written to storage
func (a *BaseAggregateRoot) RestoreVersion(v int) {
	a.Version = v
	a.stored = v
}

// StoredVersion is the version last seen in storage, 0 for new aggregates.
// Updates are conditional on it, so several mutations between load and save
// still produce one guarded write.
func (a *BaseAggregateRoot) StoredVersion() int { return a.stored }

func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion records a mutation
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.Touch()
}

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.domainEvents }

func (a *BaseAggregateRoot) ClearDomainEvents() { a.domainEvents = nil }
