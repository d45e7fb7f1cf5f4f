package shared

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	domainEvents []DomainEvent
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// OwnedAggregateRoot is an aggregate root that belongs to exactly one user
type OwnedAggregateRoot struct {
	BaseAggregateRoot
	OwnerID int64
}

// IsOwnedBy reports whether the aggregate belongs to ownerID
func (a *OwnedAggregateRoot) IsOwnedBy(ownerID int64) bool {
	return a.OwnerID == ownerID
}

// NewOwnedAggregateRoot creates a new owned aggregate root
func NewOwnedAggregateRoot(ownerID int64) OwnedAggregateRoot {
	return OwnedAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{BaseEntity: NewBaseEntity()},
		OwnerID:           ownerID,
	}
}
