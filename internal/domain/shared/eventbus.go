package shared

import "context"

// EventPublisher publishes domain events
type EventPublisher interface {
	// Publish publishes one or more domain events. Implementations decide
	// whether delivery is synchronous.
	Publish(ctx context.Context, events ...DomainEvent) error
}

// NoopEventPublisher drops every event.
type NoopEventPublisher struct{}

// Publish implements EventPublisher
func (NoopEventPublisher) Publish(context.Context, ...DomainEvent) error {
	return nil
}
