package shared

import "context"

// EventHandler consumes published domain events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the accepted event types. Empty means all.
	EventTypes() []string
}

// EventPublisher receives the events of a committed candidate
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus fans published events out to subscribed handlers
type EventBus interface {
	EventPublisher
	// Subscribe registers a handler. Explicit event types override the
	// handler's own EventTypes.
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
