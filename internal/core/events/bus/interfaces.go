package bus

import "time"

// EventBus defines a thread-safe, in-process pub/sub event bus.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Topics: handlers subscribe within a topic; the default topic is "".
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in
//   the order they subscribed to (topic, event type).
// - Error aggregation: handler errors are joined and returned from Publish.
// - A subscription cancelled while a publish is in flight receives nothing
//   further, including the rest of that publish.
type EventBus interface {
	// Publish delivers the event to subscribers of event.Type() in the default topic.
	Publish(event Event) error
	// Subscribe registers a handler for an event type in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is a no-op.
	Unsubscribe(Subscription) error

	// CreateTopic declares a topic. Repeat declarations are idempotent.
	CreateTopic(name string) error
	// SubscribeTopic registers a handler for eventType within a topic.
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	// PublishToTopic publishes to a specific topic.
	PublishToTopic(topic string, event Event) error
	// PublishBatch publishes events to a topic in order and aggregates errors.
	PublishBatch(topic string, events ...Event) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// GetMetrics returns accumulated counters. They only move while at least
	// one observer is registered.
	GetMetrics() Metrics
	// GetTopics returns a snapshot of known topics.
	GetTopics() []TopicInfo
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
)

// Subscription is a registered handler bound to a topic and event type.
type Subscription interface {
	ID() string
	Topic() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about deliveries. Observers should return quickly.
type Observer interface {
	OnPublish(topic, eventType string, event Event)
	OnDelivered(topic, eventType string, handlers int, err error, durationMicros int64)
}

type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
	Topics            uint64
}

type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
