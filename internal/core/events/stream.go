package events

import (
	"time"

	"github.com/zeusync/ecsrx/internal/core/events/bus"
	"github.com/zeusync/ecsrx/internal/core/models"
)

var _ models.Notifier = (*Stream)(nil)

// Stream publishes and subscribes lifecycle events for one scope. The scope
// is used as the bus topic, so streams of different pools sharing a bus do
// not see each other's events.
type Stream struct {
	bus   bus.EventBus
	scope string
}

func NewStream(b bus.EventBus, scope string) *Stream {
	return &Stream{bus: b, scope: scope}
}

func (s *Stream) Scope() string     { return s.scope }
func (s *Stream) Bus() bus.EventBus { return s.bus }

func (s *Stream) OnEntityAdded(h func(EntityAdded)) (bus.Subscription, error) {
	return subscribe(s, TypeEntityAdded, h)
}

func (s *Stream) OnEntityRemoved(h func(EntityRemoved)) (bus.Subscription, error) {
	return subscribe(s, TypeEntityRemoved, h)
}

func (s *Stream) OnComponentAdded(h func(ComponentAdded)) (bus.Subscription, error) {
	return subscribe(s, TypeComponentAdded, h)
}

func (s *Stream) OnComponentRemoved(h func(ComponentRemoved)) (bus.Subscription, error) {
	return subscribe(s, TypeComponentRemoved, h)
}

func (s *Stream) EntityAdded(e models.Entity) error {
	return s.bus.PublishToTopic(s.scope, EntityAdded{Entity: e, Pool: s.scope, At: time.Now()})
}

func (s *Stream) EntityRemoved(e models.Entity) error {
	return s.bus.PublishToTopic(s.scope, EntityRemoved{Entity: e, Pool: s.scope, At: time.Now()})
}

func (s *Stream) ComponentAdded(e models.Entity, c models.Component) error {
	return s.bus.PublishToTopic(s.scope, ComponentAdded{Entity: e, Component: c, At: time.Now()})
}

func (s *Stream) ComponentRemoved(e models.Entity, c models.Component) error {
	return s.bus.PublishToTopic(s.scope, ComponentRemoved{Entity: e, Component: c, At: time.Now()})
}

// subscribe adapts a typed handler to the bus. Events of the right type name
// but a foreign Go type are ignored.
func subscribe[T bus.Event](s *Stream, eventType string, h func(T)) (bus.Subscription, error) {
	if h == nil {
		return nil, bus.ErrNilHandler
	}
	return s.bus.SubscribeTopic(s.scope, eventType, func(ev bus.Event) error {
		if typed, ok := ev.(T); ok {
			h(typed)
		}
		return nil
	})
}
