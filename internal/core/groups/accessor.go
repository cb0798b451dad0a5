package groups

import (
	"errors"
	"slices"
	"sync"

	"github.com/zeusync/ecsrx/internal/core/events"
	"github.com/zeusync/ecsrx/internal/core/events/bus"
	"github.com/zeusync/ecsrx/internal/core/models"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
)

// Accessor keeps the live set of entities matching a Token, updated on every
// lifecycle event of the token's scope.
//
// Handlers run synchronously on the goroutine that published the event, so a
// read issued right after a mutation returns already sees its effect. Once
// disposed, the snapshot is frozen at its last state and never updates again.
type Accessor struct {
	token  Token
	stream *events.Stream
	logger log.Log

	mu         sync.RWMutex
	entities   map[models.EntityID]models.Entity
	subs       []bus.Subscription
	monitoring bool
	disposed   bool

	obsMu     sync.RWMutex
	observers []*observer
}

type observer struct {
	added   func(models.Entity)
	removed func(models.Entity)
}

// NewAccessor creates an accessor seeded with the given entities. The seed is
// trusted as is; it is not filtered against the token. Monitoring starts only
// with Start.
func NewAccessor(token Token, seed []models.Entity, stream *events.Stream, logger log.Log) (*Accessor, error) {
	if token.IsZero() {
		return nil, ErrInvalidScope
	}
	if stream == nil {
		return nil, ErrNilStream
	}
	if stream.Scope() != token.Scope() {
		return nil, ErrScopeMismatch
	}
	if logger == nil {
		logger = log.NewNop()
	}

	entities := make(map[models.EntityID]models.Entity, len(seed))
	for _, e := range seed {
		if e != nil {
			entities[e.ID()] = e
		}
	}

	return &Accessor{
		token:    token,
		stream:   stream,
		logger:   logger.With(log.String("group", token.String())),
		entities: entities,
	}, nil
}

func (a *Accessor) Token() Token { return a.token }

// Start subscribes to the four lifecycle events. A second call returns
// ErrAlreadyMonitoring and leaves the existing subscriptions untouched.
func (a *Accessor) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return ErrAccessorDisposed
	}
	if a.monitoring {
		return ErrAlreadyMonitoring
	}

	subs := make([]bus.Subscription, 0, 4)
	subscribe := func(sub bus.Subscription, err error) error {
		if err == nil {
			subs = append(subs, sub)
		}
		return err
	}

	err := errors.Join(
		subscribe(a.stream.OnEntityAdded(a.onEntityAdded)),
		subscribe(a.stream.OnEntityRemoved(a.onEntityRemoved)),
		subscribe(a.stream.OnComponentAdded(a.onComponentAdded)),
		subscribe(a.stream.OnComponentRemoved(a.onComponentRemoved)),
	)
	if err != nil {
		for _, s := range subs {
			_ = s.Cancel()
		}
		return err
	}

	a.subs = subs
	a.monitoring = true
	a.logger.Debug("group monitoring started", log.Int("entities", len(a.entities)))
	return nil
}

// Dispose releases every subscription. It is safe to call more than once.
func (a *Accessor) Dispose() error {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return nil
	}
	a.disposed = true
	a.monitoring = false
	subs := a.subs
	a.subs = nil
	count := len(a.entities)
	a.mu.Unlock()

	var errs error
	for _, s := range subs {
		errs = errors.Join(errs, s.Cancel())
	}

	a.obsMu.Lock()
	a.observers = nil
	a.obsMu.Unlock()

	a.logger.Debug("group disposed", log.Int("entities", count))
	return errs
}

func (a *Accessor) IsMonitoring() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.monitoring
}

func (a *Accessor) IsDisposed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.disposed
}

// Entities returns a copy of the cached entities ordered by ID.
func (a *Accessor) Entities() []models.Entity {
	a.mu.RLock()
	out := make([]models.Entity, 0, len(a.entities))
	for _, e := range a.entities {
		out = append(out, e)
	}
	a.mu.RUnlock()
	slices.SortFunc(out, func(x, y models.Entity) int {
		switch {
		case x.ID() < y.ID():
			return -1
		case x.ID() > y.ID():
			return 1
		default:
			return 0
		}
	})
	return out
}

func (a *Accessor) Contains(id models.EntityID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.entities[id]
	return ok
}

func (a *Accessor) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entities)
}

// Observe registers callbacks fired after an entity joins or leaves the
// group. Either may be nil. The returned func unregisters them.
func (a *Accessor) Observe(added, removed func(models.Entity)) func() {
	o := &observer{added: added, removed: removed}
	a.obsMu.Lock()
	a.observers = append(a.observers, o)
	a.obsMu.Unlock()

	return func() {
		a.obsMu.Lock()
		defer a.obsMu.Unlock()
		a.observers = slices.DeleteFunc(a.observers, func(cur *observer) bool { return cur == o })
	}
}

func (a *Accessor) onEntityAdded(ev events.EntityAdded) {
	a.insert(ev.Entity)
}

func (a *Accessor) onEntityRemoved(ev events.EntityRemoved) {
	a.remove(ev.Entity, true)
}

// Membership is always recomputed from the full component set: the single
// added or removed component does not decide it on its own.
func (a *Accessor) onComponentAdded(ev events.ComponentAdded) {
	a.insert(ev.Entity)
}

func (a *Accessor) onComponentRemoved(ev events.ComponentRemoved) {
	a.remove(ev.Entity, false)
}

// belongs is evaluated under a.mu so a decision and the matching update of
// the snapshot cannot interleave with a concurrent seed.
func (a *Accessor) belongs(e models.Entity) bool {
	return e.Pool() == a.token.Scope() && !e.Removed() && a.token.Matches(e)
}

// seed adds the entities of source that belong to the group. It runs after
// Start, so an entity announced while source was being read is seen by
// both paths and kept once.
func (a *Accessor) seed(source []models.Entity) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return 0
	}
	n := 0
	for _, e := range source {
		if e == nil {
			continue
		}
		if _, ok := a.entities[e.ID()]; ok || !a.belongs(e) {
			continue
		}
		a.entities[e.ID()] = e
		n++
	}
	return n
}

func (a *Accessor) insert(e models.Entity) {
	if e == nil {
		return
	}
	a.mu.Lock()
	if a.disposed || !a.belongs(e) {
		a.mu.Unlock()
		return
	}
	if _, ok := a.entities[e.ID()]; ok {
		a.mu.Unlock()
		return
	}
	a.entities[e.ID()] = e
	a.mu.Unlock()

	a.notify(e, true)
}

// remove drops e. Unless force is set, e stays when it still belongs.
func (a *Accessor) remove(e models.Entity, force bool) {
	if e == nil {
		return
	}
	a.mu.Lock()
	if a.disposed || (!force && a.belongs(e)) {
		a.mu.Unlock()
		return
	}
	if _, ok := a.entities[e.ID()]; !ok {
		a.mu.Unlock()
		return
	}
	delete(a.entities, e.ID())
	a.mu.Unlock()

	a.notify(e, false)
}

func (a *Accessor) notify(e models.Entity, added bool) {
	a.obsMu.RLock()
	observers := slices.Clone(a.observers)
	a.obsMu.RUnlock()

	for _, o := range observers {
		if added && o.added != nil {
			o.added(e)
		} else if !added && o.removed != nil {
			o.removed(e)
		}
	}
}
