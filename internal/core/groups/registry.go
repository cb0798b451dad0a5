package groups

import (
	"errors"
	"sync"

	"github.com/zeusync/ecsrx/internal/core/events"
	"github.com/zeusync/ecsrx/internal/core/events/bus"
	"github.com/zeusync/ecsrx/internal/core/models"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
)

// Registry hands out at most one live Accessor per distinct Token.
//
// Accessors are never evicted while the registry is open: they live as long
// as the session, so repeated queries cost a single lookup. Memory is only
// reclaimed by Dispose at shutdown.
type Registry struct {
	bus    bus.EventBus
	logger log.Log

	mu      sync.Mutex
	buckets map[uint64][]*Accessor
	size    int
	closed  bool
}

func NewRegistry(b bus.EventBus, logger log.Log) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		bus:     b,
		logger:  logger,
		buckets: make(map[uint64][]*Accessor),
	}
}

// GetOrCreate returns the accessor for token. On first request it is seeded
// with the entities of pool that belong to the token scope and match it now,
// and monitoring is started exactly once.
func (r *Registry) GetOrCreate(token Token, pool []models.Entity) (*Accessor, error) {
	return r.GetOrCreateFrom(token, func() []models.Entity { return pool })
}

// GetOrCreateFrom is GetOrCreate with a lazily read seed. On a miss,
// monitoring starts before source is called, so an entity announced while
// the seed is read is never lost.
func (r *Registry) GetOrCreateFrom(token Token, source func() []models.Entity) (*Accessor, error) {
	if token.IsZero() {
		return nil, ErrInvalidScope
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	if a := r.lookupLocked(token); a != nil {
		return a, nil
	}

	a, err := NewAccessor(token, nil, events.NewStream(r.bus, token.Scope()), r.logger)
	if err != nil {
		return nil, err
	}
	if err = a.Start(); err != nil {
		return nil, err
	}
	seeded := 0
	if source != nil {
		seeded = a.seed(source())
	}

	r.buckets[token.Hash()] = append(r.buckets[token.Hash()], a)
	r.size++
	r.logger.Debug("group accessor created",
		log.String("group", token.String()),
		log.Int("seeded", seeded),
		log.Int("accessors", r.size),
	)
	return a, nil
}

// Get returns the accessor for token if one was created.
func (r *Registry) Get(token Token) (*Accessor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.lookupLocked(token)
	return a, a != nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Dispose tears down every accessor and closes the registry.
func (r *Registry) Dispose() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	buckets := r.buckets
	r.buckets = make(map[uint64][]*Accessor)
	r.size = 0
	r.mu.Unlock()

	var errs error
	for _, bucket := range buckets {
		for _, a := range bucket {
			errs = errors.Join(errs, a.Dispose())
		}
	}
	return errs
}

func (r *Registry) lookupLocked(token Token) *Accessor {
	for _, a := range r.buckets[token.Hash()] {
		if a.token.Equal(token) {
			return a
		}
	}
	return nil
}
