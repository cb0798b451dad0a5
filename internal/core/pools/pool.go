package pools

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/zeusync/ecsrx/internal/core/events"
	"github.com/zeusync/ecsrx/internal/core/models"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
)

// Pool is a named partition of entities. Its name is the scope of every group
// built over it.
type Pool struct {
	name   string
	stream *events.Stream
	ids    *atomic.Uint64
	logger log.Log

	mu       sync.RWMutex
	entities map[models.EntityID]models.Entity
}

func newPool(name string, stream *events.Stream, ids *atomic.Uint64, logger log.Log) *Pool {
	return &Pool{
		name:     name,
		stream:   stream,
		ids:      ids,
		logger:   logger.With(log.String("pool", name)),
		entities: make(map[models.EntityID]models.Entity),
	}
}

func (p *Pool) Name() string { return p.name }

func (p *Pool) Stream() *events.Stream { return p.stream }

// CreateEntity adds a new empty entity and announces it. The entity is kept
// even when a subscriber fails; the subscriber error is returned alongside.
func (p *Pool) CreateEntity(components ...models.Component) (models.Entity, error) {
	e := models.NewEntity(models.EntityID(p.ids.Add(1)), p.name, p.stream)

	p.mu.Lock()
	p.entities[e.ID()] = e
	p.mu.Unlock()

	err := p.stream.EntityAdded(e)
	for _, c := range components {
		err = errors.Join(err, e.AddComponent(c))
	}
	if err != nil {
		p.logger.Warn("entity subscribers failed", log.Uint64("entity", uint64(e.ID())), log.Error(err))
	}
	return e, err
}

// RemoveEntity strips all components of the entity, drops it and announces
// the removal. The entity is marked removed first, so a caller still holding
// it gets ErrEntityRemoved from AddComponent.
func (p *Pool) RemoveEntity(id models.EntityID) error {
	p.mu.RLock()
	e, ok := p.entities[id]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d in pool %q", ErrEntityNotFound, id, p.name)
	}

	e.MarkRemoved()
	err := e.RemoveAllComponents()

	p.mu.Lock()
	delete(p.entities, id)
	p.mu.Unlock()

	return errors.Join(err, p.stream.EntityRemoved(e))
}

func (p *Pool) Entity(id models.EntityID) (models.Entity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entities[id]
	return e, ok
}

// Entities returns the pool content ordered by ID.
func (p *Pool) Entities() []models.Entity {
	p.mu.RLock()
	out := make([]models.Entity, 0, len(p.entities))
	for _, e := range p.entities {
		out = append(out, e)
	}
	p.mu.RUnlock()
	slices.SortFunc(out, func(a, b models.Entity) int {
		return cmpID(a.ID(), b.ID())
	})
	return out
}

func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entities)
}

func (p *Pool) clear() error {
	var errs error
	for _, e := range p.Entities() {
		errs = errors.Join(errs, p.RemoveEntity(e.ID()))
	}
	return errs
}

func cmpID(a, b models.EntityID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
