package models

import (
	"errors"
	"slices"
	"sync"
)

type EntityID uint64

// ComponentType is a stable index assigned at a single registration point
// (see the types package). Matching never resolves types by name.
type ComponentType uint32

var (
	ErrNilComponent      = errors.New("component is nil")
	ErrComponentNotFound = errors.New("component not found")
	ErrEntityRemoved     = errors.New("entity removed from its pool")
)

// Component is a typed data fragment attached to an entity.
type Component interface {
	Type() ComponentType
}

// Entity is an identity with a dynamic set of typed components.
type Entity interface {
	ID() EntityID
	Pool() string

	AddComponent(Component) error
	RemoveComponent(ComponentType) error
	RemoveAllComponents() error
	GetComponent(ComponentType) (Component, bool)
	HasComponent(ComponentType) bool
	HasComponents(...ComponentType) bool
	ListComponents() []ComponentType

	// MarkRemoved is called by the owning pool when the entity leaves it.
	// Components can still be removed afterwards but no longer added.
	MarkRemoved()
	Removed() bool
}

// Notifier receives component lifecycle changes. It is called after the
// entity state has been updated and outside of the entity lock.
type Notifier interface {
	ComponentAdded(Entity, Component) error
	ComponentRemoved(Entity, Component) error
}

type entity struct {
	id       EntityID
	pool     string
	notifier Notifier

	mu         sync.RWMutex
	components map[ComponentType]Component
	removed    bool
}

// NewEntity creates an entity bound to a pool. The notifier may be nil, in
// which case component changes are not announced.
func NewEntity(id EntityID, pool string, notifier Notifier) Entity {
	return &entity{
		id:         id,
		pool:       pool,
		notifier:   notifier,
		components: make(map[ComponentType]Component),
	}
}

func (e *entity) ID() EntityID { return e.id }
func (e *entity) Pool() string { return e.pool }

// AddComponent stores c, replacing any component of the same type, and then
// announces it.
func (e *entity) AddComponent(c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return ErrEntityRemoved
	}
	e.components[c.Type()] = c
	e.mu.Unlock()

	if e.notifier == nil {
		return nil
	}
	return e.notifier.ComponentAdded(e, c)
}

func (e *entity) RemoveComponent(t ComponentType) error {
	e.mu.Lock()
	c, ok := e.components[t]
	if ok {
		delete(e.components, t)
	}
	e.mu.Unlock()

	if !ok {
		return ErrComponentNotFound
	}
	if e.notifier == nil {
		return nil
	}
	return e.notifier.ComponentRemoved(e, c)
}

func (e *entity) MarkRemoved() {
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
}

func (e *entity) Removed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.removed
}

// RemoveAllComponents removes every component in ascending type order,
// announcing each removal separately.
func (e *entity) RemoveAllComponents() error {
	var errs error
	for _, t := range e.ListComponents() {
		if err := e.RemoveComponent(t); err != nil && !errors.Is(err, ErrComponentNotFound) {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (e *entity) GetComponent(t ComponentType) (Component, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.components[t]
	return c, ok
}

func (e *entity) HasComponent(t ComponentType) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.components[t]
	return ok
}

func (e *entity) HasComponents(types ...ComponentType) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range types {
		if _, ok := e.components[t]; !ok {
			return false
		}
	}
	return true
}

func (e *entity) ListComponents() []ComponentType {
	e.mu.RLock()
	out := make([]ComponentType, 0, len(e.components))
	for t := range e.components {
		out = append(out, t)
	}
	e.mu.RUnlock()
	slices.Sort(out)
	return out
}
