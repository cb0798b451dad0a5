package pools

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zeusync/ecsrx/internal/core/events"
	"github.com/zeusync/ecsrx/internal/core/events/bus"
	"github.com/zeusync/ecsrx/internal/core/groups"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
)

const DefaultPool = "default"

var (
	ErrPoolNotFound      = errors.New("pool not found")
	ErrPoolAlreadyExists = errors.New("pool already exists")
	ErrInvalidPoolName   = errors.New("pool name is empty or malformed")
	ErrDefaultPool       = errors.New("default pool cannot be removed")
	ErrEntityNotFound    = errors.New("entity not found")
)

// Manager owns the pools of a session and the group registry built over
// them. All pools share one event bus; each publishes on its own topic.
type Manager struct {
	bus      bus.EventBus
	logger   log.Log
	registry *groups.Registry
	ids      atomic.Uint64

	mu    sync.RWMutex
	pools map[string]*Pool
}

// NewManager creates a manager holding the default pool.
func NewManager(b bus.EventBus, logger log.Log) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	m := &Manager{
		bus:      b,
		logger:   logger,
		registry: groups.NewRegistry(b, logger),
		pools:    make(map[string]*Pool),
	}
	m.pools[DefaultPool] = m.newPoolLocked(DefaultPool)
	return m
}

func (m *Manager) Registry() *groups.Registry { return m.registry }

// GetPool returns the named pool. An empty name selects the default pool.
func (m *Manager) GetPool(name string) (*Pool, error) {
	if name == "" {
		name = DefaultPool
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPoolNotFound, name)
	}
	return p, nil
}

func (m *Manager) CreatePool(name string) (*Pool, error) {
	if err := validatePoolName(name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pools[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrPoolAlreadyExists, name)
	}
	p := m.newPoolLocked(name)
	m.pools[name] = p
	m.logger.Debug("pool created", log.String("pool", name))
	return p, nil
}

// GetOrCreatePool returns the named pool, creating it when missing. An empty
// name selects the default pool.
func (m *Manager) GetOrCreatePool(name string) (*Pool, error) {
	if p, err := m.GetPool(name); err == nil {
		return p, nil
	}
	p, err := m.CreatePool(name)
	if errors.Is(err, ErrPoolAlreadyExists) {
		return m.GetPool(name)
	}
	return p, err
}

// RemovePool removes every entity of the pool, announcing each removal, and
// forgets the pool. Groups over the pool stay registered and end up empty.
func (m *Manager) RemovePool(name string) error {
	if name == DefaultPool || name == "" {
		return ErrDefaultPool
	}
	m.mu.Lock()
	p, ok := m.pools[name]
	if ok {
		delete(m.pools, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrPoolNotFound, name)
	}
	return p.clear()
}

// Pools returns all pools ordered by name.
func (m *Manager) Pools() []*Pool {
	m.mu.RLock()
	out := make([]*Pool, 0, len(m.pools))
	for _, p := range m.pools {
		out = append(out, p)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Pool) int { return strings.Compare(a.name, b.name) })
	return out
}

// GetGroup returns the shared accessor for token, seeding it from the pool
// named by the token scope on first use.
func (m *Manager) GetGroup(token groups.Token) (*groups.Accessor, error) {
	if a, ok := m.registry.Get(token); ok {
		return a, nil
	}
	p, err := m.GetPool(token.Scope())
	if err != nil {
		return nil, err
	}
	return m.registry.GetOrCreateFrom(token, p.Entities)
}

// Close disposes every group accessor.
func (m *Manager) Close() error {
	return m.registry.Dispose()
}

func (m *Manager) newPoolLocked(name string) *Pool {
	_ = m.bus.CreateTopic(name)
	return newPool(name, events.NewStream(m.bus, name), &m.ids, m.logger)
}

func validatePoolName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return fmt.Errorf("%w: %q", ErrInvalidPoolName, name)
	}
	return nil
}
