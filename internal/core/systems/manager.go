package systems

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/zeusync/ecsrx/internal/core/groups"
	"github.com/zeusync/ecsrx/internal/core/models"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
)

var (
	ErrInvalidSystem  = errors.New("system has no name")
	ErrSystemExists   = errors.New("system already registered")
	ErrSystemNotFound = errors.New("system not found")
)

// GroupSource hands out shared group accessors, e.g. a pools.Manager.
type GroupSource interface {
	GetGroup(groups.Token) (*groups.Accessor, error)
}

type entry struct {
	system  System
	group   *groups.Accessor
	stop    func()
	seq     int
	metrics Metrics
}

// Manager drives registered systems over their groups.
type Manager struct {
	source GroupSource
	logger log.Log

	mu      sync.Mutex
	entries []*entry
	seq     int
}

func NewManager(source GroupSource, logger log.Log) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{source: source, logger: logger}
}

// Register binds s to its group. Setup systems immediately run over the
// entities already in the group; the joined errors of that pass are returned
// but the system stays registered.
func (m *Manager) Register(s System) error {
	if s == nil || strings.TrimSpace(s.Name()) == "" {
		return ErrInvalidSystem
	}

	m.mu.Lock()
	if m.findLocked(s.Name()) >= 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrSystemExists, s.Name())
	}
	m.mu.Unlock()

	group, err := m.source.GetGroup(s.Token())
	if err != nil {
		return fmt.Errorf("system %q: %w", s.Name(), err)
	}

	e := &entry{system: s, group: group}
	setup, hasSetup := s.(SetupSystem)
	teardown, hasTeardown := s.(TeardownSystem)

	var added, removed func(models.Entity)
	if hasSetup {
		added = func(ent models.Entity) { m.record(e, setup.Setup(ent)) }
	}
	if hasTeardown {
		removed = func(ent models.Entity) { m.record(e, teardown.Teardown(ent)) }
	}
	if added != nil || removed != nil {
		e.stop = group.Observe(added, removed)
	}

	m.mu.Lock()
	if m.findLocked(s.Name()) >= 0 {
		m.mu.Unlock()
		if e.stop != nil {
			e.stop()
		}
		return fmt.Errorf("%w: %q", ErrSystemExists, s.Name())
	}
	m.seq++
	e.seq = m.seq
	m.entries = append(m.entries, e)
	slices.SortStableFunc(m.entries, func(a, b *entry) int {
		if a.system.Priority() != b.system.Priority() {
			return int(b.system.Priority()) - int(a.system.Priority())
		}
		return a.seq - b.seq
	})
	m.mu.Unlock()

	m.logger.Debug("system registered",
		log.String("system", s.Name()),
		log.String("group", group.Token().String()),
	)

	var errs error
	if hasSetup {
		for _, ent := range group.Entities() {
			err := setup.Setup(ent)
			m.record(e, err)
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (m *Manager) Unregister(name string) error {
	m.mu.Lock()
	i := m.findLocked(name)
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrSystemNotFound, name)
	}
	e := m.entries[i]
	m.entries = slices.Delete(m.entries, i, i+1)
	m.mu.Unlock()

	if e.stop != nil {
		e.stop()
	}
	return nil
}

// Update runs every ReactSystem once, highest priority first. A failing
// system does not stop the others; all errors are joined.
func (m *Manager) Update(ctx context.Context, deltaTime float64) error {
	m.mu.Lock()
	entries := slices.Clone(m.entries)
	m.mu.Unlock()

	var errs error
	for _, e := range entries {
		react, ok := e.system.(ReactSystem)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return errors.Join(errs, err)
		}

		entities := e.group.Entities()
		start := time.Now()
		err := react.Execute(ctx, entities, deltaTime)
		elapsed := time.Since(start)

		m.mu.Lock()
		e.metrics.ExecutionCount++
		e.metrics.TotalExecutionTime += elapsed
		e.metrics.MaxExecutionTime = max(e.metrics.MaxExecutionTime, elapsed)
		e.metrics.EntitiesProcessed += uint64(len(entities))
		m.mu.Unlock()
		m.record(e, err)

		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("system %q: %w", e.system.Name(), err))
		}
	}
	return errs
}

// Names lists systems in execution order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.system.Name()
	}
	return out
}

func (m *Manager) Metrics(name string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findLocked(name)
	if i < 0 {
		return Metrics{}, false
	}
	return m.entries[i].metrics, true
}

// Close unregisters every system.
func (m *Manager) Close() {
	for _, name := range m.Names() {
		_ = m.Unregister(name)
	}
}

func (m *Manager) record(e *entry, err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	e.metrics.ErrorCount++
	e.metrics.LastError = err
	m.mu.Unlock()
	m.logger.Error("system failed", log.String("system", e.system.Name()), log.Error(err))
}

func (m *Manager) findLocked(name string) int {
	return slices.IndexFunc(m.entries, func(e *entry) bool { return e.system.Name() == name })
}
