// Package session assembles a configured set of pools, component types and
// declared groups on top of one event bus.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/zeusync/ecsrx/internal/config"
	"github.com/zeusync/ecsrx/internal/core/events/bus"
	"github.com/zeusync/ecsrx/internal/core/groups"
	"github.com/zeusync/ecsrx/internal/core/models"
	"github.com/zeusync/ecsrx/internal/core/models/types"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
	"github.com/zeusync/ecsrx/internal/core/pools"
	"github.com/zeusync/ecsrx/internal/core/systems"
	"github.com/zeusync/ecsrx/pkg/concurrent"
)

var ErrGroupNotFound = errors.New("group not found")

type Session struct {
	cfg     config.Config
	logger  log.Log
	bus     bus.EventBus
	types   *types.Registry
	pools   *pools.Manager
	systems *systems.Manager

	groups map[string]*groups.Accessor
}

// GroupReport is a point-in-time view of one declared group.
type GroupReport struct {
	Name     string
	Token    string
	Count    int
	Entities []models.EntityID
}

// New registers the configured component types, creates the pools and
// declares every configured group.
func New(cfg config.Config, logger log.Log, b bus.EventBus, reg *types.Registry, pm *pools.Manager) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:     cfg,
		logger:  logger,
		bus:     b,
		types:   reg,
		pools:   pm,
		systems: systems.NewManager(pm, logger),
		groups:  make(map[string]*groups.Accessor, len(cfg.Groups)),
	}

	for _, name := range cfg.Components {
		if _, err := reg.Register(name); err != nil {
			return nil, fmt.Errorf("register component %q: %w", name, err)
		}
	}
	for _, name := range cfg.Pools {
		if _, err := pm.GetOrCreatePool(name); err != nil {
			return nil, err
		}
	}
	for _, g := range cfg.Groups {
		if _, err := s.DeclareGroup(g.Name, g.Pool, g.Components...); err != nil {
			return nil, err
		}
	}

	logger.Info("session ready",
		log.Int("components", reg.Len()),
		log.Int("pools", len(pm.Pools())),
		log.Int("groups", len(s.groups)),
	)
	return s, nil
}

func (s *Session) Logger() log.Log           { return s.logger }
func (s *Session) Types() *types.Registry    { return s.types }
func (s *Session) Pools() *pools.Manager     { return s.pools }
func (s *Session) Config() config.Config     { return s.cfg }
func (s *Session) Bus() bus.EventBus         { return s.bus }
func (s *Session) Systems() *systems.Manager { return s.systems }

// DeclareGroup resolves component names and binds name to the shared
// accessor for the resulting token. Every declared group gets a census
// system reporting its size on each Tick.
func (s *Session) DeclareGroup(name, pool string, components ...string) (*groups.Accessor, error) {
	if pool == "" {
		pool = pools.DefaultPool
	}
	ids, err := s.types.Resolve(components...)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", name, err)
	}
	token, err := groups.NewToken(pool, ids...)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", name, err)
	}
	a, err := s.pools.GetGroup(token)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", name, err)
	}
	c := &census{name: name, token: token, logger: s.logger}
	if _, exists := s.groups[name]; exists {
		_ = s.systems.Unregister(c.Name())
	}
	if err = s.systems.Register(c); err != nil {
		return nil, err
	}
	s.groups[name] = a
	return a, nil
}

func (s *Session) Group(name string) (*groups.Accessor, error) {
	a, ok := s.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGroupNotFound, name)
	}
	return a, nil
}

func (s *Session) GroupNames() []string {
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Spawn creates the configured entities. Pools are filled concurrently; the
// entities of one pool are created in declaration order.
func (s *Session) Spawn(ctx context.Context) error {
	batches := concurrent.GroupBy(s.cfg.Entities, func(e config.EntityConfig) string { return e.Pool })
	return concurrent.ForEach(ctx, batches, 0, func(ctx context.Context, batch []config.EntityConfig) error {
		for _, entry := range batch {
			if err := s.spawn(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Session) spawn(ctx context.Context, entry config.EntityConfig) error {
	pool, err := s.pools.GetPool(entry.Pool)
	if err != nil {
		return err
	}
	ids, err := s.types.Resolve(entry.Components...)
	if err != nil {
		return err
	}
	components := make([]models.Component, len(ids))
	for i, id := range ids {
		components[i] = models.Tag{T: id}
	}

	for i := 0; i < entry.Count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := pool.CreateEntity(components...); err != nil {
			return fmt.Errorf("spawn in pool %q: %w", entry.Pool, err)
		}
	}
	s.logger.Debug("entities spawned",
		log.String("pool", entry.Pool),
		log.Int("count", entry.Count),
		log.Strings("components", entry.Components),
	)
	return nil
}

// Report lists every declared group ordered by name.
func (s *Session) Report() []GroupReport {
	out := make([]GroupReport, 0, len(s.groups))
	for _, name := range s.GroupNames() {
		a := s.groups[name]
		entities := a.Entities()
		ids := make([]models.EntityID, len(entities))
		for i, e := range entities {
			ids[i] = e.ID()
		}
		out = append(out, GroupReport{
			Name:     name,
			Token:    a.Token().String(),
			Count:    len(ids),
			Entities: ids,
		})
	}
	return out
}

// Tick runs one update of every registered system.
func (s *Session) Tick(ctx context.Context, deltaTime float64) error {
	return s.systems.Update(ctx, deltaTime)
}

// Close stops all systems and disposes all groups of the session.
func (s *Session) Close() error {
	s.systems.Close()
	return s.pools.Close()
}
