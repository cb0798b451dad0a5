package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/ecsrx/internal/config"
	"github.com/zeusync/ecsrx/internal/core/events/bus"
	"github.com/zeusync/ecsrx/internal/core/models"
	"github.com/zeusync/ecsrx/internal/core/models/types"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
	"github.com/zeusync/ecsrx/internal/core/pools"
)

func newSession(t *testing.T, cfg config.Config) *Session {
	t.Helper()
	b := bus.New()
	logger := log.NewNop()
	s, err := New(cfg, logger, b, types.NewRegistry(), pools.NewManager(b, logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleConfig() config.Config {
	return config.Config{
		LogLevel:   "info",
		Components: []string{"position", "velocity", "health"},
		Pools:      []string{"enemies"},
		Groups: []config.GroupConfig{
			{Name: "movers", Pool: "default", Components: []string{"position", "velocity"}},
			{Name: "movers-reversed", Pool: "default", Components: []string{"velocity", "position"}},
			{Name: "hostile", Pool: "enemies", Components: []string{"health"}},
			{Name: "everything", Pool: "default"},
		},
		Entities: []config.EntityConfig{
			{Pool: "default", Count: 3, Components: []string{"position", "velocity"}},
			{Pool: "default", Count: 2, Components: []string{"position"}},
			{Pool: "enemies", Count: 4, Components: []string{"health", "position"}},
		},
	}
}

func TestNewDeclaresGroups(t *testing.T) {
	s := newSession(t, sampleConfig())

	assert.Equal(t, []string{"everything", "hostile", "movers", "movers-reversed"}, s.GroupNames())
	assert.Equal(t, 3, s.Types().Len())

	movers, err := s.Group("movers")
	require.NoError(t, err)
	reversed, err := s.Group("movers-reversed")
	require.NoError(t, err)
	assert.Same(t, movers, reversed)
	assert.Equal(t, 3, s.Pools().Registry().Len())

	_, err = s.Group("missing")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestSpawnFillsGroups(t *testing.T) {
	s := newSession(t, sampleConfig())
	require.NoError(t, s.Spawn(context.Background()))

	report := map[string]GroupReport{}
	for _, r := range s.Report() {
		report[r.Name] = r
	}

	assert.Equal(t, 3, report["movers"].Count)
	assert.Equal(t, 4, report["hostile"].Count)
	assert.Equal(t, 5, report["everything"].Count)
	assert.Equal(t, "enemies[2]", report["hostile"].Token)
	assert.Len(t, report["movers"].Entities, 3)
}

func TestDeclareGroupAfterSpawnSeedsFromPool(t *testing.T) {
	s := newSession(t, sampleConfig())
	require.NoError(t, s.Spawn(context.Background()))

	positioned, err := s.DeclareGroup("positioned", "", "position")
	require.NoError(t, err)
	assert.Equal(t, 5, positioned.Count())

	_, err = s.DeclareGroup("broken", "", "mana")
	assert.ErrorIs(t, err, types.ErrUnknownType)

	_, err = s.DeclareGroup("nowhere", "missing", "position")
	assert.ErrorIs(t, err, pools.ErrPoolNotFound)
}

func TestGroupsFollowMutations(t *testing.T) {
	s := newSession(t, sampleConfig())
	require.NoError(t, s.Spawn(context.Background()))

	movers, _ := s.Group("movers")
	velocity, _ := s.Types().Lookup("velocity")
	first := movers.Entities()[0]

	require.NoError(t, first.RemoveComponent(velocity))
	assert.Equal(t, 2, movers.Count())

	pool, _ := s.Pools().GetPool("")
	var stationary models.Entity
	for _, e := range pool.Entities() {
		if !e.HasComponent(velocity) && e.ID() != first.ID() {
			stationary = e
			break
		}
	}
	require.NotNil(t, stationary)
	require.NoError(t, stationary.AddComponent(models.Tag{T: velocity}))
	assert.True(t, movers.Contains(stationary.ID()))
}

func TestSpawnHonoursCancellation(t *testing.T) {
	s := newSession(t, sampleConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Spawn(ctx), context.Canceled)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	b := bus.New()
	cfg := config.Config{LogLevel: "info", Groups: []config.GroupConfig{{Name: "g", Pool: "default", Components: []string{"x"}}}}
	_, err := New(cfg, log.NewNop(), b, types.NewRegistry(), pools.NewManager(b, nil))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestDeclaredGroupsGetCensusSystems(t *testing.T) {
	s := newSession(t, sampleConfig())
	require.NoError(t, s.Spawn(context.Background()))

	assert.ElementsMatch(t, []string{
		"census:movers", "census:movers-reversed", "census:hostile", "census:everything",
	}, s.Systems().Names())

	require.NoError(t, s.Tick(context.Background(), 0.5))
	metrics, ok := s.Systems().Metrics("census:hostile")
	require.True(t, ok)
	assert.EqualValues(t, 1, metrics.ExecutionCount)
	assert.EqualValues(t, 4, metrics.EntitiesProcessed)

	_, err := s.DeclareGroup("movers", "", "position", "velocity")
	require.NoError(t, err)
	assert.Len(t, s.Systems().Names(), 4)
}
