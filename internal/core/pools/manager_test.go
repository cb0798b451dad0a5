package pools

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/ecsrx/internal/core/events/bus"
	"github.com/zeusync/ecsrx/internal/core/groups"
	"github.com/zeusync/ecsrx/internal/core/models"
)

const (
	position models.ComponentType = iota
	velocity
	health
)

func tag(t models.ComponentType) models.Component { return models.Tag{T: t} }

func TestManagerHasDefaultPool(t *testing.T) {
	m := NewManager(bus.New(), nil)

	p, err := m.GetPool("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPool, p.Name())

	same, err := m.GetPool(DefaultPool)
	require.NoError(t, err)
	assert.Same(t, p, same)
}

func TestManagerCreatePool(t *testing.T) {
	m := NewManager(bus.New(), nil)

	p, err := m.CreatePool("enemies")
	require.NoError(t, err)
	assert.Equal(t, "enemies", p.Name())

	_, err = m.CreatePool("enemies")
	assert.ErrorIs(t, err, ErrPoolAlreadyExists)

	_, err = m.CreatePool(" ")
	assert.ErrorIs(t, err, ErrInvalidPoolName)

	_, err = m.GetPool("missing")
	assert.ErrorIs(t, err, ErrPoolNotFound)

	names := []string{}
	for _, pool := range m.Pools() {
		names = append(names, pool.Name())
	}
	assert.Equal(t, []string{DefaultPool, "enemies"}, names)
}

func TestManagerGetOrCreatePool(t *testing.T) {
	m := NewManager(bus.New(), nil)

	a, err := m.GetOrCreatePool("ui")
	require.NoError(t, err)
	b, err := m.GetOrCreatePool("ui")
	require.NoError(t, err)
	assert.Same(t, a, b)

	d, err := m.GetOrCreatePool("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPool, d.Name())
}

func TestPoolEntityLifecycle(t *testing.T) {
	m := NewManager(bus.New(), nil)
	p, _ := m.GetPool("")

	first, err := p.CreateEntity(tag(position))
	require.NoError(t, err)
	second, err := p.CreateEntity()
	require.NoError(t, err)

	assert.Less(t, first.ID(), second.ID())
	assert.Equal(t, DefaultPool, first.Pool())
	assert.True(t, first.HasComponent(position))
	assert.Equal(t, 2, p.Count())

	got, ok := p.Entity(first.ID())
	assert.True(t, ok)
	assert.Same(t, first, got)

	require.NoError(t, p.RemoveEntity(first.ID()))
	assert.Empty(t, first.ListComponents())
	assert.Equal(t, []models.Entity{second}, p.Entities())
	assert.ErrorIs(t, p.RemoveEntity(first.ID()), ErrEntityNotFound)
}

func TestEntityIDsAreUniqueAcrossPools(t *testing.T) {
	m := NewManager(bus.New(), nil)
	a, _ := m.GetPool("")
	b, _ := m.CreatePool("other")

	ea, _ := a.CreateEntity()
	eb, _ := b.CreateEntity()
	assert.NotEqual(t, ea.ID(), eb.ID())
}

func TestManagerGetGroupTracksPool(t *testing.T) {
	m := NewManager(bus.New(), nil)
	p, _ := m.GetPool("")

	moving, _ := p.CreateEntity(tag(position), tag(velocity))
	_, _ = p.CreateEntity(tag(position))

	token := groups.MustToken(DefaultPool, position, velocity)
	g, err := m.GetGroup(token)
	require.NoError(t, err)
	assert.Equal(t, []models.Entity{moving}, g.Entities())

	later, _ := p.CreateEntity(tag(velocity), tag(position))
	assert.True(t, g.Contains(later.ID()))

	require.NoError(t, moving.RemoveComponent(velocity))
	assert.False(t, g.Contains(moving.ID()))

	require.NoError(t, p.RemoveEntity(later.ID()))
	assert.Zero(t, g.Count())

	again, err := m.GetGroup(groups.MustToken(DefaultPool, velocity, position))
	require.NoError(t, err)
	assert.Same(t, g, again)
	assert.Equal(t, 1, m.Registry().Len())
}

func TestManagerGroupsAreScopedToPool(t *testing.T) {
	m := NewManager(bus.New(), nil)
	enemies, _ := m.CreatePool("enemies")
	players, _ := m.GetPool("")

	g, err := m.GetGroup(groups.MustToken("enemies", health))
	require.NoError(t, err)

	_, _ = players.CreateEntity(tag(health))
	orc, _ := enemies.CreateEntity(tag(health))

	assert.Equal(t, []models.Entity{orc}, g.Entities())

	_, err = m.GetGroup(groups.MustToken("missing", health))
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestManagerRemovePoolEmptiesGroups(t *testing.T) {
	m := NewManager(bus.New(), nil)
	enemies, _ := m.CreatePool("enemies")
	_, _ = enemies.CreateEntity(tag(health))

	g, err := m.GetGroup(groups.MustToken("enemies", health))
	require.NoError(t, err)
	require.Equal(t, 1, g.Count())

	require.NoError(t, m.RemovePool("enemies"))
	assert.Zero(t, g.Count())
	assert.ErrorIs(t, m.RemovePool("enemies"), ErrPoolNotFound)
	assert.ErrorIs(t, m.RemovePool(DefaultPool), ErrDefaultPool)
}

func TestManagerClose(t *testing.T) {
	m := NewManager(bus.New(), nil)
	g, err := m.GetGroup(groups.MustToken(DefaultPool, position))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.True(t, g.IsDisposed())

	_, err = m.GetGroup(groups.MustToken(DefaultPool, velocity))
	assert.ErrorIs(t, err, groups.ErrRegistryClosed)
}

func TestRemovedEntityCannotRejoinGroups(t *testing.T) {
	m := NewManager(bus.New(), nil)
	p, _ := m.GetPool("")
	e, err := p.CreateEntity(tag(position))
	require.NoError(t, err)

	g, err := m.GetGroup(groups.MustToken(DefaultPool, position))
	require.NoError(t, err)
	require.Equal(t, 1, g.Count())

	require.NoError(t, p.RemoveEntity(e.ID()))
	assert.Zero(t, g.Count())

	assert.ErrorIs(t, e.AddComponent(tag(position)), models.ErrEntityRemoved)
	assert.False(t, g.Contains(e.ID()))
	assert.Zero(t, p.Count())
	assert.True(t, e.Removed())
}

func TestGetGroupConcurrentWithCreateEntity(t *testing.T) {
	const (
		runs     = 200
		entities = 100
	)
	for run := 0; run < runs; run++ {
		m := NewManager(bus.New(), nil)
		p, _ := m.GetPool("")

		var wg sync.WaitGroup
		start := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < entities; i++ {
				_, _ = p.CreateEntity(tag(position))
			}
		}()

		close(start)
		g, err := m.GetGroup(groups.MustToken(DefaultPool, position))
		require.NoError(t, err)
		wg.Wait()

		require.Equal(t, p.Count(), g.Count(), "run %d", run)
	}
}
