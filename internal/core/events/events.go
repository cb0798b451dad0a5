// Package events defines the entity lifecycle events and a typed, scoped
// stream over the event bus that carries them.
package events

import (
	"time"

	"github.com/zeusync/ecsrx/internal/core/models"
)

const (
	TypeEntityAdded      = "ecs.entity.added"
	TypeEntityRemoved    = "ecs.entity.removed"
	TypeComponentAdded   = "ecs.component.added"
	TypeComponentRemoved = "ecs.component.removed"
)

// EntityAdded is raised after an entity joined a pool.
type EntityAdded struct {
	Entity models.Entity
	Pool   string
	At     time.Time
}

func (e EntityAdded) Type() string         { return TypeEntityAdded }
func (e EntityAdded) Timestamp() time.Time { return e.At }
func (e EntityAdded) Data() any            { return e.Entity }

// EntityRemoved is raised after an entity left a pool.
type EntityRemoved struct {
	Entity models.Entity
	Pool   string
	At     time.Time
}

func (e EntityRemoved) Type() string         { return TypeEntityRemoved }
func (e EntityRemoved) Timestamp() time.Time { return e.At }
func (e EntityRemoved) Data() any            { return e.Entity }

// ComponentAdded is raised after Component was stored on Entity.
type ComponentAdded struct {
	Entity    models.Entity
	Component models.Component
	At        time.Time
}

func (e ComponentAdded) Type() string         { return TypeComponentAdded }
func (e ComponentAdded) Timestamp() time.Time { return e.At }
func (e ComponentAdded) Data() any            { return e.Component }

// ComponentRemoved is raised after Component was taken off Entity.
type ComponentRemoved struct {
	Entity    models.Entity
	Component models.Component
	At        time.Time
}

func (e ComponentRemoved) Type() string         { return TypeComponentRemoved }
func (e ComponentRemoved) Timestamp() time.Time { return e.At }
func (e ComponentRemoved) Data() any            { return e.Component }
