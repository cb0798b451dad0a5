package systems

import (
	"context"
	"time"

	"github.com/zeusync/ecsrx/internal/core/groups"
	"github.com/zeusync/ecsrx/internal/core/models"
)

// System is game logic bound to one group of entities.
type System interface {
	Name() string
	Token() groups.Token
	Priority() Priority
}

// SetupSystem runs once for every entity that joins its group, including the
// entities already in the group when the system is registered.
type SetupSystem interface {
	System
	Setup(models.Entity) error
}

// TeardownSystem runs once for every entity that leaves its group.
type TeardownSystem interface {
	System
	Teardown(models.Entity) error
}

// ReactSystem runs on every Update over the current group snapshot.
type ReactSystem interface {
	System
	Execute(ctx context.Context, entities []models.Entity, deltaTime float64) error
}

// Priority defines execution order; higher runs first.
type Priority uint16

const (
	PriorityLowest  Priority = 200
	PriorityLow     Priority = 500
	PriorityNormal  Priority = 600
	PriorityHigh    Priority = 1000
	PriorityHighest Priority = 1300
)

// Metrics provides runtime metrics for a system
type Metrics struct {
	ExecutionCount     uint64
	TotalExecutionTime time.Duration
	MaxExecutionTime   time.Duration
	ErrorCount         uint64
	LastError          error
	EntitiesProcessed  uint64
}
