package session

import (
	"context"

	"github.com/zeusync/ecsrx/internal/core/groups"
	"github.com/zeusync/ecsrx/internal/core/models"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
	"github.com/zeusync/ecsrx/internal/core/systems"
)

var _ systems.ReactSystem = (*census)(nil)

// census logs the size of a declared group on every tick.
type census struct {
	name   string
	token  groups.Token
	logger log.Log
	last   int
}

func (c *census) Name() string               { return "census:" + c.name }
func (c *census) Token() groups.Token        { return c.token }
func (c *census) Priority() systems.Priority { return systems.PriorityLowest }

func (c *census) Execute(_ context.Context, entities []models.Entity, _ float64) error {
	if len(entities) != c.last {
		c.logger.Debug("group size changed",
			log.String("group", c.name),
			log.Int("from", c.last),
			log.Int("to", len(entities)),
		)
		c.last = len(entities)
	}
	return nil
}
