package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/ecsrx/internal/config"
	"github.com/zeusync/ecsrx/internal/core/events/bus"
	"github.com/zeusync/ecsrx/internal/core/models/types"
	"github.com/zeusync/ecsrx/internal/core/observability/log"
	"github.com/zeusync/ecsrx/internal/core/pools"
	"github.com/zeusync/ecsrx/internal/session"
)

// ProviderSet builds a Session from a Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	types.NewRegistry,
	pools.NewManager,
	session.New,
)

// ProvideLogger builds the process logger at the configured level. The
// cleanup flushes it.
func ProvideLogger(cfg config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(level)
	return logger, func() { _ = logger.Sync() }, nil
}
