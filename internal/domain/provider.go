package domain

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/multichat/internal/config"
	"github.com/janhq/multichat/internal/domain/fanout"
)

// ProvideFanoutService provides the fan-out session service.
func ProvideFanoutService(
	factory fanout.AdapterFactory,
	cfg *config.Config,
	log zerolog.Logger,
) fanout.Service {
	return fanout.NewService(factory, cfg.MuxBufferSize, log)
}

// ServiceProvider provides all domain services.
var ServiceProvider = wire.NewSet(
	ProvideFanoutService,
)
