package infrastructure

import (
	"fmt"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/janhq/multichat/internal/config"
	"github.com/janhq/multichat/internal/domain/fanout"
	"github.com/janhq/multichat/internal/infrastructure/upstream"
	"github.com/janhq/multichat/pkg/telemetry"
)

// ProvideCatalog loads the model catalogue named by the config.
func ProvideCatalog(cfg *config.Config) (*config.Catalog, error) {
	return config.LoadCatalog(cfg.CatalogFile)
}

// ProvideUpstreamClient provides the shared resty client for provider calls.
func ProvideUpstreamClient(cfg *config.Config) *resty.Client {
	return upstream.NewClient(cfg.ServiceName + "-upstream")
}

// ProvideRegistry provides the adapter registry over the catalogue providers.
func ProvideRegistry(
	client *resty.Client,
	catalog *config.Catalog,
	cfg *config.Config,
	log zerolog.Logger,
) *upstream.Registry {
	return upstream.NewRegistry(client, catalog, upstream.OptionsFromConfig(cfg), log)
}

// ProvideSanitizer provides the query sanitizer used in logs.
func ProvideSanitizer(cfg *config.Config) (*telemetry.Sanitizer, error) {
	level, err := telemetry.ParseLevel(cfg.LogPIILevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_PII_LEVEL: %w", err)
	}
	return telemetry.NewSanitizer(level, cfg.ServiceName), nil
}

// InfrastructureProvider provides all infrastructure dependencies.
var InfrastructureProvider = wire.NewSet(
	ProvideCatalog,
	ProvideUpstreamClient,
	ProvideRegistry,
	ProvideSanitizer,
	wire.Bind(new(fanout.AdapterFactory), new(*upstream.Registry)),
)
