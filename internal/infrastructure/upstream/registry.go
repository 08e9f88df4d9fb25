package upstream

import (
	"fmt"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/janhq/multichat/internal/config"
	"github.com/janhq/multichat/internal/domain/fanout"
)

// Registry resolves a model's provider against the catalogue and builds its
// adapter. All adapters share one resty client.
type Registry struct {
	client  *resty.Client
	catalog *config.Catalog
	opts    Options
	log     zerolog.Logger
}

// NewRegistry creates a registry over catalog.
func NewRegistry(client *resty.Client, catalog *config.Catalog, opts Options, log zerolog.Logger) *Registry {
	return &Registry{
		client:  client,
		catalog: catalog,
		opts:    opts,
		log:     log,
	}
}

// NewAdapter implements fanout.AdapterFactory.
func (r *Registry) NewAdapter(model fanout.ModelDescriptor) (fanout.Adapter, error) {
	provider, ok := r.catalog.Provider(model.Provider)
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", model.Provider)
	}
	return NewAdapter(r.client, provider, model, r.opts, r.log), nil
}
