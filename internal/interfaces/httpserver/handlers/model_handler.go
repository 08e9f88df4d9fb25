package handlers

import (
	"context"

	"github.com/janhq/multichat/internal/config"
)

// ModelHandler serves the model catalogue.
type ModelHandler struct {
	catalog *config.Catalog
}

// NewModelHandler creates a new model handler.
func NewModelHandler(catalog *config.Catalog) *ModelHandler {
	return &ModelHandler{catalog: catalog}
}

// ListModels returns the selectable models in catalogue order.
func (h *ModelHandler) ListModels(_ context.Context) []config.ModelEntry {
	return h.catalog.Models()
}
