package handlers

import (
	"github.com/google/wire"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Chat  *ChatHandler
	Model *ModelHandler
}

// NewProvider creates a new handler provider.
func NewProvider(chat *ChatHandler, model *ModelHandler) *Provider {
	return &Provider{
		Chat:  chat,
		Model: model,
	}
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewChatHandler,
	NewModelHandler,
	NewProvider,
)
