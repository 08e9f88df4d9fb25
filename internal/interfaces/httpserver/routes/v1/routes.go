package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/multichat/internal/interfaces/httpserver/handlers"
)

// Routes holds the v1 route configuration.
type Routes struct {
	handlers *handlers.Provider
	log      zerolog.Logger
}

// NewRoutes creates a new v1 routes instance.
func NewRoutes(handlerProvider *handlers.Provider, log zerolog.Logger) *Routes {
	return &Routes{
		handlers: handlerProvider,
		log:      log,
	}
}

// Register registers all v1 routes on the engine, plus POST /api/chat as an
// alias of the stream route for clients of the earlier path.
func (r *Routes) Register(engine *gin.Engine) {
	v1 := engine.Group("/v1")
	RegisterChatRoutes(v1, r.handlers.Chat, r.log)
	RegisterModelRoutes(v1, r.handlers.Model)

	engine.POST("/api/chat", streamChat(r.handlers.Chat, r.log))
}
