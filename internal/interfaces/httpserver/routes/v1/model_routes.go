package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janhq/multichat/internal/interfaces/httpserver/handlers"
	chatres "github.com/janhq/multichat/internal/interfaces/httpserver/responses/chat"
)

// RegisterModelRoutes registers the catalogue route.
func RegisterModelRoutes(router gin.IRoutes, handler *handlers.ModelHandler) {
	router.GET("/models", listModels(handler))
}

// listModels godoc
// @Summary      List selectable models
// @Description  Returns the configured model catalogue. Each entry's id, provider and modelId
// @Description  form a ready-made descriptor for POST /v1/chat/stream.
// @Tags         Models API
// @Produce      json
// @Success      200 {object} protocol.CatalogResponse
// @Router       /v1/models [get]
func listModels(handler *handlers.ModelHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, chatres.NewCatalogResponse(handler.ListModels(c.Request.Context())))
	}
}
