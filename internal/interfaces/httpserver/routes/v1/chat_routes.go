package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/multichat/internal/interfaces/httpserver/handlers"
	"github.com/janhq/multichat/internal/interfaces/httpserver/middlewares"
	chatrequests "github.com/janhq/multichat/internal/interfaces/httpserver/requests/chat"
	"github.com/janhq/multichat/internal/interfaces/httpserver/responses"
)

// maxRequestBytes bounds the request body; a longer body fails to parse.
const maxRequestBytes = 1 << 20

// RegisterChatRoutes registers the streaming chat route.
func RegisterChatRoutes(router gin.IRoutes, handler *handlers.ChatHandler, log zerolog.Logger) {
	router.POST("/chat/stream", streamChat(handler, log))
}

// streamChat godoc
// @Summary      Stream answers from several models
// @Description  Sends one query to every listed model concurrently and multiplexes their answers
// @Description  into a single Server-Sent Events stream. Each frame carries the request-scoped
// @Description  model id; every model ends with a done or error frame, and the stream ends with
// @Description  a single {"type":"complete"} frame.
// @Tags         Chat API
// @Accept       json
// @Produce      text/event-stream
// @Param        request body chatrequests.StreamRequest true "Query and models"
// @Success      200 {string} string "text/event-stream of protocol.Frame"
// @Header       200 {string} X-Session-ID "Fan-out session identifier"
// @Failure      400 {object} responses.ErrorResponse
// @Failure      500 {object} responses.ErrorResponse
// @Router       /v1/chat/stream [post]
func streamChat(handler *handlers.ChatHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)
		req, err := chatrequests.Bind(c)
		if err != nil {
			responses.HandleError(c, log, err)
			return
		}

		if _, err := handler.StreamSession(c.Request.Context(), c, req); err != nil {
			if c.Writer.Written() {
				// The status line is gone; the client disconnected mid-stream.
				log.Debug().Err(err).Str("session_id", c.GetString(middlewares.SessionIDKey)).Msg("stream ended early")
				c.Abort()
				return
			}
			responses.HandleError(c, log, err)
		}
	}
}
