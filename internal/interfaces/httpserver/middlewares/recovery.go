package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/multichat/internal/utils/platformerrors"
)

// Recovery turns a panic into the generic 500 payload. Once a stream has
// started the status line is already sent, so the connection is just closed.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Str("request_id", GetRequestID(c)).
			Msg("recovered from panic")
		if c.Writer.Written() {
			c.Abort()
			return
		}
		platformerrors.WriteInternalError(c, "Internal server error")
	})
}
