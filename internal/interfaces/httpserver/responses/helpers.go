// Package responses contains HTTP response helpers for the multichat API.
// Stream frame writing lives in the chat subpackage.
package responses

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/multichat/internal/utils/platformerrors"
)

// ErrorResponse documents the error payload for route annotations.
type ErrorResponse = platformerrors.HTTPErrorResponse

// HandleError writes err using the platform error mapping. Validation errors
// keep their message; anything unexpected becomes the generic 500 payload.
func HandleError(c *gin.Context, log zerolog.Logger, err error) {
	log = log.With().Str("path", c.Request.URL.Path).Logger()
	platformerrors.WriteError(c, err, log)
}
