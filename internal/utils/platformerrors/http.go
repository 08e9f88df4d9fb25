package platformerrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HTTPErrorResponse represents the standard error response format.
type HTTPErrorResponse struct {
	Error *HTTPErrorDetail `json:"error"`
}

// HTTPErrorDetail contains error details for HTTP responses.
type HTTPErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError writes err as an HTTP response. PlatformErrors keep their
// status mapping and message; anything else becomes a generic 500 so internal
// details are not leaked.
func WriteError(c *gin.Context, err error, log zerolog.Logger) {
	platformErr := GetPlatformError(err)
	if platformErr == nil {
		if err != nil {
			log.Error().Err(err).Msg("unhandled error")
		}
		WriteInternalError(c, "Internal server error")
		return
	}

	LogError(log, platformErr)

	requestID := platformErr.RequestID
	if requestID == "" {
		requestID = RequestIDFromContext(c.Request.Context())
	}
	message := platformErr.Message
	if platformErr.Type == ErrorTypeInternal {
		message = "Internal server error"
	}
	c.AbortWithStatusJSON(ErrorTypeToHTTPStatus(platformErr.Type), HTTPErrorResponse{
		Error: &HTTPErrorDetail{
			Message:   message,
			Type:      errorTypeToString(platformErr.Type),
			Code:      platformErr.UUID,
			RequestID: requestID,
		},
	})
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, HTTPErrorResponse{
		Error: &HTTPErrorDetail{
			Message:   message,
			Type:      errorTypeToString(ErrorTypeInternal),
			RequestID: RequestIDFromContext(c.Request.Context()),
		},
	})
}

// errorTypeToString converts an ErrorType to a snake_case string for API responses.
func errorTypeToString(t ErrorType) string {
	switch t {
	case ErrorTypeValidation:
		return "validation_error"
	case ErrorTypeTimeout:
		return "timeout_error"
	case ErrorTypeCancelled:
		return "cancelled_error"
	case ErrorTypeInternal:
		fallthrough
	default:
		return "internal_error"
	}
}
