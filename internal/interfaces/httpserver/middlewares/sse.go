package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// SessionIDHeader carries the fan-out session ID on stream responses.
	SessionIDHeader = "X-Session-ID"
	// SessionIDKey is the gin context key for the session ID.
	SessionIDKey = "session_id"
)

// PrepareSSE sets the event-stream headers and returns the flusher. It
// reports false when the writer cannot flush, before anything is written.
func PrepareSSE(c *gin.Context) (http.Flusher, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return nil, false
	}
	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("Transfer-Encoding", "chunked")
	header.Set("X-Accel-Buffering", "no")
	return flusher, true
}
