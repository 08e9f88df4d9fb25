package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/multichat/internal/domain/fanout"
	"github.com/janhq/multichat/internal/infrastructure/metrics"
	"github.com/janhq/multichat/internal/interfaces/httpserver/middlewares"
	chatrequests "github.com/janhq/multichat/internal/interfaces/httpserver/requests/chat"
	chatres "github.com/janhq/multichat/internal/interfaces/httpserver/responses/chat"
	"github.com/janhq/multichat/internal/utils/idgen"
	"github.com/janhq/multichat/internal/utils/platformerrors"
	"github.com/janhq/multichat/pkg/telemetry"
)

// ChatHandler streams fan-out sessions to HTTP clients.
type ChatHandler struct {
	service   fanout.Service
	sanitizer *telemetry.Sanitizer
	log       zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service fanout.Service, sanitizer *telemetry.Sanitizer, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service:   service,
		sanitizer: sanitizer,
		log:       log.With().Str("component", "chat-handler").Logger(),
	}
}

// StreamSession validates req, switches the response to an event stream and
// runs the session to completion. Errors returned before the first byte is
// written still map to an HTTP status; later ones mean the client went away.
func (h *ChatHandler) StreamSession(ctx context.Context, reqCtx *gin.Context, req *chatrequests.StreamRequest) (*fanout.Summary, error) {
	sessionID, err := idgen.NewSessionID()
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to generate session id")
	}
	domainReq := chatrequests.ToDomain(sessionID, req)
	if err := fanout.ValidateModels(ctx, domainReq.Models); err != nil {
		return nil, err
	}

	flusher, ok := middlewares.PrepareSSE(reqCtx)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeInternal,
			"streaming unsupported by response writer", nil, "")
	}
	reqCtx.Set(middlewares.SessionIDKey, sessionID)
	reqCtx.Header(middlewares.SessionIDHeader, sessionID)
	reqCtx.Status(http.StatusOK)
	reqCtx.Writer.WriteHeaderNow()
	flusher.Flush()

	log := h.log.With().Str("session_id", sessionID).Logger()
	log.Info().
		Str("query", h.sanitizer.Query(req.Query)).
		Str("query_fingerprint", h.sanitizer.Fingerprint(req.Query)).
		Int("models", len(domainReq.Models)).
		Msg("session started")

	metrics.SessionStarted(len(domainReq.Models))
	writer := chatres.NewStreamWriter(reqCtx.Writer, flusher)
	summary, err := h.service.Run(ctx, domainReq, writer)
	if summary != nil {
		metrics.SessionFinished(summary.Duration)
		for _, o := range summary.Outcomes {
			metrics.RecordModelOutcome(strings.ToLower(o.Model.Provider), string(o.Status), o.Chunks, o.FirstChunk)
		}
		log.Info().
			Int("frames", writer.Frames()).
			Int("failed", summary.Failed()).
			Dur("duration", summary.Duration).
			Msg("session finished")
	}
	return summary, err
}
