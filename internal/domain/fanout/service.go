package fanout

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/multichat/internal/utils/platformerrors"
)

// Service runs fan-out sessions.
type Service interface {
	// Run streams every model of req into sink and finishes with the
	// session-complete event. It returns once the sink has seen the last
	// event; the error reports a sink failure.
	Run(ctx context.Context, req Request, sink Sink) (*Summary, error)
}

type service struct {
	dispatcher *Dispatcher
	bufferSize int
	tracer     trace.Tracer
	log        zerolog.Logger
}

// NewService creates a fan-out service.
func NewService(factory AdapterFactory, bufferSize int, log zerolog.Logger) Service {
	return &service{
		dispatcher: NewDispatcher(factory, log),
		bufferSize: bufferSize,
		tracer:     otel.Tracer(tracerName),
		log:        log.With().Str("component", "fanout-service").Logger(),
	}
}

func (s *service) Run(ctx context.Context, req Request, sink Sink) (*Summary, error) {
	if err := ValidateModels(ctx, req.Models); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "fanout.session",
		trace.WithAttributes(
			attribute.String("session.id", req.SessionID),
			attribute.Int("session.models", len(req.Models)),
		),
	)
	defer span.End()

	log := s.log.With().Str("session_id", req.SessionID).Logger()
	log.Debug().Int("models", len(req.Models)).Msg("dispatching session")

	mux := NewMultiplexer(sink, s.bufferSize)
	outcomes := s.dispatcher.Dispatch(ctx, req.Query, req.Models, mux.Publish)
	sinkErr := mux.Complete()

	summary := &Summary{
		SessionID: req.SessionID,
		Outcomes:  outcomes,
		Duration:  time.Since(start),
	}
	span.SetAttributes(attribute.Int("session.failed", summary.Failed()))

	if sinkErr != nil {
		log.Warn().Err(sinkErr).Msg("client stream failed before the session completed")
		return summary, platformerrors.AsError(ctx, platformerrors.LayerDomain, sinkErr, "write session stream")
	}
	return summary, nil
}
