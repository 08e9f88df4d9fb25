package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/janhq/multichat/internal/domain/fanout"

// Dispatcher runs one adapter per model and waits for every one of them to
// settle. A failing model never cancels its siblings.
type Dispatcher struct {
	factory AdapterFactory
	tracer  trace.Tracer
	log     zerolog.Logger
}

// NewDispatcher creates a dispatcher backed by factory.
func NewDispatcher(factory AdapterFactory, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		factory: factory,
		tracer:  otel.Tracer(tracerName),
		log:     log.With().Str("component", "fanout-dispatcher").Logger(),
	}
}

// Dispatch streams every model into publish and returns once all of them are
// terminal. Outcomes are in request order.
func (d *Dispatcher) Dispatch(ctx context.Context, query string, models []ModelDescriptor, publish func(Event) error) []Outcome {
	outcomes := make([]Outcome, len(models))

	// No derived context: one model's failure must not cancel the others.
	var g errgroup.Group
	for i, model := range models {
		g.Go(func() error {
			outcomes[i] = d.run(ctx, query, model, publish)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (d *Dispatcher) run(ctx context.Context, query string, model ModelDescriptor, publish func(Event) error) (outcome Outcome) {
	start := time.Now()
	outcome = Outcome{Model: model}
	log := d.log.With().Str("model_id", model.ID).Str("provider", model.Provider).Logger()

	ctx, span := d.tracer.Start(ctx, "fanout.model",
		trace.WithAttributes(
			attribute.String("model.id", model.ID),
			attribute.String("model.provider", model.Provider),
			attribute.String("model.upstream", model.UpstreamModel),
		),
	)

	terminal := false
	emit := func(ev Event) {
		if terminal {
			return
		}
		ev.ModelID = model.ID
		switch ev.Kind {
		case EventContent:
			if ev.Content == "" {
				return
			}
			if outcome.Chunks == 0 {
				outcome.FirstChunk = time.Since(start)
			}
			outcome.Chunks++
		case EventDone, EventError:
			terminal = true
			outcome.Status = ev.Kind
			outcome.Message = ev.Message
		default:
			return
		}
		if err := publish(ev); err != nil {
			log.Warn().Err(err).Str("event", string(ev.Kind)).Msg("dropping event")
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("model stream panicked")
			emit(ErrorEvent(model.ID, fmt.Sprintf("internal error: %v", r)))
		}
		if !terminal {
			emit(ErrorEvent(model.ID, "stream ended without a result"))
		}
		outcome.Duration = time.Since(start)
		if outcome.Status == EventError {
			span.SetStatus(codes.Error, outcome.Message)
		}
		span.SetAttributes(attribute.Int("model.chunks", outcome.Chunks))
		span.End()
		log.Debug().
			Str("status", string(outcome.Status)).
			Int("chunks", outcome.Chunks).
			Dur("duration", outcome.Duration).
			Msg("model settled")
	}()

	adapter, err := d.factory.NewAdapter(model)
	if err != nil {
		emit(ErrorEvent(model.ID, err.Error()))
		return outcome
	}

	for ev := range adapter.Stream(ctx, query) {
		emit(ev)
		if terminal {
			break
		}
	}
	return outcome
}
