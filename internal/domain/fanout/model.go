package fanout

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/janhq/multichat/internal/utils/platformerrors"
)

// ModelDescriptor identifies one model of a session. ID is unique within the
// request and tags every event; UpstreamModel is the provider's model name.
type ModelDescriptor struct {
	ID            string
	Provider      string
	UpstreamModel string
}

// EventKind enumerates the events that flow through a session.
type EventKind string

const (
	EventContent  EventKind = "content"
	EventDone     EventKind = "done"
	EventError    EventKind = "error"
	EventComplete EventKind = "complete"
)

// Event is one unit published to the multiplexer. Content is set for
// EventContent, Message for EventError; EventComplete has no model.
type Event struct {
	Kind    EventKind
	ModelID string
	Content string
	Message string
}

// Terminal reports whether the event ends its model's stream.
func (e Event) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// ContentEvent carries a visible text fragment.
func ContentEvent(modelID, content string) Event {
	return Event{Kind: EventContent, ModelID: modelID, Content: content}
}

// DoneEvent marks a model as finished.
func DoneEvent(modelID string) Event {
	return Event{Kind: EventDone, ModelID: modelID}
}

// ErrorEvent marks a model as failed. An empty message is replaced so the
// frame stays well-formed.
func ErrorEvent(modelID, message string) Event {
	if strings.TrimSpace(message) == "" {
		message = "unknown error"
	}
	return Event{Kind: EventError, ModelID: modelID, Message: message}
}

// CompleteEvent ends the session.
func CompleteEvent() Event {
	return Event{Kind: EventComplete}
}

// Adapter streams one model's answer. The sequence is lazy, finite and can
// be ranged over once; it ends with exactly one done or error event.
type Adapter interface {
	Stream(ctx context.Context, query string) iter.Seq[Event]
}

// AdapterFactory builds the adapter for a model. An error is reported as that
// model's error event.
type AdapterFactory interface {
	NewAdapter(model ModelDescriptor) (Adapter, error)
}

// Sink receives events in their final order. Only the multiplexer's consumer
// goroutine calls Write.
type Sink interface {
	Write(ev Event) error
}

// Outcome is the settled state of one model.
type Outcome struct {
	Model      ModelDescriptor
	Status     EventKind
	Message    string
	Chunks     int
	FirstChunk time.Duration
	Duration   time.Duration
}

// Request is one fan-out session.
type Request struct {
	SessionID string
	Query     string
	Models    []ModelDescriptor
}

// Summary describes a finished session.
type Summary struct {
	SessionID string
	Outcomes  []Outcome
	Duration  time.Duration
}

// Failed counts models that ended with an error.
func (s *Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == EventError {
			n++
		}
	}
	return n
}

// ValidateModels rejects descriptors the dispatcher cannot key events by.
func ValidateModels(ctx context.Context, models []ModelDescriptor) error {
	seen := make(map[string]struct{}, len(models))
	for i, m := range models {
		if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Provider) == "" || strings.TrimSpace(m.UpstreamModel) == "" {
			return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"Invalid models", errors.New("id, provider and modelId are required"), "", map[string]any{"model_index": i})
		}
		if _, dup := seen[m.ID]; dup {
			return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("Duplicate model id: %s", m.ID), nil, "", map[string]any{"model_id": m.ID, "model_index": i})
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}
