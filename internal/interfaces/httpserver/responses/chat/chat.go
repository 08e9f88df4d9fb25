// Package chatres writes fan-out sessions as server-sent event streams.
package chatres

import (
	"fmt"
	"io"
	"net/http"

	"github.com/janhq/multichat/internal/config"
	"github.com/janhq/multichat/internal/domain/fanout"
	"github.com/janhq/multichat/pkg/protocol"
)

// FrameFromEvent maps a session event onto its wire frame.
func FrameFromEvent(ev fanout.Event) (protocol.Frame, error) {
	switch ev.Kind {
	case fanout.EventContent:
		return protocol.ContentFrame(ev.ModelID, ev.Content), nil
	case fanout.EventDone:
		return protocol.DoneFrame(ev.ModelID), nil
	case fanout.EventError:
		return protocol.ErrorFrame(ev.ModelID, ev.Message), nil
	case fanout.EventComplete:
		return protocol.CompleteFrame(), nil
	default:
		return protocol.Frame{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// StreamWriter is a fanout.Sink that writes each event as one SSE frame and
// flushes it immediately.
type StreamWriter struct {
	w       io.Writer
	flusher http.Flusher
	frames  int
}

// NewStreamWriter wraps an SSE response writer.
func NewStreamWriter(w io.Writer, flusher http.Flusher) *StreamWriter {
	return &StreamWriter{w: w, flusher: flusher}
}

// Write encodes and flushes ev.
func (s *StreamWriter) Write(ev fanout.Event) error {
	frame, err := FrameFromEvent(ev)
	if err != nil {
		return err
	}
	data, err := protocol.Encode(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	s.frames++
	return nil
}

// Frames reports how many frames were written.
func (s *StreamWriter) Frames() int {
	return s.frames
}

// NewCatalogResponse lists the catalogue models.
func NewCatalogResponse(models []config.ModelEntry) protocol.CatalogResponse {
	data := make([]protocol.CatalogModel, len(models))
	for i, m := range models {
		data[i] = protocol.CatalogModel{
			ID:       m.ID,
			Name:     m.Name,
			Provider: m.Provider,
			ModelID:  m.Model,
		}
	}
	return protocol.CatalogResponse{
		Object: "list",
		Data:   data,
	}
}
