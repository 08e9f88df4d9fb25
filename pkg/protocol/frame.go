// Package protocol defines the multichat wire format: the request body of a
// streaming chat call and the frames of the multiplexed response stream.
package protocol

import (
	"encoding/json"
	"strings"

	"github.com/janhq/multichat/pkg/sse"
)

// FrameKind classifies a decoded frame.
type FrameKind string

const (
	KindInvalid  FrameKind = ""
	KindContent  FrameKind = "content"
	KindDone     FrameKind = "done"
	KindError    FrameKind = "error"
	KindComplete FrameKind = "complete"
)

// TypeComplete is the value of Frame.Type on the session-complete frame.
const TypeComplete = "complete"

// Frame is one event of the multiplexed stream. Exactly one of the shapes
// below is valid:
//
//	{"modelId": "...", "content": "..."}
//	{"modelId": "...", "done": true}
//	{"modelId": "...", "error": "..."}
//	{"type": "complete"}
type Frame struct {
	ModelID string `json:"modelId,omitempty" jsonschema:"description=Request-scoped model identifier"`
	Content string `json:"content,omitempty" jsonschema:"description=Next fragment of the model's answer"`
	Done    bool   `json:"done,omitempty" jsonschema:"description=Model finished successfully"`
	Error   string `json:"error,omitempty" jsonschema:"description=Model failed with this message"`
	Type    string `json:"type,omitempty" jsonschema:"enum=complete,description=Session-level marker"`
}

// ContentFrame carries a non-empty text fragment for one model.
func ContentFrame(modelID, content string) Frame {
	return Frame{ModelID: modelID, Content: content}
}

// DoneFrame marks one model as finished.
func DoneFrame(modelID string) Frame {
	return Frame{ModelID: modelID, Done: true}
}

// ErrorFrame marks one model as failed.
func ErrorFrame(modelID, message string) Frame {
	return Frame{ModelID: modelID, Error: message}
}

// CompleteFrame ends the session.
func CompleteFrame() Frame {
	return Frame{Type: TypeComplete}
}

// Kind validates the frame and reports its shape. Frames matching none of
// the documented shapes, or more than one, are KindInvalid.
func (f Frame) Kind() FrameKind {
	if f.Type != "" {
		if f.Type == TypeComplete && f.ModelID == "" && f.Content == "" && !f.Done && f.Error == "" {
			return KindComplete
		}
		return KindInvalid
	}
	if f.ModelID == "" {
		return KindInvalid
	}

	shapes := 0
	kind := KindInvalid
	if f.Content != "" {
		shapes++
		kind = KindContent
	}
	if f.Done {
		shapes++
		kind = KindDone
	}
	if f.Error != "" {
		shapes++
		kind = KindError
	}
	if shapes != 1 {
		return KindInvalid
	}
	return kind
}

// Encode renders the frame as one SSE record: "data: <json>\n\n". JSON
// escaping keeps the payload on a single line.
func Encode(f Frame) ([]byte, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(sse.DataPrefix)+len(payload)+2)
	out = append(out, sse.DataPrefix...)
	out = append(out, payload...)
	out = append(out, '\n', '\n')
	return out, nil
}

// Decode parses one line of the outbound stream. It reports false for
// anything that is not a valid frame: non-data lines, the [DONE] sentinel,
// malformed JSON and payloads of an unknown shape.
func Decode(line string) (Frame, bool) {
	data, ok := sse.Payload(line)
	if !ok {
		return Frame{}, false
	}
	var f Frame
	if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &f); err != nil {
		return Frame{}, false
	}
	if f.Kind() == KindInvalid {
		return Frame{}, false
	}
	return f, true
}
