// Package testhelpers provides fake OpenAI-compatible upstreams for tests.
package testhelpers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// DoneRecord is the upstream end-of-stream sentinel.
const DoneRecord = "data: [DONE]\n\n"

// ChunkRecord renders one chat.completion.chunk carrying content as an SSE
// record.
func ChunkRecord(content string) string {
	payload, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion.chunk",
		"model":  "test",
		"choices": []map[string]any{
			{"index": 0, "delta": map[string]any{"content": content}},
		},
	})
	return "data: " + string(payload) + "\n\n"
}

// Stream renders contents as chunk records followed by the done sentinel.
func Stream(contents ...string) string {
	var b strings.Builder
	for _, c := range contents {
		b.WriteString(ChunkRecord(c))
	}
	b.WriteString(DoneRecord)
	return b.String()
}

// Reply is the scripted answer for one upstream model.
type Reply struct {
	Status int
	Body   string
	// Delay is applied before the status line is written.
	Delay time.Duration
}

// Upstream is a fake provider keyed by the requested model name.
type Upstream struct {
	*httptest.Server

	mu       sync.Mutex
	replies  map[string]Reply
	requests []map[string]any
}

// NewUpstream starts a fake provider answering POST /chat/completions. Unknown
// models get a 404. Bodies are written in small flushed fragments so records
// straddle reads.
func NewUpstream(t testing.TB, replies map[string]Reply) *Upstream {
	t.Helper()
	u := &Upstream{replies: replies}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

// Requests returns the decoded request bodies seen so far.
func (u *Upstream) Requests() []map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]map[string]any, len(u.requests))
	copy(out, u.requests)
	return out
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	u.mu.Lock()
	u.requests = append(u.requests, body)
	model, _ := body["model"].(string)
	reply, ok := u.replies[model]
	u.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"model not found","type":"invalid_request_error"}}`)
		return
	}
	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(reply.Status)
	WriteFragmented(w, reply.Body, 7)
}

// WriteFragmented writes body in pieces of size bytes, flushing after each.
func WriteFragmented(w io.Writer, body string, size int) {
	flusher, _ := w.(http.Flusher)
	for i := 0; i < len(body); i += size {
		if _, err := io.WriteString(w, body[i:min(i+size, len(body))]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
