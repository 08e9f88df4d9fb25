package multichat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/multichat/pkg/protocol"
	"github.com/janhq/multichat/pkg/testhelpers"
)

type fakeServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []protocol.StreamRequest
}

func (f *fakeServer) Requests() []protocol.StreamRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.StreamRequest(nil), f.requests...)
}

// newFakeServer answers the stream endpoint with handler after recording the
// decoded request.
func newFakeServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, req protocol.StreamRequest)) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+DefaultStreamPath, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req protocol.StreamRequest
		_ = json.Unmarshal(raw, &req)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		handler(w, r, req)
	})
	mux.HandleFunc("GET "+DefaultModelsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(protocol.CatalogResponse{Object: "list", Data: testModels})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func streamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set(SessionIDHeader, "sess_test")
	w.WriteHeader(http.StatusOK)
}

func TestClient_StreamReassemblesModels(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, _ *http.Request, _ protocol.StreamRequest) {
		streamHeaders(w)
		testhelpers.WriteFragmented(w, string(sessionStream(t)), 5)
	})
	client := NewClient(srv.URL)

	var mu sync.Mutex
	var updates []Snapshot
	session := client.Stream(context.Background(), "hi", append(testModels, testModels[0]), func(s Snapshot) {
		mu.Lock()
		updates = append(updates, s)
		mu.Unlock()
	})

	require.NoError(t, session.Wait())
	assert.Equal(t, "sess_test", session.ID())

	snap := session.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Failed)
	a, _ := snap.Model("a")
	b, _ := snap.Model("b")
	c, _ := snap.Model("c")
	assert.Equal(t, "Hello ✓", a.Text)
	assert.Equal(t, "Bonjour", b.Text)
	assert.Equal(t, "groq error: Too Many Requests", c.Error)

	mu.Lock()
	assert.NotEmpty(t, updates)
	mu.Unlock()

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "hi", reqs[0].Query)
	assert.Equal(t, []protocol.ModelDescriptor{
		{ID: "a", Provider: "groq", ModelID: "model-a"},
		{ID: "b", Provider: "cerebras", ModelID: "model-b"},
		{ID: "c", Provider: "groq", ModelID: "model-c"},
	}, reqs[0].Models, "duplicate ids are sent once")
}

func TestClient_StreamFailureBecomesSingleEntry(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, r *http.Request, req protocol.StreamRequest)
		cause   string
	}{
		{
			name: "validation error",
			handler: func(w http.ResponseWriter, _ *http.Request, _ protocol.StreamRequest) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":{"message":"Invalid query","type":"validation_error"}}`)
			},
			cause: "multichat: 400 Bad Request: Invalid query",
		},
		{
			name: "internal error",
			handler: func(w http.ResponseWriter, _ *http.Request, _ protocol.StreamRequest) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			cause: "multichat: 500 Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer(t, tt.handler)

			session := NewClient(srv.URL).Stream(context.Background(), "hi", testModels, nil)
			err := session.Wait()

			require.Error(t, err)
			assert.Equal(t, tt.cause, err.Error())
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)

			snap := session.Snapshot()
			assert.True(t, snap.Failed)
			assert.False(t, snap.Loading)
			require.Len(t, snap.Models, 1)
			assert.Equal(t, FailureName, snap.Models[0].Name)
			assert.Equal(t, FailureMessage, snap.Models[0].Text)
			assert.Equal(t, tt.cause, snap.Models[0].Error)
		})
	}
}

func TestClient_StreamConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	session := NewClient(url).Stream(context.Background(), "hi", testModels, nil)

	require.Error(t, session.Wait())
	assert.True(t, session.Snapshot().Failed)
}

func TestClient_CancelIsSilent(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request, _ protocol.StreamRequest) {
		streamHeaders(w)
		data, _ := protocol.Encode(protocol.ContentFrame("a", "partial"))
		_, _ = w.Write(data)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	received := make(chan struct{}, 1)
	session := NewClient(srv.URL).Stream(context.Background(), "hi", testModels, func(s Snapshot) {
		select {
		case received <- struct{}{}:
		default:
		}
	})

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("no update before cancel")
	}
	session.Cancel()

	require.NoError(t, session.Wait())
	snap := session.Snapshot()
	assert.False(t, snap.Failed)
	assert.False(t, snap.Loading)
	a, _ := snap.Model("a")
	assert.Equal(t, "partial", a.Text)
}

func TestClient_ListModels(t *testing.T) {
	srv := newFakeServer(t, nil)

	models, err := NewClient(srv.URL + "/").ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testModels, models)
}

func TestController_SubmitSupersedes(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request, req protocol.StreamRequest) {
		streamHeaders(w)
		data, _ := protocol.Encode(protocol.ContentFrame("a", req.Query))
		_, _ = w.Write(data)
		w.(http.Flusher).Flush()
		if req.Query == "first" {
			<-r.Context().Done()
			return
		}
		rest, _ := protocol.Encode(protocol.DoneFrame("a"))
		_, _ = w.Write(rest)
	})

	var mu sync.Mutex
	var seen []string
	ctrl := NewController(NewClient(srv.URL), func(s Snapshot) {
		if a, ok := s.Model("a"); ok && a.Text != "" {
			mu.Lock()
			seen = append(seen, a.Text)
			mu.Unlock()
		}
	})

	_, err := ctrl.Submit(context.Background(), "   ", testModels)
	require.ErrorIs(t, err, ErrEmptyQuery)

	first, err := ctrl.Submit(context.Background(), "first", testModels)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		a, _ := first.Snapshot().Model("a")
		return a.Text == "first"
	}, 5*time.Second, 10*time.Millisecond)

	second, err := ctrl.Submit(context.Background(), "second", testModels)
	require.NoError(t, err)
	assert.Same(t, second, ctrl.Current())

	require.NoError(t, first.Wait(), "superseded session ends without error")
	require.NoError(t, second.Wait())

	a, _ := second.Snapshot().Model("a")
	assert.Equal(t, "second", a.Text)
	assert.True(t, a.Done)
	firstA, _ := first.Snapshot().Model("a")
	assert.Equal(t, "first", firstA.Text)
	assert.False(t, firstA.Done)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, "second", seen[len(seen)-1])
}

func TestController_Clear(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request, _ protocol.StreamRequest) {
		streamHeaders(w)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})

	var mu sync.Mutex
	var last *Snapshot
	ctrl := NewController(NewClient(srv.URL), func(s Snapshot) {
		mu.Lock()
		last = &s
		mu.Unlock()
	})
	session, err := ctrl.Submit(context.Background(), "q", testModels)
	require.NoError(t, err)

	ctrl.Clear()

	require.NoError(t, session.Wait())
	assert.Nil(t, ctrl.Current())
	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, last)
	assert.Empty(t, last.Models)
	assert.False(t, last.Loading)
}
