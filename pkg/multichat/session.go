package multichat

import (
	"context"
	"errors"
	"sync"

	"github.com/janhq/multichat/pkg/protocol"
)

// Session is one in-flight query. Its state is readable at any time through
// Snapshot; Wait blocks until the stream ends.
type Session struct {
	demux  *Demultiplexer
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	id  string
	err error
}

// run drives the request on its own goroutine. A cancelled context ends the
// session silently; every other failure becomes the single failure entry.
func (s *Session) run(ctx context.Context, c *Client, req protocol.StreamRequest) {
	defer close(s.done)
	defer s.cancel()

	resp, err := c.open(ctx, req)
	if err != nil {
		s.settle(ctx, err)
		return
	}
	defer closeBody(resp)

	s.mu.Lock()
	s.id = resp.Header().Get(SessionIDHeader)
	s.mu.Unlock()
	c.log.Debug().Str("session_id", s.ID()).Int("models", len(req.Models)).Msg("stream opened")

	err = pump(ctx, resp.RawResponse.Body, s.demux)
	if err != nil {
		s.settle(ctx, err)
		return
	}
	s.demux.Finish()
}

func (s *Session) settle(ctx context.Context, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		s.demux.Cancel()
		return
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.demux.Fail(err)
}

// ID returns the server's session id once the stream has opened.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Cancel aborts the session. State is frozen as it was and no error is
// reported. It is safe to call more than once.
func (s *Session) Cancel() {
	s.demux.Cancel()
	s.cancel()
}

// Done is closed when the session has ended for any reason.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ends and returns the request failure, if
// any. Cancellation returns nil.
func (s *Session) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	return s.demux.Snapshot()
}
