package fanout

import (
	"errors"
	"sync"
)

// ErrMultiplexerClosed is returned by Publish once the session is complete.
var ErrMultiplexerClosed = errors.New("fanout: multiplexer closed")

// Multiplexer serializes events from concurrent producers onto one sink. A
// single consumer goroutine owns the sink, so writes never interleave and
// the frame order equals the order events were received.
type Multiplexer struct {
	sink   Sink
	events chan Event

	mu     sync.RWMutex
	closed bool

	done    chan struct{}
	failed  bool
	sinkErr error
}

// NewMultiplexer starts the consumer. buffer is the channel capacity between
// producers and the consumer.
func NewMultiplexer(sink Sink, buffer int) *Multiplexer {
	m := &Multiplexer{
		sink:   sink,
		events: make(chan Event, max(buffer, 0)),
		done:   make(chan struct{}),
	}
	go m.consume()
	return m
}

func (m *Multiplexer) consume() {
	defer close(m.done)
	for ev := range m.events {
		if m.failed {
			// Keep draining so producers never block on a dead transport.
			continue
		}
		if err := m.sink.Write(ev); err != nil {
			m.failed = true
			m.sinkErr = err
		}
	}
}

// Publish hands an event to the consumer. It is safe for concurrent use and
// fails with ErrMultiplexerClosed after Complete.
func (m *Multiplexer) Publish(ev Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrMultiplexerClosed
	}
	m.events <- ev
	return nil
}

// Complete appends the session-complete event, closes the stream and waits
// for the consumer to finish writing. It returns the first sink error, if
// any. Calling Complete more than once returns ErrMultiplexerClosed.
func (m *Multiplexer) Complete() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMultiplexerClosed
	}
	m.closed = true
	m.events <- CompleteEvent()
	close(m.events)
	m.mu.Unlock()

	<-m.done
	return m.sinkErr
}
