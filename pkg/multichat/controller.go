package multichat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/janhq/multichat/pkg/protocol"
)

// ErrEmptyQuery is returned by Submit for a blank query.
var ErrEmptyQuery = errors.New("multichat: empty query")

// Controller keeps at most one live session. Submitting a new query cancels
// the previous session before the new one starts, so only the newest
// session's updates reach onUpdate.
type Controller struct {
	client   *Client
	onUpdate func(Snapshot)

	mu      sync.Mutex
	current *Session
}

// NewController creates a controller over client.
func NewController(client *Client, onUpdate func(Snapshot)) *Controller {
	return &Controller{client: client, onUpdate: onUpdate}
}

// Submit supersedes any running session with a new one for query.
func (c *Controller) Submit(ctx context.Context, query string, models []protocol.CatalogModel) (*Session, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.Cancel()
	}
	c.current = c.client.Stream(ctx, query, models, c.onUpdate)
	return c.current, nil
}

// Current returns the live session, or nil.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Clear cancels the running session and resets the visible state.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}
	if c.onUpdate != nil {
		c.onUpdate(Snapshot{})
	}
}
