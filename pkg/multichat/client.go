// Package multichat is the client side of the multichat stream: it sends one
// query for several models and reassembles the multiplexed answers per model.
package multichat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/janhq/multichat/pkg/protocol"
)

const (
	// DefaultStreamPath is the streaming chat endpoint.
	DefaultStreamPath = "/v1/chat/stream"
	// DefaultModelsPath is the catalogue endpoint.
	DefaultModelsPath = "/v1/models"
	// SessionIDHeader names the session id response header.
	SessionIDHeader = "X-Session-ID"

	readChunkSize = 32 * 1024
)

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("multichat: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("multichat: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client talks to a multichat server.
type Client struct {
	http       *resty.Client
	baseURL    string
	streamPath string
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRestyClient replaces the underlying HTTP client.
func WithRestyClient(rc *resty.Client) Option {
	return func(c *Client) {
		c.http = rc
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithStreamPath overrides the streaming endpoint, e.g. "/api/chat".
func WithStreamPath(path string) Option {
	return func(c *Client) {
		c.streamPath = path
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		streamPath: DefaultStreamPath,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = resty.New()
	}
	return c
}

// ListModels fetches the server's model catalogue.
func (c *Client) ListModels(ctx context.Context) ([]protocol.CatalogModel, error) {
	var catalog protocol.CatalogResponse
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&catalog).
		SetError(&apiErr).
		Get(c.baseURL + DefaultModelsPath)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: apiErr.Error.Message, Type: apiErr.Error.Type}
	}
	return catalog.Data, nil
}

// Stream starts a session for query over models and returns at once. State
// is delivered through onUpdate (may be nil) and Session.Snapshot. Duplicate
// model ids are sent once.
func (c *Client) Stream(ctx context.Context, query string, models []protocol.CatalogModel, onUpdate func(Snapshot)) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		demux:  NewDemultiplexer(models, onUpdate),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	req := protocol.StreamRequest{Query: query, Models: descriptors(models)}
	go s.run(ctx, c, req)
	return s
}

func (c *Client) open(ctx context.Context, req protocol.StreamRequest) (*resty.Response, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.baseURL + c.streamPath)
	if err != nil {
		closeBody(resp)
		return nil, err
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, errors.New("multichat: empty response")
	}
	if resp.IsError() {
		defer closeBody(resp)
		return nil, readAPIError(resp)
	}
	return resp, nil
}

func readAPIError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	data, err := io.ReadAll(io.LimitReader(resp.RawResponse.Body, 64*1024))
	if err != nil {
		return apiErr
	}
	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Error.Message
		apiErr.Type = body.Error.Type
	}
	return apiErr
}

func closeBody(resp *resty.Response) {
	if resp != nil && resp.RawResponse != nil && resp.RawResponse.Body != nil {
		_ = resp.RawResponse.Body.Close()
	}
}

func descriptors(models []protocol.CatalogModel) []protocol.ModelDescriptor {
	seen := make(map[string]struct{}, len(models))
	out := make([]protocol.ModelDescriptor, 0, len(models))
	for _, m := range models {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m.Descriptor())
	}
	return out
}

// pump copies the stream body into the demultiplexer until EOF, a read
// failure or cancellation.
func pump(ctx context.Context, body io.Reader, demux *Demultiplexer) error {
	buf := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := demux.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
