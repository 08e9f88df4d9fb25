package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"github.com/janhq/multichat/internal/config"
	"github.com/janhq/multichat/internal/domain/fanout"
	"github.com/janhq/multichat/internal/infrastructure/metrics"
	"github.com/janhq/multichat/pkg/sse"
)

const (
	chatCompletionsPath = "/chat/completions"
	maxErrorBodySize    = 64 * 1024
)

var errConsumerStopped = errors.New("consumer stopped")

// Options tune every upstream request.
type Options struct {
	Temperature   float32
	MaxTokens     int
	Timeout       time.Duration
	ReasoningTags []string
	FilterMode    string
}

// OptionsFromConfig derives adapter options from the service config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Temperature:   cfg.UpstreamTemperature,
		MaxTokens:     cfg.UpstreamMaxTokens,
		Timeout:       cfg.UpstreamTimeout,
		ReasoningTags: cfg.ReasoningTags,
		FilterMode:    cfg.ReasoningFilterMode,
	}
}

// Adapter streams one model from an OpenAI-compatible chat completions
// endpoint.
type Adapter struct {
	client   *resty.Client
	provider config.ProviderEntry
	model    fanout.ModelDescriptor
	opts     Options
	log      zerolog.Logger
	consumed atomic.Bool
}

// NewAdapter creates an adapter for model on provider.
func NewAdapter(client *resty.Client, provider config.ProviderEntry, model fanout.ModelDescriptor, opts Options, log zerolog.Logger) *Adapter {
	return &Adapter{
		client:   client,
		provider: provider,
		model:    model,
		opts:     opts,
		log: log.With().
			Str("component", "upstream-adapter").
			Str("provider", provider.Name).
			Str("model_id", model.ID).
			Logger(),
	}
}

// Stream opens the upstream connection on first iteration. It yields visible
// content fragments followed by exactly one done or error event. Ranging a
// second time yields nothing.
func (a *Adapter) Stream(ctx context.Context, query string) iter.Seq[fanout.Event] {
	return func(yield func(fanout.Event) bool) {
		if !a.consumed.CompareAndSwap(false, true) {
			return
		}

		if a.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
			defer cancel()
		}

		body, err := a.open(ctx, query)
		if err != nil {
			yield(fanout.ErrorEvent(a.model.ID, err.Error()))
			return
		}
		defer func() {
			if closeErr := body.Close(); closeErr != nil {
				a.log.Debug().Err(closeErr).Msg("unable to close response body")
			}
		}()

		filter := a.newFilter()
		emit := func(text string) bool {
			if strings.TrimSpace(text) == "" {
				return true
			}
			return yield(fanout.ContentEvent(a.model.ID, text))
		}

		err = sse.Scan(ctx, body, func(line string) error {
			content, ok := a.decode(line)
			if !ok {
				return nil
			}
			if !emit(filter.Write(content)) {
				return errConsumerStopped
			}
			return nil
		})
		switch {
		case errors.Is(err, errConsumerStopped):
			return
		case err != nil:
			metrics.RecordUpstreamError(a.provider.Name, metrics.UpstreamErrorRead)
			a.log.Warn().Err(err).Msg("upstream stream failed")
			yield(fanout.ErrorEvent(a.model.ID, a.readErrorMessage(err)))
			return
		}

		if !emit(filter.Flush()) {
			return
		}
		yield(fanout.DoneEvent(a.model.ID))
	}
}

func (a *Adapter) newFilter() TextFilter {
	if a.opts.FilterMode == config.FilterModeDelta {
		return NewDeltaFilter(a.opts.ReasoningTags)
	}
	return NewStreamFilter(a.opts.ReasoningTags)
}

// ChatRequest builds the upstream request body for query.
func (a *Adapter) ChatRequest(query string) openai.ChatCompletionRequest {
	request := openai.ChatCompletionRequest{
		Model: a.model.UpstreamModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
		Stream:      true,
	}
	// Qwen models otherwise spend the token budget on reasoning.
	if strings.Contains(strings.ToLower(a.model.UpstreamModel), "qwen") {
		request.ReasoningEffort = "none"
	}
	return request
}

func (a *Adapter) open(ctx context.Context, query string) (io.ReadCloser, error) {
	req := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetHeader("Accept-Encoding", "identity").
		SetBody(a.ChatRequest(query)).
		SetDoNotParseResponse(true)
	if strings.TrimSpace(a.provider.APIKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", a.provider.APIKey))
	}

	resp, err := req.Post(a.provider.BaseURL + chatCompletionsPath)
	if err != nil {
		closeBody(resp)
		metrics.RecordUpstreamError(a.provider.Name, metrics.UpstreamErrorConnect)
		a.log.Warn().Err(err).Msg("upstream request failed")
		return nil, fmt.Errorf("%s error: %w", a.provider.Name, err)
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		metrics.RecordUpstreamError(a.provider.Name, metrics.UpstreamErrorConnect)
		return nil, fmt.Errorf("%s error: empty response", a.provider.Name)
	}

	code := resp.StatusCode()
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		metrics.RecordUpstreamError(a.provider.Name, metrics.UpstreamErrorStatus)
		err := a.errorFromResponse(resp)
		a.log.Warn().Int("status", code).Err(err).Msg("upstream rejected request")
		return nil, err
	}
	return resp.RawResponse.Body, nil
}

// errorFromResponse renders "<provider> error: <status text>" and appends the
// upstream's own message when the body carries one.
func (a *Adapter) errorFromResponse(resp *resty.Response) error {
	defer closeBody(resp)

	code := resp.StatusCode()
	statusText := http.StatusText(code)
	if statusText == "" {
		statusText = fmt.Sprintf("status %d", code)
	}
	message := fmt.Sprintf("%s error: %s", a.provider.Name, statusText)

	raw, err := io.ReadAll(io.LimitReader(resp.RawResponse.Body, maxErrorBodySize))
	if err != nil || len(raw) == 0 {
		return errors.New(message)
	}
	var apiErr openai.ErrorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil && strings.TrimSpace(apiErr.Error.Message) != "" {
		return fmt.Errorf("%s: %s", message, strings.TrimSpace(apiErr.Error.Message))
	}
	return errors.New(message)
}

// decode extracts choices[0].delta.content from one record. Records that are
// not payloads or do not decode are skipped.
func (a *Adapter) decode(line string) (string, bool) {
	data, ok := sse.Payload(line)
	if !ok {
		return "", false
	}
	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		metrics.RecordMalformedPayload(a.provider.Name)
		a.log.Debug().Err(err).Msg("skipping malformed upstream payload")
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, true
}

func (a *Adapter) readErrorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s error: stream timed out", a.provider.Name)
	}
	return err.Error()
}

func closeBody(resp *resty.Response) {
	if resp != nil && resp.RawResponse != nil && resp.RawResponse.Body != nil {
		_ = resp.RawResponse.Body.Close()
	}
}
