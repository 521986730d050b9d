// Package real implements the streaming LLM client against an OpenAI-compatible API.
package real

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/ai"
	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-assistant/internal/config"
	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-assistant/internal/observability"
)

const operationChat = "chat_stream"

// Client implements domain.LLMClient with streamed chat completions.
type Client struct {
	api         openai.Client
	provider    string
	model       string
	temperature float64
	maxTokens   int64
	callTimeout time.Duration
	breaker     *ai.CircuitBreaker
	counter     *tokencount.Counter
	newBackoff  func() backoff.BackOff
}

// New constructs a client for cfg.LLMBaseURL. Retries are handled here, not by the SDK.
func New(cfg config.Config) *Client {
	hc := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	api := openai.NewClient(
		option.WithAPIKey(cfg.LLMAPIKey),
		option.WithBaseURL(cfg.LLMBaseURL),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
	)
	provider := providerName(cfg.LLMBaseURL)
	maxElapsed, initial, maxInterval, mult := cfg.GetAIBackoffConfig()
	return &Client{
		api:         api,
		provider:    provider,
		model:       cfg.LLMModel,
		temperature: cfg.LLMTemperature,
		maxTokens:   cfg.LLMMaxTokens,
		callTimeout: cfg.LLMCallTimeout,
		breaker:     ai.NewCircuitBreaker(provider),
		counter:     tokencount.DefaultCounter,
		newBackoff: func() backoff.BackOff {
			expo := backoff.NewExponentialBackOff()
			expo.MaxElapsedTime = maxElapsed
			expo.InitialInterval = initial
			expo.MaxInterval = maxInterval
			expo.Multiplier = mult
			return expo
		},
	}
}

// providerName labels metrics by API host, e.g. "api.perplexity.ai".
func providerName(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "llm"
	}
	return u.Hostname()
}

// StreamChat opens a streamed completion for a single user prompt.
//
// Opening is retried with exponential backoff until the first content
// fragment arrives: 429, 5xx and network errors are retried, other 4xx are
// not. The returned stream owns the call deadline and must be closed.
func (c *Client) StreamChat(ctx context.Context, prompt string) (domain.ChatStream, error) {
	start := time.Now()
	lg := obsctx.LoggerFromContext(ctx)

	callCtx, cancel := context.WithCancel(ctx)
	if c.callTimeout > 0 {
		cancel()
		callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(c.maxTokens)
	}

	var opened *primedStream
	attempt := 0
	op := func() error {
		attempt++
		err := c.breaker.Do(func() error {
			s := c.api.Chat.Completions.NewStreaming(callCtx, params)
			ps, err := prime(s)
			if err != nil {
				_ = s.Close()
				return err
			}
			opened = ps
			return nil
		}, countsAsProviderFailure)
		switch {
		case err == nil:
			return nil
		case ai.IsCircuitOpen(err), !retryable(err):
			return backoff.Permanent(err)
		}
		lg.Warn("llm stream open failed; retrying",
			slog.String("provider", c.provider),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackoff(), callCtx)); err != nil {
		cerr := classify(callCtx, err)
		cancel()
		observability.ObserveAIRequest(c.provider, operationChat, outcome(cerr), time.Since(start))
		lg.Error("llm stream open failed",
			slog.String("provider", c.provider),
			slog.String("model", c.model),
			slog.Int("attempts", attempt),
			slog.Any("error", cerr))
		return nil, fmt.Errorf("op=llm.StreamChat: %w", cerr)
	}

	return &chatStream{
		primedStream: opened,
		ctx:          callCtx,
		cancel:       cancel,
		onClose: func(completion string, err error) {
			observability.ObserveAIRequest(c.provider, operationChat, outcome(err), time.Since(start))
			u := c.counter.CalculateUsage(prompt, completion, c.model)
			observability.AddTokens(u.PromptTokens, u.CompletionTokens)
			lg.Debug("llm stream closed",
				slog.String("provider", c.provider),
				slog.Int("prompt_tokens", u.PromptTokens),
				slog.Int("completion_tokens", u.CompletionTokens),
				slog.Duration("duration", time.Since(start)))
		},
	}, nil
}

// primedStream is an SSE stream that already yielded its first content
// fragment, or ended without content.
type primedStream struct {
	s         *ssestream.Stream[openai.ChatCompletionChunk]
	first     string
	hasFirst  bool
	exhausted bool
}

func prime(s *ssestream.Stream[openai.ChatCompletionChunk]) (*primedStream, error) {
	for s.Next() {
		if frag := deltaContent(s.Current()); frag != "" {
			return &primedStream{s: s, first: frag, hasFirst: true}, nil
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return &primedStream{s: s, exhausted: true}, nil
}

func deltaContent(chunk openai.ChatCompletionChunk) string {
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}

// chatStream implements domain.ChatStream over a primed SSE stream.
type chatStream struct {
	*primedStream
	ctx     context.Context
	cancel  context.CancelFunc
	onClose func(completion string, err error)

	cur  string
	buf  strings.Builder
	err  error
	once sync.Once
}

func (cs *chatStream) Next() bool {
	if cs.hasFirst {
		cs.hasFirst = false
		return cs.emit(cs.first)
	}
	if cs.exhausted || cs.err != nil {
		return false
	}
	for cs.s.Next() {
		if frag := deltaContent(cs.s.Current()); frag != "" {
			return cs.emit(frag)
		}
	}
	cs.exhausted = true
	if err := cs.s.Err(); err != nil {
		cs.err = classify(cs.ctx, err)
	}
	return false
}

func (cs *chatStream) emit(frag string) bool {
	cs.cur = frag
	cs.buf.WriteString(frag)
	return true
}

func (cs *chatStream) Current() string { return cs.cur }

func (cs *chatStream) Err() error { return cs.err }

func (cs *chatStream) Close() error {
	var err error
	cs.once.Do(func() {
		err = cs.s.Close()
		cs.cancel()
		if cs.onClose != nil {
			cs.onClose(cs.buf.String(), cs.err)
		}
	})
	return err
}

func statusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch code := statusCode(err); {
	case code == 0:
		return true
	case code == http.StatusTooManyRequests, code >= 500:
		return true
	}
	return false
}

// countsAsProviderFailure excludes caller cancellation and request errors from the breaker.
func countsAsProviderFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	code := statusCode(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= 500
}

func classify(ctx context.Context, err error) error {
	switch {
	case ai.IsCircuitOpen(err):
		return err
	case statusCode(err) == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrUpstreamRateLimit, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return "rate_limited"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "timeout"
	case ai.IsCircuitOpen(err):
		return "circuit_open"
	}
	return "error"
}
