// Package tokencount estimates token usage of chat completions with tiktoken-go.
//
// BPE ranks are served from the embedded offline loader so counting never
// reaches the network. Providers without a public tokenizer (Perplexity
// sonar, Llama, Mistral) are approximated with cl100k_base.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

const fallbackEncoding = "cl100k_base"

// Per-message framing of OpenAI-compatible chat APIs.
const (
	tokensPerMessage = 3
	tokensReplyPrime = 3
)

// Usage is the token count of one chat completion.
type Usage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

// Counter caches encodings per model family. Safe for concurrent use.
type Counter struct {
	mu    sync.RWMutex
	cache map[string]*tiktoken.Tiktoken
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{cache: make(map[string]*tiktoken.Tiktoken)}
}

// DefaultCounter is shared by the LLM clients.
var DefaultCounter = NewCounter()

func (c *Counter) encoding(model string) (*tiktoken.Tiktoken, error) {
	key := normalizeModelName(model)

	c.mu.RLock()
	enc, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.cache[key]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(key)
	if err != nil {
		slog.Debug("falling back to cl100k_base encoding", slog.String("model", model), slog.Any("error", err))
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	c.cache[key] = enc
	return enc, nil
}

// normalizeModelName maps a provider model id onto a tiktoken model name.
func normalizeModelName(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	switch {
	case strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"):
		return "gpt-4o"
	case strings.Contains(m, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		return "gpt-4"
	}
}

// CountTokens counts the tokens of text.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.encoding(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountPromptTokens counts a single user message including chat framing.
func (c *Counter) CountPromptTokens(prompt, model string) (int, error) {
	n, err := c.CountTokens(prompt, model)
	if err != nil {
		return 0, err
	}
	role, _ := c.CountTokens("user", model)
	return tokensPerMessage + role + n + tokensReplyPrime, nil
}

// CalculateUsage counts prompt and completion tokens, estimating roughly four
// bytes per token when an encoding is unavailable.
func (c *Counter) CalculateUsage(prompt, completion, model string) Usage {
	p, err := c.CountPromptTokens(prompt, model)
	if err != nil {
		slog.Warn("failed to count prompt tokens, using estimate", slog.String("model", model), slog.Any("error", err))
		p = len(prompt) / 4
	}
	cpl, err := c.CountTokens(completion, model)
	if err != nil {
		slog.Warn("failed to count completion tokens, using estimate", slog.String("model", model), slog.Any("error", err))
		cpl = len(completion) / 4
	}
	return Usage{PromptTokens: p, CompletionTokens: cpl, TotalTokens: p + cpl, Model: model}
}
