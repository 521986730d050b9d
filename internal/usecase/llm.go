package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	"github.com/fairyhunter13/ai-interview-assistant/pkg/llmjson"
)

// complete streams one completion and returns the concatenated text.
func complete(ctx context.Context, llm domain.LLMClient, prompt string) (string, error) {
	if llm == nil {
		return "", fmt.Errorf("%w: no LLM client configured", domain.ErrInternal)
	}
	stream, err := llm.StreamChat(ctx, prompt)
	if err != nil {
		return "", classifyUpstream(ctx, err)
	}
	defer func() { _ = stream.Close() }()

	var b strings.Builder
	for stream.Next() {
		b.WriteString(stream.Current())
	}
	if err := stream.Err(); err != nil {
		return "", classifyUpstream(ctx, err)
	}
	return b.String(), nil
}

// completeJSON streams one completion and decodes its JSON payload.
func completeJSON(ctx context.Context, llm domain.LLMClient, prompt string) (any, error) {
	body, err := complete(ctx, llm, prompt)
	if err != nil {
		return nil, err
	}
	v, err := llmjson.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSchemaInvalid, err)
	}
	return v, nil
}

// classifyUpstream makes sure a transport failure carries one of the upstream sentinels.
func classifyUpstream(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrUpstream),
		errors.Is(err, domain.ErrUpstreamTimeout),
		errors.Is(err, domain.ErrUpstreamRateLimit):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}
