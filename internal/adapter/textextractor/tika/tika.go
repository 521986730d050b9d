// Package tika extracts resume text through an Apache Tika server.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/textextractor"
	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-assistant/internal/observability"
)

// Client is a minimal Apache Tika HTTP client implementing domain.TextExtractor.
// It performs PUT /tika with Accept: text/plain to retrieve extracted text.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// Roots are extra directories uploads may be read from besides the temp dir.
	Roots []string
}

var _ domain.TextExtractor = (*Client)(nil)

// New constructs a Tika client with a default timeout.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9998"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ExtractPath uploads the file at path and returns normalized plain text.
func (c *Client) ExtractPath(ctx context.Context, fileName, path string) (string, error) {
	ct := textextractor.ContentTypeFromName(fileName)
	switch ct {
	case textextractor.MIMEPDF, textextractor.MIMEDOCX, textextractor.MIMEText:
	default:
		return "", fmt.Errorf("op=tika.extract: %w", textextractor.ErrUnsupportedType)
	}
	body, err := textextractor.ReadConfined(path, c.Roots...)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w", err)
	}
	if ct == textextractor.MIMEText {
		return textextractor.Normalize(string(body)), nil
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/tika", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", ct)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w: %w", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusUnsupportedMediaType || resp.StatusCode == http.StatusUnprocessableEntity {
		return "", fmt.Errorf("op=tika.extract: %w", textextractor.ErrUnsupportedType)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("op=tika.extract: %w: tika status %d", domain.ErrUpstream, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w: %w", domain.ErrUpstream, err)
	}
	text := textextractor.Normalize(string(b))
	obsctx.LoggerFromContext(ctx).Debug("tika extraction done",
		slog.String("file", fileName),
		slog.Int("chars", len(text)),
		slog.Duration("duration", time.Since(start)))
	return text, nil
}

// Ping checks GET /version for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tika status %d", resp.StatusCode)
	}
	return nil
}
