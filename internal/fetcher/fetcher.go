// Package fetcher downloads Slack-hosted files into memory.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Efan404/slack-test-app/internal/trace"
)

// MaxFileBytes caps a single attachment download.
const MaxFileBytes int64 = 10 << 20 // 10 MiB

const bodyPreviewBytes = 256

// Fetcher performs authenticated downloads of attachment URLs.
type Fetcher struct {
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

// New creates a fetcher using the bot credential for authorization.
func New(log *slog.Logger, botToken string) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		token:      botToken,
		logger:     log.With(slog.String("service", "fetcher")),
	}
}

// Fetch downloads url with the bot bearer credential and returns the raw
// bytes. Any non-2xx response is fatal; attachment URLs are short-lived
// signed links, so download failures are never retried here.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	log := trace.Logger(ctx, f.logger)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, bodyPreviewBytes))
		return nil, fmt.Errorf("download attachment status %d: %s", resp.StatusCode, string(preview))
	}

	limited := &io.LimitedReader{R: resp.Body, N: MaxFileBytes + 1}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read attachment body: %w", err)
	}
	if int64(len(data)) > MaxFileBytes {
		return nil, fmt.Errorf("attachment too large: max %d bytes", MaxFileBytes)
	}

	log.Info("attachment downloaded", slog.Int("size_bytes", len(data)))
	return data, nil
}
