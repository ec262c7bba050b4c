// Package ocr wraps the optical-character-recognition provider.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Efan404/slack-test-app/internal/config"
	"github.com/Efan404/slack-test-app/internal/retry"
	"github.com/Efan404/slack-test-app/internal/trace"
)

type request struct {
	Image  string `json:"image"`
	Region string `json:"region,omitempty"`
}

type detection struct {
	Text string `json:"text"`
}

type response struct {
	Detections []detection `json:"detections"`
}

// Client calls the OCR provider with bounded retry on transient network
// failures.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	secret     string
	region     string
	retryCfg   retry.Config
	logger     *slog.Logger
}

// NewClient creates an OCR client from the provider configuration.
func NewClient(log *slog.Logger, cfg config.OCRConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		secret:     cfg.Secret,
		region:     cfg.Region,
		retryCfg:   retry.DefaultConfig(),
		logger:     log.With(slog.String("service", "ocr")),
	}
}

// Recognize sends the image to the provider and returns the detected
// text lines joined by newlines, in provider order. An empty string with
// a nil error means the provider found no text; callers must treat that
// as a valid outcome, not a failure.
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	log := trace.Logger(ctx, c.logger)

	encoded := base64.StdEncoding.EncodeToString(image)
	body, err := json.Marshal(request{Image: encoded, Region: c.region})
	if err != nil {
		return "", fmt.Errorf("encode ocr request: %w", err)
	}

	resp, err := retry.Do(ctx, c.retryCfg, log, func(ctx context.Context) (response, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		return "", fmt.Errorf("ocr recognize: %w", err)
	}

	lines := make([]string, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		lines = append(lines, d.Text)
	}

	log.Info("ocr completed", slog.Int("detections", len(resp.Detections)), slog.Int("lines", len(lines)))
	return strings.Join(lines, "\n"), nil
}

func (c *Client) post(ctx context.Context, body []byte) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-OCR-KEY", c.apiKey)
	req.Header.Set("X-OCR-SECRET", c.secret)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("ocr call: %w", err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return response{}, fmt.Errorf("read ocr response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return response{}, fmt.Errorf("ocr status %d: %s", httpResp.StatusCode, previewBody(raw))
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return response{}, fmt.Errorf("decode ocr response: %w", err)
	}
	return parsed, nil
}

func previewBody(raw []byte) string {
	const max = 256
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max]) + "..."
}
