// Package llm talks to the chat-completion provider. Provider failures
// never escape this package: both operations degrade to a deliverable
// fallback text instead of returning an error, because a missing model
// reply is still worth showing the user while an OCR or delivery failure
// is not recoverable this way.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Efan404/slack-test-app/internal/config"
	"github.com/Efan404/slack-test-app/internal/trace"
)

const (
	analyzeTemperature = 0.1
	chatTemperature    = 0.7

	chatFallback = "Sorry, I couldn't come up with a reply just now. Please try again."
)

// Result is the model output plus optional token-usage counters.
type Result struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Degraded         bool
}

// chatCompleter is the slice of the OpenAI client the package uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client issues chat-completion requests against a configured endpoint.
type Client struct {
	completer chatCompleter
	model     string
	logger    *slog.Logger
	now       func() time.Time
}

// NewClient creates a language-model client for the configured endpoint.
func NewClient(log *slog.Logger, cfg config.LLMConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		completer: openai.NewClientWithConfig(apiCfg),
		model:     cfg.Model,
		logger:    log.With(slog.String("service", "llm")),
		now:       time.Now,
	}
}

// AnalyzeReceipt asks the model to normalize OCR text into a structured
// receipt summary. On any provider failure the original OCR text is
// returned behind a failure notice.
func (c *Client) AnalyzeReceipt(ctx context.Context, ocrText string) Result {
	result, err := c.complete(ctx, analyzePrompt(c.now()), ocrText, analyzeTemperature)
	if err != nil {
		trace.Logger(ctx, c.logger).Warn("receipt analysis degraded", slog.Any("error", err))
		return Result{
			Text:     "(receipt analysis unavailable)\n\n" + ocrText,
			Degraded: true,
		}
	}
	return result
}

// ChatReply asks the model for a short conversational reply. On any
// provider failure a fixed apology is returned instead.
func (c *Client) ChatReply(ctx context.Context, userText string) Result {
	result, err := c.complete(ctx, chatPrompt(), userText, chatTemperature)
	if err != nil {
		trace.Logger(ctx, c.logger).Warn("chat reply degraded", slog.Any("error", err))
		return Result{Text: chatFallback, Degraded: true}
	}
	return result
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float32) (Result, error) {
	log := trace.Logger(ctx, c.logger)

	resp, err := c.completer.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Stream:      false,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("chat completion: no choices in response")
	}

	result := Result{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	log.Info("chat completion succeeded",
		slog.Int("prompt_tokens", result.PromptTokens),
		slog.Int("completion_tokens", result.CompletionTokens))
	return result, nil
}
