package delivery

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// WebhookResponder posts ephemeral slash-command replies to a command's
// response URL.
type WebhookResponder struct{}

// NewWebhookResponder creates a responder for slash-command responses.
func NewWebhookResponder() *WebhookResponder {
	return &WebhookResponder{}
}

// Respond delivers text to responseURL as a sender-only-visible message.
func (r *WebhookResponder) Respond(ctx context.Context, responseURL, text string) error {
	err := slack.PostWebhookContext(ctx, responseURL, &slack.WebhookMessage{
		ResponseType: "ephemeral",
		Text:         text,
	})
	if err != nil {
		return fmt.Errorf("post webhook response: %w", err)
	}
	return nil
}
