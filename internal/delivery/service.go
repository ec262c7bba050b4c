// Package delivery posts pipeline results back into the originating
// Slack conversation.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"

	"github.com/Efan404/slack-test-app/internal/trace"
)

// MaxTextLen is the platform size cap applied before any post attempt.
const MaxTextLen = 3500

const truncationMarker = "...(truncated)"

// Target identifies where a reply should be posted.
type Target struct {
	Channel  string
	ThreadTS string
}

// threadRejectionCodes are Slack API errors meaning a threaded reply is
// not permitted for this message or channel state. Only these trigger
// the channel-level fallback; every other delivery error propagates.
var threadRejectionCodes = []string{
	"thread_not_found",
	"cannot_reply_to_message",
	"is_thread_locked",
}

// messagePoster is the slice of the Slack client the service uses.
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Service delivers text replies with thread-vs-channel fallback.
type Service struct {
	poster messagePoster
	logger *slog.Logger
}

// NewService creates a delivery service on top of the Slack client.
func NewService(log *slog.Logger, poster messagePoster) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		poster: poster,
		logger: log.With(slog.String("service", "delivery")),
	}
}

// Deliver posts text into the target thread. When the platform rejects
// the threaded reply specifically, it retries once as a channel-level
// post. The size cap is applied once, before the first attempt.
func (s *Service) Deliver(ctx context.Context, target Target, text string) error {
	log := trace.Logger(ctx, s.logger)
	text = Truncate(text)

	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if target.ThreadTS != "" {
		opts = append(opts, slack.MsgOptionTS(target.ThreadTS))
	}

	_, _, err := s.poster.PostMessageContext(ctx, target.Channel, opts...)
	if err == nil {
		return nil
	}
	if target.ThreadTS == "" || !isThreadRejection(err) {
		return fmt.Errorf("post message: %w", err)
	}

	log.Warn("thread reply rejected, falling back to channel post",
		slog.String("channel", target.Channel),
		slog.String("thread_ts", target.ThreadTS),
		slog.Any("error", err))

	_, _, err = s.poster.PostMessageContext(ctx, target.Channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("post channel fallback: %w", err)
	}
	return nil
}

// Truncate enforces the platform size cap, appending an explicit marker
// instead of silently dropping text.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxTextLen {
		return text
	}
	return string(runes[:MaxTextLen]) + truncationMarker
}

func isThreadRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, code := range threadRejectionCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
