// Package router classifies inbound events and drives the processing
// pipeline. It is the only component that owns control flow: every
// downstream failure is converted here into a user-visible error message
// and never propagates back to the platform.
package router

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/Efan404/slack-test-app/internal/delivery"
	"github.com/Efan404/slack-test-app/internal/event"
	"github.com/Efan404/slack-test-app/internal/llm"
	"github.com/Efan404/slack-test-app/internal/trace"
)

const (
	ackReceipt = "Processing your receipt..."
	ackChat    = "Thinking..."

	noTextMessage = "I couldn't find any text in that image."
	errorMessage  = "Something went wrong while processing your request. Please try again."
)

// Command is a normalized slash-command invocation.
type Command struct {
	Command     string
	Text        string
	UserID      string
	ChannelID   string
	ResponseURL string
}

type attachmentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type textRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

type languageModel interface {
	AnalyzeReceipt(ctx context.Context, ocrText string) llm.Result
	ChatReply(ctx context.Context, userText string) llm.Result
}

type resultDeliverer interface {
	Deliver(ctx context.Context, target delivery.Target, text string) error
}

// commandResponder posts an ephemeral reply to a slash command's
// response URL.
type commandResponder interface {
	Respond(ctx context.Context, responseURL, text string) error
}

// Service wires the pipeline components together.
type Service struct {
	fetcher   attachmentFetcher
	ocr       textRecognizer
	llm       languageModel
	delivery  resultDeliverer
	responder commandResponder
	logger    *slog.Logger
}

// NewService creates the event router.
func NewService(log *slog.Logger, fetcher attachmentFetcher, ocr textRecognizer, model languageModel, deliverer resultDeliverer, responder commandResponder) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		fetcher:   fetcher,
		ocr:       ocr,
		llm:       model,
		delivery:  deliverer,
		responder: responder,
		logger:    log.With(slog.String("service", "router")),
	}
}

// HandleMessage processes one normalized message event to completion.
// It never returns an error: terminal failures become a user-facing
// message in the thread the success output would have used.
func (s *Service) HandleMessage(ctx context.Context, ev event.IncomingEvent) {
	route := Classify(ev)

	tc := trace.FromContext(ctx).With("route", route.Kind.String())
	ctx = trace.WithContext(ctx, tc)
	log := trace.Logger(ctx, s.logger)

	target := delivery.Target{Channel: ev.Channel, ThreadTS: ev.ReplyThreadTS()}

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling event",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			s.deliverError(ctx, target)
		}
	}()

	switch route.Kind {
	case KindIgnore:
		log.Info("event ignored", slog.String("reason", route.Reason))
	case KindNoOp:
		log.Debug("event matched nothing")
	case KindImage:
		s.runImagePipeline(ctx, target, route.Image)
	case KindMention:
		s.runMentionChat(ctx, target, route.Text)
	}
}

// HandleCommand produces the substantive slash-command reply. The
// in-band acknowledgment has already been sent by the HTTP handler; this
// runs after it, outside the platform's response window.
func (s *Service) HandleCommand(ctx context.Context, cmd Command) {
	tc := trace.FromContext(ctx).With("mode", "command")
	ctx = trace.WithContext(ctx, tc)
	log := trace.Logger(ctx, s.logger)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling command",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	result := s.llm.ChatReply(ctx, cmd.Text)
	if err := s.responder.Respond(ctx, cmd.ResponseURL, delivery.Truncate(result.Text)); err != nil {
		log.Error("command response failed", slog.Any("error", err))
	}
}

func (s *Service) runImagePipeline(ctx context.Context, target delivery.Target, att event.Attachment) {
	tc := trace.FromContext(ctx).
		With("file_id", att.ID).
		With("mime_type", att.MimeType)
	ctx = trace.WithContext(ctx, tc)
	log := trace.Logger(ctx, s.logger)

	s.acknowledge(ctx, target, ackReceipt)

	data, err := s.fetcher.Fetch(ctx, att.DownloadURL)
	if err != nil {
		log.Error("attachment fetch failed", slog.Any("error", err))
		s.deliverError(ctx, target)
		return
	}

	ocrText, err := s.ocr.Recognize(ctx, data)
	if err != nil {
		log.Error("ocr failed", slog.Any("error", err))
		s.deliverError(ctx, target)
		return
	}
	if ocrText == "" {
		log.Info("no text detected in image")
		s.deliver(ctx, target, noTextMessage)
		return
	}

	result := s.llm.AnalyzeReceipt(ctx, ocrText)
	s.deliver(ctx, target, result.Text)
}

func (s *Service) runMentionChat(ctx context.Context, target delivery.Target, text string) {
	tc := trace.FromContext(ctx).With("mode", "chat")
	ctx = trace.WithContext(ctx, tc)

	s.acknowledge(ctx, target, ackChat)

	result := s.llm.ChatReply(ctx, text)
	s.deliver(ctx, target, result.Text)
}

// acknowledge posts immediate feedback before the multi-second OCR/LLM
// round trips. A failed ack is logged but does not abort the pipeline.
func (s *Service) acknowledge(ctx context.Context, target delivery.Target, text string) {
	if err := s.delivery.Deliver(ctx, target, text); err != nil {
		trace.Logger(ctx, s.logger).Warn("acknowledgment failed", slog.Any("error", err))
	}
}

func (s *Service) deliver(ctx context.Context, target delivery.Target, text string) {
	if err := s.delivery.Deliver(ctx, target, text); err != nil {
		trace.Logger(ctx, s.logger).Error("delivery failed", slog.Any("error", err))
	}
}

func (s *Service) deliverError(ctx context.Context, target delivery.Target) {
	if target.Channel == "" {
		return
	}
	if err := s.delivery.Deliver(ctx, target, errorMessage); err != nil {
		trace.Logger(ctx, s.logger).Error("error message delivery failed", slog.Any("error", err))
	}
}
