package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack"

	"github.com/Efan404/slack-test-app/internal/router"
	"github.com/Efan404/slack-test-app/internal/trace"
)

const commandAck = "Working on it..."

// commandDispatcher produces the asynchronous slash-command reply.
type commandDispatcher interface {
	HandleCommand(ctx context.Context, cmd router.Command)
}

// CommandHandler receives slash-command invocations. Slack requires an
// acknowledgment within a few seconds, so the handler answers in-band
// immediately and hands the substantive work off to the router.
type CommandHandler struct {
	logger        *slog.Logger
	signingSecret string
	dispatcher    commandDispatcher
}

// NewCommandHandler creates the slash-command webhook handler.
func NewCommandHandler(log *slog.Logger, signingSecret string, dispatcher commandDispatcher) *CommandHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CommandHandler{
		logger:        log.With(slog.String("handler", "slack_command")),
		signingSecret: signingSecret,
		dispatcher:    dispatcher,
	}
}

// Register registers the slash-command route.
func (h *CommandHandler) Register(e *echo.Echo) {
	e.POST("/slack/command", h.Handle)
}

// Handle verifies and acknowledges one slash-command delivery.
func (h *CommandHandler) Handle(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxEventBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body")
	}
	if int64(len(body)) > maxEventBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("payload too large: max %d bytes", maxEventBodyBytes))
	}

	verifier, err := slack.NewSecretsVerifier(req.Header, h.signingSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing signature headers")
	}
	if _, err := verifier.Write(body); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "verify body")
	}
	if err := verifier.Ensure(); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "signature mismatch")
	}

	// SlashCommandParse consumes the form body, so restore it after the
	// signature check.
	req.Body = io.NopCloser(bytes.NewReader(body))
	slashCmd, err := slack.SlashCommandParse(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "parse command")
	}

	cmd := router.Command{
		Command:     slashCmd.Command,
		Text:        slashCmd.Text,
		UserID:      slashCmd.UserID,
		ChannelID:   slashCmd.ChannelID,
		ResponseURL: slashCmd.ResponseURL,
	}

	tc := trace.New(uuid.NewString(), slashCmd.TeamID, "command")
	ctx := trace.WithContext(context.WithoutCancel(req.Context()), tc)
	trace.Logger(ctx, h.logger).Info("command accepted",
		slog.String("command", cmd.Command),
		slog.String("user", cmd.UserID))

	go h.dispatcher.HandleCommand(ctx, cmd)

	return c.JSON(http.StatusOK, map[string]string{
		"response_type": "ephemeral",
		"text":          commandAck,
	})
}
