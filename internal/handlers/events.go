package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/Efan404/slack-test-app/internal/event"
	"github.com/Efan404/slack-test-app/internal/trace"
)

const maxEventBodyBytes int64 = 1 << 20 // 1 MiB

// messageDispatcher hands normalized events to the router.
type messageDispatcher interface {
	HandleMessage(ctx context.Context, ev event.IncomingEvent)
}

// eventEnvelope is the slice of the outer callback payload used for
// correlation and for the inner files array, which ParseEvent does not
// surface on the typed message event.
type eventEnvelope struct {
	EventID string `json:"event_id"`
	TeamID  string `json:"team_id"`
	Event   struct {
		Files []slackevents.File `json:"files"`
	} `json:"event"`
}

// EventsHandler receives Slack Events API callbacks.
type EventsHandler struct {
	logger        *slog.Logger
	signingSecret string
	dispatcher    messageDispatcher
}

// NewEventsHandler creates the webhook handler for the Events API.
func NewEventsHandler(log *slog.Logger, signingSecret string, dispatcher messageDispatcher) *EventsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventsHandler{
		logger:        log.With(slog.String("handler", "slack_events")),
		signingSecret: signingSecret,
		dispatcher:    dispatcher,
	}
}

// Register registers the events webhook route.
func (h *EventsHandler) Register(e *echo.Echo) {
	e.POST("/slack/events", h.Handle)
}

// Handle verifies, parses, and dispatches one Events API delivery.
// Message events are handed off as independent asynchronous work; Slack
// gets its 200 as soon as the envelope is accepted.
func (h *EventsHandler) Handle(c echo.Context) error {
	body, err := h.readAndVerify(c)
	if err != nil {
		return err
	}

	apiEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("parse event: %v", err))
	}

	switch apiEvent.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid challenge payload")
		}
		return c.String(http.StatusOK, challenge.Challenge)

	case slackevents.CallbackEvent:
		var envelope eventEnvelope
		_ = json.Unmarshal(body, &envelope)
		h.dispatchCallback(c.Request().Context(), envelope, apiEvent)
		return c.NoContent(http.StatusOK)

	default:
		h.logger.Debug("unhandled event type", slog.String("type", apiEvent.Type))
		return c.NoContent(http.StatusOK)
	}
}

func (h *EventsHandler) readAndVerify(c echo.Context) ([]byte, error) {
	req := c.Request()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxEventBodyBytes+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
	}
	if int64(len(body)) > maxEventBodyBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("payload too large: max %d bytes", maxEventBodyBytes))
	}

	verifier, err := slack.NewSecretsVerifier(req.Header, h.signingSecret)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "missing signature headers")
	}
	if _, err := verifier.Write(body); err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "verify body")
	}
	if err := verifier.Ensure(); err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "signature mismatch")
	}
	return body, nil
}

func (h *EventsHandler) dispatchCallback(reqCtx context.Context, envelope eventEnvelope, apiEvent slackevents.EventsAPIEvent) {
	msg, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		h.logger.Debug("unhandled inner event", slog.String("type", apiEvent.InnerEvent.Type))
		return
	}

	eventID := envelope.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	tc := trace.New(eventID, envelope.TeamID, "message")
	ctx := trace.WithContext(context.WithoutCancel(reqCtx), tc)

	trace.Logger(ctx, h.logger).Info("event accepted", slog.String("channel", msg.Channel))

	normalized := event.FromMessageEvent(msg, envelope.Event.Files)
	go h.dispatcher.HandleMessage(ctx, normalized)
}
