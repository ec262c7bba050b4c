package router

import (
	"fmt"

	"github.com/Efan404/slack-test-app/internal/event"
)

// Kind is the classification outcome for one inbound event.
type Kind int

const (
	// KindIgnore drops events that are not plain user messages.
	KindIgnore Kind = iota
	// KindImage routes an event into the receipt OCR pipeline.
	KindImage
	// KindMention routes a mention into the conversational reply path.
	KindMention
	// KindNoOp matches nothing the bot reacts to.
	KindNoOp
)

func (k Kind) String() string {
	switch k {
	case KindIgnore:
		return "ignore"
	case KindImage:
		return "image"
	case KindMention:
		return "mention"
	default:
		return "noop"
	}
}

// Route is the classification result plus the inputs the chosen pipeline
// needs.
type Route struct {
	Kind   Kind
	Reason string
	// Image is the attachment to process when Kind is KindImage.
	Image event.Attachment
	// Text is the cleaned user text when Kind is KindMention.
	Text string
}

// Classify decides what to do with an event. Precedence is fixed: ignore
// checks first, then the image pipeline, then mention chat. An event
// with an image attachment always takes the image pipeline even when its
// text also mentions the bot.
func Classify(ev event.IncomingEvent) Route {
	if ev.SubType != "" {
		return Route{Kind: KindIgnore, Reason: fmt.Sprintf("subtype %q", ev.SubType)}
	}
	if ev.User == "" {
		return Route{Kind: KindIgnore, Reason: "no originating user"}
	}
	if ev.BotID != "" {
		return Route{Kind: KindIgnore, Reason: "bot origin"}
	}

	if img, ok := ev.FirstImage(); ok {
		return Route{Kind: KindImage, Image: img}
	}

	if ev.Text != "" && event.HasMention(ev.Text) {
		if cleaned := event.StripMentions(ev.Text); cleaned != "" {
			return Route{Kind: KindMention, Text: cleaned}
		}
	}

	return Route{Kind: KindNoOp}
}
