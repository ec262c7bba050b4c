// Package event defines the normalized inbound event shape. Raw Slack
// payloads are converted at the boundary and everything downstream
// operates only on these values.
package event

import (
	"regexp"
	"strings"

	"github.com/slack-go/slack/slackevents"
)

// Attachment is a binary file referenced by an event.
type Attachment struct {
	ID          string
	MimeType    string
	DownloadURL string
}

// IsImage reports whether the attachment carries a downloadable image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/") && a.DownloadURL != ""
}

// IncomingEvent is one normalized message event. It is read-only after
// construction and discarded once handling completes.
type IncomingEvent struct {
	Channel     string
	User        string
	TS          string
	ThreadTS    string
	Text        string
	SubType     string
	BotID       string
	Attachments []Attachment
}

// FromMessageEvent builds a normalized event from a Slack message
// callback, discarding platform fields the pipeline never reads. The
// files are passed separately because the parsed MessageEvent does not
// carry the payload's files array; the webhook handler extracts it from
// the raw callback body.
func FromMessageEvent(ev *slackevents.MessageEvent, files []slackevents.File) IncomingEvent {
	out := IncomingEvent{
		Channel:  ev.Channel,
		User:     ev.User,
		TS:       ev.TimeStamp,
		ThreadTS: ev.ThreadTimeStamp,
		Text:     ev.Text,
		SubType:  ev.SubType,
		BotID:    ev.BotID,
	}
	for _, f := range files {
		out.Attachments = append(out.Attachments, Attachment{
			ID:          f.ID,
			MimeType:    f.Mimetype,
			DownloadURL: f.URLPrivateDownload,
		})
	}
	return out
}

// ReplyThreadTS is the thread a reply should land in: the event's own
// thread when it has one, otherwise the event itself becomes the root.
func (e IncomingEvent) ReplyThreadTS() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.TS
}

// FirstImage returns the first downloadable image attachment, if any.
func (e IncomingEvent) FirstImage() (Attachment, bool) {
	for _, a := range e.Attachments {
		if a.IsImage() {
			return a, true
		}
	}
	return Attachment{}, false
}

var mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>`)

// HasMention reports whether text contains a user-mention marker.
func HasMention(text string) bool {
	return mentionPattern.MatchString(text)
}

// StripMentions removes all mention markers and trims the remainder.
func StripMentions(text string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
}
