package chat

import "time"

// OutgoingContent is a message the end user sends. Exactly one of the
// concrete types below implements it.
type OutgoingContent interface {
	isOutgoing()
}

// TextContent is a plain text message.
type TextContent struct {
	Text string
}

// ScreenShareContent is an event-tagged notification about the screen-share
// flow. Payload is the raw session response, if any.
type ScreenShareContent struct {
	Event   MessageEvent
	Payload []byte
}

// FormCompleteContent acknowledges a completed form.
type FormCompleteContent struct {
	FormID string
}

func (TextContent) isOutgoing() {}
func (ScreenShareContent) isOutgoing() {}
func (FormCompleteContent) isOutgoing() {}

// LocalEcho converts outgoing content into the transcript entries shown
// immediately, before the service acknowledges the send.
func LocalEcho(content OutgoingContent, user User, now time.Time) []Message {
	switch c := content.(type) {
	case TextContent:
		return []Message{{Text: c.Text, User: user, Type: TypeText, CreatedAt: now}}
	case ScreenShareContent:
		return []Message{{Event: c.Event, User: user, Type: TypeNotification, CreatedAt: now}}
	case FormCompleteContent:
		return []Message{{User: user, Type: TypeFormComplete, CreatedAt: now}}
	default:
		return nil
	}
}
