package screenshare

import (
	"context"

	"github.com/ccai-examples/ccai-demo/internal/chat"
)

// Notifier sends event-tagged screen-share messages into the chat.
type Notifier interface {
	SendScreenShareEvent(ctx context.Context, ev chat.MessageEvent, resp *SessionResponse) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev chat.MessageEvent, resp *SessionResponse) error

// SendScreenShareEvent implements Notifier.
func (f NotifierFunc) SendScreenShareEvent(ctx context.Context, ev chat.MessageEvent, resp *SessionResponse) error {
	return f(ctx, ev, resp)
}
