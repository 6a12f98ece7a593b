package chat

import "errors"

var (
	// ErrNoActiveChat is returned when an operation needs a started chat.
	ErrNoActiveChat = errors.New("no active chat")
	// ErrChatEnded is returned when sending into a chat that already ended.
	ErrChatEnded = errors.New("chat ended")
)
