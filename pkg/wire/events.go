package wire

import (
	"encoding/json"
	"fmt"
)

// Socket.IO event names on the chat stream.
const (
	// EventJoin is emitted by the client to subscribe to a chat.
	EventJoin = "chat-join"
	// EventMessages carries a MessagesEvent.
	EventMessages = "chat-messages"
	// EventChat carries a Chat whenever it changes.
	EventChat = "chat-updated"
	// EventTyping carries a TypingEvent.
	EventTyping = "chat-typing"
	// EventMember carries a MemberEvent.
	EventMember = "chat-member"
)

// SocketPath is the Socket.IO endpoint path.
const SocketPath = "/v1/chat-stream"

// JoinRequest is the payload of EventJoin.
type JoinRequest struct {
	ChatID int `json:"chatId"`
}

// JoinAck acknowledges EventJoin.
type JoinAck struct {
	// Result is "success" or "error".
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}

// MessagesEvent is a batch of new messages, oldest first.
type MessagesEvent struct {
	ChatID   int       `json:"chatId"`
	Messages []Message `json:"messages"`
}

// TypingEvent reports the agent typing indicator.
type TypingEvent struct {
	ChatID int  `json:"chatId"`
	Typing bool `json:"typing"`
}

// MemberEvent reports a participant joining or leaving.
type MemberEvent struct {
	ChatID   int    `json:"chatId"`
	Joined   bool   `json:"joined"`
	Identity string `json:"identity,omitempty"`
}

// Decode converts a loosely typed Socket.IO payload into out.
func Decode(v any, out any) error {
	if v == nil {
		return fmt.Errorf("empty payload")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Encode converts a typed payload into the map form Socket.IO emits.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
