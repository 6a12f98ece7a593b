package chat

// MessageEvent is the optional event tag carried by a chat message body.
type MessageEvent string

const (
	EventNone                         MessageEvent = ""
	EventScreenShareRequestedFromUser MessageEvent = "screen_share_requested_from_end_user"
	EventScreenShareRequestedByAgent  MessageEvent = "screen_share_requested_from_agent"
	EventScreenShareStarted           MessageEvent = "screen_share_started"
	EventScreenShareEnded             MessageEvent = "screen_share_ended"
	EventScreenShareFailed            MessageEvent = "screen_share_failed"
	EventScreenShareCodeGenerated     MessageEvent = "screen_share_code_generated"
)

// ParseMessageEvent maps a wire tag to a known event. Unknown tags map to
// EventNone so they never take part in screen-share decisions.
func ParseMessageEvent(raw string) MessageEvent {
	switch ev := MessageEvent(raw); ev {
	case EventScreenShareRequestedFromUser,
		EventScreenShareRequestedByAgent,
		EventScreenShareStarted,
		EventScreenShareEnded,
		EventScreenShareFailed,
		EventScreenShareCodeGenerated:
		return ev
	default:
		return EventNone
	}
}

// IsScreenShare reports whether the event belongs to the screen-share flow.
func (e MessageEvent) IsScreenShare() bool {
	return e != EventNone
}

// TypingEvent reports an agent typing indicator change.
type TypingEvent struct {
	Typing bool
}

// MemberEvent reports a participant joining or leaving the chat.
type MemberEvent struct {
	Joined   bool
	Identity string
}
