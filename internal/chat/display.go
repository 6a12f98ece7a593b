package chat

// DisplayText returns the line shown in the transcript for m.
func DisplayText(m Message) string {
	if m.Event == EventNone {
		return m.Text
	}
	return EventText(m.Event)
}

// EventText returns the human-readable notice for a screen-share event.
// Events that are not meant for the transcript map to "".
func EventText(ev MessageEvent) string {
	switch ev {
	case EventScreenShareRequestedFromUser:
		return "Screen share request sent"
	case EventScreenShareStarted:
		return "Screen share session started"
	case EventScreenShareEnded:
		return "Screen share session ended"
	case EventScreenShareFailed:
		return "Screen share session failed"
	case EventScreenShareCodeGenerated:
		return "Screen share code generated"
	default:
		return ""
	}
}
