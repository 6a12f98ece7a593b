package screenshare

import "github.com/ccai-examples/ccai-demo/internal/chat"

// PendingAgentRequest folds a batch of inbound messages, oldest first, and
// reports whether an agent request is still outstanding at the end of it. A
// later "ended" event cancels an earlier request, and a later request
// re-arms it.
func PendingAgentRequest(msgs []chat.ChatMessage) bool {
	pending := false
	for _, m := range msgs {
		switch m.Body.Event {
		case chat.EventScreenShareRequestedByAgent:
			pending = true
		case chat.EventScreenShareEnded:
			pending = false
		default:
		}
	}
	return pending
}
