// Package chat holds the chat domain shared by the client, the session
// view-model and the screen-share coordinator: chat status, event tags,
// inbound and transcript messages, and the Service contract implemented by
// the transport.
package chat

// Status is the platform-side status of a chat.
type Status string

const (
	StatusUnknown   Status = ""
	StatusQueued    Status = "queued"
	StatusAssigned  Status = "assigned"
	StatusSwitching Status = "switching"
	StatusDismissed Status = "dismissed"
	StatusFinished  Status = "finished"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// IsAssigned reports whether an agent currently staffs the chat.
func (s Status) IsAssigned() bool {
	return s == StatusAssigned
}

// IsTerminal reports whether the chat can no longer receive messages.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDismissed, StatusFinished, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// ProviderState is the connection state of the chat transport.
type ProviderState string

const (
	ProviderNone         ProviderState = "none"
	ProviderConnecting   ProviderState = "connecting"
	ProviderConnected    ProviderState = "connected"
	ProviderDisconnected ProviderState = "disconnected"
)
