package screenshare

import (
	"github.com/ccai-examples/ccai-demo/internal/actor"
)

// Toggle returns a command input for a tap on the screen-share control.
// enabled is the eligibility at tap time and session the session manager's
// state at tap time. reply, if non-nil, must be buffered.
func Toggle(enabled bool, session SessionState, reply chan ToggleResult) actor.Input {
	return cmdToggle{Enabled: enabled, Session: session, Reply: reply}
}

// InboundBatch returns a command input for a received message batch that
// PendingAgentRequest folded to agentRequested.
func InboundBatch(agentRequested bool, session SessionState) actor.Input {
	return cmdInbound{AgentRequested: agentRequested, Session: session}
}

// Respond returns a command input carrying the user's answer to kind.
// chatID is required to start a session and may be nil otherwise.
func Respond(kind DialogKind, resp Response, chatID *int) actor.Input {
	return cmdRespond{Kind: kind, Response: resp, ChatID: chatID}
}

// Dismiss returns a command input for a prompt closed without an answer.
func Dismiss() actor.Input {
	return cmdDismiss{}
}

// StateChanged returns an event input for a session state report.
func StateChanged(state SessionState) actor.Input {
	return evSessionStateChanged{State: state}
}

// CreationFailed returns an event input for a failed session creation.
func CreationFailed(err error) actor.Input {
	return evCreationFailed{Err: err}
}

// ActivationRequested returns an event input for the transport asking to
// activate the session.
func ActivationRequested() actor.Input {
	return evActivationRequested{}
}

// RemoteControlRequested returns an event input for a remote-control request.
func RemoteControlRequested() actor.Input {
	return evRemoteControlRequested{}
}

// FullDeviceRequested returns an event input for a full-device request.
func FullDeviceRequested() actor.Input {
	return evFullDeviceRequested{}
}

// SessionSucceeded returns an event input for a created session.
func SessionSucceeded(resp SessionResponse) actor.Input {
	return evSessionSucceeded{Response: resp}
}
