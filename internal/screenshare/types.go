// Package screenshare coordinates the consent flow around a screen-share
// session: it decides, for every user tap, agent request and session manager
// callback, whether to prompt the user, command the session manager, or do
// nothing, and which chat notifications to send.
//
// All decisions are made by a pure reducer running on an actor loop; the
// Coordinator is the thread-safe facade over it.
package screenshare

import (
	"encoding/json"
	"fmt"
)

// SessionState is the session manager's state as observed by the
// coordinator.
type SessionState string

const (
	// SessionInactive means no session exists.
	SessionInactive SessionState = "inactive"
	// SessionPending means a session was requested and is being negotiated.
	SessionPending SessionState = "pending"
	// SessionActive means the screen is being shared.
	SessionActive SessionState = "active"
	// SessionUnavailable means the screen-share service is not available.
	SessionUnavailable SessionState = "unavailable"
)

// DialogKind identifies one of the consent prompts. The zero value means no
// prompt is pending.
type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogUserRequest
	DialogAgentRequest
	DialogActivationRequest
	DialogRemoteControlRequest
	DialogFullDeviceRequest
	DialogStopConfirmation
)

// AllDialogKinds returns every prompt kind, excluding DialogNone.
func AllDialogKinds() []DialogKind {
	return []DialogKind{
		DialogUserRequest,
		DialogAgentRequest,
		DialogActivationRequest,
		DialogRemoteControlRequest,
		DialogFullDeviceRequest,
		DialogStopConfirmation,
	}
}

// String implements fmt.Stringer.
func (k DialogKind) String() string {
	switch k {
	case DialogNone:
		return "none"
	case DialogUserRequest:
		return "user_request"
	case DialogAgentRequest:
		return "agent_request"
	case DialogActivationRequest:
		return "activation_request"
	case DialogRemoteControlRequest:
		return "remote_control_request"
	case DialogFullDeviceRequest:
		return "full_device_request"
	case DialogStopConfirmation:
		return "stop_confirmation"
	default:
		return fmt.Sprintf("dialog(%d)", int(k))
	}
}

// sessionScoped reports whether the prompt only makes sense while a session
// exists.
func (k DialogKind) sessionScoped() bool {
	switch k {
	case DialogActivationRequest, DialogRemoteControlRequest,
		DialogFullDeviceRequest, DialogStopConfirmation:
		return true
	case DialogNone, DialogUserRequest, DialogAgentRequest:
		return false
	default:
		return false
	}
}

// Response is the user's answer to a prompt.
type Response int

const (
	Cancel Response = iota
	Confirm
)

// String implements fmt.Stringer.
func (r Response) String() string {
	if r == Confirm {
		return "confirm"
	}
	return "cancel"
}

// Origin records which party initiated the current session.
type Origin string

const (
	OriginNone    Origin = ""
	OriginEndUser Origin = "end_user"
	OriginAgent   Origin = "agent"
)

// CommunicationChat is the only communication type sessions are started for.
const CommunicationChat = "chat"

// SessionRequest asks the session manager to start a session.
type SessionRequest struct {
	CommunicationID   int
	CommunicationType string
	InitiatedFrom     Origin
}

// SessionResponse is what the session manager reports once a session was
// created. It travels to the agent inside the code-generated notification.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
	URL       string `json:"url,omitempty"`
}

// Marshal encodes r for a chat notification payload.
func (r *SessionResponse) Marshal() ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Availability reports whether the screen-share service can be used at all.
type Availability interface {
	IsAvailable() bool
}

// Callbacks are the reactions a session manager reports for a started
// session. Implementations must not block.
type Callbacks interface {
	SessionStateChanged(state SessionState)
	SessionCreationFailed(err error)
	ActivationRequested()
	RemoteControlRequested()
	FullDeviceRequested()
	SessionSucceeded(resp SessionResponse)
}

// SessionManager is the screen-share SDK surface used by the coordinator.
// Commands are fire-and-forget; outcomes arrive through Callbacks.
type SessionManager interface {
	Availability

	SessionState() SessionState
	StartSession(req SessionRequest, cb Callbacks)
	StopSession()
	ActivateSession()
	EnableRemoteControl(enabled bool)
	EnableFullDeviceSharing(enabled bool)

	// AddStateListener registers fn for state changes and returns a
	// function that removes it.
	AddStateListener(fn func(SessionState)) (remove func())
}

// UI receives what the coordinator wants shown. ShowDialog(DialogNone) asks
// the UI to close whatever prompt is open. Calls happen on the coordinator
// loop and must return quickly.
type UI interface {
	ShowDialog(kind DialogKind)
	SessionStateChanged(state SessionState)
}
