package screenshare

import (
	"github.com/ccai-examples/ccai-demo/internal/actor"
	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
)

// State is the loop-owned state of one chat session's coordinator.
type State struct {
	// Dialog is the prompt currently awaiting an answer, or DialogNone.
	Dialog DialogKind

	// Origin is who initiated the pending or active session.
	Origin Origin

	// Session is the last state reported by the session manager. Empty
	// until the first report.
	Session SessionState
}

// ToggleResult completes a toggle command.
type ToggleResult struct {
	State SessionState
	Err   error
}

// Inputs

// cmdToggle is a tap on the screen-share control. Eligibility and the
// session state are sampled by the caller so the reducer stays pure.
type cmdToggle struct {
	actor.InputBase
	Enabled bool
	Session SessionState
	Reply   chan ToggleResult
}

// cmdInbound carries the folded outcome of an inbound message batch.
type cmdInbound struct {
	actor.InputBase
	AgentRequested bool
	Session        SessionState
}

// cmdRespond is the user's answer to a prompt.
type cmdRespond struct {
	actor.InputBase
	Kind     DialogKind
	Response Response
	ChatID   *int
}

// cmdDismiss means the UI closed the prompt without an answer.
type cmdDismiss struct {
	actor.InputBase
}

type evSessionStateChanged struct {
	actor.InputBase
	State SessionState
}

type evCreationFailed struct {
	actor.InputBase
	Err error
}

type evActivationRequested struct {
	actor.InputBase
}

type evRemoteControlRequested struct {
	actor.InputBase
}

type evFullDeviceRequested struct {
	actor.InputBase
}

type evSessionSucceeded struct {
	actor.InputBase
	Response SessionResponse
}

// Effects

type effShowDialog struct {
	actor.EffectBase
	Kind DialogKind
}

type effPublishState struct {
	actor.EffectBase
	State SessionState
}

type effStartSession struct {
	actor.EffectBase
	Request SessionRequest
}

type effStopSession struct {
	actor.EffectBase
}

type effActivateSession struct {
	actor.EffectBase
}

type effEnableRemoteControl struct {
	actor.EffectBase
	Enabled bool
}

type effEnableFullDevice struct {
	actor.EffectBase
	Enabled bool
}

type effNotify struct {
	actor.EffectBase
	Event    chat.MessageEvent
	Response *SessionResponse
}

type effCompleteToggle struct {
	actor.EffectBase
	Reply  chan ToggleResult
	Result ToggleResult
}

type effLog struct {
	actor.EffectBase
	Level logger.Level
	Msg   string
}
