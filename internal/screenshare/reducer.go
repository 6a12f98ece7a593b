package screenshare

import (
	"fmt"

	"github.com/ccai-examples/ccai-demo/internal/actor"
	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
)

// Reduce is the coordinator reducer.
func Reduce(state State, input actor.Input) (State, []actor.Effect) {
	switch in := input.(type) {
	case cmdToggle:
		return reduceToggle(state, in)
	case cmdInbound:
		return reduceInbound(state, in)
	case cmdRespond:
		return reduceRespond(state, in)
	case cmdDismiss:
		state.Dialog = DialogNone
		return state, nil

	case evSessionStateChanged:
		return reduceSessionStateChanged(state, in)
	case evCreationFailed:
		return reduceCreationFailed(state, in)
	case evActivationRequested:
		return reduceActivationRequested(state)
	case evRemoteControlRequested:
		return showDialog(state, DialogRemoteControlRequest,
			logEffect(logger.LevelDebug, "screen share remote control request received"))
	case evFullDeviceRequested:
		return showDialog(state, DialogFullDeviceRequest,
			logEffect(logger.LevelDebug, "screen share full device request received"))
	case evSessionSucceeded:
		resp := in.Response
		return state, []actor.Effect{
			logEffect(logger.LevelDebug, "screen share session started successfully"),
			effNotify{Event: chat.EventScreenShareCodeGenerated, Response: &resp},
		}
	default:
		return state, nil
	}
}

func reduceToggle(state State, cmd cmdToggle) (State, []actor.Effect) {
	if !cmd.Enabled {
		return state, []actor.Effect{
			logEffect(logger.LevelWarn, "cannot start screen share"),
			completeToggle(cmd.Reply, ToggleResult{State: cmd.Session, Err: ErrNotEnabled}),
		}
	}

	switch cmd.Session {
	case SessionInactive:
		return showDialog(state, DialogUserRequest, completeToggle(cmd.Reply, ToggleResult{State: cmd.Session}))
	case SessionPending:
		return state, []actor.Effect{
			logEffect(logger.LevelDebug, "screen share is already starting"),
			completeToggle(cmd.Reply, ToggleResult{State: cmd.Session, Err: ErrAlreadyStarting}),
		}
	case SessionActive:
		return showDialog(state, DialogStopConfirmation, completeToggle(cmd.Reply, ToggleResult{State: cmd.Session}))
	case SessionUnavailable:
		fallthrough
	default:
		return state, []actor.Effect{
			logEffect(logger.LevelWarn, "screen share state is unavailable"),
			completeToggle(cmd.Reply, ToggleResult{State: SessionUnavailable, Err: ErrServiceUnavailable}),
		}
	}
}

func reduceInbound(state State, cmd cmdInbound) (State, []actor.Effect) {
	if !cmd.AgentRequested {
		return state, nil
	}
	if cmd.Session == SessionActive {
		return state, []actor.Effect{logEffect(logger.LevelDebug, "screen share is already active, skipping agent request")}
	}
	return showDialog(state, DialogAgentRequest)
}

func reduceRespond(state State, cmd cmdRespond) (State, []actor.Effect) {
	state.Dialog = DialogNone
	confirmed := cmd.Response == Confirm

	switch cmd.Kind {
	case DialogUserRequest:
		if !confirmed {
			return state, []actor.Effect{logEffect(logger.LevelDebug, "user cancelled screen share request")}
		}
		return startSession(state, OriginEndUser, cmd.ChatID)

	case DialogAgentRequest:
		if !confirmed {
			return state, []actor.Effect{logEffect(logger.LevelDebug, "user denied agent screen share request")}
		}
		return startSession(state, OriginAgent, cmd.ChatID)

	case DialogActivationRequest:
		if !confirmed {
			state.Origin = OriginNone
			return state, []actor.Effect{effStopSession{}}
		}
		return state, []actor.Effect{effActivateSession{}}

	case DialogRemoteControlRequest:
		return state, []actor.Effect{effEnableRemoteControl{Enabled: confirmed}}

	case DialogFullDeviceRequest:
		return state, []actor.Effect{effEnableFullDevice{Enabled: confirmed}}

	case DialogStopConfirmation:
		if !confirmed {
			return state, []actor.Effect{logEffect(logger.LevelDebug, "user cancelled stop screen share")}
		}
		state.Origin = OriginNone
		return state, []actor.Effect{effStopSession{}}

	case DialogNone:
		fallthrough
	default:
		return state, []actor.Effect{logEffect(logger.LevelWarn, fmt.Sprintf("response %s for unknown dialog %s", cmd.Response, cmd.Kind))}
	}
}

// startSession issues the start command for origin. End-user sessions also
// announce the request in the chat, after the start command.
func startSession(state State, origin Origin, chatID *int) (State, []actor.Effect) {
	if chatID == nil {
		return state, []actor.Effect{logEffect(logger.LevelWarn, "cannot start screen share: chat id not available")}
	}

	state.Origin = origin
	effects := []actor.Effect{
		effStartSession{Request: SessionRequest{
			CommunicationID:   *chatID,
			CommunicationType: CommunicationChat,
			InitiatedFrom:     origin,
		}},
	}
	if origin == OriginEndUser {
		effects = append(effects, effNotify{Event: chat.EventScreenShareRequestedFromUser})
	}
	return state, effects
}

func reduceSessionStateChanged(state State, ev evSessionStateChanged) (State, []actor.Effect) {
	if ev.State == state.Session {
		return state, nil
	}
	prev := state.Session
	state.Session = ev.State

	effects := []actor.Effect{
		logEffect(logger.LevelDebug, fmt.Sprintf("screen share state changed: %s", ev.State)),
		effPublishState{State: ev.State},
	}
	if ev.State != SessionInactive {
		return state, effects
	}

	if prev == SessionPending || prev == SessionActive {
		state.Origin = OriginNone
	}
	if state.Dialog.sessionScoped() {
		state.Dialog = DialogNone
		effects = append(effects, effShowDialog{Kind: DialogNone})
	}
	return state, effects
}

func reduceCreationFailed(state State, ev evCreationFailed) (State, []actor.Effect) {
	msg := "screen share session creation failed"
	if ev.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, ev.Err)
	}
	state.Origin = OriginNone
	return state, []actor.Effect{
		logEffect(logger.LevelError, msg),
		effNotify{Event: chat.EventScreenShareFailed},
		effStopSession{},
	}
}

// reduceActivationRequested auto-activates agent-initiated sessions and asks
// for consent otherwise.
func reduceActivationRequested(state State) (State, []actor.Effect) {
	// Only a session the end user asked for needs a second consent.
	switch state.Origin {
	case OriginEndUser:
		return showDialog(state, DialogActivationRequest,
			logEffect(logger.LevelDebug, "screen share activation request received"))
	case OriginAgent, OriginNone:
		fallthrough
	default:
		return state, []actor.Effect{
			logEffect(logger.LevelDebug, "screen share activation request received"),
			effActivateSession{},
		}
	}
}

// showDialog replaces any pending prompt with kind.
func showDialog(state State, kind DialogKind, pre ...actor.Effect) (State, []actor.Effect) {
	state.Dialog = kind
	return state, append(pre, effShowDialog{Kind: kind})
}

func logEffect(level logger.Level, msg string) actor.Effect {
	return effLog{Level: level, Msg: msg}
}

// completeToggle answers the caller of a toggle. Without a reply channel it
// yields a no-op effect.
func completeToggle(ch chan ToggleResult, res ToggleResult) actor.Effect {
	return effCompleteToggle{Reply: ch, Result: res}
}
