package screenshare

import (
	"errors"
	"testing"

	"github.com/ccai-examples/ccai-demo/internal/actor"
	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var allSessionStates = []SessionState{SessionInactive, SessionPending, SessionActive, SessionUnavailable}

func intPtr(v int) *int { return &v }

// withoutLogs drops log and toggle completion effects so assertions only
// see behavior.
func withoutLogs(effects []actor.Effect) []actor.Effect {
	out := make([]actor.Effect, 0, len(effects))
	for _, eff := range effects {
		switch eff.(type) {
		case effLog, effCompleteToggle:
			continue
		}
		out = append(out, eff)
	}
	return out
}

func requireEffects(t *testing.T, want, got []actor.Effect) {
	t.Helper()
	if diff := cmp.Diff(want, withoutLogs(got)); diff != "" {
		t.Fatalf("effects mismatch (-want +got):\n%s", diff)
	}
}

func countDialogs(effects []actor.Effect) int {
	n := 0
	for _, eff := range effects {
		if _, ok := eff.(effShowDialog); ok {
			n++
		}
	}
	return n
}

func toggle(t *testing.T, state State, enabled bool, session SessionState) (State, []actor.Effect, ToggleResult) {
	t.Helper()
	reply := make(chan ToggleResult, 1)
	next, effects := actor.Step(state, Toggle(enabled, session, reply), Reduce)
	for _, eff := range effects {
		if done, ok := eff.(effCompleteToggle); ok {
			require.Equal(t, reply, done.Reply)
			return next, effects, done.Result
		}
	}
	t.Fatal("toggle did not complete")
	return next, effects, ToggleResult{}
}

func TestToggleWhilePendingNeverPrompts(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		next, effects, res := toggle(t, State{}, enabled, SessionPending)
		require.Error(t, res.Err)
		require.Zero(t, countDialogs(effects))
		require.Equal(t, DialogNone, next.Dialog)
	}
}

func TestToggleWhileIneligibleNeverPrompts(t *testing.T) {
	for _, s := range allSessionStates {
		next, effects, res := toggle(t, State{}, false, s)
		require.ErrorIs(t, res.Err, ErrNotEnabled, s)
		require.Zero(t, countDialogs(effects), s)
		require.Equal(t, DialogNone, next.Dialog, s)
	}
}

func TestToggleByState(t *testing.T) {
	tests := []struct {
		session SessionState
		dialog  DialogKind
		err     error
	}{
		{session: SessionInactive, dialog: DialogUserRequest},
		{session: SessionPending, err: ErrAlreadyStarting},
		{session: SessionActive, dialog: DialogStopConfirmation},
		{session: SessionUnavailable, err: ErrServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(string(tc.session), func(t *testing.T) {
			next, effects, res := toggle(t, State{}, true, tc.session)
			require.True(t, errors.Is(res.Err, tc.err) || (tc.err == nil && res.Err == nil))
			require.Equal(t, tc.dialog, next.Dialog)
			if tc.dialog == DialogNone {
				requireEffects(t, []actor.Effect{}, effects)
				return
			}
			requireEffects(t, []actor.Effect{effShowDialog{Kind: tc.dialog}}, effects)
		})
	}
}

func TestToggleWithoutReplyChannel(t *testing.T) {
	next, effects := actor.Step(State{}, Toggle(true, SessionInactive, nil), Reduce)
	require.Equal(t, DialogUserRequest, next.Dialog)
	requireEffects(t, []actor.Effect{effShowDialog{Kind: DialogUserRequest}}, effects)
}

func TestAgentRequestFoldLastEventWins(t *testing.T) {
	batch := []chat.ChatMessage{
		{Body: chat.Body{Event: chat.EventScreenShareRequestedByAgent}},
		{Body: chat.Body{Event: chat.EventScreenShareEnded}},
		{Body: chat.Body{Event: chat.EventScreenShareRequestedByAgent}},
	}
	require.True(t, PendingAgentRequest(batch))

	for _, s := range allSessionStates {
		next, effects := actor.Step(State{}, InboundBatch(true, s), Reduce)
		if s == SessionActive {
			require.Zero(t, countDialogs(effects), s)
			require.Equal(t, DialogNone, next.Dialog)
			continue
		}
		requireEffects(t, []actor.Effect{effShowDialog{Kind: DialogAgentRequest}}, effects)
		require.Equal(t, DialogAgentRequest, next.Dialog)
	}

	_, effects := actor.Step(State{}, InboundBatch(false, SessionInactive), Reduce)
	require.Empty(t, effects)
}

func TestActivationConfirmActivatesWithoutNotification(t *testing.T) {
	for _, origin := range []Origin{OriginNone, OriginEndUser, OriginAgent} {
		state := State{Origin: origin, Dialog: DialogActivationRequest}
		next, effects := actor.Step(state, Respond(DialogActivationRequest, Confirm, intPtr(1)), Reduce)
		requireEffects(t, []actor.Effect{effActivateSession{}}, effects)
		require.Equal(t, DialogNone, next.Dialog)
		require.Equal(t, origin, next.Origin)
	}
}

func TestUserConfirmWithoutChatIDAborts(t *testing.T) {
	state := State{Dialog: DialogUserRequest}
	next, effects := actor.Step(state, Respond(DialogUserRequest, Confirm, nil), Reduce)
	requireEffects(t, []actor.Effect{}, effects)
	require.Equal(t, OriginNone, next.Origin)
	require.Equal(t, DialogNone, next.Dialog)
}

func TestUserConfirmStartsThenAnnounces(t *testing.T) {
	next, effects := actor.Step(State{}, Respond(DialogUserRequest, Confirm, intPtr(42)), Reduce)
	requireEffects(t, []actor.Effect{
		effStartSession{Request: SessionRequest{
			CommunicationID:   42,
			CommunicationType: CommunicationChat,
			InitiatedFrom:     OriginEndUser,
		}},
		effNotify{Event: chat.EventScreenShareRequestedFromUser},
	}, effects)
	require.Equal(t, OriginEndUser, next.Origin)
}

func TestAgentConfirmStartsWithoutAnnouncement(t *testing.T) {
	next, effects := actor.Step(State{}, Respond(DialogAgentRequest, Confirm, intPtr(7)), Reduce)
	requireEffects(t, []actor.Effect{
		effStartSession{Request: SessionRequest{
			CommunicationID:   7,
			CommunicationType: CommunicationChat,
			InitiatedFrom:     OriginAgent,
		}},
	}, effects)
	require.Equal(t, OriginAgent, next.Origin)
}

func TestRespondTable(t *testing.T) {
	tests := []struct {
		kind   DialogKind
		resp   Response
		want   []actor.Effect
		origin Origin
	}{
		{DialogUserRequest, Cancel, []actor.Effect{}, OriginAgent},
		{DialogAgentRequest, Cancel, []actor.Effect{}, OriginAgent},
		{DialogActivationRequest, Cancel, []actor.Effect{effStopSession{}}, OriginNone},
		{DialogRemoteControlRequest, Confirm, []actor.Effect{effEnableRemoteControl{Enabled: true}}, OriginAgent},
		{DialogRemoteControlRequest, Cancel, []actor.Effect{effEnableRemoteControl{Enabled: false}}, OriginAgent},
		{DialogFullDeviceRequest, Confirm, []actor.Effect{effEnableFullDevice{Enabled: true}}, OriginAgent},
		{DialogFullDeviceRequest, Cancel, []actor.Effect{effEnableFullDevice{Enabled: false}}, OriginAgent},
		{DialogStopConfirmation, Confirm, []actor.Effect{effStopSession{}}, OriginNone},
		{DialogStopConfirmation, Cancel, []actor.Effect{}, OriginAgent},
	}
	for _, tc := range tests {
		t.Run(tc.kind.String()+"/"+tc.resp.String(), func(t *testing.T) {
			state := State{Origin: OriginAgent, Dialog: tc.kind}
			next, effects := actor.Step(state, Respond(tc.kind, tc.resp, intPtr(1)), Reduce)
			requireEffects(t, tc.want, effects)
			require.Equal(t, tc.origin, next.Origin)
			require.Equal(t, DialogNone, next.Dialog)
		})
	}
}

func TestEveryDialogKindIsHandled(t *testing.T) {
	for _, kind := range AllDialogKinds() {
		for _, resp := range []Response{Confirm, Cancel} {
			_, effects := actor.Step(State{}, Respond(kind, resp, intPtr(1)), Reduce)
			for _, eff := range effects {
				if l, ok := eff.(effLog); ok {
					require.NotContains(t, l.Msg, "unknown dialog", kind)
				}
			}
		}
		_, ok := DialogConfigFor(kind)
		require.True(t, ok, kind)
	}

	_, effects := actor.Step(State{}, Respond(DialogNone, Confirm, intPtr(1)), Reduce)
	requireEffects(t, []actor.Effect{}, effects)
	require.Len(t, effects, 1)
}

func TestCreationFailureNotifiesThenStops(t *testing.T) {
	for _, origin := range []Origin{OriginNone, OriginEndUser, OriginAgent} {
		state := State{Origin: origin, Session: SessionPending}
		next, effects := actor.Step(state, CreationFailed(errors.New("boom")), Reduce)
		requireEffects(t, []actor.Effect{
			effNotify{Event: chat.EventScreenShareFailed},
			effStopSession{},
		}, effects)
		require.Equal(t, OriginNone, next.Origin)
	}
}

func TestActivationRequestDependsOnOrigin(t *testing.T) {
	next, effects := actor.Step(State{Origin: OriginEndUser}, ActivationRequested(), Reduce)
	requireEffects(t, []actor.Effect{effShowDialog{Kind: DialogActivationRequest}}, effects)
	require.Equal(t, DialogActivationRequest, next.Dialog)

	next, effects = actor.Step(State{Origin: OriginAgent}, ActivationRequested(), Reduce)
	requireEffects(t, []actor.Effect{effActivateSession{}}, effects)
	require.Equal(t, DialogNone, next.Dialog)

	next, effects = actor.Step(State{}, ActivationRequested(), Reduce)
	requireEffects(t, []actor.Effect{effActivateSession{}}, effects)
	require.Equal(t, DialogNone, next.Dialog)
}

func TestRemoteAndFullDeviceRequestsAlwaysPrompt(t *testing.T) {
	for _, origin := range []Origin{OriginEndUser, OriginAgent} {
		_, effects := actor.Step(State{Origin: origin}, RemoteControlRequested(), Reduce)
		requireEffects(t, []actor.Effect{effShowDialog{Kind: DialogRemoteControlRequest}}, effects)

		_, effects = actor.Step(State{Origin: origin}, FullDeviceRequested(), Reduce)
		requireEffects(t, []actor.Effect{effShowDialog{Kind: DialogFullDeviceRequest}}, effects)
	}
}

func TestSessionSucceededCarriesResponse(t *testing.T) {
	resp := SessionResponse{SessionID: "s1", Code: "123456"}
	_, effects := actor.Step(State{}, SessionSucceeded(resp), Reduce)
	requireEffects(t, []actor.Effect{
		effNotify{Event: chat.EventScreenShareCodeGenerated, Response: &resp},
	}, effects)
}

func TestNewPromptReplacesPendingOne(t *testing.T) {
	state, _ := actor.Steps(State{Origin: OriginEndUser},
		Reduce,
		ActivationRequested(),
		RemoteControlRequested(),
	)
	require.Equal(t, DialogRemoteControlRequest, state.Dialog)

	state, _ = actor.Step(state, Dismiss(), Reduce)
	require.Equal(t, DialogNone, state.Dialog)
}

func TestStateChangesArePublishedOnce(t *testing.T) {
	state, effects := actor.Step(State{}, StateChanged(SessionInactive), Reduce)
	requireEffects(t, []actor.Effect{effPublishState{State: SessionInactive}}, effects)

	_, effects = actor.Step(state, StateChanged(SessionInactive), Reduce)
	require.Empty(t, effects)
}

func TestSessionEndClearsSessionScopedState(t *testing.T) {
	state := State{Origin: OriginAgent, Session: SessionActive, Dialog: DialogRemoteControlRequest}
	next, effects := actor.Step(state, StateChanged(SessionInactive), Reduce)
	requireEffects(t, []actor.Effect{
		effPublishState{State: SessionInactive},
		effShowDialog{Kind: DialogNone},
	}, effects)
	require.Equal(t, OriginNone, next.Origin)
	require.Equal(t, DialogNone, next.Dialog)

	// A pending agent request outlives the session that was running.
	state = State{Session: SessionActive, Dialog: DialogAgentRequest}
	next, effects = actor.Step(state, StateChanged(SessionInactive), Reduce)
	requireEffects(t, []actor.Effect{effPublishState{State: SessionInactive}}, effects)
	require.Equal(t, DialogAgentRequest, next.Dialog)
}
