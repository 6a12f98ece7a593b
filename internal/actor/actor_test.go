package actor_test

import (
	"context"
	"testing"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/actor"
	"github.com/ccai-examples/ccai-demo/internal/actor/actortest"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type addEvent struct {
	actor.InputBase
	n int
}

type echoEffect struct {
	actor.EffectBase
	n int
}

type followUp struct {
	actor.InputBase
}

func sumReducer(state int, input actor.Input) (int, []actor.Effect) {
	switch in := input.(type) {
	case addEvent:
		return state + in.n, []actor.Effect{echoEffect{n: in.n}}
	case followUp:
		return state + 100, nil
	default:
		return state, nil
	}
}

func stopAndWait(t *testing.T, a *actor.Actor[int]) {
	t.Helper()
	a.Stop()
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("actor loop did not exit")
	}
}

func TestActorProcessesInputsSequentially(t *testing.T) {
	rt := &actortest.FakeRuntime{}
	a := actor.New[int](0, sumReducer, rt)
	a.Start()
	defer stopAndWait(t, a)

	for i := 1; i <= 5; i++ {
		require.NoError(t, a.Send(addEvent{n: i}))
	}

	require.Eventually(t, func() bool { return a.State() == 15 }, 2*time.Second, 5*time.Millisecond)
	effects := rt.WaitEffects(5, 2*time.Second)
	require.Len(t, effects, 5)
	for i, eff := range effects {
		require.Equal(t, echoEffect{n: i + 1}, eff)
	}
}

func TestRuntimeEmitFeedsBackIntoMailbox(t *testing.T) {
	rt := &actortest.FakeRuntime{
		EmitFn: func(_ context.Context, eff actor.Effect, emit func(actor.Input)) {
			if _, ok := eff.(echoEffect); ok {
				emit(followUp{})
			}
		},
	}
	a := actor.New[int](0, sumReducer, rt)
	a.Start()
	defer stopAndWait(t, a)

	require.True(t, a.Enqueue(addEvent{n: 1}))
	require.Eventually(t, func() bool { return a.State() == 101 }, 2*time.Second, 5*time.Millisecond)
}

func TestSendAfterStop(t *testing.T) {
	rt := &actortest.FakeRuntime{}
	a := actor.New[int](0, sumReducer, rt)
	a.Start()
	stopAndWait(t, a)

	require.ErrorIs(t, a.Send(addEvent{n: 1}), actor.ErrStopped)
	require.False(t, a.Enqueue(addEvent{n: 1}))
	require.True(t, rt.Stopped())

	// Stop is idempotent.
	a.Stop()
}

func TestSendReportsFullMailbox(t *testing.T) {
	a := actor.New[int](0, sumReducer, nil, actor.WithMailboxSize[int](1))
	// Not started: the single slot fills and stays full.
	require.NoError(t, a.Send(addEvent{n: 1}))
	require.ErrorIs(t, a.Send(addEvent{n: 2}), actor.ErrMailboxFull)
	require.NoError(t, a.Send(nil))
	a.Stop()
}

func TestHooksObserveTransitions(t *testing.T) {
	transitions := make(chan [2]int, 4)
	a := actor.New[int](0, sumReducer, nil, actor.WithHooks(actor.Hooks[int]{
		OnTransition: func(prev, next int, _ actor.Input) {
			transitions <- [2]int{prev, next}
		},
	}))
	a.Start()
	defer stopAndWait(t, a)

	require.NoError(t, a.Send(addEvent{n: 2}))
	require.NoError(t, a.Send(addEvent{n: 3}))

	require.Equal(t, [2]int{0, 2}, <-transitions)
	require.Equal(t, [2]int{2, 5}, <-transitions)
}

func TestStepsCollectsEffectsInOrder(t *testing.T) {
	state, effects := actor.Steps(0, sumReducer, addEvent{n: 1}, followUp{}, addEvent{n: 2})
	require.Equal(t, 103, state)
	require.Equal(t, []actor.Effect{echoEffect{n: 1}, echoEffect{n: 2}}, effects)

	next, single := actor.Step(state, addEvent{n: 7}, sumReducer)
	require.Equal(t, 110, next)
	require.Len(t, single, 1)
}
