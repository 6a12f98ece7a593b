// Package actortest provides test helpers for actors.
package actortest

import (
	"context"
	"sync"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/actor"
)

// FakeRuntime is a Runtime that records every effect it is handed.
type FakeRuntime struct {
	mu sync.Mutex

	effects []actor.Effect
	stopped bool

	// EmitFn, when non-nil, is invoked for each effect so tests can
	// synthesize follow-up inputs.
	EmitFn func(ctx context.Context, eff actor.Effect, emit func(actor.Input))
}

var _ actor.Runtime = (*FakeRuntime)(nil)

// HandleEffects implements actor.Runtime.
func (r *FakeRuntime) HandleEffects(ctx context.Context, effects []actor.Effect, emit func(actor.Input)) {
	r.mu.Lock()
	r.effects = append(r.effects, effects...)
	emitFn := r.EmitFn
	r.mu.Unlock()

	if emitFn == nil {
		return
	}
	for _, eff := range effects {
		emitFn(ctx, eff, emit)
	}
}

// Stop implements actor.Runtime.
func (r *FakeRuntime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}

// Stopped reports whether Stop was called.
func (r *FakeRuntime) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Effects returns a snapshot of recorded effects.
func (r *FakeRuntime) Effects() []actor.Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]actor.Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// WaitEffects polls until at least n effects were recorded or timeout
// elapses, and returns the snapshot.
func (r *FakeRuntime) WaitEffects(n int, timeout time.Duration) []actor.Effect {
	deadline := time.Now().Add(timeout)
	for {
		effects := r.Effects()
		if len(effects) >= n || time.Now().After(deadline) {
			return effects
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Reset clears recorded effects.
func (r *FakeRuntime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = nil
}
