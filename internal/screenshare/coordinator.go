package screenshare

import (
	"context"
	"errors"
	"sync"

	"github.com/ccai-examples/ccai-demo/internal/actor"
	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
)

// Coordinator is the per-chat-session screen-share coordinator. Its methods
// are safe for concurrent use; every call is serialized onto one loop.
//
// Coordinator implements Callbacks, so the session manager reports straight
// into the loop.
type Coordinator struct {
	sdk   SessionManager
	actor *actor.Actor[State]

	removeListener func()
	closeOnce      sync.Once
}

var _ Callbacks = (*Coordinator)(nil)

// Option configures a Coordinator.
type Option func(*options)

type options struct {
	hooks actor.Hooks[State]
}

// WithHooks attaches actor hooks, mostly for tracing and tests.
func WithHooks(h actor.Hooks[State]) Option {
	return func(o *options) { o.hooks = h }
}

// NewCoordinator starts a coordinator for one chat session. It registers a
// state listener with sdk and publishes the current state to ui. Close
// releases both.
func NewCoordinator(sdk SessionManager, notifier Notifier, ui UI, opts ...Option) *Coordinator {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.hooks.OnPanic == nil {
		o.hooks.OnPanic = func(r any) {
			logger.Errorf("screenshare: coordinator loop panicked: %v", r)
		}
	}

	c := &Coordinator{sdk: sdk}
	rt := NewRuntime(sdk, notifier, ui, c)
	c.actor = actor.New(State{}, Reduce, rt, actor.WithHooks(o.hooks))
	c.actor.Start()

	c.removeListener = sdk.AddStateListener(c.SessionStateChanged)
	c.enqueue(StateChanged(sdk.SessionState()))
	return c
}

// Toggle handles a tap on the screen-share control for a chat with the given
// status and feature flag. It shows the start or stop prompt, or returns one
// of ErrNotEnabled, ErrAlreadyStarting or ErrServiceUnavailable.
func (c *Coordinator) Toggle(ctx context.Context, status chat.Status, supportsScreenShare *bool) (SessionState, error) {
	enabled := IsEnabled(status, supportsScreenShare, c.sdk)
	session := c.sdk.SessionState()

	reply := make(chan ToggleResult, 1)
	if err := c.actor.Send(Toggle(enabled, session, reply)); err != nil {
		if errors.Is(err, actor.ErrStopped) {
			return session, ErrClosed
		}
		return session, err
	}

	select {
	case res := <-reply:
		return res.State, res.Err
	case <-c.actor.Done():
		return session, ErrClosed
	case <-ctx.Done():
		return session, ctx.Err()
	}
}

// HandleInbound inspects a received message batch for an outstanding agent
// request and prompts the user if one is found and no session is active.
func (c *Coordinator) HandleInbound(msgs []chat.ChatMessage) {
	if !PendingAgentRequest(msgs) {
		return
	}
	c.enqueue(InboundBatch(true, c.sdk.SessionState()))
}

// Respond delivers the user's answer to a prompt. chatID is the current chat
// id, nil if the chat has not been created yet.
func (c *Coordinator) Respond(kind DialogKind, resp Response, chatID *int) {
	c.enqueue(Respond(kind, resp, chatID))
}

// Dismiss records that the UI closed the prompt without an answer.
func (c *Coordinator) Dismiss() {
	c.enqueue(Dismiss())
}

// PendingDialog returns the prompt currently awaiting an answer.
func (c *Coordinator) PendingDialog() DialogKind {
	return c.actor.State().Dialog
}

// Snapshot returns the coordinator state.
func (c *Coordinator) Snapshot() State {
	return c.actor.State()
}

// SessionStateChanged implements Callbacks.
func (c *Coordinator) SessionStateChanged(state SessionState) {
	c.enqueue(StateChanged(state))
}

// SessionCreationFailed implements Callbacks.
func (c *Coordinator) SessionCreationFailed(err error) {
	c.enqueue(CreationFailed(err))
}

// ActivationRequested implements Callbacks.
func (c *Coordinator) ActivationRequested() {
	c.enqueue(ActivationRequested())
}

// RemoteControlRequested implements Callbacks.
func (c *Coordinator) RemoteControlRequested() {
	c.enqueue(RemoteControlRequested())
}

// FullDeviceRequested implements Callbacks.
func (c *Coordinator) FullDeviceRequested() {
	c.enqueue(FullDeviceRequested())
}

// SessionSucceeded implements Callbacks.
func (c *Coordinator) SessionSucceeded(resp SessionResponse) {
	c.enqueue(SessionSucceeded(resp))
}

// enqueue delivers in to the loop, logging inputs the mailbox refused.
func (c *Coordinator) enqueue(in actor.Input) {
	if !c.actor.Enqueue(in) {
		logger.Warnf("screenshare: dropped %T, coordinator stopped or mailbox full", in)
	}
}

// Close unregisters the state listener and stops the loop. The session
// manager's session, if any, is left running.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		if c.removeListener != nil {
			c.removeListener()
		}
		c.actor.Stop()
		<-c.actor.Done()
	})
}
