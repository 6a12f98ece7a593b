package screenshare

import (
	"context"
	"sync"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/actor"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
)

const (
	workQueueSize = 64
	notifyTimeout = 10 * time.Second
)

// Runtime interprets coordinator effects: session manager commands, UI
// updates, and chat notifications.
//
// Collaborator effects run on a single worker in the order the reducer
// produced them, so a notification always leaves before the session manager
// command that follows it. Toggle replies and logs run inline on the actor
// loop.
type Runtime struct {
	sdk       SessionManager
	notifier  Notifier
	ui        UI
	callbacks Callbacks

	work   chan actor.Effect
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var _ actor.Runtime = (*Runtime)(nil)

// NewRuntime starts a runtime. cb receives the callbacks of sessions started
// through it.
func NewRuntime(sdk SessionManager, notifier Notifier, ui UI, cb Callbacks) *Runtime {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runtime{
		sdk:       sdk,
		notifier:  notifier,
		ui:        ui,
		callbacks: cb,
		work:      make(chan actor.Effect, workQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	r.wg.Add(1)
	go r.workLoop()
	return r
}

// HandleEffects implements actor.Runtime.
func (r *Runtime) HandleEffects(ctx context.Context, effects []actor.Effect, _ func(actor.Input)) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case effCompleteToggle:
			if e.Reply == nil {
				continue
			}
			select {
			case e.Reply <- e.Result:
			default:
			}
		case effLog:
			writeLog(e)
		default:
			// The worker never waits on the actor loop, so a full queue
			// only delays the loop.
			select {
			case r.work <- eff:
			case <-ctx.Done():
				return
			case <-r.ctx.Done():
				return
			}
		}
	}
}

// Stop implements actor.Runtime. Queued effects that have not started are
// dropped.
func (r *Runtime) Stop() {
	r.once.Do(func() {
		r.cancel()
		r.wg.Wait()
	})
}

func (r *Runtime) workLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case eff := <-r.work:
			r.apply(eff)
		}
	}
}

func (r *Runtime) apply(eff actor.Effect) {
	switch e := eff.(type) {
	case effShowDialog:
		if r.ui != nil {
			r.ui.ShowDialog(e.Kind)
		}
	case effPublishState:
		if r.ui != nil {
			r.ui.SessionStateChanged(e.State)
		}
	case effStartSession:
		r.sdk.StartSession(e.Request, r.callbacks)
	case effStopSession:
		r.sdk.StopSession()
	case effActivateSession:
		r.sdk.ActivateSession()
	case effEnableRemoteControl:
		r.sdk.EnableRemoteControl(e.Enabled)
	case effEnableFullDevice:
		r.sdk.EnableFullDeviceSharing(e.Enabled)
	case effNotify:
		if r.notifier != nil {
			r.send(e)
		}
	default:
		logger.Warnf("screenshare: unhandled effect %T", eff)
	}
}

func (r *Runtime) send(eff effNotify) {
	ctx, cancel := context.WithTimeout(r.ctx, notifyTimeout)
	defer cancel()
	if err := r.notifier.SendScreenShareEvent(ctx, eff.Event, eff.Response); err != nil {
		logger.Errorf("screenshare: sending %s failed: %v", eff.Event, err)
	}
}

func writeLog(e effLog) {
	switch e.Level {
	case logger.LevelTrace:
		logger.Tracef("screenshare: %s", e.Msg)
	case logger.LevelDebug:
		logger.Debugf("screenshare: %s", e.Msg)
	case logger.LevelInfo:
		logger.Infof("screenshare: %s", e.Msg)
	case logger.LevelWarn:
		logger.Warnf("screenshare: %s", e.Msg)
	case logger.LevelError:
		logger.Errorf("screenshare: %s", e.Msg)
	default:
		logger.Infof("screenshare: %s", e.Msg)
	}
}
