// Package simsdk is an in-process stand-in for the vendor screen-share SDK.
//
// It enforces the session state machine (inactive -> pending -> active ->
// inactive, with pending -> inactive on creation failure), generates session
// codes, and reports through screenshare.Callbacks from its own goroutines,
// the way the real SDK does.
package simsdk

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/screenshare"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
	"github.com/google/uuid"
)

// ErrSessionExists is reported when a session is started while another one
// is pending or active.
var ErrSessionExists = errors.New("screen share session already exists")

// Options configures a Manager.
type Options struct {
	// Domain is used to build the agent join URL.
	Domain string
	// Key identifies the screen-share account; an empty key makes the
	// manager unavailable.
	Key string
	// NegotiationDelay is how long after StartSession the session is
	// reported created and activation is requested.
	NegotiationDelay time.Duration
}

// Manager simulates a screen-share session manager.
type Manager struct {
	opts Options

	mu             sync.Mutex
	state          screenshare.SessionState
	callbacks      screenshare.Callbacks
	gen            int
	remoteControl  bool
	fullDevice     bool
	failNext       error
	listeners      map[int]func(screenshare.SessionState)
	nextListenerID int
	timers         map[int]*time.Timer
	nextTimerID    int
	wg             sync.WaitGroup
	closed         bool
}

var _ screenshare.SessionManager = (*Manager)(nil)

// New returns an idle manager.
func New(opts Options) *Manager {
	state := screenshare.SessionInactive
	if opts.Key == "" {
		state = screenshare.SessionUnavailable
	}
	return &Manager{
		opts:      opts,
		state:     state,
		listeners: make(map[int]func(screenshare.SessionState)),
		timers:    make(map[int]*time.Timer),
	}
}

// IsAvailable implements screenshare.Availability.
func (m *Manager) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && m.state != screenshare.SessionUnavailable
}

// SessionState implements screenshare.SessionManager.
func (m *Manager) SessionState() screenshare.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RemoteControlEnabled reports the last remote-control decision.
func (m *Manager) RemoteControlEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remoteControl
}

// FullDeviceEnabled reports the last full-device decision.
func (m *Manager) FullDeviceEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fullDevice
}

// FailNextStart makes the next StartSession fail with err.
func (m *Manager) FailNextStart(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// StartSession implements screenshare.SessionManager.
func (m *Manager) StartSession(req screenshare.SessionRequest, cb screenshare.Callbacks) {
	var (
		gen      int
		failure  error
		occupied bool
	)
	started := m.transitionWhen(screenshare.SessionPending, func() bool {
		if m.closed || m.state == screenshare.SessionUnavailable {
			return false
		}
		if m.state != screenshare.SessionInactive {
			occupied = true
			return false
		}
		m.gen++
		gen = m.gen
		m.callbacks = cb
		m.remoteControl = false
		m.fullDevice = false
		failure = m.failNext
		m.failNext = nil
		return true
	})
	switch {
	case occupied:
		m.async(0, func() { cb.SessionCreationFailed(ErrSessionExists) })
		return
	case !started:
		logger.Warnf("simsdk: start ignored, service unavailable")
		return
	}
	logger.Debugf("simsdk: starting session for %s %d (from %s)", req.CommunicationType, req.CommunicationID, req.InitiatedFrom)

	if failure != nil {
		m.async(m.opts.NegotiationDelay, func() {
			failed := m.transitionWhen(screenshare.SessionInactive, func() bool {
				return !m.closed && m.gen == gen && m.state == screenshare.SessionPending
			})
			if failed {
				cb.SessionCreationFailed(failure)
			}
		})
		return
	}

	resp := screenshare.SessionResponse{
		SessionID: uuid.NewString(),
		Code:      sessionCode(),
	}
	if m.opts.Domain != "" {
		resp.URL = fmt.Sprintf("https://%s/session/%s", m.opts.Domain, resp.Code)
	}
	m.async(m.opts.NegotiationDelay, func() {
		if !m.current(gen) {
			return
		}
		cb.SessionSucceeded(resp)
		cb.ActivationRequested()
	})
}

// ActivateSession implements screenshare.SessionManager.
func (m *Manager) ActivateSession() {
	var from screenshare.SessionState
	activated := m.transitionWhen(screenshare.SessionActive, func() bool {
		from = m.state
		return m.state == screenshare.SessionPending
	})
	if !activated {
		logger.Debugf("simsdk: activate ignored in state %s", from)
	}
}

// StopSession implements screenshare.SessionManager.
func (m *Manager) StopSession() {
	m.transitionWhen(screenshare.SessionInactive, func() bool {
		switch m.state {
		case screenshare.SessionPending, screenshare.SessionActive:
			m.gen++
			return true
		default:
			return false
		}
	})
}

// EnableRemoteControl implements screenshare.SessionManager.
func (m *Manager) EnableRemoteControl(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remoteControl = enabled
}

// EnableFullDeviceSharing implements screenshare.SessionManager.
func (m *Manager) EnableFullDeviceSharing(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullDevice = enabled
}

// AddStateListener implements screenshare.SessionManager.
func (m *Manager) AddStateListener(fn func(screenshare.SessionState)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextListenerID
	m.nextListenerID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// RequestRemoteControl simulates the agent asking for remote control of the
// active session.
func (m *Manager) RequestRemoteControl() error {
	cb, err := m.activeCallbacks()
	if err != nil {
		return err
	}
	m.async(0, cb.RemoteControlRequested)
	return nil
}

// RequestFullDevice simulates the agent asking to see the whole device.
func (m *Manager) RequestFullDevice() error {
	cb, err := m.activeCallbacks()
	if err != nil {
		return err
	}
	m.async(0, cb.FullDeviceRequested)
	return nil
}

// Close cancels pending callbacks and waits for running ones.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	for id, t := range m.timers {
		if t.Stop() {
			m.wg.Done()
		}
		delete(m.timers, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) activeCallbacks() (screenshare.Callbacks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != screenshare.SessionActive || m.callbacks == nil {
		return nil, fmt.Errorf("simsdk: no active session (state %s)", m.state)
	}
	return m.callbacks, nil
}

func (m *Manager) current(gen int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && m.gen == gen
}

// transitionWhen moves to next when allow reports true. allow runs under the
// same lock as the change. Listeners and the session callbacks are told
// outside the lock.
func (m *Manager) transitionWhen(next screenshare.SessionState, allow func() bool) bool {
	m.mu.Lock()
	if !allow() || m.state == next {
		m.mu.Unlock()
		return false
	}
	m.state = next
	cb := m.callbacks
	listeners := make([]func(screenshare.SessionState), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	if cb != nil {
		cb.SessionStateChanged(next)
	}
	return true
}

// async runs fn on its own goroutine after delay unless the manager is
// closed first.
func (m *Manager) async(delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	id := m.nextTimerID
	m.nextTimerID++
	m.wg.Add(1)
	// The callback takes the lock first, so it cannot run before the timer
	// is stored.
	m.timers[id] = time.AfterFunc(delay, func() {
		defer m.wg.Done()
		m.mu.Lock()
		delete(m.timers, id)
		m.mu.Unlock()
		fn()
	})
}

func sessionCode() string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, uuid.NewString())
	for len(digits) < 6 {
		digits += "0"
	}
	return digits[:6]
}
