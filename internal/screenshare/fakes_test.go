package screenshare

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/chat"
)

type fakeSDK struct {
	mu        sync.Mutex
	available bool
	state     SessionState
	calls     []string
	requests  []SessionRequest
	callbacks Callbacks
	listeners map[int]func(SessionState)
	nextID    int
}

func newFakeSDK(state SessionState) *fakeSDK {
	return &fakeSDK{available: true, state: state, listeners: make(map[int]func(SessionState))}
}

func (f *fakeSDK) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSDK) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSDK) Requests() []SessionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SessionRequest(nil), f.requests...)
}

func (f *fakeSDK) IsAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *fakeSDK) SessionState() SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSDK) setState(s SessionState) {
	f.mu.Lock()
	f.state = s
	listeners := make([]func(SessionState), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

func (f *fakeSDK) StartSession(req SessionRequest, cb Callbacks) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.callbacks = cb
	f.mu.Unlock()
	f.record("start")
}

func (f *fakeSDK) StopSession() { f.record("stop") }
func (f *fakeSDK) ActivateSession() { f.record("activate") }

func (f *fakeSDK) EnableRemoteControl(enabled bool) {
	if enabled {
		f.record("remote:on")
		return
	}
	f.record("remote:off")
}

func (f *fakeSDK) EnableFullDeviceSharing(enabled bool) {
	if enabled {
		f.record("device:on")
		return
	}
	f.record("device:off")
}

func (f *fakeSDK) AddStateListener(fn func(SessionState)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeSDK) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

type sentEvent struct {
	Event    chat.MessageEvent
	Response *SessionResponse
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEvent
	err  error
}

func (n *fakeNotifier) SendScreenShareEvent(_ context.Context, ev chat.MessageEvent, resp *SessionResponse) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEvent{Event: ev, Response: resp})
	return n.err
}

func (n *fakeNotifier) Sent() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.sent...)
}

type fakeUI struct {
	mu      sync.Mutex
	dialogs []DialogKind
	states  []SessionState
}

func (u *fakeUI) ShowDialog(kind DialogKind) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.dialogs = append(u.dialogs, kind)
}

func (u *fakeUI) SessionStateChanged(state SessionState) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.states = append(u.states, state)
}

func (u *fakeUI) Dialogs() []DialogKind {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]DialogKind(nil), u.dialogs...)
}

func (u *fakeUI) States() []SessionState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]SessionState(nil), u.states...)
}

// callLog records calls from several collaborators in one sequence.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// loggedSDK mirrors session commands into a shared callLog.
type loggedSDK struct {
	*fakeSDK
	log *callLog
}

func (s loggedSDK) StartSession(req SessionRequest, cb Callbacks) {
	s.fakeSDK.StartSession(req, cb)
	s.log.add("start")
}

func (s loggedSDK) StopSession() {
	s.fakeSDK.StopSession()
	s.log.add("stop")
}

func (s loggedSDK) ActivateSession() {
	s.fakeSDK.ActivateSession()
	s.log.add("activate")
}

func loggedNotifier(log *callLog) Notifier {
	return NotifierFunc(func(_ context.Context, ev chat.MessageEvent, _ *SessionResponse) error {
		// Slow sends must still finish before the next command.
		time.Sleep(2 * time.Millisecond)
		log.add("notify:" + string(ev))
		return nil
	})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
