package session

import (
	"context"
	"sync"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/internal/notify"
)

type fakeService struct {
	mu        sync.Mutex
	listeners map[int]chat.Listener
	nextID    int

	started   []chat.StartRequest
	resumed   []int
	ended     int
	sent      []chat.OutgoingContent
	pages     []int
	lastChat  *chat.Chat
	statusChk int

	startChat *chat.Chat
	resumeErr error
	endErr    error
	history   map[int]*chat.History
}

func newFakeService() *fakeService {
	return &fakeService{
		listeners: make(map[int]chat.Listener),
		history:   make(map[int]*chat.History),
	}
}

func (f *fakeService) snapshot() []chat.Listener {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]chat.Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		out = append(out, l)
	}
	return out
}

func (f *fakeService) emitChat(c *chat.Chat) {
	for _, l := range f.snapshot() {
		l.ChatUpdated(c)
	}
}

func (f *fakeService) emitState(s chat.ProviderState) {
	for _, l := range f.snapshot() {
		l.StateChanged(s)
	}
}

func (f *fakeService) emitMessages(msgs ...chat.ChatMessage) {
	for _, l := range f.snapshot() {
		l.MessagesReceived(msgs)
	}
}

func (f *fakeService) emitMember(ev chat.MemberEvent) {
	for _, l := range f.snapshot() {
		l.Member(ev)
	}
}

func (f *fakeService) emitTyping(typing bool) {
	for _, l := range f.snapshot() {
		l.Typing(chat.TypingEvent{Typing: typing})
	}
}

func (f *fakeService) Start(_ context.Context, req chat.StartRequest) (*chat.Chat, error) {
	f.mu.Lock()
	f.started = append(f.started, req)
	c := f.startChat
	f.mu.Unlock()
	if c == nil {
		c = &chat.Chat{ID: 100, Status: chat.StatusQueued, Menus: []chat.Menu{{ID: req.MenuID}}}
	}
	f.emitChat(c)
	return c, nil
}

func (f *fakeService) Resume(_ context.Context, c *chat.Chat) error {
	f.mu.Lock()
	f.resumed = append(f.resumed, c.ID)
	err := f.resumeErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.emitChat(c)
	return nil
}

func (f *fakeService) End(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended++
	return f.endErr
}

func (f *fakeService) SendMessage(_ context.Context, content chat.OutgoingContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, content)
	return nil
}

func (f *fakeService) Sent() []chat.OutgoingContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.OutgoingContent(nil), f.sent...)
}

func (f *fakeService) PreviousMessages(_ context.Context, page int) (*chat.History, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, page)
	if h, ok := f.history[page]; ok {
		return h, nil
	}
	return &chat.History{NextPage: -1}, nil
}

func (f *fakeService) Pages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pages...)
}

func (f *fakeService) LastChatInProgress(context.Context) (*chat.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastChat, nil
}

func (f *fakeService) CheckStatus(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusChk++
	return nil
}

func (f *fakeService) StatusChecks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusChk
}

func (f *fakeService) Subscribe(l chat.Listener) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = l
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (f *fakeAlerter) Alert(_ context.Context, a notify.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
	return nil
}

func (f *fakeAlerter) Alerts() []notify.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Alert(nil), f.alerts...)
}
