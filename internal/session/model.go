// Package session is the chat screen's view-model. It joins the chat
// transport streams, the screen-share coordinator and local persistence, and
// publishes immutable snapshots to a View.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/internal/notify"
	"github.com/ccai-examples/ccai-demo/internal/screenshare"
	"github.com/ccai-examples/ccai-demo/internal/storage"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
)

// firstHistoryPage is the page requested on the first history load.
const firstHistoryPage = 1

// Snapshot is the state rendered by a View.
type Snapshot struct {
	Messages     []chat.Message
	Provider     chat.ProviderState
	Chat         *chat.Chat
	CurrentAgent *chat.Agent
	Typing       bool

	// Loading is true until the transport reports connected.
	Loading    bool
	Sending    bool
	Refreshing bool
	Ending     bool

	ScreenShareEnabled bool
	ScreenShare        screenshare.SessionState
	Dialog             screenshare.DialogKind
	// SessionCode and SessionURL identify the current screen-share session
	// for the agent. Empty while no session is negotiated.
	SessionCode        string
	SessionURL         string

	// Error is the last user-facing error, cleared by ClearError.
	Error string
}

// ChatID returns the current chat id, nil before the chat exists.
func (s Snapshot) ChatID() *int {
	if s.Chat == nil {
		return nil
	}
	id := s.Chat.ID
	return &id
}

// View receives snapshots from the dispatcher goroutine. Implementations
// must not call back into the Model synchronously.
type View interface {
	Update(s Snapshot)
}

// Config wires a Model.
type Config struct {
	Service chat.Service
	SDK     screenshare.SessionManager
	View    View
	// Alerter is notified about agent screen-share requests. Nil disables
	// alerts.
	Alerter notify.Alerter
	// Home is where the last chat is remembered. Empty disables it.
	Home     string
	MenuID   int
	Language string
	Now      func() time.Time
}

// Model is the chat view-model. All fields below dispatch are owned by the
// dispatcher goroutine.
type Model struct {
	service     chat.Service
	sdk         screenshare.SessionManager
	coordinator *screenshare.Coordinator
	view        View
	alerter     notify.Alerter
	home        string
	menuID      int
	language    string
	now         func() time.Time

	dispatch    *dispatcher
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
	closeOnce   sync.Once

	snap         Snapshot
	participants *chat.Participants
	historyPage  int
}

// New builds a Model and subscribes it to the chat service.
func New(cfg Config) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		service:      cfg.Service,
		sdk:          cfg.SDK,
		view:         cfg.View,
		alerter:      cfg.Alerter,
		home:         cfg.Home,
		menuID:       cfg.MenuID,
		language:     cfg.Language,
		now:          cfg.Now,
		dispatch:     newDispatcher(0),
		ctx:          ctx,
		cancel:       cancel,
		participants: chat.NewParticipants(),
		historyPage:  firstHistoryPage,
		snap: Snapshot{
			Provider:    chat.ProviderNone,
			Loading:     true,
			ScreenShare: cfg.SDK.SessionState(),
		},
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.alerter == nil {
		m.alerter = notify.Nop{}
	}
	if m.view == nil {
		m.view = nopView{}
	}
	m.coordinator = screenshare.NewCoordinator(cfg.SDK, m, m)
	m.unsubscribe = cfg.Service.Subscribe(listener{m})
	return m
}

type nopView struct{}

func (nopView) Update(Snapshot) {}

// Close unsubscribes from the service, stops the coordinator and waits for
// background work.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.unsubscribe()
		m.coordinator.Close()
		m.cancel()
		m.wg.Wait()
		m.dispatch.close()
	})
}

// Snapshot returns the current state.
func (m *Model) Snapshot() Snapshot {
	s, err := call(m.dispatch, func() Snapshot { return m.copySnapshot() })
	if err != nil {
		return Snapshot{}
	}
	return s
}

func (m *Model) copySnapshot() Snapshot {
	s := m.snap
	s.Messages = append([]chat.Message(nil), m.snap.Messages...)
	return s
}

// update mutates the snapshot on the dispatcher and publishes it.
func (m *Model) update(fn func(s *Snapshot)) {
	err := m.dispatch.do(func() {
		fn(&m.snap)
		m.view.Update(m.copySnapshot())
	})
	if err != nil {
		logger.Debugf("session: dropped update: %v", err)
	}
}

func (m *Model) setError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Errorf("session: %s", msg)
	m.update(func(s *Snapshot) { s.Error = msg })
}

// ClearError drops the current error message.
func (m *Model) ClearError() {
	m.update(func(s *Snapshot) { s.Error = "" })
}

// goAsync runs fn on a tracked goroutine bound to the model lifetime.
func (m *Model) goAsync(fn func(ctx context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn(m.ctx)
	}()
}

// StartChat opens a new chat from the configured menu.
func (m *Model) StartChat(ctx context.Context) error {
	c, err := m.service.Start(ctx, chat.StartRequest{
		MenuID:          m.menuID,
		ScreenShareable: m.sdk.IsAvailable(),
		Language:        m.language,
	})
	if err != nil {
		m.setError("Failed to start chat: %v", err)
		return err
	}
	m.remember(c)
	return nil
}

// ResumeChat reattaches to a chat that is still in progress.
func (m *Model) ResumeChat(ctx context.Context, c *chat.Chat) error {
	if err := m.service.Resume(ctx, c); err != nil {
		m.setError("Failed to start chat: %v", err)
		return err
	}
	if menu := c.LastMenuID(); menu > 0 {
		m.menuID = menu
	}
	m.remember(c)
	return nil
}

// EndChat ends the current chat and forgets it locally.
func (m *Model) EndChat(ctx context.Context) error {
	m.update(func(s *Snapshot) { s.Ending = true })
	err := m.service.End(ctx)
	m.update(func(s *Snapshot) { s.Ending = false })
	if err != nil {
		m.setError("Failed to end chat")
		return err
	}
	m.forget()
	return nil
}

// SendText sends trimmed text. Blank input is ignored.
func (m *Model) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return m.send(ctx, chat.TextContent{Text: text})
}

// SendScreenShareEvent implements screenshare.Notifier by posting an
// event-tagged message into the chat.
func (m *Model) SendScreenShareEvent(ctx context.Context, ev chat.MessageEvent, resp *screenshare.SessionResponse) error {
	payload, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("encode session response: %w", err)
	}
	if ev == chat.EventScreenShareCodeGenerated && resp != nil {
		code, url := resp.Code, resp.URL
		m.update(func(s *Snapshot) { s.SessionCode, s.SessionURL = code, url })
	}
	return m.send(ctx, chat.ScreenShareContent{Event: ev, Payload: payload})
}

func (m *Model) send(ctx context.Context, content chat.OutgoingContent) error {
	now := m.now()
	m.update(func(s *Snapshot) {
		s.Messages = append(s.Messages, chat.LocalEcho(content, m.participants.EndUser(), now)...)
		s.Sending = true
	})
	err := m.service.SendMessage(ctx, content)
	m.update(func(s *Snapshot) { s.Sending = false })
	if err != nil {
		logger.Errorf("session: send failed: %v", err)
		return err
	}
	return nil
}

// RefreshMessages loads the next page of history.
func (m *Model) RefreshMessages(ctx context.Context) error {
	m.update(func(s *Snapshot) { s.Refreshing = true })
	err := m.loadHistory(ctx)
	m.update(func(s *Snapshot) { s.Refreshing = false })
	if err != nil {
		m.setError("Failed to refresh messages")
	}
	return err
}

// loadHistory prepends the next history page. It is a no-op once the last
// page was loaded.
func (m *Model) loadHistory(ctx context.Context) error {
	page, err := call(m.dispatch, func() int { return m.historyPage })
	if err != nil || page <= 0 {
		return err
	}
	h, err := m.service.PreviousMessages(ctx, page)
	if err != nil {
		logger.Errorf("session: failed to load history page %d: %v", page, err)
		return err
	}
	m.update(func(s *Snapshot) {
		m.historyPage = h.NextPage
		for _, a := range h.Agents {
			m.participants.AddAgent(a)
		}
		older := m.participants.ToTranscriptAll(h.Messages)
		s.Messages = append(older, s.Messages...)
	})
	return nil
}

// ToggleScreenShare handles the screen-share control.
func (m *Model) ToggleScreenShare(ctx context.Context) error {
	c, err := call(m.dispatch, func() *chat.Chat { return m.snap.Chat })
	if err != nil {
		return err
	}
	var (
		status   chat.Status
		supports *bool
	)
	if c != nil {
		status, supports = c.Status, c.SupportsScreenShare
	}
	state, err := m.coordinator.Toggle(ctx, status, supports)
	if err != nil {
		m.update(func(s *Snapshot) { s.Error = toggleErrorText(err) })
		return err
	}
	logger.Debugf("session: screen share toggle in state %s", state)
	return nil
}

func toggleErrorText(err error) string {
	switch {
	case errors.Is(err, screenshare.ErrNotEnabled):
		return "Screen share is not available for this chat"
	case errors.Is(err, screenshare.ErrAlreadyStarting):
		return "Screen share is already starting"
	case errors.Is(err, screenshare.ErrServiceUnavailable):
		return "Screen share service is unavailable"
	default:
		return err.Error()
	}
}

// RespondDialog answers the pending screen-share dialog.
func (m *Model) RespondDialog(kind screenshare.DialogKind, resp screenshare.Response) {
	chatID, err := call(m.dispatch, func() *int { return m.snap.ChatID() })
	if err != nil {
		return
	}
	m.update(func(s *Snapshot) { s.Dialog = screenshare.DialogNone })
	m.coordinator.Respond(kind, resp, chatID)
}

// DismissDialog closes the pending dialog without answering it.
func (m *Model) DismissDialog() {
	m.update(func(s *Snapshot) { s.Dialog = screenshare.DialogNone })
	m.coordinator.Dismiss()
}

// ShowDialog implements screenshare.UI.
func (m *Model) ShowDialog(kind screenshare.DialogKind) {
	m.update(func(s *Snapshot) { s.Dialog = kind })
}

// SessionStateChanged implements screenshare.UI.
func (m *Model) SessionStateChanged(state screenshare.SessionState) {
	m.update(func(s *Snapshot) {
		s.ScreenShare = state
		if state != screenshare.SessionPending && state != screenshare.SessionActive {
			s.SessionCode, s.SessionURL = "", ""
		}
	})
}

// remember persists c as the chat to resume on the next launch.
func (m *Model) remember(c *chat.Chat) {
	if m.home == "" || c == nil {
		return
	}
	menu := c.LastMenuID()
	if menu == 0 {
		menu = m.menuID
	}
	last := storage.LastChat{ChatID: c.ID, MenuID: menu, UpdatedAtMs: m.now().UnixMilli()}
	if err := storage.SaveLastChat(m.home, last); err != nil {
		logger.Warnf("session: failed to remember chat %d: %v", c.ID, err)
	}
}

func (m *Model) forget() {
	if m.home == "" {
		return
	}
	if err := storage.ClearLastChat(m.home); err != nil {
		logger.Warnf("session: failed to forget last chat: %v", err)
	}
}
