package session

import (
	"context"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/internal/notify"
	"github.com/ccai-examples/ccai-demo/internal/screenshare"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
)

// listener adapts chat service streams onto the Model dispatcher.
type listener struct {
	m *Model
}

var _ chat.Listener = listener{}

func (l listener) MessagesReceived(msgs []chat.ChatMessage) {
	m := l.m
	m.update(func(s *Snapshot) {
		s.Messages = append(s.Messages, m.participants.ToTranscriptAll(msgs)...)
	})
	m.coordinator.HandleInbound(msgs)

	if !screenshare.PendingAgentRequest(msgs) {
		return
	}
	chatID, err := call(m.dispatch, func() *int { return m.snap.ChatID() })
	if err != nil || chatID == nil {
		return
	}
	id := *chatID
	m.goAsync(func(ctx context.Context) {
		if err := m.alerter.Alert(ctx, notify.AgentScreenShareRequest(id)); err != nil {
			logger.Warnf("session: agent request alert: %v", err)
		}
	})
}

func (l listener) StateChanged(state chat.ProviderState) {
	m := l.m
	changed, err := call(m.dispatch, func() bool {
		if m.snap.Provider == state {
			return false
		}
		m.snap.Provider = state
		m.snap.Loading = state != chat.ProviderConnected
		m.view.Update(m.copySnapshot())
		return true
	})
	if err != nil || !changed {
		return
	}

	if state == chat.ProviderConnecting {
		m.goAsync(func(ctx context.Context) {
			_ = m.loadHistory(ctx)
		})
	}
	m.goAsync(m.checkStatus)
}

func (l listener) Typing(ev chat.TypingEvent) {
	l.m.update(func(s *Snapshot) { s.Typing = ev.Typing })
}

func (l listener) Member(ev chat.MemberEvent) {
	m := l.m
	if ev.Joined {
		logger.Debugf("session: %s joined", ev.Identity)
	} else {
		logger.Debugf("session: %s left", ev.Identity)
		if ev.Identity != "" {
			_ = m.dispatch.do(func() { m.participants.Remove(ev.Identity) })
		}
	}
	m.goAsync(m.checkStatus)
}

func (l listener) ChatUpdated(c *chat.Chat) {
	m := l.m
	m.update(func(s *Snapshot) {
		s.Chat = c
		if c == nil {
			s.ScreenShareEnabled = false
			return
		}
		s.ScreenShareEnabled = screenshare.IsEnabled(c.Status, c.SupportsScreenShare, m.sdk)
		if a := c.CurrentAgent; a != nil && a.ID != "" {
			if s.CurrentAgent == nil || s.CurrentAgent.ID != a.ID {
				agent := *a
				s.CurrentAgent = &agent
			}
			m.participants.AddAgent(*a)
		}
	})
	if c != nil && c.Status.IsTerminal() {
		m.forget()
	}
}

func (m *Model) checkStatus(ctx context.Context) {
	if err := m.service.CheckStatus(ctx); err != nil {
		logger.Debugf("session: check status: %v", err)
	}
}
