package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/internal/config"
	"github.com/ccai-examples/ccai-demo/internal/storage"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
)

// ErrInvalidMenuID is returned when there is nothing to resume and the menu
// id entered by the user is not a number.
var ErrInvalidMenuID = errors.New("please enter a valid menu id")

// Entry is how the chat screen should be opened.
type Entry struct {
	// Resume is the chat to reattach to, nil to start a new chat.
	Resume *chat.Chat
	// MenuID is the menu for a new chat, or the resumed chat's last menu.
	MenuID int
	// Local marks a Resume candidate that was only known from local storage.
	Local bool
}

// ResolveEntry decides between resuming and starting. The platform's chat in
// progress wins, then the locally remembered one, then menuInput.
func ResolveEntry(ctx context.Context, svc chat.Service, home, menuInput string) (Entry, error) {
	c, err := svc.LastChatInProgress(ctx)
	if err != nil {
		return Entry{}, err
	}
	if c != nil {
		return Entry{Resume: c, MenuID: c.LastMenuID()}, nil
	}

	if home != "" {
		last, ok, err := storage.LoadLastChat(home)
		switch {
		case err != nil:
			logger.Warnf("session: ignoring unreadable last chat: %v", err)
		case ok:
			return Entry{
				Resume: &chat.Chat{ID: last.ChatID, Menus: []chat.Menu{{ID: last.MenuID}}},
				MenuID: last.MenuID,
				Local:  true,
			}, nil
		}
	}

	menu, ok := config.ParseMenuID(menuInput)
	if !ok {
		return Entry{}, ErrInvalidMenuID
	}
	return Entry{MenuID: menu}, nil
}

// Open resumes or starts the chat described by e. A locally remembered chat
// that has ended since is forgotten and a new chat is started instead.
func (m *Model) Open(ctx context.Context, e Entry) error {
	m.menuID = e.MenuID
	if e.Resume == nil {
		return m.StartChat(ctx)
	}

	err := m.service.Resume(ctx, e.Resume)
	switch {
	case err == nil:
		m.remember(e.Resume)
		return nil
	case e.Local && errors.Is(err, chat.ErrChatEnded):
		logger.Infof("session: remembered chat %d has ended, starting a new one", e.Resume.ID)
		m.forget()
		return m.StartChat(ctx)
	default:
		m.setError("Failed to start chat: %v", err)
		return fmt.Errorf("resume chat %d: %w", e.Resume.ID, err)
	}
}
