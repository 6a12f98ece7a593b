package chat

import "context"

// Agent is a platform agent taking part in a chat.
type Agent struct {
	ID          string
	DisplayName string
}

// Menu is a support menu the chat was started from.
type Menu struct {
	ID   int
	Name string
}

// Chat is the platform's view of a chat.
type Chat struct {
	ID                  int
	Status              Status
	SupportsScreenShare *bool
	CurrentAgent        *Agent
	Menus               []Menu
}

// LastMenuID returns the id of the most recent menu, or 0.
func (c *Chat) LastMenuID() int {
	if c == nil || len(c.Menus) == 0 {
		return 0
	}
	return c.Menus[len(c.Menus)-1].ID
}

// StartRequest opens a new chat from a support menu.
type StartRequest struct {
	MenuID          int
	ScreenShareable bool
	Language        string
}

// History is one page of previous messages. NextPage is -1 on the last page.
type History struct {
	Messages []ChatMessage
	Agents   []Agent
	NextPage int
}

// Listener receives the chat service streams. Methods are called from the
// transport's goroutines and must not block.
type Listener interface {
	MessagesReceived(msgs []ChatMessage)
	StateChanged(state ProviderState)
	Typing(ev TypingEvent)
	Member(ev MemberEvent)
	ChatUpdated(c *Chat)
}

// Service is the chat transport used by the session view-model.
type Service interface {
	Start(ctx context.Context, req StartRequest) (*Chat, error)
	Resume(ctx context.Context, c *Chat) error
	End(ctx context.Context) error
	SendMessage(ctx context.Context, content OutgoingContent) error
	PreviousMessages(ctx context.Context, page int) (*History, error)
	LastChatInProgress(ctx context.Context) (*Chat, error)
	CheckStatus(ctx context.Context) error

	// Subscribe registers l for every stream and returns a function that
	// removes it.
	Subscribe(l Listener) (unsubscribe func())
}
