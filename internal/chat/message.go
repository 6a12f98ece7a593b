package chat

import "time"

// MessageType tags the kind of content a message carries.
type MessageType string

const (
	TypeUnknown          MessageType = "unknown"
	TypeText             MessageType = "text"
	TypePhoto            MessageType = "photo"
	TypeVideo            MessageType = "video"
	TypeNotification     MessageType = "noti"
	TypeTextTemplate     MessageType = "text_template"
	TypeMarkdown         MessageType = "markdown"
	TypeMarkdownTemplate MessageType = "markdown_template"
	TypeInlineButton     MessageType = "inline_button"
	TypeStickyButton     MessageType = "sticky_button"
	TypeDocument         MessageType = "document"
	TypeImage            MessageType = "image"
	TypeContentCard      MessageType = "content_card"
	TypeForm             MessageType = "form"
	TypeFormComplete     MessageType = "form_complete"
	TypeServerMessage    MessageType = "server_message"
)

var knownTypes = map[MessageType]struct{}{
	TypeUnknown: {}, TypeText: {}, TypePhoto: {}, TypeVideo: {},
	TypeNotification: {}, TypeTextTemplate: {}, TypeMarkdown: {},
	TypeMarkdownTemplate: {}, TypeInlineButton: {}, TypeStickyButton: {},
	TypeDocument: {}, TypeImage: {}, TypeContentCard: {}, TypeForm: {},
	TypeFormComplete: {}, TypeServerMessage: {},
}

// ParseMessageType returns the type for a wire value and whether it is known.
func ParseMessageType(raw string) (MessageType, bool) {
	t := MessageType(raw)
	if _, ok := knownTypes[t]; !ok {
		return TypeUnknown, false
	}
	return t, true
}

// Body is the payload of an inbound chat message. Content is nil for
// messages the transport could not decode into text.
type Body struct {
	Type    MessageType
	Content *string
	Event   MessageEvent
}

// ChatMessage is one inbound message as delivered by the chat service.
type ChatMessage struct {
	ID     string
	Author *string
	Date   time.Time
	Body   Body
}

// Role distinguishes the local end user from everyone else.
type Role string

const (
	RoleCurrentUser Role = "current_user"
	RoleSystem      Role = "system"
)

// User is a transcript participant.
type User struct {
	ID   string
	Name string
	Role Role
}

// Attachment is a media reference on a transcript message.
type Attachment struct {
	URL  string
	Type MessageType
}

// Message is a transcript entry ready for display.
type Message struct {
	ID          string
	Text        string
	Attachments []Attachment
	User        User
	Type        MessageType
	CreatedAt   time.Time
	Event       MessageEvent
}
