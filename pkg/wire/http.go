// Package wire defines the JSON payloads exchanged between the demo client
// and the chat backend, over HTTP and Socket.IO.
package wire

import "encoding/json"

// AuthRequest is the HTTP POST /ccai/auth request body sent to the signing
// server.
type AuthRequest struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// AuthResponse is the HTTP POST /ccai/auth response body.
type AuthResponse struct {
	// Token is the signed end-user JWT.
	Token string `json:"token"`
}

// ErrorResponse is returned by the backend on any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StartChatRequest is the HTTP POST /v1/chats request body.
type StartChatRequest struct {
	// MenuID is the support menu the chat is started from.
	MenuID int `json:"menuId"`
	// ScreenShareable tells the platform the client can share its screen.
	ScreenShareable bool `json:"screenShareable"`
	// Language is the end user's preferred language.
	Language string `json:"language,omitempty"`
}

// Chat is a chat object as returned by the backend.
type Chat struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
	// SupportScreenShare is null when the platform did not decide yet.
	SupportScreenShare *bool  `json:"supportScreenShare"`
	CurrentAgent       *Agent `json:"currentAgent,omitempty"`
	Menus              []Menu `json:"menus,omitempty"`
	// EndUserID is the participant id of the chat's end user.
	EndUserID string `json:"endUserId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Agent is an agent participating in a chat.
type Agent struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// Menu is a support menu reference.
type Menu struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// Message is a chat message as stored and streamed by the backend.
type Message struct {
	ID     string  `json:"id"`
	ChatID int     `json:"chatId"`
	Author *string `json:"author"`
	Type   string  `json:"type"`
	// Content is null for messages without a text body.
	Content *string `json:"content"`
	// Event is the screen-share event tag, empty for ordinary messages.
	Event string `json:"event,omitempty"`
	// Payload carries the screen-share session response for
	// code-generated events.
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt int64           `json:"createdAt"`
}

// HistoryResponse is the HTTP GET /v1/chats/:id/messages response body.
type HistoryResponse struct {
	Messages []Message `json:"messages"`
	Agents   []Agent   `json:"agents"`
	// NextPage is -1 when there are no more pages.
	NextPage int `json:"nextPage"`
}

// SendMessageRequest is the HTTP POST /v1/chats/:id/messages request body.
type SendMessageRequest struct {
	Type    string          `json:"type"`
	Content *string         `json:"content,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AgentAssignRequest is the agent console request assigning an agent.
type AgentAssignRequest struct {
	AgentID            string `json:"agentId"`
	DisplayName        string `json:"displayName"`
	SupportScreenShare *bool  `json:"supportScreenShare,omitempty"`
}

// AgentMessageRequest is the agent console request sending a message as the
// assigned agent.
type AgentMessageRequest struct {
	Text string `json:"text"`
}
