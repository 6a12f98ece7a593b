package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
	"github.com/ccai-examples/ccai-demo/pkg/wire"
	"github.com/gin-gonic/gin"
)

const historyPageSize = 20

const agentRequestText = "The agent has requested to share your screen."

// api implements the end-user REST surface and the agent console.
type api struct {
	store   *Store
	hub     broadcaster
	signer  *Signer
	metrics *Metrics
}

// broadcaster fans chat events out to stream subscribers.
type broadcaster interface {
	Broadcast(chatID int, event string, payload any)
}

func (a *api) register(router *gin.Engine) {
	router.POST("/ccai/auth", a.postAuth)

	v1 := router.Group("/v1")
	v1.Use(authMiddleware(a.signer))
	{
		v1.POST("/chats", a.startChat)
		v1.GET("/chats/last-in-progress", a.lastInProgress)
		v1.GET("/chats/:id", a.getChat)
		v1.POST("/chats/:id/end", a.endChat)
		v1.GET("/chats/:id/messages", a.listMessages)
		v1.POST("/chats/:id/messages", a.sendMessage)
	}

	// The agent console is unauthenticated; the devserver only runs
	// locally.
	agent := router.Group("/agent/chats/:id")
	{
		agent.POST("/assign", a.agentAssign)
		agent.POST("/messages", a.agentMessage)
		agent.POST("/typing", a.agentTyping)
		agent.POST("/leave", a.agentLeave)
		agent.POST("/screen-share/request", a.agentScreenShare(chat.EventScreenShareRequestedByAgent, agentRequestText))
		agent.POST("/screen-share/end", a.agentScreenShare(chat.EventScreenShareEnded, ""))
		agent.POST("/end", a.agentEnd)
	}
}

func (a *api) postAuth(c *gin.Context) {
	var req wire.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	token, err := a.signer.Sign(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, wire.AuthResponse{Token: token})
}

func (a *api) startChat(c *gin.Context) {
	var req wire.StartChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MenuID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := a.store.CreateChat(c.Request.Context(), endUserID(c), req)
	if err != nil {
		logger.Errorf("Failed to create chat: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chat"})
		return
	}
	a.metrics.chatsStarted.Inc()
	logger.Infof("Chat %d started by %s (menu %d)", created.ID, created.EndUserID, req.MenuID)
	c.JSON(http.StatusOK, created)
}

func (a *api) lastInProgress(c *gin.Context) {
	found, err := a.store.LastInProgress(c.Request.Context(), endUserID(c))
	if errors.Is(err, ErrNotFound) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		logger.Errorf("Failed to load last chat: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}
	c.JSON(http.StatusOK, found)
}

func (a *api) getChat(c *gin.Context) {
	owned, ok := a.ownedChat(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, owned)
}

func (a *api) endChat(c *gin.Context) {
	owned, ok := a.ownedChat(c)
	if !ok {
		return
	}
	if chat.Status(owned.Status).IsTerminal() {
		c.JSON(http.StatusOK, owned)
		return
	}
	ended, ok := a.setStatus(c, owned.ID, string(chat.StatusFinished))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ended)
}

func (a *api) listMessages(c *gin.Context) {
	owned, ok := a.ownedChat(c)
	if !ok {
		return
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		page = p
	}
	msgs, next, err := a.store.History(c.Request.Context(), owned.ID, page, historyPageSize)
	if err != nil {
		logger.Errorf("Failed to load history of chat %d: %v", owned.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	resp := wire.HistoryResponse{Messages: msgs, Agents: []wire.Agent{}, NextPage: next}
	if resp.Messages == nil {
		resp.Messages = []wire.Message{}
	}
	if owned.CurrentAgent != nil {
		resp.Agents = append(resp.Agents, *owned.CurrentAgent)
	}
	c.JSON(http.StatusOK, resp)
}

func (a *api) sendMessage(c *gin.Context) {
	owned, ok := a.ownedChat(c)
	if !ok {
		return
	}
	if chat.Status(owned.Status).IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "chat has ended"})
		return
	}
	var req wire.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, known := chat.ParseMessageType(req.Type); !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message type"})
		return
	}
	if req.Type == string(chat.TypeText) && (req.Content == nil || strings.TrimSpace(*req.Content) == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text message without content"})
		return
	}

	author := owned.EndUserID
	stored, ok := a.addMessage(c, "end_user", wire.Message{
		ChatID:  owned.ID,
		Author:  &author,
		Type:    req.Type,
		Content: req.Content,
		Event:   req.Event,
		Payload: req.Payload,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, stored)
}

func (a *api) agentAssign(c *gin.Context) {
	target, ok := a.chatByParam(c)
	if !ok {
		return
	}
	var req wire.AgentAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AgentID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agentId is required"})
		return
	}
	if chat.Status(target.Status).IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "chat has ended"})
		return
	}
	supports := true
	if req.SupportScreenShare != nil {
		supports = *req.SupportScreenShare
	}
	agent := wire.Agent{ID: req.AgentID, DisplayName: req.DisplayName}
	assigned, err := a.store.AssignAgent(c.Request.Context(), target.ID, agent, supports)
	if err != nil {
		logger.Errorf("Failed to assign agent to chat %d: %v", target.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign agent"})
		return
	}
	a.hub.Broadcast(assigned.ID, wire.EventMember, wire.MemberEvent{ChatID: assigned.ID, Joined: true, Identity: agent.ID})
	a.hub.Broadcast(assigned.ID, wire.EventChat, assigned)
	c.JSON(http.StatusOK, assigned)
}

func (a *api) agentMessage(c *gin.Context) {
	target, agent, ok := a.assignedChat(c)
	if !ok {
		return
	}
	var req wire.AgentMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	text := req.Text
	stored, ok := a.addMessage(c, "agent", wire.Message{
		ChatID:  target.ID,
		Author:  &agent.ID,
		Type:    string(chat.TypeText),
		Content: &text,
	})
	if !ok {
		return
	}
	a.hub.Broadcast(target.ID, wire.EventTyping, wire.TypingEvent{ChatID: target.ID, Typing: false})
	c.JSON(http.StatusCreated, stored)
}

func (a *api) agentTyping(c *gin.Context) {
	target, _, ok := a.assignedChat(c)
	if !ok {
		return
	}
	var req struct {
		Typing bool `json:"typing"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	a.hub.Broadcast(target.ID, wire.EventTyping, wire.TypingEvent{ChatID: target.ID, Typing: req.Typing})
	c.Status(http.StatusNoContent)
}

func (a *api) agentLeave(c *gin.Context) {
	target, agent, ok := a.assignedChat(c)
	if !ok {
		return
	}
	switched, ok := a.setStatus(c, target.ID, string(chat.StatusSwitching))
	if !ok {
		return
	}
	a.hub.Broadcast(target.ID, wire.EventMember, wire.MemberEvent{ChatID: target.ID, Joined: false, Identity: agent.ID})
	c.JSON(http.StatusOK, switched)
}

// agentScreenShare posts a screen-share notification as the assigned agent.
func (a *api) agentScreenShare(event chat.MessageEvent, text string) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, agent, ok := a.assignedChat(c)
		if !ok {
			return
		}
		msg := wire.Message{
			ChatID: target.ID,
			Author: &agent.ID,
			Type:   string(chat.TypeNotification),
			Event:  string(event),
		}
		if text != "" {
			msg.Content = &text
		}
		stored, ok := a.addMessage(c, "agent", msg)
		if !ok {
			return
		}
		c.JSON(http.StatusCreated, stored)
	}
}

func (a *api) agentEnd(c *gin.Context) {
	target, ok := a.chatByParam(c)
	if !ok {
		return
	}
	if chat.Status(target.Status).IsTerminal() {
		c.JSON(http.StatusOK, target)
		return
	}
	ended, ok := a.setStatus(c, target.ID, string(chat.StatusFinished))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ended)
}

// setStatus updates the chat status and broadcasts the new chat.
func (a *api) setStatus(c *gin.Context, id int, status string) (*wire.Chat, bool) {
	updated, err := a.store.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		logger.Errorf("Failed to set chat %d to %s: %v", id, status, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update chat"})
		return nil, false
	}
	if chat.Status(status).IsTerminal() {
		a.metrics.chatsEnded.Inc()
	}
	a.hub.Broadcast(id, wire.EventChat, updated)
	return updated, true
}

// addMessage stores m and broadcasts it.
func (a *api) addMessage(c *gin.Context, role string, m wire.Message) (*wire.Message, bool) {
	stored, err := a.store.AddMessage(c.Request.Context(), m)
	if err != nil {
		logger.Errorf("Failed to store message in chat %d: %v", m.ChatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return nil, false
	}
	a.metrics.messageStored(role, m.Type)
	a.hub.Broadcast(m.ChatID, wire.EventMessages, wire.MessagesEvent{
		ChatID:   m.ChatID,
		Messages: []wire.Message{*stored},
	})
	return stored, true
}

func chatID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, false
	}
	return id, true
}

func (a *api) ownedChat(c *gin.Context) (*wire.Chat, bool) {
	id, ok := chatID(c)
	if !ok {
		return nil, false
	}
	owned, err := a.store.OwnedChat(c.Request.Context(), id, endUserID(c))
	return a.found(c, owned, err)
}

func (a *api) chatByParam(c *gin.Context) (*wire.Chat, bool) {
	id, ok := chatID(c)
	if !ok {
		return nil, false
	}
	target, err := a.store.Chat(c.Request.Context(), id)
	return a.found(c, target, err)
}

// assignedChat loads the chat and its current agent, rejecting chats no
// agent is assigned to.
func (a *api) assignedChat(c *gin.Context) (*wire.Chat, *wire.Agent, bool) {
	target, ok := a.chatByParam(c)
	if !ok {
		return nil, nil, false
	}
	if !chat.Status(target.Status).IsAssigned() || target.CurrentAgent == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no agent is assigned"})
		return nil, nil, false
	}
	return target, target.CurrentAgent, true
}

func (a *api) found(c *gin.Context, ch *wire.Chat, err error) (*wire.Chat, bool) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return nil, false
	}
	if err != nil {
		logger.Errorf("Failed to load chat: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return nil, false
	}
	return ch, true
}
