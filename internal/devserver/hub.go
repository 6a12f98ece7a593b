package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ccai-examples/ccai-demo/pkg/logger"
	"github.com/ccai-examples/ccai-demo/pkg/wire"
	"github.com/gin-gonic/gin"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"
)

const (
	socketPingInterval = 10 * time.Second
	socketPingTimeout  = 20 * time.Second
)

// subscriber is one authenticated stream connection.
type subscriber struct {
	endUserID string
	emit      func(event string, payload any)

	mu    sync.Mutex
	chats map[int]struct{}
}

func (s *subscriber) joined(chatID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.chats[chatID]
	return ok
}

// Hub is the chat stream: it authenticates Socket.IO connections, lets
// them join chats they own and fans chat events out to them.
type Hub struct {
	server  *socket.Server
	signer  *Signer
	store   *Store
	metrics *Metrics

	subs sync.Map // socket id -> *subscriber
}

// NewHub creates the Socket.IO server mounted at wire.SocketPath.
func NewHub(signer *Signer, store *Store, metrics *Metrics) *Hub {
	opts := socket.DefaultServerOptions()
	opts.SetCors(&sockettypes.Cors{
		Origin:      "*",
		Credentials: false,
	})
	opts.SetPingInterval(socketPingInterval)
	opts.SetPingTimeout(socketPingTimeout)
	opts.SetPath(wire.SocketPath)

	h := &Hub{
		server:  socket.NewServer(nil, opts),
		signer:  signer,
		store:   store,
		metrics: metrics,
	}
	h.server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		h.handleConnection(client)
	})
	return h
}

func (h *Hub) handleConnection(client *socket.Socket) {
	socketID := string(client.Id())

	endUserID, err := h.authenticate(client.Handshake().Auth)
	if err != nil {
		logger.Warnf("Chat stream auth rejected (socket %s): %v", socketID, err)
		client.Emit("error", map[string]string{"message": err.Error()})
		client.Disconnect(true)
		return
	}

	sub := &subscriber{
		endUserID: endUserID,
		emit: func(event string, payload any) {
			client.Emit(event, payload)
		},
		chats: make(map[int]struct{}),
	}
	h.addSubscriber(socketID, sub)
	logger.Infof("Chat stream connected (end user %s, socket %s)", endUserID, socketID)

	client.On(wire.EventJoin, func(data ...any) {
		raw, ack := getFirstAnyWithAck(data)
		res := h.join(context.Background(), sub, raw)
		if res.Result != "success" {
			logger.Warnf("Chat join rejected (socket %s): %s", socketID, res.Message)
		}
		if ack != nil {
			ack(res)
		}
	})

	client.On("disconnect", func(data ...any) {
		reason := ""
		if len(data) > 0 {
			if r, ok := data[0].(string); ok {
				reason = r
			}
		}
		logger.Infof("Chat stream disconnected (end user %s, socket %s, reason: %s)", endUserID, socketID, reason)
		h.removeSubscriber(socketID)
	})
}

// authenticate checks the handshake auth map and returns the end user id
// of its token.
func (h *Hub) authenticate(auth map[string]any) (string, error) {
	if len(auth) == 0 {
		return "", errors.New("missing authentication data")
	}
	token, _ := auth["token"].(string)
	if token == "" {
		return "", errors.New("missing token")
	}
	claims, err := h.signer.Verify(token)
	if err != nil {
		// The client refreshes its token when it sees a 401.
		return "", fmt.Errorf("401 unauthorized: %v", err)
	}
	return claims.Subject, nil
}

func (h *Hub) join(ctx context.Context, sub *subscriber, raw any) wire.JoinAck {
	var req wire.JoinRequest
	if err := wire.Decode(raw, &req); err != nil || req.ChatID <= 0 {
		h.metrics.joinFailures.Inc()
		return wire.JoinAck{Result: "error", Message: "invalid join request"}
	}
	if _, err := h.store.OwnedChat(ctx, req.ChatID, sub.endUserID); err != nil {
		h.metrics.joinFailures.Inc()
		if errors.Is(err, ErrNotFound) {
			return wire.JoinAck{Result: "error", Message: "chat not found"}
		}
		return wire.JoinAck{Result: "error", Message: "failed to load chat"}
	}

	sub.mu.Lock()
	sub.chats[req.ChatID] = struct{}{}
	sub.mu.Unlock()
	return wire.JoinAck{Result: "success"}
}

func (h *Hub) addSubscriber(id string, sub *subscriber) {
	h.subs.Store(id, sub)
	h.metrics.activeSockets.Inc()
}

func (h *Hub) removeSubscriber(id string) {
	if _, ok := h.subs.LoadAndDelete(id); ok {
		h.metrics.activeSockets.Dec()
	}
}

// Broadcast emits event to every connection that joined chatID.
func (h *Hub) Broadcast(chatID int, event string, payload any) {
	h.subs.Range(func(key, value any) bool {
		sub, ok := value.(*subscriber)
		if !ok || !sub.joined(chatID) {
			return true
		}
		logger.Tracef("Emitting %s for chat %d (socket %v)", event, chatID, key)
		sub.emit(event, payload)
		return true
	})
}

// Handler returns a Gin handler serving the Socket.IO endpoint.
func (h *Hub) Handler() gin.HandlerFunc {
	httpHandler := h.server.ServeHandler(nil)

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "false")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusOK)
			return
		}
		httpHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// Close shuts the Socket.IO server down.
func (h *Hub) Close() {
	h.server.Close(nil)
}

func getFirstAnyWithAck(data []any) (any, func(...any)) {
	var ack func(...any)
	if len(data) == 0 {
		return nil, nil
	}
	if cb, ok := data[len(data)-1].(func(...any)); ok {
		ack = cb
		data = data[:len(data)-1]
	} else if cb, ok := data[len(data)-1].(socket.Ack); ok {
		ack = func(args ...any) {
			cb(args, nil)
		}
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, ack
	}
	return data[0], ack
}
