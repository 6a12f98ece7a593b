// Package websocket is the chat transport: REST calls for chat lifecycle and
// history, and a Socket.IO stream for live messages, typing, membership and
// chat updates.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
	"github.com/ccai-examples/ccai-demo/pkg/wire"
	socket "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

const (
	defaultRequestTimeout = 15 * time.Second
	// refreshBackoff limits how often connect errors may trigger a token
	// refresh.
	refreshBackoff = 30 * time.Second
)

// TokenSource provides bearer tokens for the backend.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Client implements chat.Service against the chat backend.
type Client struct {
	serverURL  string
	tokens     TokenSource
	httpClient *http.Client

	mu            sync.RWMutex
	socket        *socket.Socket
	current       *wire.Chat
	state         chat.ProviderState
	listeners     map[int]chat.Listener
	nextListener  int
	lastRefreshAt time.Time

	// dialFn opens the stream for the current chat; replaced in tests.
	dialFn func(ctx context.Context) error
	// reconnectFn reopens the stream after a token refresh.
	reconnectFn func() error
}

var _ chat.Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for REST calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a client for the backend at serverURL.
func NewClient(serverURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		state:      chat.ProviderNone,
		listeners:  make(map[int]chat.Listener),
	}
	c.dialFn = c.dial
	c.reconnectFn = func() error {
		c.disconnect()
		return c.dialFn(context.Background())
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe implements chat.Service.
func (c *Client) Subscribe(l chat.Listener) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// State returns the current provider state.
func (c *Client) State() chat.ProviderState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Close tears down the stream. The client may be reused with Resume.
func (c *Client) Close() error {
	c.disconnect()
	c.setState(chat.ProviderNone)
	return nil
}

func (c *Client) snapshotListeners() []chat.Listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]chat.Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		out = append(out, l)
	}
	return out
}

func (c *Client) setState(state chat.ProviderState) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()

	logger.Debugf("websocket: provider state %s", state)
	for _, l := range c.snapshotListeners() {
		l.StateChanged(state)
	}
}

func (c *Client) currentChat() *wire.Chat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// setCurrent stores wc and fans it out to listeners.
func (c *Client) setCurrent(wc *wire.Chat) {
	c.mu.Lock()
	c.current = wc
	c.mu.Unlock()

	converted := chatFromWire(wc)
	for _, l := range c.snapshotListeners() {
		l.ChatUpdated(converted)
	}
}

// dial connects the Socket.IO stream and joins the current chat once the
// connection is up.
func (c *Client) dial(ctx context.Context) error {
	wc := c.currentChat()
	if wc == nil {
		return chat.ErrNoActiveChat
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	c.setState(chat.ProviderConnecting)

	opts := socket.DefaultOptions()
	opts.SetPath(wire.SocketPath)
	opts.SetTransports(types.NewSet(socket.Polling, socket.WebSocket))
	opts.SetAuth(map[string]any{"token": token})

	sock, err := socket.Connect(c.serverURL, opts)
	if err != nil {
		c.setState(chat.ProviderDisconnected)
		return fmt.Errorf("failed to connect: %w", err)
	}

	chatID := wc.ID
	sock.On(types.EventName("connect"), func(args ...any) {
		logger.Debugf("websocket: connected id=%s", sock.Id())
		c.join(sock, chatID)
	})
	sock.On(types.EventName("disconnect"), func(args ...any) {
		reason := ""
		if len(args) > 0 {
			reason, _ = args[0].(string)
		}
		logger.Debugf("websocket: disconnected: %s", reason)
		c.setState(chat.ProviderDisconnected)
	})
	sock.On(types.EventName("connect_error"), func(args ...any) {
		if len(args) > 0 {
			logger.Warnf("websocket: connection error: %v", args[0])
		}
		c.maybeRefreshToken(args)
	})
	// The server rejects a bad handshake token with an error event before
	// disconnecting.
	sock.On(types.EventName("error"), func(args ...any) {
		c.maybeRefreshToken(args)
	})
	sock.On(types.EventName(wire.EventMessages), func(args ...any) { c.handleMessages(firstArg(args)) })
	sock.On(types.EventName(wire.EventChat), func(args ...any) { c.handleChat(firstArg(args)) })
	sock.On(types.EventName(wire.EventTyping), func(args ...any) { c.handleTyping(firstArg(args)) })
	sock.On(types.EventName(wire.EventMember), func(args ...any) { c.handleMember(firstArg(args)) })

	c.mu.Lock()
	c.socket = sock
	c.mu.Unlock()
	return nil
}

func (c *Client) join(sock *socket.Socket, chatID int) {
	payload, err := wire.Encode(wire.JoinRequest{ChatID: chatID})
	if err != nil {
		logger.Errorf("websocket: encode join: %v", err)
		return
	}
	sock.Emit(wire.EventJoin, payload, func(args []any, err error) {
		if err != nil {
			logger.Warnf("websocket: join chat %d: %v", chatID, err)
			c.setState(chat.ProviderDisconnected)
			return
		}
		var ack wire.JoinAck
		if err := wire.Decode(firstArg(args), &ack); err != nil || ack.Result != "success" {
			logger.Warnf("websocket: join chat %d rejected: %s", chatID, ack.Message)
			c.setState(chat.ProviderDisconnected)
			return
		}
		c.setState(chat.ProviderConnected)
	})
}

func (c *Client) disconnect() {
	c.mu.Lock()
	sock := c.socket
	c.socket = nil
	c.mu.Unlock()
	if sock != nil {
		sock.Disconnect()
	}
}

// maybeRefreshToken reacts to authentication failures on connect by fetching
// a fresh token and reconnecting.
func (c *Client) maybeRefreshToken(args []any) {
	if len(args) == 0 || !isAuthError(fmt.Sprint(args[0])) {
		return
	}
	c.mu.Lock()
	if time.Since(c.lastRefreshAt) < refreshBackoff {
		c.mu.Unlock()
		return
	}
	c.lastRefreshAt = time.Now()
	c.mu.Unlock()

	go func() {
		c.tokens.Invalidate()
		if err := c.reconnectFn(); err != nil {
			logger.Warnf("websocket: reconnect after token refresh: %v", err)
		}
	}()
}

func isAuthError(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized")
}

func firstArg(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func (c *Client) handleMessages(payload any) {
	var ev wire.MessagesEvent
	if err := wire.Decode(payload, &ev); err != nil {
		logger.Warnf("websocket: bad %s payload: %v", wire.EventMessages, err)
		return
	}
	wc := c.currentChat()
	if wc == nil || ev.ChatID != wc.ID {
		return
	}

	msgs := make([]chat.ChatMessage, 0, len(ev.Messages))
	for _, m := range ev.Messages {
		// The end user's own sends are already echoed locally.
		if m.Author != nil && wc.EndUserID != "" && *m.Author == wc.EndUserID {
			continue
		}
		msgs = append(msgs, messageFromWire(m))
	}
	if len(msgs) == 0 {
		return
	}
	logger.Tracef("websocket: %d message(s) for chat %d", len(msgs), ev.ChatID)
	for _, l := range c.snapshotListeners() {
		l.MessagesReceived(msgs)
	}
}

func (c *Client) handleChat(payload any) {
	var wc wire.Chat
	if err := wire.Decode(payload, &wc); err != nil {
		logger.Warnf("websocket: bad %s payload: %v", wire.EventChat, err)
		return
	}
	if cur := c.currentChat(); cur == nil || cur.ID != wc.ID {
		return
	}
	c.setCurrent(&wc)
}

func (c *Client) handleTyping(payload any) {
	var ev wire.TypingEvent
	if err := wire.Decode(payload, &ev); err != nil {
		logger.Warnf("websocket: bad %s payload: %v", wire.EventTyping, err)
		return
	}
	for _, l := range c.snapshotListeners() {
		l.Typing(chat.TypingEvent{Typing: ev.Typing})
	}
}

func (c *Client) handleMember(payload any) {
	var ev wire.MemberEvent
	if err := wire.Decode(payload, &ev); err != nil {
		logger.Warnf("websocket: bad %s payload: %v", wire.EventMember, err)
		return
	}
	for _, l := range c.snapshotListeners() {
		l.Member(chat.MemberEvent{Joined: ev.Joined, Identity: ev.Identity})
	}
}
