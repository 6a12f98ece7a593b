package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
	"github.com/ccai-examples/ccai-demo/pkg/wire"
)

// ErrUnauthorized is returned when the backend rejects the token twice.
var ErrUnauthorized = errors.New("unauthorized")

// errNotFound marks a 404 so callers can map it to "nothing there".
var errNotFound = errors.New("not found")

// Start implements chat.Service.
func (c *Client) Start(ctx context.Context, req chat.StartRequest) (*chat.Chat, error) {
	body := wire.StartChatRequest{
		MenuID:          req.MenuID,
		ScreenShareable: req.ScreenShareable,
		Language:        req.Language,
	}
	var wc wire.Chat
	if err := c.do(ctx, http.MethodPost, "/v1/chats", body, &wc); err != nil {
		return nil, fmt.Errorf("start chat: %w", err)
	}
	logger.Infof("websocket: started chat %d from menu %d", wc.ID, req.MenuID)

	c.setCurrent(&wc)
	if err := c.dialFn(ctx); err != nil {
		return nil, err
	}
	return chatFromWire(&wc), nil
}

// Resume implements chat.Service.
func (c *Client) Resume(ctx context.Context, ch *chat.Chat) error {
	if ch == nil {
		return chat.ErrNoActiveChat
	}
	var wc wire.Chat
	if err := c.do(ctx, http.MethodGet, chatPath(ch.ID), nil, &wc); err != nil {
		return fmt.Errorf("resume chat %d: %w", ch.ID, err)
	}
	if chat.Status(wc.Status).IsTerminal() {
		return fmt.Errorf("resume chat %d: %w", ch.ID, chat.ErrChatEnded)
	}
	logger.Infof("websocket: resuming chat %d", wc.ID)

	c.disconnect()
	c.setCurrent(&wc)
	return c.dialFn(ctx)
}

// End implements chat.Service.
func (c *Client) End(ctx context.Context) error {
	wc := c.currentChat()
	if wc == nil {
		return chat.ErrNoActiveChat
	}
	var ended wire.Chat
	if err := c.do(ctx, http.MethodPost, chatPath(wc.ID)+"/end", nil, &ended); err != nil {
		return fmt.Errorf("end chat %d: %w", wc.ID, err)
	}
	c.disconnect()
	c.setCurrent(&ended)
	c.setState(chat.ProviderDisconnected)
	return nil
}

// SendMessage implements chat.Service.
func (c *Client) SendMessage(ctx context.Context, content chat.OutgoingContent) error {
	wc := c.currentChat()
	if wc == nil {
		return chat.ErrNoActiveChat
	}
	if chat.Status(wc.Status).IsTerminal() {
		return chat.ErrChatEnded
	}
	body, err := outgoingToWire(content)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPost, chatPath(wc.ID)+"/messages", body, nil); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// PreviousMessages implements chat.Service.
func (c *Client) PreviousMessages(ctx context.Context, page int) (*chat.History, error) {
	wc := c.currentChat()
	if wc == nil {
		return nil, chat.ErrNoActiveChat
	}
	var resp wire.HistoryResponse
	path := chatPath(wc.ID) + "/messages?page=" + strconv.Itoa(page)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return historyFromWire(&resp), nil
}

// LastChatInProgress implements chat.Service. It returns nil without error
// when the end user has no open chat.
func (c *Client) LastChatInProgress(ctx context.Context) (*chat.Chat, error) {
	var wc wire.Chat
	err := c.do(ctx, http.MethodGet, "/v1/chats/last-in-progress", nil, &wc)
	switch {
	case errors.Is(err, errNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("last chat in progress: %w", err)
	}
	return chatFromWire(&wc), nil
}

// CheckStatus implements chat.Service.
func (c *Client) CheckStatus(ctx context.Context) error {
	wc := c.currentChat()
	if wc == nil {
		return chat.ErrNoActiveChat
	}
	var fresh wire.Chat
	if err := c.do(ctx, http.MethodGet, chatPath(wc.ID), nil, &fresh); err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	c.setCurrent(&fresh)
	return nil
}

func chatPath(id int) string {
	return "/v1/chats/" + strconv.Itoa(id)
}

// do performs an authenticated JSON request. A 401 invalidates the token
// and retries once.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	err := c.doOnce(ctx, method, path, in, out)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}
	logger.Debugf("websocket: %s %s unauthorized, refreshing token", method, path)
	c.tokens.Invalidate()
	return c.doOnce(ctx, method, path, in, out)
}

func (c *Client) doOnce(ctx context.Context, method, path string, in, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNoContent:
		return errNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var e wire.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
