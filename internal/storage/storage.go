// Package storage persists the demo client's local state under its home
// directory: the chat that was last in progress and the cached end-user
// token.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	lastChatFile    = "last_chat.json"
	accessTokenFile = "access.token"
)

// LastChat remembers the chat to resume on the next launch.
type LastChat struct {
	// ChatID is the platform chat id.
	ChatID int `json:"chatId"`
	// MenuID is the support menu the chat was started from.
	MenuID int `json:"menuId"`
	// UpdatedAtMs is the wall-clock timestamp of the most recent write.
	UpdatedAtMs int64 `json:"updatedAtMs,omitempty"`
}

// LoadLastChat reads the last chat in progress.
//
// ok is false when none was saved.
func LoadLastChat(home string) (chat LastChat, ok bool, err error) {
	path, err := statePath(home, lastChatFile)
	if err != nil {
		return LastChat{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LastChat{}, false, nil
		}
		return LastChat{}, false, err
	}
	if err := json.Unmarshal(data, &chat); err != nil {
		return LastChat{}, false, fmt.Errorf("decode %s: %w", path, err)
	}
	return chat, true, nil
}

// SaveLastChat records c as the chat in progress.
func SaveLastChat(home string, c LastChat) error {
	if c.ChatID <= 0 {
		return fmt.Errorf("invalid chat id %d", c.ChatID)
	}
	path, err := statePath(home, lastChatFile)
	if err != nil {
		return err
	}
	c.UpdatedAtMs = time.Now().UnixMilli()
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return writeAtomic(path, raw)
}

// ClearLastChat forgets the chat in progress.
func ClearLastChat(home string) error {
	path, err := statePath(home, lastChatFile)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadAccessToken reads the cached end-user token. ok is false when no
// token was cached.
func LoadAccessToken(home string) (token string, ok bool, err error) {
	path, err := statePath(home, accessTokenFile)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	token = strings.TrimSpace(string(data))
	return token, token != "", nil
}

// SaveAccessToken caches token with owner-only permissions.
func SaveAccessToken(home, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("empty token")
	}
	path, err := statePath(home, accessTokenFile)
	if err != nil {
		return err
	}
	return writeAtomic(path, []byte(token))
}

// ClearAccessToken removes the cached token.
func ClearAccessToken(home string) error {
	path, err := statePath(home, accessTokenFile)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func statePath(home, name string) (string, error) {
	if strings.TrimSpace(home) == "" {
		return "", fmt.Errorf("missing ccai home")
	}
	return filepath.Join(home, name), nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
