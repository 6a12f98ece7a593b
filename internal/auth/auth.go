// Package auth obtains the end-user token from the signing server and keeps
// it cached under the client home.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/storage"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
	"github.com/ccai-examples/ccai-demo/pkg/wire"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// tokenRefreshWindow is how soon before expiry we refresh the token.
	tokenRefreshWindow = 10 * time.Minute

	requestTimeout = 10 * time.Second
)

// ErrNoToken is returned when the signing server answers without a token.
var ErrNoToken = errors.New("signing server returned no token")

// DefaultIdentity is the end user the demo signs in as.
var DefaultIdentity = wire.AuthRequest{
	Name:       "Terminal User",
	Identifier: "terminal_user",
	Email:      "terminal@example.com",
	Phone:      "+1234567890",
}

// Client fetches and caches end-user tokens.
type Client struct {
	signingURL string
	home       string
	identity   wire.AuthRequest
	httpClient *http.Client
	now        func() time.Time

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithIdentity overrides the identity sent to the signing server.
func WithIdentity(id wire.AuthRequest) Option {
	return func(c *Client) { c.identity = id }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient returns a client for the signing server at signingURL. home may
// be empty to disable on-disk caching.
func NewClient(signingURL, home string, opts ...Option) *Client {
	c := &Client{
		signingURL: strings.TrimRight(signingURL, "/"),
		home:       home,
		identity:   DefaultIdentity,
		httpClient: &http.Client{Timeout: requestTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a usable token, refreshing it when it is missing or about
// to expire.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" && c.home != "" {
		cached, ok, err := storage.LoadAccessToken(c.home)
		if err != nil {
			logger.Warnf("auth: ignoring unreadable token cache: %v", err)
		} else if ok {
			c.token = cached
		}
	}
	if c.token != "" && !c.expiringSoon(c.token) {
		return c.token, nil
	}

	token, err := c.requestToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	if c.home != "" {
		if err := storage.SaveAccessToken(c.home, token); err != nil {
			logger.Warnf("auth: failed to cache token: %v", err)
		}
	}
	return token, nil
}

// Invalidate drops the cached token so the next Token call signs in again.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	if c.home != "" {
		if err := storage.ClearAccessToken(c.home); err != nil {
			logger.Debugf("auth: failed to clear token cache: %v", err)
		}
	}
}

// expiringSoon reports whether token is expired or expires within the
// refresh window. Tokens that cannot be parsed are treated as expired.
func (c *Client) expiringSoon(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		// No expiry: the server stays authoritative and will reject it.
		return false
	}
	return claims.ExpiresAt.Time.Sub(c.now()) <= tokenRefreshWindow
}

func (c *Client) requestToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(c.identity)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.signingURL + "/ccai/auth"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("auth request failed: %s - %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var out wire.AuthResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", ErrNoToken
	}
	logger.Debugf("auth: obtained end-user token for %s", c.identity.Identifier)
	return out.Token, nil
}
