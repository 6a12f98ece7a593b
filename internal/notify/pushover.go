// Package notify delivers out-of-band alerts to the end user's phone when
// the chat needs attention, such as an agent asking to see the screen.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// pushoverEndpoint is the Pushover API endpoint used for message delivery.
	pushoverEndpoint = "https://api.pushover.net/1/messages.json"
	// pushoverContentType is the HTTP form content type required by Pushover.
	pushoverContentType = "application/x-www-form-urlencoded"
	// defaultPushoverTimeout is the HTTP timeout used for Pushover requests.
	defaultPushoverTimeout = 10 * time.Second
	// defaultCooldown spaces repeated alerts for the same chat.
	defaultCooldown = time.Minute
)

// Alert is one notification.
type Alert struct {
	Title   string
	Message string
	// Key de-duplicates alerts within the cooldown window.
	Key string
}

// Alerter delivers alerts.
type Alerter interface {
	Alert(ctx context.Context, a Alert) error
}

// Nop is an Alerter that drops everything.
type Nop struct{}

// Alert implements Alerter.
func (Nop) Alert(context.Context, Alert) error { return nil }

// AgentScreenShareRequest builds the alert sent when an agent asks to see
// the screen of chatID.
func AgentScreenShareRequest(chatID int) Alert {
	return Alert{
		Title:   "Screen share request",
		Message: fmt.Sprintf("An agent is asking to view your screen in chat %d.", chatID),
		Key:     "screen-share-request:" + strconv.Itoa(chatID),
	}
}

// PushoverConfig describes the credentials and defaults for Pushover delivery.
type PushoverConfig struct {
	// Token is the application API token.
	Token string
	// UserKey is the destination user key.
	UserKey string
	// Priority is the Pushover priority value for messages.
	Priority int
	// Cooldown is the minimum interval between alerts per key. Zero uses
	// the default; negative is rejected.
	Cooldown time.Duration
	// Endpoint overrides the API URL.
	Endpoint string
	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
}

// Pushover sends alerts through the Pushover service.
type Pushover struct {
	cfg    PushoverConfig
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	lastSent  map[string]time.Time
	lastError error
}

var _ Alerter = (*Pushover)(nil)

// NewPushover validates cfg and returns an Alerter.
func NewPushover(cfg PushoverConfig) (*Pushover, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("pushover token is required")
	}
	if strings.TrimSpace(cfg.UserKey) == "" {
		return nil, fmt.Errorf("pushover user key is required")
	}
	if cfg.Cooldown < 0 {
		return nil, fmt.Errorf("pushover cooldown must be non-negative")
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = pushoverEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultPushoverTimeout}
	}
	return &Pushover{
		cfg:      cfg,
		client:   client,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}, nil
}

// Alert sends a unless an alert with the same key went out within the
// cooldown window.
func (p *Pushover) Alert(ctx context.Context, a Alert) error {
	key := strings.TrimSpace(a.Key)
	if key == "" {
		return fmt.Errorf("pushover alert key is required")
	}
	if strings.TrimSpace(a.Message) == "" {
		return fmt.Errorf("pushover message is required")
	}

	now := p.now()
	if !p.shouldSend(key, now) {
		return nil
	}
	if err := p.send(ctx, a); err != nil {
		p.mu.Lock()
		p.lastError = err
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.lastSent[key] = now
	p.lastError = nil
	p.mu.Unlock()
	return nil
}

// LastError returns the most recent send error, if any.
func (p *Pushover) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError
}

func (p *Pushover) shouldSend(key string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSent[key]
	return !ok || now.Sub(last) >= p.cfg.Cooldown
}

func (p *Pushover) send(ctx context.Context, a Alert) error {
	form := url.Values{}
	form.Set("token", p.cfg.Token)
	form.Set("user", p.cfg.UserKey)
	form.Set("message", a.Message)
	if title := strings.TrimSpace(a.Title); title != "" {
		form.Set("title", title)
	}
	if p.cfg.Priority != 0 {
		form.Set("priority", strconv.Itoa(p.cfg.Priority))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("pushover request build failed: %w", err)
	}
	req.Header.Set("Content-Type", pushoverContentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pushover response read failed: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("pushover response %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}
