// Package config loads the demo client configuration: the platform
// environment file plus CCAI_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env"
)

// ErrEnvironment is returned when the environment file is missing or
// invalid.
var ErrEnvironment = errors.New("environment configuration not found or invalid")

const (
	defaultEnvironmentFile = "environment.json"
	defaultSigningURL      = "http://localhost:3000"
	defaultLanguage        = "en"
)

// Environment is the platform account configuration, as stored in
// environment.json.
type Environment struct {
	Key               string `json:"key" env:"CCAI_KEY"`
	Hostname          string `json:"hostname" env:"CCAI_HOSTNAME"`
	ScreenShareKey    string `json:"screenShareKey" env:"CCAI_SCREEN_SHARE_KEY"`
	ScreenShareDomain string `json:"screenShareDomain" env:"CCAI_SCREEN_SHARE_DOMAIN"`
}

// Config is the full client configuration.
type Config struct {
	Environment

	// EnvironmentFile is the path the Environment was read from.
	EnvironmentFile string `env:"CCAI_ENVIRONMENT_FILE"`
	// SigningURL is the base URL of the end-user token signing server.
	SigningURL string `env:"CCAI_SIGNING_URL"`
	// Home is where local state (last chat, cached token) is kept.
	Home string `env:"CCAI_HOME"`
	// MenuID is the support menu chats are started from. Empty means ask.
	MenuID string `env:"CCAI_MENU_ID"`
	// Language is sent when starting a chat.
	Language string `env:"CCAI_LANGUAGE"`

	LogLevel string `env:"CCAI_LOG_LEVEL"`
	LogFile  string `env:"CCAI_LOG_FILE"`

	// Pushover credentials enable push alerts for agent requests.
	PushoverToken string `env:"CCAI_PUSHOVER_TOKEN"`
	PushoverUser  string `env:"CCAI_PUSHOVER_USER"`
}

// Load reads the environment file and applies environment overrides.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	// The embedded account settings are parsed on their own; env does not
	// descend into embedded structs.
	var overrides Environment
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.Home = filepath.Join(homeDir, ".ccai-demo")
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create ccai home: %w", err)
	}

	if cfg.EnvironmentFile == "" {
		cfg.EnvironmentFile = defaultEnvironmentFile
	}
	fileEnv, err := LoadEnvironment(cfg.EnvironmentFile)
	if err != nil {
		return nil, err
	}
	cfg.Environment = mergeEnvironment(fileEnv, overrides)

	if cfg.SigningURL == "" {
		cfg.SigningURL = defaultSigningURL
	}
	cfg.SigningURL = strings.TrimRight(cfg.SigningURL, "/")
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	return &cfg, nil
}

// LoadEnvironment reads an environment.json file.
func LoadEnvironment(path string) (Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Environment{}, fmt.Errorf("%w: %s: %v", ErrEnvironment, path, err)
	}
	var e Environment
	if err := json.Unmarshal(data, &e); err != nil {
		return Environment{}, fmt.Errorf("%w: %s: %v", ErrEnvironment, path, err)
	}
	if strings.TrimSpace(e.Hostname) == "" {
		return Environment{}, fmt.Errorf("%w: %s: missing hostname", ErrEnvironment, path)
	}
	return e, nil
}

// mergeEnvironment overlays non-empty override fields onto base.
func mergeEnvironment(base, override Environment) Environment {
	if override.Key != "" {
		base.Key = override.Key
	}
	if override.Hostname != "" {
		base.Hostname = override.Hostname
	}
	if override.ScreenShareKey != "" {
		base.ScreenShareKey = override.ScreenShareKey
	}
	if override.ScreenShareDomain != "" {
		base.ScreenShareDomain = override.ScreenShareDomain
	}
	return base
}

// ParseMenuID validates a menu id entered by the user.
func ParseMenuID(raw string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// PushoverEnabled reports whether push alerts are configured.
func (c *Config) PushoverEnabled() bool {
	return c.PushoverToken != "" && c.PushoverUser != ""
}

// ServerURL returns the chat platform base URL derived from Hostname.
func (c *Config) ServerURL() string {
	host := strings.TrimRight(c.Hostname, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}
