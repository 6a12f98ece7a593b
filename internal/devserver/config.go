package devserver

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

const (
	defaultPort         = 3000
	defaultDatabasePath = "./ccai-devserver.db"
	defaultEnvFile      = "devserver.env"
)

// Config holds devserver configuration.
type Config struct {
	// Addr is the listen address. Derived from PORT unless overridden.
	Addr         string
	Port         int    `env:"PORT"`
	DatabasePath string `env:"DATABASE_PATH"`
	// SigningSecret seeds the key end-user tokens are signed with.
	SigningSecret string `env:"CCAI_SIGNING_SECRET"`
	Debug         bool   `env:"DEBUG"`
	// AllowedOrigins is used for CORS.
	AllowedOrigins []string
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Addr          *string
	DatabasePath  *string
	SigningSecret *string
	Debug         *bool
	// EnvFile is a dotenv file loaded before the environment is read. A
	// missing default file is ignored; a missing explicit one is an error.
	EnvFile *string
}

// Load reads configuration from the environment (after an optional dotenv
// file) and applies overrides.
func Load(overrides Overrides) (*Config, error) {
	envFile := defaultEnvFile
	if overrides.EnvFile != nil {
		envFile = *overrides.EnvFile
	}
	if envFile != "" {
		err := godotenv.Load(envFile)
		switch {
		case err == nil:
		case overrides.EnvFile == nil && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	cfg.Addr = fmt.Sprintf(":%d", cfg.Port)
	if overrides.Addr != nil {
		cfg.Addr = *overrides.Addr
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}
	if overrides.DatabasePath != nil {
		cfg.DatabasePath = *overrides.DatabasePath
	}

	if overrides.SigningSecret != nil {
		cfg.SigningSecret = *overrides.SigningSecret
	}
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("CCAI_SIGNING_SECRET environment variable is required")
	}

	if overrides.Debug != nil {
		cfg.Debug = *overrides.Debug
	}
	cfg.AllowedOrigins = []string{"*"}
	return &cfg, nil
}
