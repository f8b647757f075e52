package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cbodonnell/panchali/pkg/log"
)

// Config is the game server configuration, read from PANCHALI_* variables.
type Config struct {
	DatabaseURL        string        `env:"PANCHALI_DATABASE_URL" envDefault:"sqlite://panchali.db"`
	WSPort             int           `env:"PANCHALI_WS_PORT" envDefault:"8080"`
	APIPort            int           `env:"PANCHALI_API_PORT" envDefault:"9090"`
	LogLevel           string        `env:"PANCHALI_LOG_LEVEL" envDefault:"info"`
	MinPlayers         int           `env:"PANCHALI_MIN_PLAYERS" envDefault:"2"`
	MaxPlayers         int           `env:"PANCHALI_MAX_PLAYERS" envDefault:"4"`
	CheckpointInterval time.Duration `env:"PANCHALI_CHECKPOINT_INTERVAL" envDefault:"10s"`
	AllowedOrigins     []string      `env:"PANCHALI_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	WriteTimeout       time.Duration `env:"PANCHALI_WRITE_TIMEOUT" envDefault:"5s"`
	TLSCertFile        string        `env:"PANCHALI_TLS_CERT_FILE"`
	TLSKeyFile         string        `env:"PANCHALI_TLS_KEY_FILE"`
	OTelEndpoint       string        `env:"PANCHALI_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("invalid database URL: %v", err)
	}
	switch u.Scheme {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
	if c.WSPort <= 0 || c.WSPort > 65535 {
		return fmt.Errorf("invalid websocket port %d", c.WSPort)
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("invalid API port %d", c.APIPort)
	}
	if c.WSPort == c.APIPort {
		return fmt.Errorf("websocket and API ports must differ")
	}
	if _, err := log.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MinPlayers < 1 || c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("invalid player limits: min %d, max %d", c.MinPlayers, c.MaxPlayers)
	}
	if c.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint interval must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("TLS needs both a cert and a key file")
	}
	return nil
}

// TLSEnabled reports whether both TLS files are set.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
