package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all console configuration loaded from environment variables.
// It is constructed once in main and passed down; no component reads the
// environment on its own.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Control Center
	ControlCenterURL   string        `envconfig:"CONTROL_CENTER_URL" default:"http://localhost:8000"`
	ControlCenterToken string        `envconfig:"WHERECODE_TOKEN" default:"change-me"`
	RequestTimeout     time.Duration `envconfig:"HTTP_REQUEST_TIMEOUT" default:"15s"`

	// Lifecycle tracking
	PollInterval        time.Duration `envconfig:"POLL_INTERVAL" default:"1200ms"`
	HealthProbeInterval time.Duration `envconfig:"HEALTH_PROBE_INTERVAL" default:"10s"`
	FeedCapacity        int           `envconfig:"FEED_CAPACITY" default:"12"`

	// Operator API
	ConsoleListenAddr string `envconfig:"CONSOLE_LISTEN_ADDR" default:":8090"`
	ConsoleAuthMode   string `envconfig:"CONSOLE_AUTH_MODE" default:"api-key"`
	ConsoleAPIKey     string `envconfig:"CONSOLE_API_KEY"`
	ConsoleJWTSecret  string `envconfig:"CONSOLE_JWT_SECRET"`
	RateLimitRPS      int    `envconfig:"CONSOLE_RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst    int    `envconfig:"CONSOLE_RATE_LIMIT_BURST" default:"200"`
	CORSOrigins       string `envconfig:"CONSOLE_CORS_ORIGINS"`

	// Command presets (optional YAML file with named command templates)
	PresetsPath string `envconfig:"PRESETS_PATH"`

	// Slack approval notifications (optional)
	SlackBotToken        string `envconfig:"SLACK_BOT_TOKEN"`
	SlackApprovalChannel string `envconfig:"SLACK_APPROVAL_CHANNEL"`
}

// SlackEnabled returns true if Slack notification settings are complete.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackApprovalChannel != ""
}

// Validate enforces the couplings envconfig cannot express.
func (c *Config) Validate() error {
	switch c.ConsoleAuthMode {
	case "none":
	case "api-key":
		if c.ConsoleAPIKey == "" {
			return fmt.Errorf("CONSOLE_API_KEY is required when CONSOLE_AUTH_MODE=api-key")
		}
	case "jwt":
		if c.ConsoleJWTSecret == "" {
			return fmt.Errorf("CONSOLE_JWT_SECRET is required when CONSOLE_AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("unknown CONSOLE_AUTH_MODE %q", c.ConsoleAuthMode)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
