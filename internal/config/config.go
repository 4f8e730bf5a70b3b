// Package config provides configuration management for the repoagent service.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the configuration for the service
type Config struct {
	// Model provider: "anthropic", "openai", or "" to disable model-assisted
	// resolution (the deterministic matcher still works without it)
	ModelProvider   string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	Model           string

	// HTTP server
	ListenAddr string

	// Session persistence
	SessionsDir string
	SessionTTL  time.Duration

	// Telemetry
	TelemetryEnabled bool
	OTLPEndpoint     string
}

// Load loads configuration from environment variables
func Load() Config {
	config := Config{
		ModelProvider:    os.Getenv("MODEL_PROVIDER"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		Model:            os.Getenv("MODEL"),
		ListenAddr:       ":8080",
		SessionsDir:      os.Getenv("SESSIONS_DIR"),
		SessionTTL:       24 * time.Hour, // Default
		TelemetryEnabled: os.Getenv("TELEMETRY_ENABLED") == "true",
		OTLPEndpoint:     os.Getenv("OTLP_ENDPOINT"),
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if config.SessionsDir == "" {
		config.SessionsDir = "sessions"
	}

	// Parse session TTL if provided
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.SessionTTL = d
		}
	}

	return config
}

// Validate checks if the required configuration is present
func (c Config) Validate() error {
	switch c.ModelProvider {
	case "", "none":
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("missing required environment variable: ANTHROPIC_API_KEY")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("missing required environment variable: OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown model provider: %s", c.ModelProvider)
	}
	return nil
}
