package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Version string        `mapstructure:"version"`
	Model   ModelConfig   `mapstructure:"model"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Store   StoreConfig   `mapstructure:"store"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
}

// ModelConfig holds the model API connection settings.
type ModelConfig struct {
	APIKey      string        `mapstructure:"api_key"`  // Anthropic API key
	BaseURL     string        `mapstructure:"base_url"` // optional override for self-hosted gateways
	Model       string        `mapstructure:"model"`    // model id used for planning and streaming
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AgentConfig describes agent loop runtime parameters.
type AgentConfig struct {
	MaxRounds        int    `mapstructure:"max_rounds"`         // plan→act cycles before graceful abort
	MaxParallelTools int    `mapstructure:"max_parallel_tools"` // concurrency cap within one round
	FinalStream      bool   `mapstructure:"final_stream"`       // true: stream the final answer from the model; false: chunk the plan text locally
	DefaultLanguage  string `mapstructure:"default_language"`
}

// StoreConfig points at the tenant data store.
type StoreConfig struct {
	Path string `mapstructure:"path"` // sqlite database path
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"` // HS256 shared secret; tokens must carry a tenant_id claim
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes daemon settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model.APIKey) == "" {
		return errors.New("model.api_key is required")
	}
	if strings.TrimSpace(c.Model.Model) == "" {
		return errors.New("model.model is required")
	}
	if c.Model.MaxTokens < 0 {
		return errors.New("model.max_tokens cannot be negative")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return errors.New("model.temperature must be within [0,2]")
	}

	if c.Agent.MaxRounds <= 0 {
		return errors.New("agent.max_rounds must be > 0")
	}
	if c.Agent.MaxParallelTools <= 0 {
		return errors.New("agent.max_parallel_tools must be > 0")
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path is required")
	}

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required")
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}

	return nil
}
