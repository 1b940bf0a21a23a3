package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `
version: "0.1.0"
model:
  api_key: dummy
  model: claude-sonnet-4-20250514
  max_tokens: 1024
  temperature: 0.3
agent:
  max_rounds: 6
  max_parallel_tools: 3
  final_stream: false
store:
  path: /tmp/costwise-test.db
auth:
  jwt_secret: test-secret
server:
  addr: ":9090"
`

	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "claude-sonnet-4-20250514", cfg.Model.Model)
	require.Equal(t, 6, cfg.Agent.MaxRounds)
	require.Equal(t, 3, cfg.Agent.MaxParallelTools)
	require.False(t, cfg.Agent.FinalStream)
	require.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `
model:
  api_key: dummy
auth:
  jwt_secret: test-secret
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "claude-sonnet-4-20250514", cfg.Model.Model)
	require.Equal(t, 8, cfg.Agent.MaxRounds)
	require.Equal(t, 5, cfg.Agent.MaxParallelTools)
	require.True(t, cfg.Agent.FinalStream)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.True(t, cfg.Server.MetricsEnabled)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `
model:
  api_key: dummy
auth:
  jwt_secret: test-secret
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o644))

	t.Setenv("COSTWISE_AGENT_MAX_ROUNDS", "12")
	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, 12, cfg.Agent.MaxRounds)
}

func TestValidateFailsWithoutAPIKey(t *testing.T) {
	cfg := Config{
		Agent:  AgentConfig{MaxRounds: 8, MaxParallelTools: 5},
		Store:  StoreConfig{Path: "x.db"},
		Auth:   AuthConfig{JWTSecret: "s"},
		Server: ServerConfig{Addr: ":8080"},
	}
	cfg.Model.Model = "claude-sonnet-4-20250514"
	require.ErrorContains(t, cfg.Validate(), "model.api_key")
}

func TestValidateFailsOnBadLoggingFormat(t *testing.T) {
	cfg := Config{
		Model:   ModelConfig{APIKey: "k", Model: "m"},
		Agent:   AgentConfig{MaxRounds: 8, MaxParallelTools: 5},
		Store:   StoreConfig{Path: "x.db"},
		Auth:    AuthConfig{JWTSecret: "s"},
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Format: "xml"},
	}
	require.ErrorContains(t, cfg.Validate(), "logging.format")
}

func TestValidateFailsOnZeroRounds(t *testing.T) {
	cfg := Config{
		Model:  ModelConfig{APIKey: "k", Model: "m"},
		Agent:  AgentConfig{MaxRounds: 0, MaxParallelTools: 5},
		Store:  StoreConfig{Path: "x.db"},
		Auth:   AuthConfig{JWTSecret: "s"},
		Server: ServerConfig{Addr: ":8080"},
	}
	require.ErrorContains(t, cfg.Validate(), "agent.max_rounds")
}
