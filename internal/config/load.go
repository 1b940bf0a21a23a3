package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// Environment variables override file values (prefix: COSTWISE_, dots replaced with underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("COSTWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			v.SetConfigName("config.example")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("model.model", "claude-sonnet-4-20250514")
	v.SetDefault("model.max_tokens", 2048)
	v.SetDefault("model.temperature", 0.2)
	v.SetDefault("model.timeout", 60*time.Second)

	v.SetDefault("agent.max_rounds", 8)
	v.SetDefault("agent.max_parallel_tools", 5)
	v.SetDefault("agent.final_stream", true)
	v.SetDefault("agent.default_language", "English")

	v.SetDefault("store.path", "costwise.db")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_enabled", true)
}
