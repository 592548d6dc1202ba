// Package config loads squad's TOML configuration: backend credentials,
// tier-to-model mapping, limits, and user-defined capability profiles.
package config

import (
	"os"
	"path/filepath"

	"squad/internal/profile"

	"github.com/BurntSushi/toml"
)

type Config struct {
	LLM      LLMConfig                `toml:"llm"`
	DB       DBConfig                 `toml:"db"`
	Trace    TraceConfig              `toml:"trace"`
	Web      WebConfig                `toml:"web"`
	Limits   LimitsConfig             `toml:"limits"`
	Profiles map[string]profile.Entry `toml:"profiles"`
}

type LLMConfig struct {
	BaseURL string            `toml:"base_url"`
	APIKey  string            `toml:"api_key"`
	Tiers   map[string]string `toml:"tiers"` // tier name -> model name
}

type DBConfig struct {
	Path string `toml:"path"`
}

type TraceConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

type WebConfig struct {
	BraveAPIKey string `toml:"brave_api_key"`
}

type LimitsConfig struct {
	MaxTurns        int `toml:"max_turns"`
	ToolTimeoutMS   int `toml:"tool_timeout_ms"`
	MaxToolTimeouts int `toml:"max_tool_timeouts"`
}

func Load() (*Config, error) {
	cfg := &Config{
		LLM: LLMConfig{
			Tiers: map[string]string{
				"fast":     "gpt-5-mini",
				"standard": "gpt-5",
				"deep":     "o3",
			},
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
		Limits: LimitsConfig{
			MaxTurns:        32,
			ToolTimeoutMS:   120_000,
			MaxToolTimeouts: 3,
		},
	}

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Web.BraveAPIKey == "" {
		cfg.Web.BraveAPIKey = os.Getenv("BRAVE_API_KEY")
	}

	return cfg, nil
}

func configPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "squad", "config.toml")
}

func defaultDBPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "squad", "squad.db")
}
