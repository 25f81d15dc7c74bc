// Package config loads and manages routegate configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (LLM_API_KEY, LLM_BASE_URL, LLM_MODEL, ANTHROPIC_API_KEY, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/routegate/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds configuration for a single proposer backend.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// PolicyConfig holds the rule-source file locations.
type PolicyConfig struct {
	// ModelPath is the Casbin model definition. Empty = ./casbin_model.conf.
	ModelPath string `yaml:"model_path"`

	// RulesPath is the policy rule CSV. Empty = ./policy.csv.
	RulesPath string `yaml:"rules_path"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	// Path of the append-only JSONL audit file. Empty = ./audit_trail.jsonl.
	Path string `yaml:"path"`
}

// LoopConfig holds settings for the bounded action loop.
type LoopConfig struct {
	// MaxIterations bounds proposer round-trips per request. 0 = default (2).
	MaxIterations int `yaml:"max_iterations"`

	// ToolTimeoutSeconds bounds a single tool invocation. 0 = default (60).
	ToolTimeoutSeconds int `yaml:"tool_timeout_seconds"`

	// ProposerTimeoutSeconds bounds a single proposer call. 0 = default (120).
	ProposerTimeoutSeconds int `yaml:"proposer_timeout_seconds"`
}

// ServerConfig holds settings for the HTTP front-end.
type ServerConfig struct {
	// Addr is the listen address. Empty = ":8080".
	Addr string `yaml:"addr"`
}

// Config is the complete configuration structure for routegate.
type Config struct {
	// Provider is the active proposer backend name (e.g. "anthropic",
	// "openai", "deepseek"). "rules" selects the deterministic offline
	// proposer and needs no API key.
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// Providers holds per-provider configuration.
	Providers map[string]*ProviderConfig `yaml:"providers"`

	// Policy holds the rule-source locations.
	Policy PolicyConfig `yaml:"policy"`

	// Audit holds audit trail settings.
	Audit AuditConfig `yaml:"audit"`

	// Loop holds settings for the bounded action loop.
	Loop LoopConfig `yaml:"loop"`

	// Server holds settings for the HTTP front-end.
	Server ServerConfig `yaml:"server"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:  "rules",
		Providers: make(map[string]*ProviderConfig),
		Policy: PolicyConfig{
			ModelPath: "casbin_model.conf",
			RulesPath: "policy.csv",
		},
		Audit: AuditConfig{
			Path: "audit_trail.jsonl",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Determine config file path
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "routegate", "config.yaml")
		}
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}
	if cfg.Policy.ModelPath == "" {
		cfg.Policy.ModelPath = "casbin_model.conf"
	}
	if cfg.Policy.RulesPath == "" {
		cfg.Policy.RulesPath = "policy.csv"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "audit_trail.jsonl"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	return cfg, nil
}

// GetProviderConfig returns the config for the named provider, or an empty config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok {
		return pc
	}
	return &ProviderConfig{}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Generic overrides
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}

	// Anthropic-specific
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		if cfg.Providers["anthropic"] == nil {
			cfg.Providers["anthropic"] = &ProviderConfig{}
		}
		cfg.Providers["anthropic"].APIKey = v
	}

	// Provider selection
	if v := os.Getenv("ROUTEGATE_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("ROUTEGATE_MODEL"); v != "" {
		cfg.Model = v
	}

	// Rule and audit file locations
	if v := os.Getenv("ROUTEGATE_POLICY_RULES"); v != "" {
		cfg.Policy.RulesPath = v
	}
	if v := os.Getenv("ROUTEGATE_AUDIT_PATH"); v != "" {
		cfg.Audit.Path = v
	}
}
