package config

import (
	"fmt"
	"os"

	"cortex-sentinel/internal/types"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads the configuration from the given path
func LoadConfig(path string) (*types.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg types.Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	validateConfig(&cfg)
	return &cfg, nil
}

// Default returns a config with every default applied, for running without a file.
func Default() *types.Config {
	cfg := &types.Config{}
	validateConfig(cfg)
	return cfg
}

// validateConfig applies defaults and hard rules
func validateConfig(cfg *types.Config) {
	if cfg.Generator.APIURL == "" {
		cfg.Generator.APIURL = "https://api.anthropic.com/v1/messages"
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "SENTINEL_API_KEY"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "claude-3-5-sonnet-20240620"
	}

	if cfg.Classifier.Mode == "" {
		cfg.Classifier.Mode = "local"
	}
	if cfg.Classifier.EmbedURL == "" {
		cfg.Classifier.EmbedURL = "http://localhost:11434/api/embeddings"
	}
	if cfg.Classifier.EmbedModel == "" {
		cfg.Classifier.EmbedModel = "nomic-embed-text"
	}
	if cfg.Classifier.CloudURL == "" {
		cfg.Classifier.CloudURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Classifier.CloudModel == "" {
		cfg.Classifier.CloudModel = "gemini-2.5-flash"
	}
	if cfg.Classifier.CloudKeyEnv == "" {
		cfg.Classifier.CloudKeyEnv = "SENTINEL_CLOUD_KEY"
	}

	if cfg.Session.DBPath == "" {
		cfg.Session.DBPath = "cortex-sentinel.db"
	}
	if cfg.Dashboard.Port == "" {
		cfg.Dashboard.Port = ":8787"
	}
	if cfg.Output.AuditLogPath == "" {
		cfg.Output.AuditLogPath = "audit.log"
	}
	if cfg.Metrics.Port == "" {
		cfg.Metrics.Port = ":9090"
	}
}
