// Package config loads the on-disk pipeline configuration.
//
// API keys are never stored in the config file; they are read from the
// environment and passed through as opaque values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider types understood by the LLM layer.
const (
	ProviderOpenAI           = "openai"
	ProviderAnthropic        = "anthropic"
	ProviderOpenAICompatible = "openai_compatible"
)

// Provider configures one model endpoint.
type Provider struct {
	// Type is one of: "openai" | "anthropic" | "openai_compatible".
	Type string `yaml:"type"`
	// BaseURL overrides the provider endpoint. Required for
	// openai_compatible; optional otherwise.
	BaseURL string `yaml:"base_url,omitempty"`
	// Model is the model identifier sent with every request.
	Model string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// Config is the full pipeline configuration.
type Config struct {
	// Extractor is the endpoint used for per-comment feature extraction.
	Extractor Provider `yaml:"extractor"`
	// Reasoner is the endpoint used for fix proposals and the edit-list
	// reasoning pass over the cloned repository.
	Reasoner Provider `yaml:"reasoner"`

	// ReviewerAPI is the base URL of the reviewer-research service.
	ReviewerAPI string `yaml:"reviewer_api,omitempty"`
	// ReviewerKeyEnv names the environment variable holding its API key.
	ReviewerKeyEnv string `yaml:"reviewer_key_env,omitempty"`

	// OutputRoot is the base directory for per-run artifact directories.
	OutputRoot string `yaml:"output_root,omitempty"`
	// HistoryDB is the path of the local run-history database.
	HistoryDB string `yaml:"history_db,omitempty"`
}

// Default returns a configuration that works with only environment
// variables set.
func Default() *Config {
	return &Config{
		Extractor: Provider{
			Type:      ProviderOpenAICompatible,
			BaseURL:   "https://api.pioneer.ai/v1",
			Model:     "fastino-extract",
			APIKeyEnv: "FASTINO_KEY",
		},
		Reasoner: Provider{
			Type:      ProviderOpenAI,
			Model:     "gpt-4o",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		ReviewerAPI:    "https://api.yutori.com/v1",
		ReviewerKeyEnv: "YUTORI_KEY",
		OutputRoot:     "./bugout_data",
		HistoryDB:      "./bugout_data/history.db",
	}
}

// Load reads a YAML config file, filling unset fields from Default. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks provider declarations.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	for name, p := range map[string]Provider{"extractor": c.Extractor, "reasoner": c.Reasoner} {
		if err := p.validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (p Provider) validate() error {
	switch p.Type {
	case ProviderOpenAI, ProviderAnthropic:
	case ProviderOpenAICompatible:
		if strings.TrimSpace(p.BaseURL) == "" {
			return errors.New("openai_compatible requires base_url")
		}
	default:
		return fmt.Errorf("unknown provider type %q", p.Type)
	}
	if strings.TrimSpace(p.Model) == "" {
		return errors.New("missing model")
	}
	return nil
}

// APIKey resolves the provider's key from the environment.
func (p Provider) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(p.APIKeyEnv))
}

// ReviewerKey resolves the reviewer-research key from the environment.
func (c *Config) ReviewerKey() string {
	if c.ReviewerKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.ReviewerKeyEnv))
}
