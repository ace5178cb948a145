package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Reasoner.Model != "gpt-4o" {
			t.Errorf("Default reasoner model = %q", cfg.Reasoner.Model)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
reasoner:
  type: anthropic
  model: claude-sonnet-4-20250514
  api_key_env: ANTHROPIC_API_KEY
output_root: /tmp/runs
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Reasoner.Type != ProviderAnthropic || cfg.Reasoner.Model != "claude-sonnet-4-20250514" {
			t.Errorf("Reasoner not overridden: %+v", cfg.Reasoner)
		}
		if cfg.OutputRoot != "/tmp/runs" {
			t.Errorf("OutputRoot = %q", cfg.OutputRoot)
		}
		// Untouched sections keep the defaults.
		if cfg.Extractor.Model != "fastino-extract" {
			t.Errorf("Extractor default lost: %+v", cfg.Extractor)
		}
	})

	t.Run("invalid provider is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
reasoner:
  type: openai_compatible
  model: something
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
		if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "base_url") {
			t.Fatalf("Expected base_url error, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("Expected error for missing file")
		}
	})
}

func TestAPIKeysComeFromEnv(t *testing.T) {
	t.Setenv("BUGOUT_TEST_KEY", "  secret  ")

	p := Provider{Type: ProviderOpenAI, Model: "m", APIKeyEnv: "BUGOUT_TEST_KEY"}
	if got := p.APIKey(); got != "secret" {
		t.Errorf("APIKey = %q", got)
	}

	c := &Config{ReviewerKeyEnv: "BUGOUT_TEST_KEY"}
	if got := c.ReviewerKey(); got != "secret" {
		t.Errorf("ReviewerKey = %q", got)
	}

	if got := (Provider{}).APIKey(); got != "" {
		t.Errorf("Empty APIKeyEnv should yield empty key, got %q", got)
	}
}
