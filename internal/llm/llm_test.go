package llm

import (
	"strings"
	"testing"

	"github.com/bugout-ai/bugout/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("missing key env fails early", func(t *testing.T) {
		p := config.Provider{Type: config.ProviderOpenAI, Model: "gpt-4o", APIKeyEnv: "BUGOUT_UNSET_KEY"}
		_, err := New(p)
		if err == nil || !strings.Contains(err.Error(), "BUGOUT_UNSET_KEY") {
			t.Fatalf("Expected missing-env error, got %v", err)
		}
	})

	t.Run("openai provider", func(t *testing.T) {
		t.Setenv("BUGOUT_TEST_KEY", "k")
		p := config.Provider{Type: config.ProviderOpenAI, Model: "gpt-4o", APIKeyEnv: "BUGOUT_TEST_KEY"}
		if _, err := New(p); err != nil {
			t.Fatalf("New failed: %v", err)
		}
	})

	t.Run("anthropic provider", func(t *testing.T) {
		t.Setenv("BUGOUT_TEST_KEY", "k")
		p := config.Provider{Type: config.ProviderAnthropic, Model: "claude-sonnet-4-20250514", APIKeyEnv: "BUGOUT_TEST_KEY"}
		if _, err := New(p); err != nil {
			t.Fatalf("New failed: %v", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, err := New(config.Provider{Type: "cohere", Model: "m"}); err == nil {
			t.Fatal("Expected error for unknown provider type")
		}
	})
}

func TestNormalizeRequest(t *testing.T) {
	req := Request{Prompt: "hello"}
	if err := normalizeRequest(&req); err != nil {
		t.Fatalf("normalizeRequest failed: %v", err)
	}
	if req.MaxTokens != defaultMaxTokens {
		t.Errorf("MaxTokens not defaulted: %d", req.MaxTokens)
	}

	if err := normalizeRequest(&Request{Prompt: "  "}); err == nil {
		t.Error("Expected error for empty prompt")
	}

	req = Request{Prompt: "x", MaxTokens: 64}
	if err := normalizeRequest(&req); err != nil || req.MaxTokens != 64 {
		t.Errorf("Explicit MaxTokens overridden: %d %v", req.MaxTokens, err)
	}
}
