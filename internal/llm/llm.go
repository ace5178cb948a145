// Package llm abstracts the model endpoints the pipeline calls. Each stage
// builds a prompt and consumes plain text back; provider selection is a
// config concern.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bugout-ai/bugout/internal/config"
)

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client produces a completion for a request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

const defaultMaxTokens = 2048

// New builds a client for the configured provider.
func New(p config.Provider) (Client, error) {
	apiKey := p.APIKey()
	if apiKey == "" && p.APIKeyEnv != "" {
		return nil, fmt.Errorf("environment variable %s is not set", p.APIKeyEnv)
	}

	switch p.Type {
	case config.ProviderOpenAI, config.ProviderOpenAICompatible:
		return newOpenAI(apiKey, p.BaseURL, p.Model), nil
	case config.ProviderAnthropic:
		return newAnthropic(apiKey, p.BaseURL, p.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", p.Type)
	}
}

func normalizeRequest(req *Request) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return errors.New("empty prompt")
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	return nil
}
