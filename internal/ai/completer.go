// Package ai wraps the text-completion backends used to generate
// workspace content.
package ai

import (
	"context"
	"fmt"

	"github.com/nhle/devdash/internal/model"
)

// Request is a single-turn completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completer returns the raw text completion for a request. Implementations
// must honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f(ctx, req).
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// NewCompleter builds the completer selected by cfg.Provider.
func NewCompleter(cfg model.AIConfig, apiKey string) (Completer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}

	switch cfg.Provider {
	case model.ProviderAnthropic:
		return NewAnthropic(apiKey, cfg.Model, cfg.MaxTokens), nil
	case model.ProviderOpenAI:
		return NewOpenAI(apiKey, cfg.Model, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
