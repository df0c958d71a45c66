// Package llm holds provider-independent helpers for ports.Completer
// implementations. Providers live in subpackages.
package llm

import (
	"context"
	"fmt"

	"smartspend/internal/ports"
)

// Provider names accepted by configuration.
const (
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderDisabled = "disabled"
)

// Disabled is used when no provider is configured. Every call fails, so the
// advisor answers with its fallbacks.
type Disabled struct{}

var _ ports.Completer = Disabled{}

func (Disabled) Complete(context.Context, ports.CompletionRequest) (string, error) {
	return "", fmt.Errorf("%w: no LLM provider configured", ports.ErrCompletionFailed)
}
