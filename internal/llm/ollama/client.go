// Package ollama implements ports.Completer on a local Ollama server through
// langchaingo.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"smartspend/internal/ports"
)

const (
	DefaultServerURL = "http://localhost:11434"
	DefaultModel     = "llama3.2"
)

type Config struct {
	ServerURL string
	Model     string
	Timeout   time.Duration
}

// Client keeps one langchaingo model for raw text and one constrained to JSON
// output for shaped requests.
type Client struct {
	text llms.Model
	json llms.Model
}

var _ ports.Completer = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	base := []ollama.Option{
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithModel(cfg.Model),
		ollama.WithHTTPClient(httpClient),
	}

	text, err := ollama.New(base...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	structured, err := ollama.New(append(base, ollama.WithFormat("json"))...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama json client: %w", err)
	}
	return &Client{text: text, json: structured}, nil
}

// Complete runs req.Prompt against the configured model. req.Model, when set,
// overrides it per call.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	model := c.text
	if req.Shape != nil {
		model = c.json
	}

	var opts []llms.CallOption
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, model, req.Prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %w", ports.ErrCompletionFailed, err)
	}
	return out, nil
}
