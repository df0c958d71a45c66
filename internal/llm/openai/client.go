// Package openai implements ports.Completer against any OpenAI-compatible
// chat completions endpoint. The default endpoint is Gemini's.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"smartspend/internal/ports"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.5-flash"
)

var ErrMissingAPIKey = errors.New("openai: API key is required")

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client sends single-message chat completions.
type Client struct {
	api   *goopenai.Client
	model string
}

var _ ports.Completer = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:   goopenai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
	}, nil
}

// Complete sends req.Prompt as a user message. A non-nil req.Shape requests a
// strict JSON schema response.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	chat := goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.Shape != nil {
		chat.ResponseFormat = responseFormat(req.Shape)
	}

	resp, err := c.api.CreateChatCompletion(ctx, chat)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %w", ports.ErrCompletionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ports.ErrCompletionFailed)
	}
	return resp.Choices[0].Message.Content, nil
}

func responseFormat(shape *ports.ResponseShape) *goopenai.ChatCompletionResponseFormat {
	props := make(map[string]jsonschema.Definition, len(shape.Fields))
	for _, f := range shape.Fields {
		props[f] = jsonschema.Definition{Type: jsonschema.String}
	}
	return &goopenai.ChatCompletionResponseFormat{
		Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
			Name: shape.Name,
			Schema: &jsonschema.Definition{
				Type:                 jsonschema.Object,
				Properties:           props,
				Required:             shape.Fields,
				AdditionalProperties: false,
			},
			Strict: true,
		},
	}
}
