// Package openai wraps the OpenAI chat completions SDK behind the narrow
// interface the research orchestrator needs.
package openai

import (
	"context"

	"github.com/rotisserie/eris"
	goopenai "github.com/sashabaranov/go-openai"
)

const defaultModel = goopenai.GPT4o

// Client performs chat completions against the OpenAI API.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

// WithBaseURL points the SDK at an alternate endpoint (tests).
func WithBaseURL(url string) Option {
	return func(c *sdkClient) {
		c.baseURL = url
	}
}

type sdkClient struct {
	api     *goopenai.Client
	apiKey  string
	model   string
	baseURL string
}

// NewClient creates an OpenAI chat client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{apiKey: apiKey, model: defaultModel}
	for _, o := range opts {
		o(c)
	}

	if c.baseURL != "" {
		cfg := goopenai.DefaultConfig(apiKey)
		cfg.BaseURL = c.baseURL
		c.api = goopenai.NewClientWithConfig(cfg)
	} else {
		c.api = goopenai.NewClient(apiKey)
	}
	return c
}

func (c *sdkClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
