package research

import (
	"context"
	"errors"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/resilience"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/pkg/gemini"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/pkg/openai"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/pkg/perplexity"
)

// Canonical provider names used in selection maps and result keys.
const (
	ProviderGPT4o      = "gpt4o"
	ProviderGemini     = "gemini"
	ProviderPerplexity = "perplexity"
)

// Provider is one research backend. Implementations return the raw text
// answer for a query; empty text with nil error means "nothing found".
type Provider interface {
	Name() string
	Research(ctx context.Context, query string) (string, error)
}

// GPT4oProvider adapts the OpenAI client.
type GPT4oProvider struct {
	Client openai.Client
}

func (p *GPT4oProvider) Name() string { return ProviderGPT4o }

func (p *GPT4oProvider) Research(ctx context.Context, query string) (string, error) {
	text, err := p.Client.Complete(ctx, query)
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) && resilience.IsUnavailableHTTPStatus(apiErr.HTTPStatusCode) {
			return "", resilience.NewServiceUnavailable(ProviderGPT4o, apiErr.HTTPStatusCode, "")
		}
		return "", err
	}
	return text, nil
}

// GeminiProvider adapts the Gemini client.
type GeminiProvider struct {
	Client gemini.Client
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) Research(ctx context.Context, query string) (string, error) {
	resp, err := p.Client.GenerateContent(ctx, query)
	if err != nil {
		var se *gemini.StatusError
		if errors.As(err, &se) && resilience.IsUnavailableHTTPStatus(se.StatusCode) {
			return "", resilience.NewServiceUnavailable(ProviderGemini, se.StatusCode, "")
		}
		return "", err
	}
	return resp.Text(), nil
}

// PerplexityProvider adapts the Perplexity client.
type PerplexityProvider struct {
	Client perplexity.Client
}

func (p *PerplexityProvider) Name() string { return ProviderPerplexity }

func (p *PerplexityProvider) Research(ctx context.Context, query string) (string, error) {
	temp := 0.2
	resp, err := p.Client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages:    []perplexity.Message{{Role: "user", Content: query}},
		Temperature: &temp,
	})
	if err != nil {
		var se *perplexity.StatusError
		if errors.As(err, &se) && resilience.IsUnavailableHTTPStatus(se.StatusCode) {
			return "", resilience.NewServiceUnavailable(ProviderPerplexity, se.StatusCode, "")
		}
		return "", err
	}
	return resp.Content(), nil
}
