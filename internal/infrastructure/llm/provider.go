// Package llm selects the configured prompt provider.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"seopro/app/internal/domain/failure"
	domainllm "seopro/app/internal/domain/llm"
	"seopro/app/internal/infrastructure/llm/anthropic"
	"seopro/app/internal/infrastructure/llm/openai"
)

// Options names the provider to use and carries credentials for both backends.
type Options struct {
	Provider         string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	Timeout          time.Duration
	Logger           *logrus.Logger
}

// NewProvider returns the provider named by opts.Provider. A provider without
// credentials is still returned; its calls fail with a not-configured error.
func NewProvider(opts Options) (domainllm.Provider, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Provider))

	switch name {
	case openai.ProviderName:
		if strings.TrimSpace(opts.OpenAIAPIKey) == "" {
			return unconfigured{name: name, model: opts.OpenAIModel}, nil
		}
		provider, err := openai.NewProvider(openai.ClientOptions{
			APIKey:  opts.OpenAIAPIKey,
			BaseURL: opts.OpenAIBaseURL,
			Model:   opts.OpenAIModel,
			Timeout: opts.Timeout,
			Logger:  opts.Logger,
		})
		if err != nil {
			return nil, eris.Wrap(err, "initialising openai provider")
		}
		return provider, nil
	case anthropic.ProviderName:
		if strings.TrimSpace(opts.AnthropicAPIKey) == "" {
			return unconfigured{name: name, model: opts.AnthropicModel}, nil
		}
		provider, err := anthropic.NewProvider(anthropic.ClientOptions{
			APIKey:  opts.AnthropicAPIKey,
			BaseURL: opts.AnthropicBaseURL,
			Model:   opts.AnthropicModel,
			Timeout: opts.Timeout,
			Logger:  opts.Logger,
		})
		if err != nil {
			return nil, eris.Wrap(err, "initialising anthropic provider")
		}
		return provider, nil
	default:
		return nil, eris.Errorf("invalid AI provider %q: use \"openai\" or \"anthropic\"", opts.Provider)
	}
}

type unconfigured struct {
	name  string
	model string
}

func (u unconfigured) SendPrompt(context.Context, string) (string, error) {
	return "", failure.NotConfigured(u.name)
}

func (u unconfigured) Name() string {
	return u.name
}

func (u unconfigured) Model() string {
	return u.model
}
