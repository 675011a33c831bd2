package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	// ProviderName identifies the OpenAI backend in metadata and errors.
	ProviderName = "openai"

	defaultModel        = "gpt-4"
	defaultTimeout      = 30 * time.Second
	defaultTemperature  = 0.7
	defaultMaxTokens    = 1000
	defaultSystemPrompt = "You are an SEO expert. Always return valid JSON only, no markdown formatting."
)

// ClientOptions controls how the OpenAI chat client is initialised.
type ClientOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	Temperature  float64
	MaxTokens    int64
	SystemPrompt string
	HTTPClient   *http.Client
	Logger       *logrus.Logger
}

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// NewProvider constructs an OpenAI-backed prompt provider. SDK retries are
// disabled so every failure surfaces to the caller.
func NewProvider(opts ClientOptions) (*Provider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("openai api key is required")
	}

	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}

	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(baseURL))
	}

	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}

	apiClient := openai.NewClient(requestOptions...)

	return newProvider(&apiClient.Chat.Completions, opts), nil
}

func newProvider(chat chatCompletionClient, opts ClientOptions) *Provider {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	systemPrompt := strings.TrimSpace(opts.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	return &Provider{
		chat:         chat,
		logger:       opts.Logger,
		model:        model,
		timeout:      timeout,
		temperature:  temperature,
		maxTokens:    maxTokens,
		systemPrompt: systemPrompt,
	}
}
