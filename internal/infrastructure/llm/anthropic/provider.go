// Package anthropic adapts the Anthropic messages API to the prompt provider contract.
package anthropic

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"seopro/app/internal/domain/failure"
	domainllm "seopro/app/internal/domain/llm"
)

const (
	// ProviderName identifies the Anthropic backend in metadata and errors.
	ProviderName = "anthropic"

	defaultModel     = "claude-3-opus-20240229"
	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 1000
)

// ClientOptions controls how the Anthropic messages client is initialised.
type ClientOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxTokens  int64
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

type messageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Provider sends prompts through the Anthropic messages API.
type Provider struct {
	messages  messageClient
	logger    *logrus.Logger
	model     string
	timeout   time.Duration
	maxTokens int64
}

var _ domainllm.Provider = (*Provider)(nil)

// NewProvider constructs an Anthropic-backed prompt provider with SDK retries disabled.
func NewProvider(opts ClientOptions) (*Provider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("anthropic api key is required")
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

	client := anthropic.NewClient(requestOptions...)

	return newProvider(&client.Messages, opts), nil
}

func newProvider(messages messageClient, opts ClientOptions) *Provider {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Provider{
		messages:  messages,
		logger:    opts.Logger,
		model:     model,
		timeout:   timeout,
		maxTokens: maxTokens,
	}
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) Model() string {
	return p.model
}

// SendPrompt returns the text of the first text block in the reply.
func (p *Provider) SendPrompt(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	message, err := p.messages.New(callCtx, params)
	if err != nil {
		classified := p.classify(callCtx, err)
		p.logError(logrus.Fields{"model": p.model}, classified, "requesting message completion")
		return "", classified
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	emptyErr := failure.APIError(ProviderName, "response contained no text content", nil)
	p.logError(logrus.Fields{"model": p.model, "stop_reason": message.StopReason}, emptyErr, "processing message completion")
	return "", emptyErr
}

func (p *Provider) classify(callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return failure.Timeout(ProviderName, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failure.Timeout(ProviderName, err)
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return failure.APIError(ProviderName, upstreamMessage(apiErr), err)
	}

	return failure.APIError(ProviderName, err.Error(), err)
}

func upstreamMessage(apiErr *anthropic.Error) string {
	if message := gjson.Get(apiErr.RawJSON(), "error.message"); message.Exists() {
		return strings.TrimSpace(message.String())
	}
	if apiErr.StatusCode != 0 {
		return http.StatusText(apiErr.StatusCode)
	}
	return ""
}

func (p *Provider) logError(fields logrus.Fields, err error, message string) {
	if p.logger == nil || err == nil {
		return
	}

	entry := p.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
