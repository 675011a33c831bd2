package openai

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/sirupsen/logrus"

	"seopro/app/internal/domain/failure"
	domainllm "seopro/app/internal/domain/llm"
)

// Provider sends prompts through the OpenAI chat completions API.
type Provider struct {
	chat         chatCompletionClient
	logger       *logrus.Logger
	model        string
	timeout      time.Duration
	temperature  float64
	maxTokens    int64
	systemPrompt string
}

var _ domainllm.Provider = (*Provider)(nil)

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) Model() string {
	return p.model
}

// SendPrompt returns the first choice's content. Every failure is a tagged failure.Error.
func (p *Provider) SendPrompt(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(p.temperature),
		MaxTokens:   openai.Int(p.maxTokens),
	}

	completion, err := p.chat.New(callCtx, params)
	if err != nil {
		classified := p.classify(callCtx, err)
		p.logError(logrus.Fields{"model": p.model}, classified, "requesting chat completion")
		return "", classified
	}

	if len(completion.Choices) == 0 {
		err := failure.APIError(ProviderName, "completion returned no choices", nil)
		p.logError(logrus.Fields{"model": p.model}, err, "processing chat completion")
		return "", err
	}

	choice := completion.Choices[0]
	if reason := strings.TrimSpace(choice.FinishReason); strings.EqualFold(reason, "content_filter") {
		err := failure.APIError(ProviderName, "request blocked by content filter", nil)
		p.logError(logrus.Fields{"model": p.model}, err, "chat completion blocked")
		return "", err
	}

	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := failure.APIError(ProviderName, "model refused: "+refusal, nil)
		p.logError(logrus.Fields{"model": p.model}, err, "chat completion refused")
		return "", err
	}

	return choice.Message.Content, nil
}

func (p *Provider) classify(callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return failure.Timeout(ProviderName, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failure.Timeout(ProviderName, err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return failure.APIError(ProviderName, strings.TrimSpace(apiErr.Message), err)
	}

	return failure.APIError(ProviderName, err.Error(), err)
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
