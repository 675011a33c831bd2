package llm

import "context"

// Provider sends a rendered prompt to an LLM backend and returns the raw completion text.
type Provider interface {
	SendPrompt(ctx context.Context, prompt string) (string, error)
	Name() string
	Model() string
}
