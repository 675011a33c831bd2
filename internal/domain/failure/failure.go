// Package failure defines the tagged errors surfaced by the generation pipeline.
package failure

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Kind classifies a pipeline failure so callers can map it to a response.
type Kind string

const (
	KindProviderNotConfigured Kind = "provider_not_configured"
	KindProviderTimeout       Kind = "provider_timeout"
	KindProviderAPI           Kind = "provider_api_error"
	KindInvalidRequest        Kind = "invalid_request"
)

// Error carries a failure kind, a caller-facing message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotConfigured reports a selected provider without credentials.
func NotConfigured(provider string) *Error {
	return &Error{
		Kind:    KindProviderNotConfigured,
		Message: fmt.Sprintf("%s API key not configured", provider),
	}
}

// Timeout reports a provider call that exceeded its time budget.
func Timeout(provider string, cause error) *Error {
	return &Error{
		Kind:    KindProviderTimeout,
		Message: fmt.Sprintf("%s request timed out", provider),
		Err:     cause,
	}
}

// APIError reports a failed provider call. An empty upstream message falls back to a generic one.
func APIError(provider, upstream string, cause error) *Error {
	message := fmt.Sprintf("%s API error", provider)
	if upstream != "" {
		message = fmt.Sprintf("%s API error: %s", provider, upstream)
	}
	return &Error{Kind: KindProviderAPI, Message: message, Err: cause}
}

// InvalidRequest reports a request rejected before any provider call.
func InvalidRequest(message string, cause error) *Error {
	return &Error{Kind: KindInvalidRequest, Message: message, Err: cause}
}

// KindOf returns the kind of the first tagged failure in err's chain.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}

	var tagged *Error
	if eris.As(err, &tagged) {
		return tagged.Kind, true
	}
	return "", false
}

// MessageOf returns the caller-facing message of the first tagged failure, or err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}

	var tagged *Error
	if eris.As(err, &tagged) {
		return tagged.Message
	}
	return err.Error()
}

// Is reports whether err carries the given failure kind.
func Is(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}
