package failure

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
)

func TestKindOfSurvivesWrapping(t *testing.T) {
	t.Parallel()

	base := Timeout("openai", context.DeadlineExceeded)
	wrapped := eris.Wrap(base, "generating titles")

	kind, ok := KindOf(wrapped)
	if !ok {
		t.Fatalf("expected wrapped error to carry a kind")
	}
	if kind != KindProviderTimeout {
		t.Fatalf("expected kind %q, got %q", KindProviderTimeout, kind)
	}

	if !Is(wrapped, KindProviderTimeout) {
		t.Fatalf("expected Is to match provider timeout")
	}
}

func TestKindOfUntaggedError(t *testing.T) {
	t.Parallel()

	if _, ok := KindOf(eris.New("plain")); ok {
		t.Fatalf("expected untagged error to have no kind")
	}

	if _, ok := KindOf(nil); ok {
		t.Fatalf("expected nil error to have no kind")
	}
}

func TestAPIErrorMessage(t *testing.T) {
	t.Parallel()

	withUpstream := APIError("anthropic", "overloaded", nil)
	if withUpstream.Message != "anthropic API error: overloaded" {
		t.Fatalf("unexpected message %q", withUpstream.Message)
	}

	generic := APIError("openai", "", eris.New("connection reset"))
	if generic.Message != "openai API error" {
		t.Fatalf("unexpected generic message %q", generic.Message)
	}

	if !strings.Contains(generic.Error(), "connection reset") {
		t.Fatalf("expected cause in error string, got %q", generic.Error())
	}
}

func TestMessageOf(t *testing.T) {
	t.Parallel()

	err := eris.Wrap(NotConfigured("OpenAI"), "calling provider")
	if got := MessageOf(err); got != "OpenAI API key not configured" {
		t.Fatalf("expected configured message, got %q", got)
	}

	plain := eris.New("boom")
	if got := MessageOf(plain); !strings.Contains(got, "boom") {
		t.Fatalf("expected plain message to fall back to Error(), got %q", got)
	}
}
