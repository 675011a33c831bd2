package seogen

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"seopro/app/internal/domain/content"
	"seopro/app/internal/domain/failure"
)

func TestTitlesCommandPrintsJSON(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	app, out, releases := newTestApp(svc)

	err := app.RunContext(context.Background(), []string{"seogen", "titles", "--keyword", "shoes", "--current", "Old", "--count", "9", "--url", "https://example.com"})
	if err != nil {
		t.Fatalf("RunContext returned error: %v", err)
	}

	var result content.GenerationResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if result.Kind != content.KindTitle || len(result.Candidates) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	req := svc.lastRequest()
	if req.TargetKeyword != "shoes" || req.CurrentText != "Old" || req.PageURL != "https://example.com" {
		t.Fatalf("flags not forwarded: %+v", req)
	}
	if req.CandidateCount != content.MaxCandidateCount || req.Tone != content.DefaultTone {
		t.Fatalf("expected clamped count and default tone, got %d / %q", req.CandidateCount, req.Tone)
	}
	if *releases != 1 {
		t.Fatalf("expected service to be released once, got %d", *releases)
	}
}

func TestDescriptionsCommandPrintsYAML(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	app, out, _ := newTestApp(svc)

	err := app.RunContext(context.Background(), []string{"seogen", "descriptions", "-k", "shoes", "--tone", "friendly", "--format", "yaml"})
	if err != nil {
		t.Fatalf("RunContext returned error: %v", err)
	}

	var result content.GenerationResult
	if err := yaml.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out.String())
	}
	if result.Kind != content.KindDescription || result.Candidates[0].SEOScore != 80 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(out.String(), "seoScore: 80") {
		t.Fatalf("expected camelCase yaml keys, got:\n%s", out.String())
	}
	if req := svc.lastRequest(); req.Tone != "friendly" || req.CandidateCount != content.DefaultCandidateCount {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestBothCommandForwardsCurrentTexts(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	app, out, _ := newTestApp(svc)

	err := app.RunContext(context.Background(), []string{"seogen", "both", "--current-title", "T", "--current-description", "D", "--count", "4"})
	if err != nil {
		t.Fatalf("RunContext returned error: %v", err)
	}

	var result content.CombinedResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if result.Kind != content.KindBoth {
		t.Fatalf("unexpected kind %q", result.Kind)
	}

	svc.mu.Lock()
	both := svc.both
	svc.mu.Unlock()
	if both.CurrentTitle != "T" || both.CurrentDescription != "D" || both.CandidateCount != 4 {
		t.Fatalf("unexpected both request: %+v", both)
	}
}

func TestUsageCommand(t *testing.T) {
	t.Parallel()

	svc := &stubService{usage: content.UsageSummary{Runs: 2, TotalCost: 0.06}}
	app, out, _ := newTestApp(svc)

	if err := app.RunContext(context.Background(), []string{"seogen", "usage"}); err != nil {
		t.Fatalf("RunContext returned error: %v", err)
	}
	if !strings.Contains(out.String(), `"runs": 2`) {
		t.Fatalf("unexpected usage output: %s", out.String())
	}
}

func TestUnsupportedFormatSkipsService(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	app, _, releases := newTestApp(svc)

	err := app.RunContext(context.Background(), []string{"seogen", "titles", "--format", "xml"})
	var exitErr cli.ExitCoder
	if err == nil || !asExitCoder(err, &exitErr) || exitErr.ExitCode() != 2 {
		t.Fatalf("expected exit code 2, got %v", err)
	}
	if svc.callCount() != 0 || *releases != 0 {
		t.Fatalf("service should not be built for an unsupported format")
	}
}

func TestFailuresExitWithKind(t *testing.T) {
	t.Parallel()

	svc := &stubService{err: failure.NotConfigured("openai")}
	app, out, releases := newTestApp(svc)

	err := app.RunContext(context.Background(), []string{"seogen", "titles"})
	var exitErr cli.ExitCoder
	if err == nil || !asExitCoder(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(err.Error(), "provider_not_configured: openai API key not configured") {
		t.Fatalf("unexpected failure message %q", err.Error())
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be printed on failure, got %q", out.String())
	}
	if *releases != 1 {
		t.Fatalf("expected service to be released after failure")
	}
}

// helpers

func newTestApp(svc *stubService) (*cli.App, *bytes.Buffer, *int) {
	out := &bytes.Buffer{}
	releases := 0

	app := NewApp(func(context.Context) (content.Service, func() error, error) {
		return svc, func() error {
			releases++
			return nil
		}, nil
	}, out)
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	return app, out, &releases
}

func asExitCoder(err error, target *cli.ExitCoder) bool {
	coder, ok := err.(cli.ExitCoder)
	if ok {
		*target = coder
	}
	return ok
}

type stubService struct {
	mu       sync.Mutex
	requests []content.GenerationRequest
	both     content.BothRequest
	calls    int
	err      error
	usage    content.UsageSummary
}

func (s *stubService) GenerateTitles(_ context.Context, req content.GenerationRequest) (*content.GenerationResult, error) {
	return s.generate(req)
}

func (s *stubService) GenerateDescriptions(_ context.Context, req content.GenerationRequest) (*content.GenerationResult, error) {
	return s.generate(req)
}

func (s *stubService) GenerateBoth(_ context.Context, req content.BothRequest) (*content.CombinedResult, error) {
	s.mu.Lock()
	s.both = req
	s.calls++
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return &content.CombinedResult{
		Kind:         content.KindBoth,
		Titles:       []content.ScoredCandidate{{Text: "Title"}},
		Descriptions: []content.ScoredCandidate{{Text: "Description"}},
	}, nil
}

func (s *stubService) generate(req content.GenerationRequest) (*content.GenerationResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.calls++
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return &content.GenerationResult{
		Kind:       req.Kind,
		Candidates: []content.ScoredCandidate{{Text: "Candidate", SEOScore: 80, Recommendations: []string{}}},
		Metadata:   content.Metadata{Provider: "openai", Model: "gpt-4", Cost: 0.03},
	}, nil
}

func (s *stubService) Usage(context.Context) (content.UsageSummary, error) {
	return s.usage, nil
}

func (s *stubService) ProviderName() string {
	return "openai"
}

func (s *stubService) lastRequest() content.GenerationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return content.GenerationRequest{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *stubService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
