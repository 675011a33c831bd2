package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"seopro/app/internal/domain/content"
	"seopro/app/internal/domain/failure"
	"seopro/app/internal/platform/metrics"
)

func TestGenerateTitlesReturnsEnvelope(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	srv := newTestServer(t, svc, RateLimiterSettings{})

	rec := postGenerate(t, srv, `{"type":"title","currentTitle":"Old title","targetKeyword":"shoes","pageContent":"All about shoes","pageUrl":"https://example.com","count":4}`)

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool                     `json:"success"`
		Data    content.GenerationResult `json:"data"`
	}
	decodeBody(t, rec, &body)

	if !body.Success {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}
	if body.Data.Kind != content.KindTitle || len(body.Data.Candidates) != 1 {
		t.Fatalf("unexpected data: %+v", body.Data)
	}

	req := svc.lastRequest()
	if req.CurrentText != "Old title" || req.TargetKeyword != "shoes" || req.PageContentSummary != "All about shoes" {
		t.Fatalf("request fields not forwarded: %+v", req)
	}
	if req.CandidateCount != 4 || req.Tone != content.DefaultTone {
		t.Fatalf("expected count 4 and default tone, got %d / %q", req.CandidateCount, req.Tone)
	}
}

func TestGenerateDescriptionsUsesCurrentDescription(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	srv := newTestServer(t, svc, RateLimiterSettings{})

	rec := postGenerate(t, srv, `{"type":"description","currentTitle":"T","currentDescription":"D","tone":"playful"}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	req := svc.lastRequest()
	if req.Kind != content.KindDescription || req.CurrentText != "D" || req.Tone != "playful" {
		t.Fatalf("unexpected description request: %+v", req)
	}
	if req.CandidateCount != content.DefaultCandidateCount {
		t.Fatalf("expected default count, got %d", req.CandidateCount)
	}
}

func TestGenerateClampsCount(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		`{"type":"title","count":9}`:  content.MaxCandidateCount,
		`{"type":"title","count":1}`:  content.MinCandidateCount,
		`{"type":"title","count":-4}`: content.MinCandidateCount,
		`{"type":"title"}`:            content.DefaultCandidateCount,
	}

	for payload, expected := range cases {
		svc := &stubService{}
		srv := newTestServer(t, svc, RateLimiterSettings{})

		rec := postGenerate(t, srv, payload)
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("payload %s: expected status 200, got %d", payload, rec.Code)
		}
		if got := svc.lastRequest().CandidateCount; got != expected {
			t.Fatalf("payload %s: expected count %d, got %d", payload, expected, got)
		}
	}
}

func TestGenerateAcceptsLooseBodies(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		`{"type":"title","extra":1}`:       content.DefaultCandidateCount,
		`{"type":"title","count":"4"}`:     4,
		`{"type":"title","count":" 5 "}`:   5,
		`{"type":"title","count":"4 max"}`: 4,
		`{"type":"title","count":"many"}`:  content.DefaultCandidateCount,
		`{"type":"title","count":4.7}`:     4,
		`{"type":"title","count":null}`:    content.DefaultCandidateCount,
		`{"type":"title","count":"99"}`:    content.MaxCandidateCount,
	}

	for payload, expected := range cases {
		svc := &stubService{}
		srv := newTestServer(t, svc, RateLimiterSettings{})

		rec := postGenerate(t, srv, payload)
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("payload %s: expected status 200, got %d: %s", payload, rec.Code, rec.Body.String())
		}
		if got := svc.lastRequest().CandidateCount; got != expected {
			t.Fatalf("payload %s: expected count %d, got %d", payload, expected, got)
		}
	}
}

func TestGenerateSuccessBodyIsBareEnvelope(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubService{}, RateLimiterSettings{})

	rec := postGenerate(t, srv, `{"type":"title"}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var raw map[string]json.RawMessage
	decodeBody(t, rec, &raw)
	for key := range raw {
		switch key {
		case "success", "data":
		default:
			t.Fatalf("unexpected key %q in success body: %s", key, rec.Body.String())
		}
	}
}

func TestGenerateMalformedBodiesReturnEnvelope(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
		message string
		code    string
	}{
		{name: "empty body", payload: "", message: invalidTypeMessage},
		{name: "truncated json", payload: `{"type":`, message: invalidBodyPrefix, code: codeInvalidRequest},
		{name: "wrong field type", payload: `{"type":5}`, message: invalidBodyPrefix, code: codeInvalidRequest},
		{name: "array body", payload: `[1,2]`, message: invalidBodyPrefix, code: codeInvalidRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubService{}
			srv := newTestServer(t, svc, RateLimiterSettings{})

			rec := postGenerate(t, srv, tc.payload)
			if rec.Code != stdhttp.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}

			var raw map[string]json.RawMessage
			decodeBody(t, rec, &raw)
			if _, ok := raw["$schema"]; ok {
				t.Fatalf("error body should not carry $schema: %s", rec.Body.String())
			}

			body := decodeEnvelope(t, rec)
			if body.Success || !strings.HasPrefix(body.Error, tc.message) || body.Code != tc.code {
				t.Fatalf("unexpected envelope: %+v", body)
			}
			if svc.callCount() != 0 {
				t.Fatalf("service should not be called for a malformed body")
			}
		})
	}
}

func TestGenerateBothForwardsBothTexts(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	srv := newTestServer(t, svc, RateLimiterSettings{})

	rec := postGenerate(t, srv, `{"type":"both","currentTitle":"T","currentDescription":"D","targetKeyword":"shoes"}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Success bool                   `json:"success"`
		Data    content.CombinedResult `json:"data"`
	}
	decodeBody(t, rec, &body)

	if body.Data.Kind != content.KindBoth || len(body.Data.Titles) != 1 || len(body.Data.Descriptions) != 1 {
		t.Fatalf("unexpected combined data: %+v", body.Data)
	}

	svc.mu.Lock()
	both := svc.both
	svc.mu.Unlock()
	if both.CurrentTitle != "T" || both.CurrentDescription != "D" || both.CandidateCount != content.DefaultCandidateCount {
		t.Fatalf("unexpected both request: %+v", both)
	}
}

func TestGenerateRejectsUnknownType(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{`{"type":"keywords"}`, `{}`} {
		svc := &stubService{}
		srv := newTestServer(t, svc, RateLimiterSettings{})

		rec := postGenerate(t, srv, payload)
		if rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("payload %s: expected status 400, got %d", payload, rec.Code)
		}

		body := decodeEnvelope(t, rec)
		if body.Success || body.Error != invalidTypeMessage {
			t.Fatalf("payload %s: unexpected envelope %+v", payload, body)
		}
		if svc.callCount() != 0 {
			t.Fatalf("payload %s: service should not be called", payload)
		}
	}
}

func TestGenerateMapsFailureKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not configured", failure.NotConfigured("openai"), stdhttp.StatusInternalServerError, codeConfigError, configErrorMessage},
		{"timeout", failure.Timeout("openai", context.DeadlineExceeded), stdhttp.StatusRequestTimeout, codeTimeout, timeoutErrorMessage},
		{"api error", failure.APIError("openai", "Rate limit reached", nil), stdhttp.StatusInternalServerError, codeAPIError, "openai API error: Rate limit reached"},
		{"invalid", failure.InvalidRequest("candidateCount must be at most 5", nil), stdhttp.StatusBadRequest, codeInvalidRequest, "candidateCount must be at most 5"},
		{"untagged", eris.New("boom"), stdhttp.StatusInternalServerError, codeAPIError, generateFallbackError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, &stubService{err: tc.err}, RateLimiterSettings{})
			rec := postGenerate(t, srv, `{"type":"title"}`)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}

			body := decodeEnvelope(t, rec)
			if body.Success || body.Code != tc.code || body.Error != tc.message {
				t.Fatalf("unexpected envelope %+v", body)
			}
		})
	}
}

func TestHealthRouteReportsProvider(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubService{}, RateLimiterSettings{})

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
		Provider  string    `json:"provider"`
	}
	decodeBody(t, rec, &body)

	if body.Status != "ok" || body.Message != healthMessage || body.Provider != "openai" {
		t.Fatalf("unexpected health body: %+v", body)
	}
	if !body.Timestamp.Equal(fixedNow) {
		t.Fatalf("expected timestamp %s, got %s", fixedNow, body.Timestamp)
	}
}

func TestUsageRouteReturnsSummary(t *testing.T) {
	t.Parallel()

	svc := &stubService{usage: content.UsageSummary{Runs: 4, CachedRuns: 1, TotalCost: 0.09}}
	srv := newTestServer(t, svc, RateLimiterSettings{})

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/usage", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Success bool                 `json:"success"`
		Data    content.UsageSummary `json:"data"`
	}
	decodeBody(t, rec, &body)

	if !body.Success || body.Data != svc.usage {
		t.Fatalf("unexpected usage body: %+v", body)
	}
}

func TestUsageRouteWithoutLedger(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubService{usageErr: content.ErrUsageUnavailable}, RateLimiterSettings{})

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/usage", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	if body := decodeEnvelope(t, rec); body.Code != codeUsageUnavailable {
		t.Fatalf("unexpected envelope %+v", body)
	}
}

func TestMetricsRouteExposesCollectors(t *testing.T) {
	t.Parallel()

	m, err := metrics.New()
	if err != nil {
		t.Fatalf("metrics.New returned error: %v", err)
	}
	m.ObserveGeneration("title", "openai", false)

	srv, err := NewServer(Options{Service: &stubService{}, Metrics: m, Logger: silentLogger()})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}

	req := httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "seopro_generations_total") {
		t.Fatalf("expected generation counter in exposition, got %q", rec.Body.String())
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubService{}, RateLimiterSettings{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}

func TestRateLimiterMiddlewareCapsGeneration(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubService{}, RateLimiterSettings{Burst: 2, RequestsPerSecond: 1, ClientTTL: time.Minute})

	current := time.Unix(0, 0)
	srv.rateLimiter.now = func() time.Time {
		return current
	}

	for i := 0; i < 2; i++ {
		if rec := postGenerate(t, srv, `{"type":"title"}`); rec.Code != stdhttp.StatusOK {
			t.Fatalf("expected request %d to be allowed, got status %d", i+1, rec.Code)
		}
	}

	limited := postGenerate(t, srv, `{"type":"title"}`)
	if limited.Code != stdhttp.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", stdhttp.StatusTooManyRequests, limited.Code)
	}
	if header := limited.Header().Get("Retry-After"); header != "1" {
		t.Fatalf("expected Retry-After header to be 1, got %q", header)
	}
	if body := decodeEnvelope(t, limited); body.Code != codeRateLimited || body.Error != rateLimitMessage {
		t.Fatalf("unexpected rate limit envelope %+v", body)
	}

	health := httptest.NewRecorder()
	srv.ServeHTTP(health, httptest.NewRequest(stdhttp.MethodGet, "/api/health", nil))
	if health.Code != stdhttp.StatusOK {
		t.Fatalf("expected health to bypass rate limiting, got %d", health.Code)
	}

	current = current.Add(time.Second)
	if rec := postGenerate(t, srv, `{"type":"title"}`); rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200 after refill, got %d", rec.Code)
	}
}

func TestRecoveryMiddlewareReturnsEnvelope(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubService{panicWith: "kaboom"}, RateLimiterSettings{})

	rec := postGenerate(t, srv, `{"type":"title"}`)
	if rec.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if body := decodeEnvelope(t, rec); body.Success || body.Error != internalErrorMessage {
		t.Fatalf("unexpected envelope %+v", body)
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubService{}, RateLimiterSettings{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/missing", nil))

	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if body := decodeEnvelope(t, rec); body.Error != notFoundMessage {
		t.Fatalf("unexpected envelope %+v", body)
	}
}

func TestNewServerRequiresService(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(Options{}); err == nil {
		t.Fatalf("expected error when service is missing")
	}
}

// helper utilities

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, svc content.Service, limits RateLimiterSettings) *Server {
	t.Helper()

	srv, err := NewServer(Options{
		Service:     svc,
		Logger:      silentLogger(),
		RateLimiter: limits,
		Now:         func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	t.Cleanup(srv.Close)

	return srv
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func postGenerate(t *testing.T, srv *Server, payload string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/generate-title-description", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var body envelope
	decodeBody(t, rec, &body)
	return body
}

// stubs

type stubService struct {
	mu        sync.Mutex
	requests  []content.GenerationRequest
	both      content.BothRequest
	calls     int
	err       error
	panicWith string
	usage     content.UsageSummary
	usageErr  error
}

func (s *stubService) GenerateTitles(_ context.Context, req content.GenerationRequest) (*content.GenerationResult, error) {
	req.Kind = content.KindTitle
	return s.generate(req)
}

func (s *stubService) GenerateDescriptions(_ context.Context, req content.GenerationRequest) (*content.GenerationResult, error) {
	req.Kind = content.KindDescription
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
		Metadata:     content.Metadata{Provider: "openai", Model: "gpt-4", Cost: 0.06},
	}, nil
}

func (s *stubService) generate(req content.GenerationRequest) (*content.GenerationResult, error) {
	if s.panicWith != "" {
		panic(s.panicWith)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.calls++
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	return &content.GenerationResult{
		Kind:       req.Kind,
		Candidates: []content.ScoredCandidate{{Text: "Candidate", SEOScore: 80}},
		Metadata:   content.Metadata{Provider: "openai", Model: "gpt-4", GeneratedAt: fixedNow, Cost: 0.03},
	}, nil
}

func (s *stubService) Usage(context.Context) (content.UsageSummary, error) {
	if s.usageErr != nil {
		return content.UsageSummary{}, s.usageErr
	}
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
