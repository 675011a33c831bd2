package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"seopro/app/internal/domain/content"
	"seopro/app/internal/domain/failure"
)

const (
	healthMessage         = "SEO Optimizer Pro API is running"
	invalidTypeMessage    = `Invalid type. Must be "title", "description", or "both"`
	configErrorMessage    = "AI service not configured. Please set API key in environment variables."
	timeoutErrorMessage   = "AI service timeout. Please try again."
	generateFallbackError = "An error occurred while generating content"
	usageUnavailableError = "Usage ledger is not configured"
	notFoundMessage       = "Endpoint not found"
	internalErrorMessage  = "Internal server error"
)

const (
	codeInvalidRequest   = "INVALID_REQUEST"
	codeConfigError      = "AI_CONFIG_ERROR"
	codeTimeout          = "AI_TIMEOUT"
	codeAPIError         = "AI_API_ERROR"
	codeRateLimited      = "RATE_LIMITED"
	codeUsageUnavailable = "USAGE_UNAVAILABLE"
	codeUsageError       = "USAGE_ERROR"
)

// envelope is the body shape shared by every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

type envelopeResponse struct {
	Status int
	Body   envelope
}

type generateInput struct {
	Body *generateBody `required:"false"`
}

type generateBody struct {
	_                  struct{}       `json:"-" additionalProperties:"true"`
	Type               string         `json:"type" required:"false"`
	CurrentTitle       string         `json:"currentTitle" required:"false"`
	CurrentDescription string         `json:"currentDescription" required:"false"`
	TargetKeyword      string         `json:"targetKeyword" required:"false"`
	PageContent        string         `json:"pageContent" required:"false"`
	PageURL            string         `json:"pageUrl" required:"false"`
	Tone               string         `json:"tone" required:"false"`
	Count              candidateCount `json:"count" required:"false"`
}

// candidateCount accepts a JSON number or a numeric string. Anything else reads as zero.
type candidateCount int

func (c *candidateCount) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*c = 0
		return nil
	}

	switch v := raw.(type) {
	case float64:
		*c = candidateCount(boundCount(v))
	case string:
		*c = candidateCount(leadingInteger(v))
	default:
		*c = 0
	}
	return nil
}

func (candidateCount) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "Number of candidates to generate, clamped to 3..5. Numeric strings are accepted.",
	}
}

// leadingInteger parses the optional sign and digits at the start of s.
func leadingInteger(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return boundCount(n)
}

func boundCount(v float64) int {
	const limit = 1000
	switch {
	case v > limit:
		return limit
	case v < -limit:
		return -limit
	default:
		return int(v)
	}
}

type healthResponse struct {
	Body struct {
		Status    string    `json:"status"`
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
		Provider  string    `json:"provider"`
	}
}

func (s *Server) registerGenerateRoute() {
	op := huma.Operation{
		OperationID: "generate-title-description",
		Method:      stdhttp.MethodPost,
		Path:        "/api/generate-title-description",
		Summary:     "Generate scored SEO titles and/or meta descriptions",
	}
	if s.rateLimiter != nil {
		op.Middlewares = huma.Middlewares{s.rateLimitMiddleware()}
	}

	huma.Register(s.api, op, s.generateHandler)
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/api/health", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) registerUsageRoute() {
	huma.Get(s.api, "/api/usage", s.usageHandler, func(op *huma.Operation) {
		op.Summary = "Aggregate generation usage"
	})
}

func (s *Server) generateHandler(ctx context.Context, input *generateInput) (*envelopeResponse, error) {
	var body generateBody
	if input.Body != nil {
		body = *input.Body
	}
	kind := content.Kind(strings.TrimSpace(body.Type))

	switch kind {
	case content.KindTitle, content.KindDescription, content.KindBoth:
	default:
		return errorResponse(stdhttp.StatusBadRequest, invalidTypeMessage, ""), nil
	}

	count := content.ClampCandidateCount(int(body.Count))
	tone := body.Tone
	if strings.TrimSpace(tone) == "" {
		tone = content.DefaultTone
	}

	if s.logger != nil {
		entry := s.logger.WithFields(logrus.Fields{"type": kind, "count": count})
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Info("generating content")
	}

	var (
		data any
		err  error
	)

	switch kind {
	case content.KindBoth:
		data, err = s.service.GenerateBoth(ctx, content.BothRequest{
			CurrentTitle:       body.CurrentTitle,
			CurrentDescription: body.CurrentDescription,
			TargetKeyword:      body.TargetKeyword,
			PageContentSummary: body.PageContent,
			PageURL:            body.PageURL,
			Tone:               tone,
			CandidateCount:     count,
		})
	default:
		req := content.GenerationRequest{
			Kind:               kind,
			TargetKeyword:      body.TargetKeyword,
			PageContentSummary: body.PageContent,
			PageURL:            body.PageURL,
			Tone:               tone,
			CandidateCount:     count,
		}
		if kind == content.KindTitle {
			req.CurrentText = body.CurrentTitle
			data, err = s.service.GenerateTitles(ctx, req)
		} else {
			req.CurrentText = body.CurrentDescription
			data, err = s.service.GenerateDescriptions(ctx, req)
		}
	}

	if err != nil {
		status, message, code := classifyError(err)
		s.recordError(ctx, err, "content generation failed", logrus.Fields{"type": kind, "code": code})
		return errorResponse(status, message, code), nil
	}

	return &envelopeResponse{
		Status: stdhttp.StatusOK,
		Body:   envelope{Success: true, Data: data},
	}, nil
}

func (s *Server) healthHandler(_ context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Message = healthMessage
	resp.Body.Timestamp = s.now().UTC()
	resp.Body.Provider = s.service.ProviderName()
	return resp, nil
}

func (s *Server) usageHandler(ctx context.Context, _ *struct{}) (*envelopeResponse, error) {
	summary, err := s.service.Usage(ctx)
	if err != nil {
		if eris.Is(err, content.ErrUsageUnavailable) {
			return errorResponse(stdhttp.StatusServiceUnavailable, usageUnavailableError, codeUsageUnavailable), nil
		}
		s.recordError(ctx, err, "loading usage summary", nil)
		return errorResponse(stdhttp.StatusInternalServerError, internalErrorMessage, codeUsageError), nil
	}

	return &envelopeResponse{
		Status: stdhttp.StatusOK,
		Body:   envelope{Success: true, Data: summary},
	}, nil
}

func errorResponse(status int, message, code string) *envelopeResponse {
	return &envelopeResponse{
		Status: status,
		Body:   envelope{Success: false, Error: message, Code: code},
	}
}

// classifyError maps a pipeline failure to a status, caller-facing message and error code.
func classifyError(err error) (int, string, string) {
	kind, _ := failure.KindOf(err)

	switch kind {
	case failure.KindInvalidRequest:
		return stdhttp.StatusBadRequest, failure.MessageOf(err), codeInvalidRequest
	case failure.KindProviderNotConfigured:
		return stdhttp.StatusInternalServerError, configErrorMessage, codeConfigError
	case failure.KindProviderTimeout:
		return stdhttp.StatusRequestTimeout, timeoutErrorMessage, codeTimeout
	case failure.KindProviderAPI:
		return stdhttp.StatusInternalServerError, failure.MessageOf(err), codeAPIError
	default:
		return stdhttp.StatusInternalServerError, generateFallbackError, codeAPIError
	}
}

func notFoundHandler(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
	writeEnvelope(w, stdhttp.StatusNotFound, envelope{Success: false, Error: notFoundMessage})
}

func writeEnvelope(w stdhttp.ResponseWriter, status int, body envelope) {
	payload, err := json.Marshal(body)
	if err != nil {
		payload = []byte(`{"success":false}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
