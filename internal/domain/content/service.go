package content

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"seopro/app/internal/domain/failure"
	"seopro/app/internal/domain/llm"
	"seopro/app/internal/platform/metrics"
)

// DefaultCallCost is the estimated cost attributed to one provider call.
const DefaultCallCost = 0.03

const rawPreviewRunes = 200

// Service generates scored SEO titles and descriptions.
type Service interface {
	GenerateTitles(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
	GenerateDescriptions(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
	GenerateBoth(ctx context.Context, req BothRequest) (*CombinedResult, error)
	Usage(ctx context.Context) (UsageSummary, error)
	ProviderName() string
}

// ServiceOptions wires the generation service.
type ServiceOptions struct {
	Provider    llm.Provider
	Cache       Cache
	Usage       UsageRepository
	Metrics     *metrics.Metrics
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	Deduplicate bool
	CallCost    float64
	Now         func() time.Time
}

type service struct {
	provider    llm.Provider
	cache       Cache
	usage       UsageRepository
	metrics     *metrics.Metrics
	logger      *logrus.Logger
	sentryHub   *sentry.Hub
	deduplicate bool
	inflight    singleflight.Group
	callCost    float64
	now         func() time.Time
}

var _ Service = (*service)(nil)

// NewService validates the dependencies and returns a Service.
func NewService(opts ServiceOptions) (Service, error) {
	if opts.Provider == nil {
		return nil, eris.New("llm provider is required")
	}
	if opts.Cache == nil {
		return nil, eris.New("result cache is required")
	}

	callCost := opts.CallCost
	if callCost <= 0 {
		callCost = DefaultCallCost
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		provider:    opts.Provider,
		cache:       opts.Cache,
		usage:       opts.Usage,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		sentryHub:   opts.SentryHub,
		deduplicate: opts.Deduplicate,
		callCost:    callCost,
		now:         now,
	}, nil
}

func (s *service) GenerateTitles(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	req.Kind = KindTitle
	return s.generate(ctx, req)
}

func (s *service) GenerateDescriptions(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	req.Kind = KindDescription
	return s.generate(ctx, req)
}

// GenerateBoth runs both flows concurrently. The first failure is returned and
// cancels the other flow; both are awaited before returning.
func (s *service) GenerateBoth(ctx context.Context, req BothRequest) (*CombinedResult, error) {
	group, groupCtx := errgroup.WithContext(ctx)

	var titles, descriptions *GenerationResult
	group.Go(func() error {
		result, err := s.GenerateTitles(groupCtx, req.ForKind(KindTitle))
		titles = result
		return err
	})
	group.Go(func() error {
		result, err := s.GenerateDescriptions(groupCtx, req.ForKind(KindDescription))
		descriptions = result
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	metadata := titles.Metadata
	metadata.Cost = titles.Metadata.Cost + descriptions.Metadata.Cost
	metadata.Cached = titles.Metadata.Cached && descriptions.Metadata.Cached

	return &CombinedResult{
		Kind:         KindBoth,
		Titles:       titles.Candidates,
		Descriptions: descriptions.Candidates,
		Metadata:     metadata,
	}, nil
}

func (s *service) Usage(ctx context.Context) (UsageSummary, error) {
	if s.usage == nil {
		return UsageSummary{}, ErrUsageUnavailable
	}

	summary, err := s.usage.Summary(ctx)
	if err != nil {
		s.logError(nil, err, "summarizing usage ledger")
		return UsageSummary{}, eris.Wrap(err, "summarizing usage ledger")
	}
	return summary, nil
}

func (s *service) ProviderName() string {
	return s.provider.Name()
}

func (s *service) generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		s.logError(logrus.Fields{"kind": req.Kind}, err, "rejecting generation request")
		return nil, err
	}

	key, err := Fingerprint(req)
	if err != nil {
		s.recordError(logrus.Fields{"kind": req.Kind}, err, "fingerprinting generation request")
		return nil, err
	}

	if !s.deduplicate {
		return s.resolve(ctx, req, key)
	}

	// The shared call outlives any single waiter; the provider timeout bounds it.
	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (any, error) {
		return s.resolve(shared, req, key)
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "waiting for in-flight generation")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneResult(res.Val.(*GenerationResult)), nil
	}
}

func (s *service) resolve(ctx context.Context, req GenerationRequest, key string) (*GenerationResult, error) {
	started := s.now()

	if cached, ok := s.lookup(ctx, req.Kind, key); ok {
		s.metrics.ObserveGeneration(string(req.Kind), cached.Metadata.Provider, true)
		s.recordUsage(ctx, UsageRecord{
			Fingerprint:    key,
			Kind:           req.Kind,
			Provider:       cached.Metadata.Provider,
			Model:          cached.Metadata.Model,
			Cached:         true,
			CandidateCount: len(cached.Candidates),
			AverageScore:   averageScore(cached.Candidates),
			Duration:       s.now().Sub(started),
			CreatedAt:      s.now().UTC(),
		})
		return cached, nil
	}

	return s.build(ctx, req, key, started)
}

func (s *service) lookup(ctx context.Context, kind Kind, key string) (*GenerationResult, bool) {
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logError(logrus.Fields{"kind": kind, "key": key}, err, "reading result cache")
		ok = false
	}
	s.metrics.ObserveCacheLookup(string(kind), ok && cached != nil)

	if !ok || cached == nil {
		return nil, false
	}

	hit := cloneResult(cached)
	hit.Metadata.Cached = true
	return hit, true
}

func (s *service) build(ctx context.Context, req GenerationRequest, key string, started time.Time) (*GenerationResult, error) {
	providerName := s.provider.Name()
	fields := logrus.Fields{"kind": req.Kind, "provider": providerName}

	prompt, err := BuildPrompt(req)
	if err != nil {
		s.recordError(fields, err, "building prompt")
		return nil, err
	}

	callStarted := s.now()
	raw, err := s.provider.SendPrompt(ctx, prompt)
	s.metrics.ObserveProviderCall(providerName, s.now().Sub(callStarted), err)
	if err != nil {
		s.recordError(fields, err, "calling llm provider")
		return nil, err
	}

	candidates, degraded := ParseResponse(raw, req.Kind)
	if degraded {
		s.metrics.ObserveDegradedParse(string(req.Kind))
		if s.logger != nil {
			s.logger.WithFields(fields).
				WithField("raw_preview", truncateRunes(raw, rawPreviewRunes)).
				Warn("provider response was not a JSON array, using line fallback")
		}
	}

	if len(candidates) > req.CandidateCount {
		candidates = candidates[:req.CandidateCount]
	}
	if len(candidates) == 0 {
		err := failure.APIError(providerName, "response contained no candidates", nil)
		s.recordError(fields, err, "parsing provider response")
		return nil, err
	}

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, ScoreCandidate(candidate, req.Kind, req.TargetKeyword))
	}

	result := GenerationResult{
		Kind:       req.Kind,
		Candidates: scored,
		Metadata: Metadata{
			Provider:    providerName,
			Model:       s.provider.Model(),
			GeneratedAt: s.now().UTC(),
			Cached:      false,
			Cost:        s.callCost,
		},
	}

	if err := s.cache.Put(ctx, key, result); err != nil {
		s.logError(fields, err, "storing result in cache")
	}

	s.metrics.ObserveGeneration(string(req.Kind), providerName, false)
	s.recordUsage(ctx, UsageRecord{
		Fingerprint:    key,
		Kind:           req.Kind,
		Provider:       providerName,
		Model:          result.Metadata.Model,
		Degraded:       degraded,
		CandidateCount: len(scored),
		AverageScore:   averageScore(scored),
		Cost:           s.callCost,
		Duration:       s.now().Sub(started),
		CreatedAt:      s.now().UTC(),
	})

	return &result, nil
}

func (s *service) recordUsage(ctx context.Context, record UsageRecord) {
	if s.usage == nil {
		return
	}
	if err := s.usage.Record(ctx, record); err != nil {
		s.logError(logrus.Fields{"kind": record.Kind, "key": record.Fingerprint}, err, "recording usage")
	}
}

func (s *service) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil || err == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	s.logError(fields, err, message)

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}

func cloneResult(result *GenerationResult) *GenerationResult {
	if result == nil {
		return nil
	}

	clone := result.Clone()
	return &clone
}
