package content

import (
	"strings"
	"time"

	"seopro/app/internal/domain/seo"
)

// Kind identifies what a generation run produces.
type Kind string

const (
	KindTitle       Kind = "title"
	KindDescription Kind = "description"
	KindBoth        Kind = "both"
)

const (
	DefaultTone           = "professional"
	MinCandidateCount     = 3
	MaxCandidateCount     = 5
	DefaultCandidateCount = MinCandidateCount
)

// GenerationRequest fully determines a single-kind generation run.
type GenerationRequest struct {
	Kind               Kind   `json:"kind" validate:"required,oneof=title description"`
	CurrentText        string `json:"currentText"`
	TargetKeyword      string `json:"targetKeyword"`
	PageContentSummary string `json:"pageContentSummary"`
	PageURL            string `json:"pageUrl"`
	Tone               string `json:"tone" validate:"required"`
	CandidateCount     int    `json:"candidateCount" validate:"min=3,max=5"`
}

// BothRequest carries the inputs for a combined title and description run.
type BothRequest struct {
	CurrentTitle       string
	CurrentDescription string
	TargetKeyword      string
	PageContentSummary string
	PageURL            string
	Tone               string
	CandidateCount     int
}

// ForKind derives the single-kind request for one half of a combined run.
func (r BothRequest) ForKind(kind Kind) GenerationRequest {
	current := r.CurrentTitle
	if kind == KindDescription {
		current = r.CurrentDescription
	}

	return GenerationRequest{
		Kind:               kind,
		CurrentText:        current,
		TargetKeyword:      r.TargetKeyword,
		PageContentSummary: r.PageContentSummary,
		PageURL:            r.PageURL,
		Tone:               r.Tone,
		CandidateCount:     r.CandidateCount,
	}
}

// Normalized trims every text field and applies the default tone and count.
// Out-of-range counts are left for Validate to reject.
func (r GenerationRequest) Normalized() GenerationRequest {
	if r.CandidateCount == 0 {
		r.CandidateCount = DefaultCandidateCount
	}
	r.Kind = Kind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
	r.CurrentText = strings.TrimSpace(r.CurrentText)
	r.TargetKeyword = strings.TrimSpace(r.TargetKeyword)
	r.PageContentSummary = strings.TrimSpace(r.PageContentSummary)
	r.PageURL = strings.TrimSpace(r.PageURL)
	r.Tone = strings.TrimSpace(r.Tone)
	if r.Tone == "" {
		r.Tone = DefaultTone
	}
	return r
}

// ClampCandidateCount maps any requested count into [3,5]; zero selects the default.
func ClampCandidateCount(count int) int {
	switch {
	case count == 0:
		return DefaultCandidateCount
	case count < MinCandidateCount:
		return MinCandidateCount
	case count > MaxCandidateCount:
		return MaxCandidateCount
	default:
		return count
	}
}

// RawCandidate is one parsed but unscored provider suggestion.
type RawCandidate struct {
	Text      string `json:"text" yaml:"text"`
	Reasoning string `json:"reasoning" yaml:"reasoning"`
}

// ScoredCandidate is a RawCandidate with its SEO metrics attached.
type ScoredCandidate struct {
	Text             string   `json:"text" yaml:"text"`
	Reasoning        string   `json:"reasoning" yaml:"reasoning"`
	CharacterCount   int      `json:"characterCount" yaml:"characterCount"`
	SEOScore         int      `json:"seoScore" yaml:"seoScore"`
	KeywordDensity   float64  `json:"keywordDensity" yaml:"keywordDensity"`
	ReadabilityScore int      `json:"readabilityScore" yaml:"readabilityScore"`
	IncludesKeyword  bool     `json:"includesKeyword" yaml:"includesKeyword"`
	IncludesCTA      bool     `json:"includesCTA" yaml:"includesCTA"`
	Recommendations  []string `json:"recommendations" yaml:"recommendations"`
}

// ScoreCandidate evaluates raw against the request's kind and keyword.
func ScoreCandidate(raw RawCandidate, kind Kind, targetKeyword string) ScoredCandidate {
	score := seo.Evaluate(raw.Text, seo.Kind(kind), targetKeyword)

	return ScoredCandidate{
		Text:             raw.Text,
		Reasoning:        raw.Reasoning,
		CharacterCount:   score.CharacterCount,
		SEOScore:         score.SEOScore,
		KeywordDensity:   score.KeywordDensity,
		ReadabilityScore: score.ReadabilityScore,
		IncludesKeyword:  score.IncludesKeyword,
		IncludesCTA:      score.IncludesCTA,
		Recommendations:  score.Recommendations,
	}
}

// Metadata describes how a result was produced.
type Metadata struct {
	Provider    string    `json:"providerName" yaml:"providerName"`
	Model       string    `json:"model" yaml:"model"`
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`
	Cached      bool      `json:"cached" yaml:"cached"`
	Cost        float64   `json:"cost" yaml:"cost"`
}

// GenerationResult is the scored output of a single-kind run.
type GenerationResult struct {
	Kind       Kind              `json:"kind" yaml:"kind"`
	Candidates []ScoredCandidate `json:"candidates" yaml:"candidates"`
	Metadata   Metadata          `json:"metadata" yaml:"metadata"`
}

// Clone returns a deep copy that shares no slices with r.
func (r GenerationResult) Clone() GenerationResult {
	clone := r
	clone.Candidates = make([]ScoredCandidate, len(r.Candidates))
	for i, candidate := range r.Candidates {
		recommendations := make([]string, len(candidate.Recommendations))
		copy(recommendations, candidate.Recommendations)
		candidate.Recommendations = recommendations
		clone.Candidates[i] = candidate
	}
	return clone
}

// CombinedResult merges a title run and a description run.
type CombinedResult struct {
	Kind         Kind              `json:"kind" yaml:"kind"`
	Titles       []ScoredCandidate `json:"titles" yaml:"titles"`
	Descriptions []ScoredCandidate `json:"descriptions" yaml:"descriptions"`
	Metadata     Metadata          `json:"metadata" yaml:"metadata"`
}

// UsageRecord is one ledger row describing a generation run. It never holds generated text.
type UsageRecord struct {
	Fingerprint    string
	Kind           Kind
	Provider       string
	Model          string
	Cached         bool
	Degraded       bool
	CandidateCount int
	AverageScore   float64
	Cost           float64
	Duration       time.Duration
	CreatedAt      time.Time
}

// UsageSummary aggregates the usage ledger.
type UsageSummary struct {
	Runs         int64   `json:"runs" yaml:"runs"`
	CachedRuns   int64   `json:"cachedRuns" yaml:"cachedRuns"`
	DegradedRuns int64   `json:"degradedRuns" yaml:"degradedRuns"`
	TotalCost    float64 `json:"totalCost" yaml:"totalCost"`
	AverageScore float64 `json:"averageScore" yaml:"averageScore"`
}

func averageScore(candidates []ScoredCandidate) float64 {
	if len(candidates) == 0 {
		return 0
	}

	total := 0
	for _, candidate := range candidates {
		total += candidate.SEOScore
	}
	return float64(total) / float64(len(candidates))
}
