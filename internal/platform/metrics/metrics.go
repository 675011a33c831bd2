// Package metrics exposes Prometheus collectors for the generation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"

	"seopro/app/internal/domain/failure"
)

const namespace = "seopro"

// Metrics groups the pipeline collectors. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	generations     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	degradedParses  *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

// New registers the pipeline collectors on a fresh registry.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	return NewWithRegistry(registry, registry)
}

// NewWithRegistry registers the pipeline collectors on the provided registerer.
func NewWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	if registerer == nil || gatherer == nil {
		return nil, eris.New("prometheus registerer and gatherer are required")
	}

	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation results returned, by kind, provider and cache state.",
		}, []string{"kind", "provider", "cached"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of provider calls by provider and outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"provider", "outcome"}),
		degradedParses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_parses_total",
			Help:      "Provider responses parsed with the line fallback.",
		}, []string{"kind"}),
		gatherer: gatherer,
	}

	collectors := []prometheus.Collector{m.generations, m.cacheLookups, m.providerLatency, m.degradedParses}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			return nil, eris.Wrap(err, "registering prometheus collector")
		}
	}

	return m, nil
}

// Handler serves the registered collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveGeneration counts a returned result.
func (m *Metrics) ObserveGeneration(kind, provider string, cached bool) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(kind, provider, strconv.FormatBool(cached)).Inc()
}

// ObserveCacheLookup counts a cache hit or miss.
func (m *Metrics) ObserveCacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

// ObserveProviderCall records the latency of one provider call, labelled by failure kind.
func (m *Metrics) ObserveProviderCall(provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.providerLatency.WithLabelValues(provider, outcome(err)).Observe(duration.Seconds())
}

// ObserveDegradedParse counts a fallback parse.
func (m *Metrics) ObserveDegradedParse(kind string) {
	if m == nil {
		return
	}
	m.degradedParses.WithLabelValues(kind).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := failure.KindOf(err); ok {
		return string(kind)
	}
	return "error"
}
