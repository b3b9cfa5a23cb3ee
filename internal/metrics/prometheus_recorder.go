package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "ojsconvert"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once        sync.Once
	reg         *prom.Registry
	hopDuration *prom.HistogramVec
	hopResults  *prom.CounterVec
	validations *prom.CounterVec
	runDuration prom.Histogram
	runOutcomes *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.hopDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "hop_duration_seconds",
			Help:      "Duration of individual version hops",
			Buckets:   prom.DefBuckets,
		}, []string{"hop"})
		pr.hopResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hop_results_total",
			Help:      "Hop result counts by outcome",
		}, []string{"hop", "result"})
		pr.validations = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Schema validation results by version",
		}, []string{"version", "result"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total conversion run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Conversion runs by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.hopDuration, pr.hopResults, pr.validations, pr.runDuration, pr.runOutcomes)
	})
	return pr
}

// Registry returns the registry the collectors were registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	if p == nil {
		return nil
	}
	return p.reg
}

func (p *PrometheusRecorder) ObserveHopDuration(hop string, d time.Duration) {
	if p == nil || p.hopDuration == nil {
		return
	}
	p.hopDuration.WithLabelValues(hop).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncHopResult(hop string, result ResultLabel) {
	if p == nil || p.hopResults == nil {
		return
	}
	p.hopResults.WithLabelValues(hop, string(result)).Inc()
}

func (p *PrometheusRecorder) IncValidation(version string, result ResultLabel) {
	if p == nil || p.validations == nil {
		return
	}
	p.validations.WithLabelValues(version, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcomeLabel) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
}
