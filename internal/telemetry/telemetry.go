// Package telemetry exposes pipeline metrics on a dedicated prometheus
// registry so serve mode can mount them without touching the default one.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Telemetry struct {
	registry *prometheus.Registry

	PipelineRuns       *prometheus.CounterVec
	Searches           prometheus.Counter
	SelectorRetries    prometheus.Counter
	ExtractionFailures prometheus.Counter
	LLMRequests        *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
}

func New() *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		registry: reg,
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "websage_pipeline_runs_total",
			Help: "Pipeline runs by outcome (context, no_context).",
		}, []string{"outcome"}),
		Searches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "websage_searches_total",
			Help: "Web search calls issued.",
		}),
		SelectorRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "websage_selector_retries_total",
			Help: "Candidate-selection attempts that failed to yield a valid ordinal.",
		}),
		ExtractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "websage_extraction_failures_total",
			Help: "Candidate pages where fetch or extraction failed.",
		}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "websage_llm_requests_total",
			Help: "Language-model calls by operation and status.",
		}, []string{"operation", "status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "websage_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	reg.MustRegister(t.PipelineRuns, t.Searches, t.SelectorRetries, t.ExtractionFailures, t.LLMRequests, t.StageDuration)
	return t
}

// ObserveStage records the elapsed time of one stage.
func (t *Telemetry) ObserveStage(stage string, start time.Time) {
	t.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordLLM counts one model call by operation and outcome.
func (t *Telemetry) RecordLLM(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	t.LLMRequests.WithLabelValues(operation, status).Inc()
}

// Handler serves the registry for /metrics.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
