// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var totalTokens atomic.Int64

var (
	InferenceTokensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inference_tokens_total",
		Help: "The total number of tokens generated",
	})

	InferenceDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "inference_duration_seconds",
		Help: "Duration of generation requests",
	})

	ForwardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "forward_pass_duration_seconds",
		Help:    "Duration of a single forward pass over the context window",
		Buckets: prometheus.DefBuckets,
	})

	ContextLengthHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "context_length_tokens",
		Help:    "Distribution of context lengths processed per forward pass",
		Buckets: []float64{1, 4, 16, 64, 128, 256, 512, 1024},
	})

	SamplingTemperature = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sampling_temperature",
		Help:    "Temperature values used in sampling (1.0 = neutral)",
		Buckets: []float64{0, 0.1, 0.3, 0.5, 0.7, 1.0, 1.5, 2.0},
	})

	ModelLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "model_load_duration_seconds",
		Help:    "Time to load a model directory",
		Buckets: prometheus.DefBuckets,
	})

	ModelLoadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "model_load_errors_total",
		Help: "Total number of model load failures",
	}, []string{"reason"})

	ModelReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "model_reloads_total",
		Help: "Total number of successful model reloads",
	})

	GenerateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "generate_requests_total",
		Help: "Total number of generation requests by outcome",
	}, []string{"outcome"})
)

// RecordInference records a completed generation request.
func RecordInference(tokens int, duration time.Duration) {
	InferenceTokensTotal.Add(float64(tokens))
	totalTokens.Add(int64(tokens))
	InferenceDuration.Observe(duration.Seconds())
}

// RecordForward records one forward pass and the context length it ran
// over.
func RecordForward(contextLen int, duration time.Duration) {
	ForwardDuration.Observe(duration.Seconds())
	ContextLengthHistogram.Observe(float64(contextLen))
}

// RecordSamplingTemperature records the (real-valued) temperature used
// for a generation request.
func RecordSamplingTemperature(temp float64) {
	SamplingTemperature.Observe(temp)
}

// RecordLoad records a model load attempt.
func RecordLoad(duration time.Duration, err error) {
	if err != nil {
		ModelLoadErrors.WithLabelValues("load").Inc()
		return
	}
	ModelLoadDuration.Observe(duration.Seconds())
}

// RecordGenerateRequest records the outcome of a generation request.
func RecordGenerateRequest(outcome string) {
	GenerateRequests.WithLabelValues(outcome).Inc()
}

// TotalTokens returns the number of tokens generated since start.
func TotalTokens() int64 {
	return totalTokens.Load()
}
