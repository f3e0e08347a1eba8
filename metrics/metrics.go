// Package metrics provides Prometheus metrics for the recognition pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sonido_estilo"

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Extraction metrics
	WindowsExtracted    prometheus.Counter
	EmbeddingsGenerated prometheus.Counter
	EmbeddingLatency    prometheus.Histogram

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Recognition metrics
	ExamplesTrained prometheus.Counter
	Predictions     *prometheus.CounterVec

	// Evaluation metrics
	EvaluationAccuracy prometheus.Gauge
	EvaluationSamples  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WindowsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_extracted_total",
			Help:      "Total number of analysis windows turned into feature vectors",
		}),
		EmbeddingsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embeddings_generated_total",
			Help:      "Total number of clip embeddings computed",
		}),
		EmbeddingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_latency_seconds",
			Help:      "Time to compute one clip embedding in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_lookups_total",
			Help:      "Embedding cache lookups by result",
		}, []string{"result"}),

		ExamplesTrained: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "examples_trained_total",
			Help:      "Total number of labelled examples added to the reference set",
		}),
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of predictions by outcome",
		}, []string{"outcome"}),

		EvaluationAccuracy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_accuracy",
			Help:      "Accuracy of the most recent evaluation run",
		}),
		EvaluationSamples: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_samples",
			Help:      "Test-set size of the most recent evaluation run",
		}),
	}
}

// RecordEmbedding records one generated embedding
func (m *Metrics) RecordEmbedding(windows int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.WindowsExtracted.Add(float64(windows))
	m.EmbeddingsGenerated.Inc()
	m.EmbeddingLatency.Observe(elapsed.Seconds())
}

// RecordCacheLookup records a cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordTrained records n new reference examples
func (m *Metrics) RecordTrained(n int) {
	if m == nil {
		return
	}
	m.ExamplesTrained.Add(float64(n))
}

// RecordPrediction records a prediction outcome
func (m *Metrics) RecordPrediction(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Predictions.WithLabelValues(outcome).Inc()
}

// RecordEvaluation records the result of an evaluation run
func (m *Metrics) RecordEvaluation(accuracy float64, samples int) {
	if m == nil {
		return
	}
	m.EvaluationAccuracy.Set(accuracy)
	m.EvaluationSamples.Set(float64(samples))
}
