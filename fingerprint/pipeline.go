package fingerprint

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/dataset"
	"github.com/RyanBlaney/sonido-estilo/evaluation"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/logging"
	"github.com/RyanBlaney/sonido-estilo/metrics"
	"github.com/RyanBlaney/sonido-estilo/recognition"
	"github.com/RyanBlaney/sonido-estilo/transcode"
)

// Pipeline wires an embedding generator to a recognizer. It owns the
// embedding cache when one is enabled; call Close when done.
type Pipeline struct {
	config     *config.Config
	generator  *EmbeddingGenerator
	recognizer *recognition.Recognizer
	cache      *EmbeddingCache
	metrics    *metrics.Metrics
	logger     logging.Logger
}

// NewPipeline builds a pipeline from cfg. m may be nil.
func NewPipeline(cfg *config.Config, m *metrics.Metrics) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var cache *EmbeddingCache
	if cfg.Cache.Enabled {
		var err error
		cache, err = OpenEmbeddingCache(cfg.Feature, m)
		if err != nil {
			return nil, err
		}
	}

	generator, err := NewEmbeddingGenerator(&cfg.Feature, WithCache(cache), WithMetrics(m))
	if err != nil {
		cache.Close()
		return nil, err
	}

	recognizer, err := recognition.NewRecognizer(cfg.Recognizer)
	if err != nil {
		cache.Close()
		return nil, err
	}

	return &Pipeline{
		config:     cfg,
		generator:  generator,
		recognizer: recognizer,
		cache:      cache,
		metrics:    m,
		logger: logging.WithFields(logging.Fields{
			"component": "pipeline",
		}),
	}, nil
}

// Embed generates the labelled embeddings of samples in order
func (p *Pipeline) Embed(ctx context.Context, samples []dataset.LabelledWaveform) ([]recognition.LabelledExample, error) {
	clips := make([]*transcode.AudioData, len(samples))
	for i, s := range samples {
		clips[i] = s.Audio
	}

	embeddings, err := p.generator.GenerateAll(ctx, clips)
	if err != nil {
		return nil, err
	}

	examples := make([]recognition.LabelledExample, len(samples))
	for i, s := range samples {
		examples[i] = recognition.LabelledExample{Label: s.Label, Embedding: embeddings[i]}
	}
	return examples, nil
}

// Train embeds samples and adds them to the reference set in order
func (p *Pipeline) Train(ctx context.Context, samples []dataset.LabelledWaveform) error {
	logger := p.logger.WithFields(logging.Fields{
		"function": "Train",
		"samples":  len(samples),
	})

	if len(samples) == 0 {
		return fmt.Errorf("no training samples: %w", common.ErrEmptyInput)
	}

	examples, err := p.Embed(ctx, samples)
	if err != nil {
		logger.Error(err, "Failed to embed training samples")
		return err
	}

	before := p.recognizer.Len()
	err = p.recognizer.TrainAll(examples)
	p.metrics.RecordTrained(p.recognizer.Len() - before)
	if err != nil {
		return err
	}

	logger.Info("Reference set trained", logging.Fields{
		"reference_size": p.recognizer.Len(),
		"dimension":      p.recognizer.Dim(),
	})
	return nil
}

// Predict classifies one clip
func (p *Pipeline) Predict(audio *transcode.AudioData) (recognition.Result, error) {
	embedding, err := p.generator.Generate(audio)
	if err != nil {
		return recognition.Result{}, err
	}

	res, err := p.recognizer.PredictResult(embedding)
	p.metrics.RecordPrediction(err)
	return res, err
}

// Evaluate embeds samples and scores the recognizer against them. The
// reference set is left untouched.
func (p *Pipeline) Evaluate(ctx context.Context, samples []dataset.LabelledWaveform) (*evaluation.Report, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no evaluation samples: %w", common.ErrEmptyInput)
	}

	examples, err := p.Embed(ctx, samples)
	if err != nil {
		return nil, err
	}

	report, err := evaluation.Evaluate(instrumentedPredictor{p.recognizer, p.metrics}, examples)
	if err != nil {
		return nil, err
	}

	p.metrics.RecordEvaluation(report.Accuracy, report.Total)
	return report, nil
}

// ResetCache drops cached embeddings so the next run starts cold
func (p *Pipeline) ResetCache() error {
	return p.cache.Clear()
}

// Recognizer returns the underlying recognizer
func (p *Pipeline) Recognizer() *recognition.Recognizer {
	return p.recognizer
}

// Generator returns the underlying embedding generator
func (p *Pipeline) Generator() *EmbeddingGenerator {
	return p.generator
}

// Cache returns the embedding cache, nil when caching is disabled
func (p *Pipeline) Cache() *EmbeddingCache {
	return p.cache
}

// Close releases the embedding cache
func (p *Pipeline) Close() error {
	return p.cache.Close()
}

// instrumentedPredictor counts predictions made during evaluation
type instrumentedPredictor struct {
	recognizer *recognition.Recognizer
	metrics    *metrics.Metrics
}

func (ip instrumentedPredictor) Predict(embedding recognition.Embedding) (recognition.Label, error) {
	label, err := ip.recognizer.Predict(embedding)
	ip.metrics.RecordPrediction(err)
	return label, err
}

func (ip instrumentedPredictor) Metric() string {
	return ip.recognizer.Metric()
}
