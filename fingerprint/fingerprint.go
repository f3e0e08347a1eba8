package fingerprint

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-estilo/algorithms/filters"
	"github.com/RyanBlaney/sonido-estilo/algorithms/windowing"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/extractors"
	"github.com/RyanBlaney/sonido-estilo/logging"
	"github.com/RyanBlaney/sonido-estilo/metrics"
	"github.com/RyanBlaney/sonido-estilo/recognition"
	"github.com/RyanBlaney/sonido-estilo/transcode"
)

// EmbeddingGenerator turns waveforms into clip embeddings:
// resample, frame, extract per window, aggregate
type EmbeddingGenerator struct {
	config     *config.FeatureConfig
	extractor  extractors.FeatureExtractor
	aggregator *Aggregator
	cache      *EmbeddingCache
	metrics    *metrics.Metrics
	logger     logging.Logger
}

// GeneratorOption customises an EmbeddingGenerator
type GeneratorOption func(*EmbeddingGenerator)

// WithCache memoises embeddings in cache
func WithCache(cache *EmbeddingCache) GeneratorOption {
	return func(g *EmbeddingGenerator) { g.cache = cache }
}

// WithMetrics records extraction metrics
func WithMetrics(m *metrics.Metrics) GeneratorOption {
	return func(g *EmbeddingGenerator) { g.metrics = m }
}

// WithExtractor replaces the harmonic extractor
func WithExtractor(fe extractors.FeatureExtractor) GeneratorOption {
	return func(g *EmbeddingGenerator) { g.extractor = fe }
}

// NewEmbeddingGenerator creates a generator. A nil config uses
// config.DefaultFeatureConfig.
func NewEmbeddingGenerator(featureConfig *config.FeatureConfig, opts ...GeneratorOption) (*EmbeddingGenerator, error) {
	if featureConfig == nil {
		cfg := config.DefaultFeatureConfig()
		featureConfig = &cfg
	}
	if err := featureConfig.Validate(); err != nil {
		return nil, err
	}

	aggregator, err := NewAggregator(featureConfig.Pooling)
	if err != nil {
		return nil, err
	}

	g := &EmbeddingGenerator{
		config:     featureConfig,
		aggregator: aggregator,
		logger: logging.WithFields(logging.Fields{
			"component": "embedding_generator",
		}),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.extractor == nil {
		var extractor extractors.FeatureExtractor
		if featureConfig.TemporalDescriptors {
			extractor, err = extractors.NewTemporalHarmonicExtractor(featureConfig)
		} else {
			extractor, err = extractors.NewHarmonicFeatureExtractor(featureConfig)
		}
		if err != nil {
			return nil, err
		}
		g.extractor = extractor
	}

	return g, nil
}

// Generate computes the embedding of one clip. The waveform is not modified.
func (g *EmbeddingGenerator) Generate(audio *transcode.AudioData) (recognition.Embedding, error) {
	if err := audio.Validate(); err != nil {
		return nil, err
	}

	logger := g.logger.WithFields(logging.Fields{
		"function":    "Generate",
		"sample_rate": audio.SampleRate,
		"samples":     len(audio.PCM),
	})

	cached, ok, err := g.cache.Get(audio)
	if err != nil {
		logger.Warn("Embedding cache lookup failed", logging.Fields{"error": err.Error()})
	} else if ok {
		return cached, nil
	}

	start := time.Now()

	pcm, sampleRate := audio.PCM, audio.SampleRate
	if g.config.SampleRate > 0 && sampleRate != g.config.SampleRate {
		pcm, err = transcode.Resample(pcm, sampleRate, g.config.SampleRate)
		if err != nil {
			return nil, err
		}
		sampleRate = g.config.SampleRate
	}

	pcm, err = g.preprocess(pcm, sampleRate)
	if err != nil {
		return nil, err
	}

	windows, err := windowing.Frame(pcm, g.config.WindowSize, g.config.HopSize)
	if err != nil {
		return nil, err
	}

	vectors, err := g.extractor.ExtractFeatures(windows, sampleRate)
	if err != nil {
		logger.Error(err, "Failed to extract features")
		return nil, err
	}

	embedding, err := g.aggregator.Aggregate(vectors)
	if err != nil {
		return nil, err
	}

	g.metrics.RecordEmbedding(len(windows), time.Since(start))

	if err := g.cache.Put(audio, embedding); err != nil {
		logger.Warn("Failed to cache embedding", logging.Fields{"error": err.Error()})
	}

	logger.Debug("Embedding generated", logging.Fields{
		"windows":   len(windows),
		"dimension": len(embedding),
		"extractor": g.extractor.GetName(),
	})

	return embedding, nil
}

// preprocess applies the optional dc blocker and pre-emphasis filters.
// Both return new slices, so the caller's waveform is never touched.
func (g *EmbeddingGenerator) preprocess(pcm []float64, sampleRate int) ([]float64, error) {
	var err error
	if g.config.DCCutoff > 0 {
		if pcm, err = filters.RemoveDC(pcm, sampleRate, g.config.DCCutoff); err != nil {
			return nil, err
		}
	}
	if g.config.PreEmphasis > 0 {
		if pcm, err = filters.Emphasize(pcm, g.config.PreEmphasis); err != nil {
			return nil, err
		}
	}
	return pcm, nil
}

// GenerateAll embeds clips concurrently, bounded by the configured worker
// count. Output order matches input order. The first error cancels the
// remaining work and is returned.
func (g *EmbeddingGenerator) GenerateAll(ctx context.Context, clips []*transcode.AudioData) ([]recognition.Embedding, error) {
	workers := g.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]recognition.Embedding, len(clips))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, clip := range clips {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			embedding, err := g.Generate(clip)
			if err != nil {
				return fmt.Errorf("clip %d: %w", i, err)
			}
			out[i] = embedding
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dimension returns the embedding length
func (g *EmbeddingGenerator) Dimension() int {
	return g.extractor.Dimension()
}

// GetConfig returns the feature configuration
func (g *EmbeddingGenerator) GetConfig() config.FeatureConfig {
	return *g.config
}
