package extractors

import (
	"fmt"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/algorithms/temporal"
	"github.com/RyanBlaney/sonido-estilo/algorithms/windowing"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/logging"
)

// TemporalDescriptorCount is the number of time-domain values placed ahead
// of the harmonic bins
const TemporalDescriptorCount = 4

// TemporalHarmonicExtractor lays each window out as
// [mean_abs, std, variance, zcr, harmonic bins...]. The time-domain values
// are taken from the untapered window.
type TemporalHarmonicExtractor struct {
	harmonic *HarmonicFeatureExtractor
	logger   logging.Logger
}

// NewTemporalHarmonicExtractor creates an extractor. A nil config uses
// config.DefaultFeatureConfig.
func NewTemporalHarmonicExtractor(featureConfig *config.FeatureConfig) (*TemporalHarmonicExtractor, error) {
	h, err := NewHarmonicFeatureExtractor(featureConfig)
	if err != nil {
		return nil, err
	}
	return &TemporalHarmonicExtractor{
		harmonic: h,
		logger: logging.WithFields(logging.Fields{
			"component": "temporal_harmonic_extractor",
		}),
	}, nil
}

// Describe returns the time-domain descriptors of one window
func (t *TemporalHarmonicExtractor) Describe(window []float64) FeatureVector {
	energy := temporal.ComputeEnergyStatistics(window)
	return FeatureVector{
		energy.MeanAbs,
		energy.Std,
		energy.Variance,
		temporal.ZeroCrossingRate(window),
	}
}

// ExtractFeatures implements FeatureExtractor
func (t *TemporalHarmonicExtractor) ExtractFeatures(windows []windowing.Window, sampleRate int) ([]FeatureVector, error) {
	bins, err := t.harmonic.ExtractFeatures(windows, sampleRate)
	if err != nil {
		return nil, err
	}
	if len(bins) != len(windows) {
		return nil, fmt.Errorf("harmonic extractor returned %d vectors for %d windows: %w",
			len(bins), len(windows), common.ErrDimensionMismatch)
	}

	vectors := make([]FeatureVector, len(windows))
	for i, w := range windows {
		v := make(FeatureVector, 0, t.Dimension())
		v = append(v, t.Describe(w)...)
		vectors[i] = append(v, bins[i]...)
	}

	t.logger.Debug("Temporal descriptors extracted", logging.Fields{
		"windows":   len(windows),
		"dimension": t.Dimension(),
	})
	return vectors, nil
}

// GetName returns the extractor name
func (t *TemporalHarmonicExtractor) GetName() string {
	return "harmonic_temporal"
}

// Dimension returns the bin count plus TemporalDescriptorCount
func (t *TemporalHarmonicExtractor) Dimension() int {
	return TemporalDescriptorCount + t.harmonic.Dimension()
}
