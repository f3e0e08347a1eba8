package extractors

import (
	"fmt"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-estilo/algorithms/windowing"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/logging"
)

// HarmonicFeatureExtractor measures the energy of each window at a fixed,
// geometrically spaced set of analysis frequencies
type HarmonicFeatureExtractor struct {
	config *config.FeatureConfig
	taper  *windowing.Taper
	logger logging.Logger
}

// NewHarmonicFeatureExtractor creates an extractor. A nil config uses
// config.DefaultFeatureConfig.
func NewHarmonicFeatureExtractor(featureConfig *config.FeatureConfig) (*HarmonicFeatureExtractor, error) {
	if featureConfig == nil {
		cfg := config.DefaultFeatureConfig()
		featureConfig = &cfg
	}
	if err := featureConfig.Validate(); err != nil {
		return nil, err
	}

	taper, err := windowing.NewTaper(featureConfig.Taper, featureConfig.WindowSize)
	if err != nil {
		return nil, err
	}

	return &HarmonicFeatureExtractor{
		config: featureConfig,
		taper:  taper,
		logger: logging.WithFields(logging.Fields{
			"component": "harmonic_feature_extractor",
		}),
	}, nil
}

// Extract computes kBins harmonic energies for a single window. Identical
// inputs give bit-identical outputs and a silent window gives all zeros.
func (h *HarmonicFeatureExtractor) Extract(window []float64, sampleRate, kBins int) (FeatureVector, error) {
	bank, err := h.filterBank(sampleRate, kBins)
	if err != nil {
		return nil, err
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("cannot extract features from an empty window: %w", common.ErrEmptyInput)
	}

	return bank.Energies(h.taper.Apply(window)), nil
}

// ExtractFeatures implements FeatureExtractor using the configured bin count.
// Output order follows window order.
func (h *HarmonicFeatureExtractor) ExtractFeatures(windows []windowing.Window, sampleRate int) ([]FeatureVector, error) {
	logger := h.logger.WithFields(logging.Fields{
		"function":    "ExtractFeatures",
		"sample_rate": sampleRate,
		"windows":     len(windows),
	})

	bank, err := h.filterBank(sampleRate, h.config.KBins)
	if err != nil {
		logger.Error(err, "Failed to build harmonic filter bank")
		return nil, err
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows to extract: %w", common.ErrEmptyInput)
	}

	vectors := make([]FeatureVector, len(windows))
	for i, w := range windows {
		if len(w) == 0 {
			return nil, fmt.Errorf("window %d is empty: %w", i, common.ErrEmptyInput)
		}
		vectors[i] = bank.Energies(h.taper.Apply(w))
	}

	logger.Debug("Harmonic features extracted", logging.Fields{
		"k_bins":      bank.Size(),
		"frequencies": bank.Frequencies(),
	})

	return vectors, nil
}

// ExtractFrames frames signal with the configured window and hop sizes and
// extracts every window
func (h *HarmonicFeatureExtractor) ExtractFrames(signal []float64, sampleRate int) ([]FeatureVector, error) {
	windows, err := windowing.Frame(signal, h.config.WindowSize, h.config.HopSize)
	if err != nil {
		return nil, err
	}
	return h.ExtractFeatures(windows, sampleRate)
}

// Frequencies returns the analysis frequencies used at sampleRate
func (h *HarmonicFeatureExtractor) Frequencies(sampleRate int) ([]float64, error) {
	return harmonic.Schedule(sampleRate, h.config.KBins, h.config.FreqRange[0], h.config.FreqRange[1])
}

// GetName returns the extractor name
func (h *HarmonicFeatureExtractor) GetName() string {
	return "harmonic"
}

// Dimension returns the configured bin count
func (h *HarmonicFeatureExtractor) Dimension() int {
	return h.config.KBins
}

func (h *HarmonicFeatureExtractor) filterBank(sampleRate, kBins int) (*harmonic.FilterBank, error) {
	freqs, err := harmonic.Schedule(sampleRate, kBins, h.config.FreqRange[0], h.config.FreqRange[1])
	if err != nil {
		return nil, err
	}
	return harmonic.NewFilterBank(sampleRate, freqs), nil
}
