package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-estilo/algorithms/stats"
	"github.com/RyanBlaney/sonido-estilo/algorithms/windowing"
)

// PoolingMethod selects how per-window feature vectors collapse into one
// clip embedding
type PoolingMethod string

const (
	PoolingMean PoolingMethod = "mean"
	PoolingMax  PoolingMethod = "max"
)

// Config is the complete configuration of the style recognition pipeline
type Config struct {
	Feature    FeatureConfig    `json:"feature" yaml:"feature"`
	Recognizer RecognizerConfig `json:"recognizer" yaml:"recognizer"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// FeatureConfig controls framing, harmonic analysis and pooling
type FeatureConfig struct {
	// SampleRate is the rate clips are resampled to before analysis.
	// Zero keeps every clip at its native rate.
	SampleRate int        `json:"sample_rate" yaml:"sample_rate"`
	WindowSize int        `json:"window_size" yaml:"window_size"`
	HopSize    int        `json:"hop_size" yaml:"hop_size"`
	KBins      int        `json:"k_bins" yaml:"k_bins"`
	FreqRange  [2]float64 `json:"freq_range" yaml:"freq_range"` // [min, max] Hz

	// DCCutoff high-passes each clip below this many Hz before framing.
	// PreEmphasis applies y[n] = x[n] - a*x[n-1] with a = PreEmphasis.
	// Zero disables either filter.
	DCCutoff    float64 `json:"dc_cutoff" yaml:"dc_cutoff"`
	PreEmphasis float64 `json:"pre_emphasis" yaml:"pre_emphasis"`

	Taper   windowing.TaperType `json:"taper" yaml:"taper"`
	Pooling PoolingMethod       `json:"pooling" yaml:"pooling"`

	// TemporalDescriptors prefixes every window vector with its mean absolute
	// amplitude, standard deviation, variance and zero-crossing rate.
	TemporalDescriptors bool `json:"temporal_descriptors" yaml:"temporal_descriptors"`

	// Workers bounds how many clips are embedded concurrently. Zero or less
	// uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// RecognizerConfig controls nearest-neighbour matching
type RecognizerConfig struct {
	Metric stats.DistanceMetric `json:"metric" yaml:"metric"`

	// Normalize L2-normalises stored and query embeddings before matching
	Normalize bool `json:"normalize" yaml:"normalize"`
}

// CacheConfig controls the per-run embedding cache
type CacheConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// LogConfig controls the library logger
type LogConfig struct {
	Level string `json:"level" yaml:"level"` // debug, info, warn, error
}

// DefaultFeatureConfig returns 25 ms windows with a 10 ms hop at 16 kHz and
// 16 harmonic bins between 80 Hz and 4 kHz
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		SampleRate: 16000,
		WindowSize: 400,
		HopSize:    160,
		KBins:      16,
		FreqRange:  [2]float64{harmonic.DefaultMinFrequency, harmonic.DefaultMaxFrequency},
		Taper:      windowing.TaperRectangular,
		Pooling:    PoolingMean,
		Workers:    0,
	}
}

// DefaultRecognizerConfig returns Euclidean matching on raw embeddings
func DefaultRecognizerConfig() RecognizerConfig {
	return RecognizerConfig{
		Metric:    stats.EuclideanDistance,
		Normalize: false,
	}
}

// DefaultConfig returns sensible defaults for every section
func DefaultConfig() *Config {
	return &Config{
		Feature:    DefaultFeatureConfig(),
		Recognizer: DefaultRecognizerConfig(),
		Cache:      CacheConfig{Enabled: false},
		Log:        LogConfig{Level: "info"},
	}
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Feature.Validate(); err != nil {
		return fmt.Errorf("feature config: %w", err)
	}
	if err := c.Recognizer.Validate(); err != nil {
		return fmt.Errorf("recognizer config: %w", err)
	}
	return nil
}

// Validate checks framing and analysis parameters
func (f FeatureConfig) Validate() error {
	if f.SampleRate < 0 {
		return fmt.Errorf("sample rate must not be negative: %d: %w", f.SampleRate, common.ErrInvalidParameter)
	}
	if f.WindowSize < 1 {
		return fmt.Errorf("window size must be positive: %d: %w", f.WindowSize, common.ErrInvalidParameter)
	}
	if f.HopSize < 1 {
		return fmt.Errorf("hop size must be positive: %d: %w", f.HopSize, common.ErrInvalidParameter)
	}
	if f.KBins < 1 {
		return fmt.Errorf("k_bins must be positive: %d: %w", f.KBins, common.ErrInvalidParameter)
	}
	if f.FreqRange[0] <= 0 || f.FreqRange[1] < f.FreqRange[0] {
		return fmt.Errorf("frequency range %v is not valid: %w", f.FreqRange, common.ErrInvalidParameter)
	}
	if f.DCCutoff < 0 || (f.SampleRate > 0 && f.DCCutoff >= float64(f.SampleRate)/2) {
		return fmt.Errorf("dc cutoff %.2f Hz is not valid: %w", f.DCCutoff, common.ErrInvalidParameter)
	}
	if f.PreEmphasis < 0 || f.PreEmphasis >= 1 {
		return fmt.Errorf("pre-emphasis must be in [0, 1): %v: %w", f.PreEmphasis, common.ErrInvalidParameter)
	}
	if _, err := windowing.NewTaper(f.Taper, f.WindowSize); err != nil {
		return err
	}
	switch f.Pooling {
	case PoolingMean, PoolingMax, "":
	default:
		return fmt.Errorf("unsupported pooling %q: %w", f.Pooling, common.ErrInvalidParameter)
	}
	return nil
}

// Validate checks the distance metric
func (r RecognizerConfig) Validate() error {
	_, err := stats.GetDistanceFunction(r.Metric)
	return err
}

// Load reads a YAML configuration file. Keys missing from the file keep
// their default values; unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration on top of DefaultConfig and validates it
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
