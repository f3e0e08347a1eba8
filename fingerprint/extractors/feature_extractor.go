package extractors

import (
	"github.com/RyanBlaney/sonido-estilo/algorithms/windowing"
)

// FeatureVector holds one non-negative energy per harmonic bin for a single
// analysis window
type FeatureVector []float64

// FeatureExtractor turns the analysis windows of one clip into per-window
// feature vectors of a fixed dimension
type FeatureExtractor interface {
	ExtractFeatures(windows []windowing.Window, sampleRate int) ([]FeatureVector, error)
	GetName() string
	Dimension() int
}
