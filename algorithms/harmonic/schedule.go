package harmonic

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

const (
	// DefaultMinFrequency is the lowest analysis frequency, just under a low male voice F0
	DefaultMinFrequency = 80.0
	// DefaultMaxFrequency covers the upper harmonics of speech
	DefaultMaxFrequency = 4000.0

	// nyquistFraction keeps the top analysis frequency away from the Nyquist frequency
	nyquistFraction = 0.45
)

// Schedule returns kBins analysis frequencies spaced geometrically from minHz up
// to min(maxHz, 0.45*sampleRate). When the sample rate is too low for that
// range the lower bound collapses to a quarter of the upper one. A single bin
// sits at the lower bound. The result depends only on its arguments.
func Schedule(sampleRate, kBins int, minHz, maxHz float64) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d: %w", sampleRate, common.ErrInvalidParameter)
	}
	if kBins < 1 {
		return nil, fmt.Errorf("bin count must be positive, got %d: %w", kBins, common.ErrInvalidParameter)
	}
	if minHz <= 0 || maxHz <= 0 || maxHz < minHz {
		return nil, fmt.Errorf("frequency range [%g, %g] is not valid: %w", minHz, maxHz, common.ErrInvalidParameter)
	}

	upper := math.Min(maxHz, nyquistFraction*float64(sampleRate))
	lower := minHz
	if upper <= lower {
		lower = upper / 4.0
	}

	freqs := make([]float64, kBins)
	if kBins == 1 {
		freqs[0] = lower
		return freqs, nil
	}

	ratio := math.Log(upper / lower)
	for i := range kBins {
		freqs[i] = lower * math.Exp(ratio*float64(i)/float64(kBins-1))
	}
	return freqs, nil
}
