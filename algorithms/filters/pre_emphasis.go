package filters

import (
	"fmt"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

// DefaultPreEmphasis is the usual coefficient for speech
const DefaultPreEmphasis = 0.97

// PreEmphasis is the first-order high-frequency boost used ahead of speech
// analysis:
//
//	y[n] = x[n] - a*x[n-1]
//
// It is stateful; use one per waveform.
type PreEmphasis struct {
	coefficient float64
	last        float64
}

// NewPreEmphasis creates a filter with coefficient a in (0, 1)
func NewPreEmphasis(coefficient float64) (*PreEmphasis, error) {
	if coefficient <= 0 || coefficient >= 1 {
		return nil, fmt.Errorf("pre-emphasis coefficient must be in (0, 1), got %v: %w", coefficient, common.ErrInvalidParameter)
	}
	return &PreEmphasis{coefficient: coefficient}, nil
}

// Process filters one sample
func (p *PreEmphasis) Process(x float64) float64 {
	y := x - p.coefficient*p.last
	p.last = x
	return y
}

// ProcessBuffer filters a block of samples into a new slice
func (p *PreEmphasis) ProcessBuffer(input []float64) []float64 {
	out := make([]float64, len(input))
	for i, x := range input {
		out[i] = p.Process(x)
	}
	return out
}

// Reset clears the filter state
func (p *PreEmphasis) Reset() {
	p.last = 0
}

// Coefficient returns a
func (p *PreEmphasis) Coefficient() float64 {
	return p.coefficient
}

// Emphasize filters signal with a fresh PreEmphasis
func Emphasize(signal []float64, coefficient float64) ([]float64, error) {
	p, err := NewPreEmphasis(coefficient)
	if err != nil {
		return nil, err
	}
	return p.ProcessBuffer(signal), nil
}
