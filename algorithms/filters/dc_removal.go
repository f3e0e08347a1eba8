package filters

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

// DCBlocker is a one-pole high-pass filter that removes the 0 Hz component
// of a waveform:
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// A DCBlocker carries state between samples and is not safe for concurrent
// use. Create one per waveform.
type DCBlocker struct {
	pole float64
	x1   float64
	y1   float64
}

// NewDCBlocker creates a filter with a -3 dB point near cutoffHz, using
// R = 1 - 2*pi*fc/fs
func NewDCBlocker(sampleRate int, cutoffHz float64) (*DCBlocker, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d: %w", sampleRate, common.ErrInvalidParameter)
	}
	if cutoffHz <= 0 || cutoffHz >= float64(sampleRate)/2 {
		return nil, fmt.Errorf("dc cutoff %.2f Hz outside (0, %d): %w", cutoffHz, sampleRate/2, common.ErrInvalidParameter)
	}

	pole := common.Clamp(1-2*math.Pi*cutoffHz/float64(sampleRate), 0.001, 0.999)
	return &DCBlocker{pole: pole}, nil
}

// Process filters one sample
func (dc *DCBlocker) Process(x float64) float64 {
	y := x - dc.x1 + dc.pole*dc.y1
	dc.x1 = x
	dc.y1 = y
	return y
}

// ProcessBuffer filters a block of samples into a new slice
func (dc *DCBlocker) ProcessBuffer(input []float64) []float64 {
	out := make([]float64, len(input))
	for i, x := range input {
		out[i] = dc.Process(x)
	}
	return out
}

// Reset clears the filter state
func (dc *DCBlocker) Reset() {
	dc.x1, dc.y1 = 0, 0
}

// Pole returns R
func (dc *DCBlocker) Pole() float64 {
	return dc.pole
}

// RemoveDC filters signal with a fresh DCBlocker
func RemoveDC(signal []float64, sampleRate int, cutoffHz float64) ([]float64, error) {
	dc, err := NewDCBlocker(sampleRate, cutoffHz)
	if err != nil {
		return nil, err
	}
	return dc.ProcessBuffer(signal), nil
}
