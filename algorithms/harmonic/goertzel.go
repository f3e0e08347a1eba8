package harmonic

import (
	"math"
)

// Goertzel measures the energy of a signal at one fixed frequency without a
// full spectral transform. The frequency does not have to fall on an FFT bin.
type Goertzel struct {
	frequency float64
	cos       float64
	sin       float64
	coeff     float64
}

// NewGoertzel creates a single-frequency detector for the given sample rate
func NewGoertzel(sampleRate int, frequency float64) *Goertzel {
	omega := 2.0 * math.Pi * frequency / float64(sampleRate)
	return &Goertzel{
		frequency: frequency,
		cos:       math.Cos(omega),
		sin:       math.Sin(omega),
		coeff:     2.0 * math.Cos(omega),
	}
}

// Power returns |sum x[n] e^{-jwn}|^2 scaled by 2/N, the average power of the
// signal's correlation with the analysis frequency. A silent signal returns 0.
func (g *Goertzel) Power(signal []float64) float64 {
	if len(signal) == 0 {
		return 0.0
	}

	var s1, s2 float64
	for _, x := range signal {
		s0 := x + g.coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	// (s1 - cos*s2)^2 + (sin*s2)^2 is the same magnitude as
	// s1^2 + s2^2 - coeff*s1*s2 but cannot round below zero
	re := s1 - g.cos*s2
	im := g.sin * s2
	return 2.0 / float64(len(signal)) * (re*re + im*im)
}

// GetFrequency returns the analysis frequency in Hz
func (g *Goertzel) GetFrequency() float64 {
	return g.frequency
}

// FilterBank runs a fixed set of Goertzel detectors over a signal
type FilterBank struct {
	filters []*Goertzel
}

// NewFilterBank creates one detector per frequency, in order
func NewFilterBank(sampleRate int, frequencies []float64) *FilterBank {
	filters := make([]*Goertzel, len(frequencies))
	for i, f := range frequencies {
		filters[i] = NewGoertzel(sampleRate, f)
	}
	return &FilterBank{filters: filters}
}

// Energies returns the per-frequency power of signal, one value per filter
func (fb *FilterBank) Energies(signal []float64) []float64 {
	energies := make([]float64, len(fb.filters))
	for i, g := range fb.filters {
		energies[i] = g.Power(signal)
	}
	return energies
}

// Size returns the number of filters in the bank
func (fb *FilterBank) Size() int {
	return len(fb.filters)
}

// Frequencies returns the analysis frequencies in order
func (fb *FilterBank) Frequencies() []float64 {
	freqs := make([]float64, len(fb.filters))
	for i, g := range fb.filters {
		freqs[i] = g.frequency
	}
	return freqs
}
