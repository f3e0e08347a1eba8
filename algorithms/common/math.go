package common

import (
	"gonum.org/v1/gonum/floats"
)

// Basic vector helpers used across algorithms, using gonum for robustness

// L2Normalize returns a unit-length copy of data. A zero vector stays zero.
func L2Normalize(data []float64) []float64 {
	normalized := make([]float64, len(data))
	copy(normalized, data)

	norm := floats.Norm(normalized, 2)
	if norm == 0 {
		return normalized
	}

	floats.Scale(1/norm, normalized)
	return normalized
}

// Clone returns an independent copy of data.
func Clone(data []float64) []float64 {
	if data == nil {
		return nil
	}
	out := make([]float64, len(data))
	copy(out, data)
	return out
}

// Clamp constrains value to the range [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
