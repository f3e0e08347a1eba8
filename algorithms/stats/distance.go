package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

// DistanceMetric names a distance measure between two equal-length vectors
type DistanceMetric string

const (
	EuclideanDistance        DistanceMetric = "euclidean"
	SquaredEuclideanDistance DistanceMetric = "squared_euclidean"
	CosineDistance           DistanceMetric = "cosine"
	ManhattanDistance        DistanceMetric = "manhattan"
)

// DistanceFunction measures two vectors of equal length. The gonum helpers
// behind it panic on a length mismatch, so callers check first.
type DistanceFunction func(a, b []float64) float64

// GetDistanceFunction returns the distance function for the given metric.
// An empty metric selects Euclidean distance.
func GetDistanceFunction(metric DistanceMetric) (DistanceFunction, error) {
	switch metric {
	case EuclideanDistance, "":
		return EuclideanDistanceFunc, nil
	case SquaredEuclideanDistance:
		return SquaredEuclideanDistanceFunc, nil
	case CosineDistance:
		return CosineDistanceFunc, nil
	case ManhattanDistance:
		return ManhattanDistanceFunc, nil
	default:
		return nil, fmt.Errorf("unsupported distance metric %q: %w", metric, common.ErrInvalidParameter)
	}
}

// EuclideanDistanceFunc is the L2 distance
func EuclideanDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// SquaredEuclideanDistanceFunc ranks exactly like EuclideanDistanceFunc but
// skips the square root
func SquaredEuclideanDistanceFunc(a, b []float64) float64 {
	diff := floats.SubTo(make([]float64, len(a)), a, b)
	return floats.Dot(diff, diff)
}

// ManhattanDistanceFunc is the L1 distance
func ManhattanDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// CosineDistanceFunc returns 1 - cos(a, b). A zero-norm vector has no
// direction and sits at distance 1 from everything.
func CosineDistanceFunc(a, b []float64) float64 {
	normA, normB := floats.Norm(a, 2), floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - common.Clamp(floats.Dot(a, b)/(normA*normB), -1, 1)
}
