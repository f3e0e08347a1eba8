package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

func TestDistanceFunctions(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}

	tests := []struct {
		metric DistanceMetric
		want   float64
	}{
		{EuclideanDistance, math.Sqrt2},
		{SquaredEuclideanDistance, 2},
		{CosineDistance, 1},
		{ManhattanDistance, 2},
		{"", math.Sqrt2},
	}
	for _, tt := range tests {
		fn, err := GetDistanceFunction(tt.metric)
		if err != nil {
			t.Fatalf("GetDistanceFunction(%q): %v", tt.metric, err)
		}
		if got := fn(a, b); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%q distance = %v, want %v", tt.metric, got, tt.want)
		}
	}
}

func TestCosineDistanceZeroVector(t *testing.T) {
	if got := CosineDistanceFunc([]float64{0, 0}, []float64{1, 2}); got != 1 {
		t.Errorf("cosine distance to zero vector = %v, want 1", got)
	}
	if got := CosineDistanceFunc([]float64{2, 0}, []float64{5, 0}); math.Abs(got) > 1e-12 {
		t.Errorf("cosine distance of parallel vectors = %v, want 0", got)
	}
	if got := CosineDistanceFunc([]float64{1, 1}, []float64{-2, -2}); math.Abs(got-2) > 1e-12 {
		t.Errorf("cosine distance of opposite vectors = %v, want 2", got)
	}
}

func TestEuclideanSymmetricTie(t *testing.T) {
	q := []float64{0.5, 0.5}
	if EuclideanDistanceFunc(q, []float64{1, 0}) != EuclideanDistanceFunc(q, []float64{0, 1}) {
		t.Errorf("equidistant points should compare exactly equal")
	}
}

func TestDistancesAgreeOnLongerVectors(t *testing.T) {
	a := []float64{0.3, -1.2, 4, 0, 2.5}
	b := []float64{1.1, 0.4, -2, 0.7, 2.5}

	var l1, l2 float64
	for i := range a {
		d := a[i] - b[i]
		l1 += math.Abs(d)
		l2 += d * d
	}

	if got := ManhattanDistanceFunc(a, b); math.Abs(got-l1) > 1e-12 {
		t.Errorf("manhattan = %v, want %v", got, l1)
	}
	if got := SquaredEuclideanDistanceFunc(a, b); math.Abs(got-l2) > 1e-12 {
		t.Errorf("squared euclidean = %v, want %v", got, l2)
	}
	if got := EuclideanDistanceFunc(a, b); math.Abs(got-math.Sqrt(l2)) > 1e-12 {
		t.Errorf("euclidean = %v, want %v", got, math.Sqrt(l2))
	}
}

func TestUnknownMetric(t *testing.T) {
	if _, err := GetDistanceFunction("chebyshev"); !errors.Is(err, common.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}
