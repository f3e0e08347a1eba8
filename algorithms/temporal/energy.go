package temporal

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EnergyStatistics summarises the amplitude of one frame
type EnergyStatistics struct {
	MeanAbs  float64 `json:"mean_abs"`
	Std      float64 `json:"std"`
	Variance float64 `json:"variance"` // population variance
}

// ComputeEnergyStatistics returns the mean absolute amplitude and the
// population standard deviation and variance of frame. An empty frame
// gives zeros.
func ComputeEnergyStatistics(frame []float64) EnergyStatistics {
	if len(frame) == 0 {
		return EnergyStatistics{}
	}

	_, variance := stat.PopMeanVariance(frame, nil)
	return EnergyStatistics{
		MeanAbs:  floats.Norm(frame, 1) / float64(len(frame)),
		Std:      math.Sqrt(variance),
		Variance: variance,
	}
}
