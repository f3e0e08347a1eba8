package temporal

// ZeroCrossingRate returns the fraction of adjacent sample pairs that change
// sign, in [0, 1]. Leaving zero for either sign counts as a crossing, landing
// on zero does not. Frames shorter than two samples give 0.
func ZeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}

	crossings := 0
	for i := 1; i < len(frame); i++ {
		prev, cur := frame[i-1], frame[i]
		if (prev >= 0 && cur < 0) || (prev <= 0 && cur > 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame)-1)
}
