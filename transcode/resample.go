package transcode

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

// Resample converts pcm from one sample rate to another by linear
// interpolation. The output has max(1, round(len*to/from)) samples and its
// first and last samples coincide with the input's.
func Resample(pcm []float64, from, to int) ([]float64, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("cannot resample from %d Hz to %d Hz: %w", from, to, common.ErrInvalidParameter)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("cannot resample an empty signal: %w", common.ErrEmptyInput)
	}
	if from == to {
		return common.Clone(pcm), nil
	}

	target := max(1, int(math.Round(float64(len(pcm))*float64(to)/float64(from))))
	out := make([]float64, target)

	if len(pcm) == 1 {
		for i := range out {
			out[i] = pcm[0]
		}
		return out, nil
	}

	xs := make([]float64, len(pcm))
	for i := range xs {
		xs[i] = float64(i)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, pcm); err != nil {
		return nil, fmt.Errorf("failed to fit resampler: %w", err)
	}

	step := float64(len(pcm)-1) / float64(max(target-1, 1))
	for i := range out {
		out[i] = pl.Predict(float64(i) * step)
	}
	return out, nil
}

// ResampleAudio returns a copy of audio at the target rate
func ResampleAudio(audio *AudioData, to int) (*AudioData, error) {
	if err := audio.Validate(); err != nil {
		return nil, err
	}

	pcm, err := Resample(audio.PCM, audio.SampleRate, to)
	if err != nil {
		return nil, err
	}

	out := NewAudioData(pcm, to)
	out.Metadata = audio.Metadata
	return out, nil
}
