package transcode

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

// AudioData is a decoded mono waveform. PCM samples are in [-1, 1].
type AudioData struct {
	PCM        []float64      `json:"-"`
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"`
	Duration   time.Duration  `json:"duration"`
	Metadata   *AudioMetadata `json:"metadata,omitempty"`
}

// AudioMetadata describes where a waveform came from and what it was before
// decoding
type AudioMetadata struct {
	Path       string  `json:"path,omitempty"`
	Format     string  `json:"format,omitempty"` // wav, ffmpeg
	Codec      string  `json:"codec,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"` // source rate
	Channels   int     `json:"channels,omitempty"`    // source channels
	Bitrate    int     `json:"bitrate,omitempty"`
	Duration   float64 `json:"duration,omitempty"` // seconds, as probed
}

// NewAudioData wraps mono PCM samples without copying them
func NewAudioData(pcm []float64, sampleRate int) *AudioData {
	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   samplesDuration(len(pcm), sampleRate),
	}
}

// Validate reports an empty waveform or a non-positive sample rate
func (a *AudioData) Validate() error {
	if a == nil || len(a.PCM) == 0 {
		return fmt.Errorf("waveform has no samples: %w", common.ErrEmptyInput)
	}
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d: %w", a.SampleRate, common.ErrInvalidParameter)
	}
	return nil
}

func samplesDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}
