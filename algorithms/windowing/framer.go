package windowing

import (
	"fmt"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

// Window is one fixed-length analysis frame of a waveform. Tail frames are
// zero-padded on the right.
type Window []float64

// Frame splits signal into windows of windowSize samples starting at
// offsets 0, hopSize, 2*hopSize, ... while the offset is inside the signal.
// Every window owns its own backing array, so callers may modify them
// without touching signal. A non-empty signal always yields at least one
// window, however short it is.
func Frame(signal []float64, windowSize, hopSize int) ([]Window, error) {
	if windowSize < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d: %w", windowSize, common.ErrInvalidParameter)
	}
	if hopSize < 1 {
		return nil, fmt.Errorf("hop size must be positive, got %d: %w", hopSize, common.ErrInvalidParameter)
	}
	if len(signal) == 0 {
		return nil, fmt.Errorf("cannot frame an empty signal: %w", common.ErrEmptyInput)
	}

	windows := make([]Window, 0, FrameCount(len(signal), hopSize))
	for start := 0; start < len(signal); start += hopSize {
		frame := make(Window, windowSize)
		end := min(start+windowSize, len(signal))
		copy(frame, signal[start:end])
		windows = append(windows, frame)
	}

	return windows, nil
}

// FrameCount returns how many windows Frame produces for a signal of n
// samples, i.e. ceil(n / hopSize). It returns 0 for n <= 0 or hopSize <= 0.
func FrameCount(n, hopSize int) int {
	if n <= 0 || hopSize <= 0 {
		return 0
	}
	return (n + hopSize - 1) / hopSize
}
