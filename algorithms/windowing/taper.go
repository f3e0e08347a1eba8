package windowing

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

// TaperType names a window function applied to a frame before analysis
type TaperType string

const (
	TaperRectangular TaperType = "rectangular"
	TaperHann        TaperType = "hann"
	TaperHamming     TaperType = "hamming"
	TaperBlackman    TaperType = "blackman"
	TaperBartlett    TaperType = "bartlett"
)

// Taper applies a window function to frames. Coefficients for the expected
// frame size are generated once, so Apply is safe for concurrent use.
type Taper struct {
	taperType TaperType
	fn        func(int) []float64
	size      int
	coeffs    []float64
}

// NewTaper creates a taper for frames of the given size. An empty type means
// rectangular.
func NewTaper(taperType TaperType, size int) (*Taper, error) {
	if taperType == "" {
		taperType = TaperRectangular
	}
	if size < 1 {
		return nil, fmt.Errorf("taper size must be positive, got %d: %w", size, common.ErrInvalidParameter)
	}

	var fn func(int) []float64
	switch taperType {
	case TaperRectangular:
		fn = nil
	case TaperHann:
		fn = window.Hann
	case TaperHamming:
		fn = window.Hamming
	case TaperBlackman:
		fn = window.Blackman
	case TaperBartlett:
		fn = window.Bartlett
	default:
		return nil, fmt.Errorf("unsupported taper type %q: %w", taperType, common.ErrInvalidParameter)
	}

	t := &Taper{taperType: taperType, fn: fn, size: size}
	if fn != nil {
		t.coeffs = fn(size)
	}
	return t, nil
}

// Apply returns a tapered copy of frame. The rectangular taper returns an
// unmodified copy.
func (t *Taper) Apply(frame []float64) []float64 {
	out := make([]float64, len(frame))
	copy(out, frame)

	if t.fn == nil || len(frame) == 0 {
		return out
	}

	coeffs := t.coeffs
	if len(frame) != t.size {
		coeffs = t.fn(len(frame))
	}
	for i := range out {
		out[i] *= coeffs[i]
	}
	return out
}

// GetType returns the taper type
func (t *Taper) GetType() TaperType {
	return t.taperType
}

// GetSize returns the frame size the coefficients were generated for
func (t *Taper) GetSize() int {
	return t.size
}
