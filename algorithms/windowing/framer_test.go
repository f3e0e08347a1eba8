package windowing

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

func TestFrameOffsetsAndPadding(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 5, 6, 7}

	windows, err := Frame(signal, 4, 3)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}

	want := []Window{
		{1, 2, 3, 4},
		{4, 5, 6, 7},
		{7, 0, 0, 0},
	}
	if len(windows) != len(want) {
		t.Fatalf("got %d windows, want %d", len(windows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if windows[i][j] != want[i][j] {
				t.Errorf("window %d = %v, want %v", i, windows[i], want[i])
				break
			}
		}
	}
}

func TestFrameShortSignalYieldsOneWindow(t *testing.T) {
	windows, err := Frame([]float64{0.5}, 400, 160)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if len(windows[0]) != 400 || windows[0][0] != 0.5 || windows[0][399] != 0 {
		t.Errorf("unexpected window contents")
	}
}

func TestFrameSilentSecond(t *testing.T) {
	signal := make([]float64, 16000)

	windows, err := Frame(signal, 400, 160)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(windows) != 100 {
		t.Errorf("got %d windows, want 100", len(windows))
	}
	if got := FrameCount(len(signal), 160); got != len(windows) {
		t.Errorf("FrameCount = %d, want %d", got, len(windows))
	}
}

func TestFrameDoesNotAliasInput(t *testing.T) {
	signal := []float64{1, 2, 3, 4}
	windows, err := Frame(signal, 2, 2)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	windows[0][0] = 99
	if signal[0] != 1 {
		t.Errorf("signal mutated through window")
	}
}

func TestFrameErrors(t *testing.T) {
	tests := []struct {
		name   string
		signal []float64
		window int
		hop    int
		want   error
	}{
		{"zero window", []float64{1}, 0, 1, common.ErrInvalidParameter},
		{"negative hop", []float64{1}, 4, -1, common.ErrInvalidParameter},
		{"empty signal", nil, 4, 2, common.ErrEmptyInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Frame(tt.signal, tt.window, tt.hop)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTaperRectangularIsIdentity(t *testing.T) {
	taper, err := NewTaper("", 3)
	if err != nil {
		t.Fatalf("NewTaper: %v", err)
	}
	frame := []float64{1, -2, 3}
	out := taper.Apply(frame)
	for i := range frame {
		if out[i] != frame[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], frame[i])
		}
	}
	if taper.GetType() != TaperRectangular {
		t.Errorf("type = %s", taper.GetType())
	}
}

func TestTaperHannEndpoints(t *testing.T) {
	taper, err := NewTaper(TaperHann, 5)
	if err != nil {
		t.Fatalf("NewTaper: %v", err)
	}
	out := taper.Apply([]float64{1, 1, 1, 1, 1})
	if math.Abs(out[0]) > 1e-12 || math.Abs(out[4]) > 1e-12 {
		t.Errorf("hann endpoints = %v, %v, want 0", out[0], out[4])
	}
	if math.Abs(out[2]-1) > 1e-12 {
		t.Errorf("hann centre = %v, want 1", out[2])
	}
}

func TestTaperUnknownType(t *testing.T) {
	if _, err := NewTaper("triangle-ish", 4); !errors.Is(err, common.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}
