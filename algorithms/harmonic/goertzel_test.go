package harmonic

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

func tone(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// directPower is the textbook correlation the Goertzel recurrence replaces
func directPower(signal []float64, freq float64, sampleRate int) float64 {
	omega := 2 * math.Pi * freq / float64(sampleRate)
	var sum complex128
	for n, x := range signal {
		sum += complex(x, 0) * cmplx.Exp(complex(0, -omega*float64(n)))
	}
	mag := cmplx.Abs(sum)
	return 2.0 / float64(len(signal)) * mag * mag
}

func TestGoertzelMatchesDirectCorrelation(t *testing.T) {
	signal := tone(440, 16000, 400)
	for _, freq := range []float64{100, 440, 733.3, 2500} {
		got := NewGoertzel(16000, freq).Power(signal)
		want := directPower(signal, freq, 16000)
		if math.Abs(got-want) > 1e-9*math.Max(1, want) {
			t.Errorf("freq %.1f: Power = %v, want %v", freq, got, want)
		}
	}
}

func TestGoertzelPeaksAtToneFrequency(t *testing.T) {
	signal := tone(600, 16000, 800)
	on := NewGoertzel(16000, 600).Power(signal)
	off := NewGoertzel(16000, 300).Power(signal)
	if on <= off*10 {
		t.Errorf("on-frequency power %v should dominate off-frequency %v", on, off)
	}
}

func TestGoertzelSilence(t *testing.T) {
	bank := NewFilterBank(16000, []float64{80, 200, 1000})
	for i, e := range bank.Energies(make([]float64, 400)) {
		if e != 0 {
			t.Errorf("bin %d = %v, want exactly 0", i, e)
		}
	}
	if got := NewGoertzel(16000, 80).Power(nil); got != 0 {
		t.Errorf("Power(nil) = %v", got)
	}
}

func TestFilterBankNonNegative(t *testing.T) {
	signal := make([]float64, 257)
	for i := range signal {
		signal[i] = math.Sin(float64(i)*1.7) * math.Cos(float64(i)*0.3)
	}
	freqs, err := Schedule(8000, 16, DefaultMinFrequency, DefaultMaxFrequency)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	bank := NewFilterBank(8000, freqs)
	if bank.Size() != 16 {
		t.Fatalf("Size = %d", bank.Size())
	}
	for i, e := range bank.Energies(signal) {
		if e < 0 || math.IsNaN(e) {
			t.Errorf("bin %d = %v, want non-negative", i, e)
		}
	}
}

func TestScheduleGeometric(t *testing.T) {
	freqs, err := Schedule(16000, 5, 100, 1600)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	want := []float64{100, 200, 400, 800, 1600}
	for i := range want {
		if math.Abs(freqs[i]-want[i]) > 1e-9 {
			t.Errorf("freqs[%d] = %v, want %v", i, freqs[i], want[i])
		}
	}
}

func TestScheduleClampsToNyquist(t *testing.T) {
	freqs, err := Schedule(8000, 4, DefaultMinFrequency, DefaultMaxFrequency)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if top := freqs[len(freqs)-1]; math.Abs(top-3600) > 1e-9 {
		t.Errorf("top frequency = %v, want 3600", top)
	}

	low, err := Schedule(100, 3, DefaultMinFrequency, DefaultMaxFrequency)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if math.Abs(low[0]-11.25) > 1e-9 || math.Abs(low[2]-45) > 1e-9 {
		t.Errorf("low-rate schedule = %v", low)
	}
}

func TestScheduleSingleBin(t *testing.T) {
	freqs, err := Schedule(16000, 1, 120, 960)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(freqs) != 1 || freqs[0] != 120 {
		t.Errorf("freqs = %v, want [120]", freqs)
	}
}

func TestScheduleErrors(t *testing.T) {
	cases := []struct {
		rate, bins int
		lo, hi     float64
	}{
		{0, 4, 80, 4000},
		{16000, 0, 80, 4000},
		{16000, 4, 0, 4000},
		{16000, 4, 500, 100},
	}
	for _, c := range cases {
		if _, err := Schedule(c.rate, c.bins, c.lo, c.hi); !errors.Is(err, common.ErrInvalidParameter) {
			t.Errorf("Schedule(%d, %d, %g, %g) err = %v", c.rate, c.bins, c.lo, c.hi, err)
		}
	}
}
