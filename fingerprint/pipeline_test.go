package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/dataset"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/metrics"
	"github.com/RyanBlaney/sonido-estilo/transcode"
)

// writeToneCorpus writes three phase-shifted clips per style plus a manifest
// and returns the manifest path
func writeToneCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	var manifest strings.Builder
	manifest.WriteString("path,label,speaker\n")
	styles := []struct {
		label string
		freq  float64
	}{
		{"calm", 300},
		{"energetic", 600},
	}
	for _, style := range styles {
		for j := range 3 {
			name := fmt.Sprintf("%s_%d.wav", style.label, j)
			pcm := tone(style.freq, float64(j)*math.Pi/6, testRate, testRate/2)
			if err := transcode.SaveWAV(filepath.Join(dir, name), pcm, testRate); err != nil {
				t.Fatalf("SaveWAV: %v", err)
			}
			fmt.Fprintf(&manifest, "%s,%s,spk%d\n", name, style.label, j)
		}
	}

	path := filepath.Join(dir, "manifest.csv")
	if err := os.WriteFile(path, []byte(manifest.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadCorpus(t *testing.T, manifestPath string) []dataset.LabelledWaveform {
	t.Helper()
	ds, err := dataset.LoadManifest(manifestPath, "")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	decoder := transcode.NewDecoder(&transcode.DecoderConfig{
		TargetSampleRate: testRate,
		DisableFFmpeg:    true,
	})
	samples, err := ds.Load(context.Background(), decoder)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return samples
}

func TestPipelineEndToEnd(t *testing.T) {
	samples := loadCorpus(t, writeToneCorpus(t))
	if len(samples) != 6 {
		t.Fatalf("loaded %d samples, want 6", len(samples))
	}

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = true
	m := metrics.NewMetrics(prometheus.NewRegistry())

	p, err := NewPipeline(cfg, m)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	if err := p.Train(ctx, samples); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if p.Recognizer().Len() != 6 {
		t.Errorf("reference size = %d, want 6", p.Recognizer().Len())
	}

	report, err := p.Evaluate(ctx, samples)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Accuracy != 1 || report.Correct != 6 || report.Total != 6 {
		t.Errorf("report = %+v", report)
	}
	if report.Metric != "euclidean" {
		t.Errorf("metric = %q", report.Metric)
	}
	if report.Confusion.Count("calm", "energetic") != 0 {
		t.Errorf("calm misclassified as energetic")
	}
	if !strings.Contains(report.String(), "Accuracy: 1.000 (6/6 samples)") {
		t.Errorf("report text:\n%s", report.String())
	}

	query := transcode.NewAudioData(tone(600, math.Pi/5, testRate, testRate/2), testRate)
	res, err := p.Predict(query)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Label != "energetic" {
		t.Errorf("query label = %q, want energetic", res.Label)
	}

	// evaluation re-embeds the training clips, which the cache already holds
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")); got != 6 {
		t.Errorf("cache hits = %v, want 6", got)
	}
	if got := testutil.ToFloat64(m.ExamplesTrained); got != 6 {
		t.Errorf("trained = %v, want 6", got)
	}
	if got := testutil.ToFloat64(m.EvaluationAccuracy); got != 1 {
		t.Errorf("accuracy gauge = %v", got)
	}

	if err := p.ResetCache(); err != nil {
		t.Fatalf("ResetCache: %v", err)
	}
	if n, _ := p.Cache().Len(); n != 0 {
		t.Errorf("cache len after reset = %d", n)
	}
}

func TestPipelineEmptyInputs(t *testing.T) {
	p, err := NewPipeline(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Train(context.Background(), nil); !errors.Is(err, common.ErrEmptyInput) {
		t.Errorf("Train err = %v", err)
	}
	if _, err := p.Evaluate(context.Background(), nil); !errors.Is(err, common.ErrEmptyInput) {
		t.Errorf("Evaluate err = %v", err)
	}
	query := transcode.NewAudioData(tone(300, 0, testRate, 800), testRate)
	if _, err := p.Predict(query); !errors.Is(err, common.ErrEmptyReferenceSet) {
		t.Errorf("Predict err = %v", err)
	}
	if p.Cache() != nil {
		t.Error("cache enabled by default")
	}
}

func TestNewPipelineRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Feature.KBins = 0
	if _, err := NewPipeline(cfg, nil); !errors.Is(err, common.ErrInvalidParameter) {
		t.Errorf("err = %v", err)
	}
}
