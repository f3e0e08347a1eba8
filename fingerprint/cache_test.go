package fingerprint

import (
	"bytes"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/metrics"
	"github.com/RyanBlaney/sonido-estilo/transcode"
)

func openCache(t *testing.T, cfg config.FeatureConfig, m *metrics.Metrics) *EmbeddingCache {
	t.Helper()
	cache, err := OpenEmbeddingCache(cfg, m)
	if err != nil {
		t.Fatalf("OpenEmbeddingCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestEmbeddingCacheHit(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	cfg := config.DefaultFeatureConfig()
	cache := openCache(t, cfg, m)
	g := newGenerator(t, nil, WithCache(cache), WithMetrics(m))

	audio := transcode.NewAudioData(tone(500, 0.1, testRate, 4000), testRate)
	first, err := g.Generate(audio)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Generate(audio)
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		if math.Float64bits(first[i]) != math.Float64bits(second[i]) {
			t.Fatalf("cached element %d differs", i)
		}
	}
	if n, err := cache.Len(); err != nil || n != 1 {
		t.Errorf("Len = %d, %v; want 1", n, err)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EmbeddingsGenerated); got != 1 {
		t.Errorf("embeddings computed = %v, want 1", got)
	}
}

func TestEmbeddingCacheClear(t *testing.T) {
	cache := openCache(t, config.DefaultFeatureConfig(), nil)
	audio := transcode.NewAudioData([]float64{0.1, 0.2, 0.3}, testRate)

	if err := cache.Put(audio, []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, err := cache.Len(); err != nil || n != 0 {
		t.Errorf("Len after Clear = %d, %v", n, err)
	}
	if _, ok, err := cache.Get(audio); ok || err != nil {
		t.Errorf("Get after Clear = %v, %v", ok, err)
	}
}

func TestEmbeddingCacheKeyDependsOnConfig(t *testing.T) {
	audio := transcode.NewAudioData([]float64{0.5, -0.5}, testRate)

	a := openCache(t, config.DefaultFeatureConfig(), nil)
	other := config.DefaultFeatureConfig()
	other.KBins = 8
	b := openCache(t, other, nil)

	if bytes.Equal(a.Key(audio), b.Key(audio)) {
		t.Error("different feature configs share a cache key")
	}
	if !bytes.Equal(a.Key(audio), a.Key(transcode.NewAudioData([]float64{0.5, -0.5}, testRate))) {
		t.Error("equal waveforms have different keys")
	}
	if bytes.Equal(a.Key(audio), a.Key(transcode.NewAudioData([]float64{0.5, -0.5}, 8000))) {
		t.Error("sample rate not part of the key")
	}
}

func TestNilEmbeddingCache(t *testing.T) {
	var cache *EmbeddingCache
	audio := transcode.NewAudioData([]float64{1}, testRate)

	if err := cache.Put(audio, []float64{1}); err != nil {
		t.Errorf("Put: %v", err)
	}
	if _, ok, err := cache.Get(audio); ok || err != nil {
		t.Errorf("Get = %v, %v", ok, err)
	}
	if n, err := cache.Len(); n != 0 || err != nil {
		t.Errorf("Len = %d, %v", n, err)
	}
	if err := cache.Clear(); err != nil {
		t.Errorf("Clear: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
