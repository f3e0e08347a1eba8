package recognition

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/algorithms/stats"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
)

func newRecognizer(t *testing.T, metric stats.DistanceMetric, normalize bool) *Recognizer {
	t.Helper()
	r, err := NewRecognizer(config.RecognizerConfig{Metric: metric, Normalize: normalize})
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	return r
}

func trainAB(t *testing.T, r *Recognizer) {
	t.Helper()
	if err := r.Train("A", Embedding{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := r.Train("B", Embedding{0, 1}); err != nil {
		t.Fatal(err)
	}
}

func TestPredictNearestAndTieBreak(t *testing.T) {
	for _, metric := range []stats.DistanceMetric{
		stats.EuclideanDistance,
		stats.SquaredEuclideanDistance,
		stats.CosineDistance,
		stats.ManhattanDistance,
	} {
		t.Run(string(metric), func(t *testing.T) {
			r := newRecognizer(t, metric, false)
			trainAB(t, r)

			if got, err := r.Predict(Embedding{0.9, 0.1}); err != nil || got != "A" {
				t.Errorf("Predict([0.9 0.1]) = %q, %v; want A", got, err)
			}
			for range 5 {
				if got, err := r.Predict(Embedding{0.5, 0.5}); err != nil || got != "A" {
					t.Fatalf("Predict([0.5 0.5]) = %q, %v; want A (earliest inserted)", got, err)
				}
			}
		})
	}
}

func TestTieBreakPrefersEarliestDuplicate(t *testing.T) {
	r := newRecognizer(t, "", false)
	for _, label := range []Label{"first", "second", "third"} {
		if err := r.Train(label, Embedding{2, 2, 2}); err != nil {
			t.Fatal(err)
		}
	}

	res, err := r.PredictResult(Embedding{2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Label != "first" || res.Index != 0 || res.Distance != 0 {
		t.Errorf("result = %+v, want first at index 0", res)
	}
}

func TestPredictResultDistance(t *testing.T) {
	r := newRecognizer(t, stats.EuclideanDistance, false)
	trainAB(t, r)

	res, err := r.PredictResult(Embedding{0, 4})
	if err != nil {
		t.Fatal(err)
	}
	if res.Label != "B" || res.Index != 1 || math.Abs(res.Distance-3) > 1e-12 {
		t.Errorf("result = %+v, want B at distance 3", res)
	}
}

func TestMonotonicGrowth(t *testing.T) {
	r := newRecognizer(t, "", false)
	for i := range 10 {
		if err := r.Train("same", Embedding{1, 1}); err != nil {
			t.Fatal(err)
		}
		if r.Len() != i+1 {
			t.Fatalf("after %d trains Len = %d", i+1, r.Len())
		}
	}
	if r.Dim() != 2 {
		t.Errorf("Dim = %d, want 2", r.Dim())
	}
}

func TestErrors(t *testing.T) {
	r := newRecognizer(t, "", false)

	if _, err := r.Predict(Embedding{1, 0}); !errors.Is(err, common.ErrEmptyReferenceSet) {
		t.Errorf("predict before train err = %v", err)
	}
	if err := r.Train("A", nil); !errors.Is(err, common.ErrEmptyInput) {
		t.Errorf("empty embedding err = %v", err)
	}

	trainAB(t, r)

	if err := r.Train("C", Embedding{1, 2, 3}); !errors.Is(err, common.ErrDimensionMismatch) {
		t.Errorf("train mismatch err = %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("failed train changed Len to %d", r.Len())
	}
	if _, err := r.Predict(Embedding{1}); !errors.Is(err, common.ErrDimensionMismatch) {
		t.Errorf("predict mismatch err = %v", err)
	}

	if _, err := NewRecognizer(config.RecognizerConfig{Metric: "hamming"}); !errors.Is(err, common.ErrInvalidParameter) {
		t.Errorf("unknown metric err = %v", err)
	}
}

func TestRejectsNonFiniteComponents(t *testing.T) {
	r := newRecognizer(t, "", false)
	trainAB(t, r)

	for _, bad := range []Embedding{
		{math.NaN(), 0},
		{0, math.Inf(1)},
		{math.Inf(-1), math.NaN()},
	} {
		if _, err := r.Predict(bad); !errors.Is(err, common.ErrInvalidParameter) {
			t.Errorf("Predict(%v) err = %v, want ErrInvalidParameter", bad, err)
		}
		if err := r.Train("C", bad); !errors.Is(err, common.ErrInvalidParameter) {
			t.Errorf("Train(%v) err = %v, want ErrInvalidParameter", bad, err)
		}
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d after rejected training, want 2", r.Len())
	}
}

func TestTrainAllStopsAtFirstError(t *testing.T) {
	r := newRecognizer(t, "", false)
	err := r.TrainAll([]LabelledExample{
		{Label: "A", Embedding: Embedding{1, 0}},
		{Label: "B", Embedding: Embedding{0, 1}},
		{Label: "C", Embedding: Embedding{0, 1, 0}},
		{Label: "D", Embedding: Embedding{1, 1}},
	})
	if !errors.Is(err, common.ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestTrainCopiesEmbedding(t *testing.T) {
	r := newRecognizer(t, "", false)
	emb := Embedding{1, 0}
	if err := r.Train("A", emb); err != nil {
		t.Fatal(err)
	}
	emb[0] = 100

	examples := r.Examples()
	if examples[0].Embedding[0] != 1 {
		t.Fatalf("stored embedding aliased caller slice")
	}
	examples[0].Embedding[0] = 42
	if r.Examples()[0].Embedding[0] != 1 {
		t.Fatalf("Examples returned internal storage")
	}
}

func TestNormalizeMakesScaleIrrelevant(t *testing.T) {
	r := newRecognizer(t, stats.EuclideanDistance, true)
	if err := r.Train("quiet", Embedding{0.01, 0.02}); err != nil {
		t.Fatal(err)
	}
	if err := r.Train("other", Embedding{5, 0}); err != nil {
		t.Fatal(err)
	}

	got, err := r.Predict(Embedding{10, 20})
	if err != nil {
		t.Fatal(err)
	}
	if got != "quiet" {
		t.Errorf("Predict = %q, want quiet", got)
	}
}

func TestConcurrentPredict(t *testing.T) {
	r := newRecognizer(t, "", false)
	for i := range 50 {
		if err := r.Train(Label(fmt.Sprintf("L%d", i)), Embedding{float64(i), 0}); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for g := range 16 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			want := Label(fmt.Sprintf("L%d", g))
			got, err := r.Predict(Embedding{float64(g) + 0.1, 0})
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- fmt.Errorf("got %s, want %s", got, want)
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
