package recognition

import (
	"fmt"
	"math"
	"sync"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/algorithms/stats"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/logging"
)

// Recognizer is an append-only nearest-neighbour classifier. The first
// trained embedding fixes the dimensionality; examples are never removed or
// deduplicated.
//
// It is safe for concurrent use: predictions run in parallel, training is
// serialised.
type Recognizer struct {
	mu       sync.RWMutex
	examples []LabelledExample
	dim      int

	metric    stats.DistanceMetric
	distance  stats.DistanceFunction
	normalize bool
	logger    logging.Logger
}

// NewRecognizer creates an empty recognizer using the configured metric
func NewRecognizer(cfg config.RecognizerConfig) (*Recognizer, error) {
	metric := cfg.Metric
	if metric == "" {
		metric = stats.EuclideanDistance
	}

	distance, err := stats.GetDistanceFunction(metric)
	if err != nil {
		return nil, err
	}

	return &Recognizer{
		metric:    metric,
		distance:  distance,
		normalize: cfg.Normalize,
		logger: logging.WithFields(logging.Fields{
			"component": "recognizer",
			"metric":    string(metric),
		}),
	}, nil
}

// Train appends a labelled embedding to the reference set. The recognizer
// keeps its own copy of the embedding. Non-finite components are rejected.
func (r *Recognizer) Train(label Label, embedding Embedding) error {
	if len(embedding) == 0 {
		return fmt.Errorf("cannot train %q on an empty embedding: %w", label, common.ErrEmptyInput)
	}
	if i, ok := nonFinite(embedding); ok {
		return fmt.Errorf("embedding for %q has non-finite component %d: %w", label, i, common.ErrInvalidParameter)
	}

	stored := r.prepare(embedding)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dim == 0 {
		r.dim = len(stored)
	} else if len(stored) != r.dim {
		return fmt.Errorf("embedding for %q has length %d, reference set has %d: %w",
			label, len(stored), r.dim, common.ErrDimensionMismatch)
	}

	r.examples = append(r.examples, LabelledExample{Label: label, Embedding: stored})
	return nil
}

// TrainAll trains every example in order and stops at the first error.
// Examples before the failing one stay trained.
func (r *Recognizer) TrainAll(examples []LabelledExample) error {
	for i, ex := range examples {
		if err := r.Train(ex.Label, ex.Embedding); err != nil {
			return fmt.Errorf("training example %d: %w", i, err)
		}
	}

	r.logger.Debug("Reference set trained", logging.Fields{
		"function": "TrainAll",
		"added":    len(examples),
		"size":     r.Len(),
	})
	return nil
}

// Predict returns the label of the nearest stored example. Among equally
// distant examples the earliest inserted one wins.
func (r *Recognizer) Predict(embedding Embedding) (Label, error) {
	res, err := r.PredictResult(embedding)
	if err != nil {
		return "", err
	}
	return res.Label, nil
}

// PredictResult is Predict with the winning distance and reference index.
// Queries with NaN or infinite components are rejected.
func (r *Recognizer) PredictResult(embedding Embedding) (Result, error) {
	if i, ok := nonFinite(embedding); ok {
		return Result{}, fmt.Errorf("query has non-finite component %d: %w", i, common.ErrInvalidParameter)
	}
	query := r.prepare(embedding)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.examples) == 0 {
		return Result{}, fmt.Errorf("predict called before training: %w", common.ErrEmptyReferenceSet)
	}
	if len(query) != r.dim {
		return Result{}, fmt.Errorf("query has length %d, reference set has %d: %w",
			len(query), r.dim, common.ErrDimensionMismatch)
	}

	best := Result{Index: -1}
	for i, ex := range r.examples {
		d := r.distance(query, ex.Embedding)
		// strict comparison keeps the earliest example on ties
		if best.Index < 0 || d < best.Distance {
			best = Result{Label: ex.Label, Distance: d, Index: i}
		}
	}
	return best, nil
}

// Len returns the number of stored examples
func (r *Recognizer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.examples)
}

// Dim returns the fixed embedding length, or 0 before the first Train
func (r *Recognizer) Dim() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dim
}

// Metric returns the distance metric name
func (r *Recognizer) Metric() string {
	return string(r.metric)
}

// Examples returns a copy of the reference set in insertion order
func (r *Recognizer) Examples() []LabelledExample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]LabelledExample, len(r.examples))
	for i, ex := range r.examples {
		out[i] = LabelledExample{Label: ex.Label, Embedding: common.Clone(ex.Embedding)}
	}
	return out
}

func (r *Recognizer) prepare(embedding Embedding) Embedding {
	if r.normalize {
		return common.L2Normalize(embedding)
	}
	return common.Clone(embedding)
}

// nonFinite returns the index of the first NaN or infinite component
func nonFinite(embedding Embedding) (int, bool) {
	for i, v := range embedding {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i, true
		}
	}
	return 0, false
}
