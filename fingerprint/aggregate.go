package fingerprint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/extractors"
	"github.com/RyanBlaney/sonido-estilo/recognition"
)

// Aggregator pools the per-window feature vectors of a clip into a single
// embedding
type Aggregator struct {
	Pooling config.PoolingMethod `json:"pooling"`
}

// NewAggregator creates an aggregator. An empty pooling method means mean.
func NewAggregator(pooling config.PoolingMethod) (*Aggregator, error) {
	switch pooling {
	case "":
		pooling = config.PoolingMean
	case config.PoolingMean, config.PoolingMax:
	default:
		return nil, fmt.Errorf("unsupported pooling %q: %w", pooling, common.ErrInvalidParameter)
	}
	return &Aggregator{Pooling: pooling}, nil
}

// Aggregate returns the element-wise mean of vectors
func Aggregate(vectors []extractors.FeatureVector) (recognition.Embedding, error) {
	return Aggregator{Pooling: config.PoolingMean}.Aggregate(vectors)
}

// Aggregate pools vectors element-wise. Vectors are combined in input order,
// so identical inputs give bit-identical embeddings.
func (a Aggregator) Aggregate(vectors []extractors.FeatureVector) (recognition.Embedding, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no feature vectors to aggregate: %w", common.ErrEmptyInput)
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("feature vectors are empty: %w", common.ErrEmptyInput)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("feature vector %d has length %d, want %d: %w",
				i, len(v), dim, common.ErrDimensionMismatch)
		}
	}

	out := make(recognition.Embedding, dim)
	switch a.Pooling {
	case config.PoolingMean, "":
		for _, v := range vectors {
			floats.Add(out, v)
		}
		floats.Scale(1/float64(len(vectors)), out)

	case config.PoolingMax:
		copy(out, vectors[0])
		for _, v := range vectors[1:] {
			for j := range out {
				out[j] = math.Max(out[j], v[j])
			}
		}

	default:
		return nil, fmt.Errorf("unsupported pooling %q: %w", a.Pooling, common.ErrInvalidParameter)
	}

	return out, nil
}
