package evaluation

import (
	"slices"

	"github.com/RyanBlaney/sonido-estilo/recognition"
)

// Cell is one (truth, prediction) entry of a confusion matrix
type Cell struct {
	Truth     recognition.Label `json:"truth"`
	Predicted recognition.Label `json:"predicted"`
	Count     int               `json:"count"`
}

// ConfusionMatrix counts (truth, prediction) pairs. It is dense over the
// observed label set: every label seen as a truth or a prediction is both a
// row and a column, and unseen pairs count zero. It is read-only once built.
type ConfusionMatrix struct {
	labels []recognition.Label
	index  map[recognition.Label]int
	counts [][]int
	total  int
}

type confusionBuilder struct {
	pairs []Cell
}

func (b *confusionBuilder) add(truth, predicted recognition.Label) {
	b.pairs = append(b.pairs, Cell{Truth: truth, Predicted: predicted, Count: 1})
}

func (b *confusionBuilder) build() *ConfusionMatrix {
	seen := make(map[recognition.Label]struct{})
	for _, p := range b.pairs {
		seen[p.Truth] = struct{}{}
		seen[p.Predicted] = struct{}{}
	}

	labels := make([]recognition.Label, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	index := make(map[recognition.Label]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	for _, p := range b.pairs {
		counts[index[p.Truth]][index[p.Predicted]] += p.Count
	}

	return &ConfusionMatrix{
		labels: labels,
		index:  index,
		counts: counts,
		total:  len(b.pairs),
	}
}

// Count returns how often truth was predicted as predicted. Labels outside
// the observed set count zero.
func (m *ConfusionMatrix) Count(truth, predicted recognition.Label) int {
	i, ok := m.index[truth]
	if !ok {
		return 0
	}
	j, ok := m.index[predicted]
	if !ok {
		return 0
	}
	return m.counts[i][j]
}

// Labels returns the observed labels in sorted order
func (m *ConfusionMatrix) Labels() []recognition.Label {
	return slices.Clone(m.labels)
}

// Total returns the sum of all cells, which equals the test-set size
func (m *ConfusionMatrix) Total() int {
	return m.total
}

// Row returns the prediction counts for one true label, zero entries
// included. Unknown labels return nil.
func (m *ConfusionMatrix) Row(truth recognition.Label) map[recognition.Label]int {
	i, ok := m.index[truth]
	if !ok {
		return nil
	}
	row := make(map[recognition.Label]int, len(m.labels))
	for j, l := range m.labels {
		row[l] = m.counts[i][j]
	}
	return row
}

// Cells returns every cell in row-major label order
func (m *ConfusionMatrix) Cells() []Cell {
	cells := make([]Cell, 0, len(m.labels)*len(m.labels))
	for i, truth := range m.labels {
		for j, pred := range m.labels {
			cells = append(cells, Cell{Truth: truth, Predicted: pred, Count: m.counts[i][j]})
		}
	}
	return cells
}
