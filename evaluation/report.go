package evaluation

import (
	"fmt"
	"strings"
)

// Report holds the statistics of one evaluation run
type Report struct {
	Accuracy  float64          `json:"accuracy"`
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Metric    string           `json:"metric"`
	Confusion *ConfusionMatrix `json:"-"`
}

// String renders the accuracy, the distance metric and one confusion row
// per true label
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.3f (%d/%d samples)\n", r.Accuracy, r.Correct, r.Total)
	fmt.Fprintf(&b, "Distance metric: %s\n", r.Metric)
	b.WriteString("Confusion matrix:")

	if r.Confusion == nil {
		return b.String()
	}

	labels := r.Confusion.Labels()
	for _, truth := range labels {
		preds := make([]string, len(labels))
		for j, pred := range labels {
			preds[j] = fmt.Sprintf("%s:%d", pred, r.Confusion.Count(truth, pred))
		}
		fmt.Fprintf(&b, "\n  %s: %s", truth, strings.Join(preds, ", "))
	}
	return b.String()
}
