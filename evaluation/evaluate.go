package evaluation

import (
	"fmt"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/logging"
	"github.com/RyanBlaney/sonido-estilo/recognition"
)

// Predictor is the read-only side of a recognizer
type Predictor interface {
	Predict(embedding recognition.Embedding) (recognition.Label, error)
	Metric() string
}

// Evaluate predicts every example and tallies accuracy and confusion counts.
// The first prediction error aborts the run. The predictor is never trained
// or otherwise modified.
func Evaluate(p Predictor, examples []recognition.LabelledExample) (*Report, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "evaluator",
		"function":  "Evaluate",
		"examples":  len(examples),
	})

	if len(examples) == 0 {
		return nil, fmt.Errorf("cannot evaluate an empty test set: %w", common.ErrEmptyInput)
	}

	var builder confusionBuilder
	correct := 0
	for i, ex := range examples {
		predicted, err := p.Predict(ex.Embedding)
		if err != nil {
			logger.Error(err, "Prediction failed", logging.Fields{"index": i, "label": string(ex.Label)})
			return nil, fmt.Errorf("example %d (%s): %w", i, ex.Label, err)
		}
		if predicted == ex.Label {
			correct++
		}
		builder.add(ex.Label, predicted)
	}

	report := &Report{
		Accuracy:  float64(correct) / float64(len(examples)),
		Correct:   correct,
		Total:     len(examples),
		Metric:    p.Metric(),
		Confusion: builder.build(),
	}

	logger.Info("Evaluation complete", logging.Fields{
		"accuracy": report.Accuracy,
		"correct":  correct,
		"metric":   report.Metric,
	})

	return report, nil
}
