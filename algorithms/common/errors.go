package common

import "errors"

// Error kinds shared by every stage of the pipeline. Stages wrap them with
// context via fmt.Errorf("...: %w", err); callers match with errors.Is.
var (
	// ErrInvalidParameter reports a bad window/hop size, sample rate, bin
	// count, metric or pooling name.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmptyInput reports an empty waveform, feature sequence or test set.
	ErrEmptyInput = errors.New("empty input")

	// ErrDimensionMismatch reports embedding or feature length disagreements.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyReferenceSet reports a prediction before any training.
	ErrEmptyReferenceSet = errors.New("empty reference set")
)
