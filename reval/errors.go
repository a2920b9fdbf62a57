package reval

import (
	"fmt"

	"github.com/nvr-ai/voc-reval/evaluator"
	"github.com/pkg/errors"
)

var (
	// ErrConfiguration is returned when the run cannot start: the class list is
	// missing or the output directory cannot be created.
	ErrConfiguration = errors.New("configuration error")
	// ErrMissingArtifact is returned when a results file or annotation is absent.
	ErrMissingArtifact = evaluator.ErrMissingArtifact
	// ErrDegenerateAggregation is returned instead of a NaN mean: no classes to
	// evaluate, or a mean over an empty or non-finite set of values.
	ErrDegenerateAggregation = errors.New("degenerate aggregation")
)

// EvalError identifies the (class, threshold) pair whose evaluation failed.
type EvalError struct {
	Class     string
	Threshold float64
	Err       error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("class %q at IoU %.2f: %v", e.Class, e.Threshold, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// kindError tags a cause with one of the sentinels above. Both match errors.Is.
type kindError struct {
	kind error
	err  error
}

func withKind(kind, err error) error {
	return &kindError{kind: kind, err: err}
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.err
}
