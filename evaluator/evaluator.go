// Package evaluator - Per-class Average Precision computation for saved detections.
package evaluator

import (
	"context"

	"github.com/nvr-ai/voc-reval/voc"
)

var (
	// ErrMissingArtifact is returned when a results file or annotation resource is absent.
	ErrMissingArtifact = voc.ErrNotFound
	// ErrMalformed is returned when a results file or annotation cannot be parsed.
	ErrMalformed = voc.ErrMalformed
)

// Request describes one evaluation of one class at one IoU threshold.
type Request struct {
	// ResultsFile holds the detections of the class, one per line.
	ResultsFile string
	// AnnotationTemplate is a path pattern with one %s placeholder for the image id.
	AnnotationTemplate string
	// ImageSetFile lists the image ids of the evaluated split.
	ImageSetFile string
	// ClassName is the class being evaluated.
	ClassName string
	// CacheDir may be used by the evaluator to memoize parsed ground truth. The same
	// directory is passed for every call of a run; invalidation is the evaluator's job.
	CacheDir string
	// IoUThreshold is the minimum overlap for a detection to match a ground-truth box.
	IoUThreshold float64
	// UseGIoU selects generalized IoU instead of IoU as the overlap measure.
	UseGIoU bool
	// Use11Point selects VOC07 11-point interpolated AP instead of the area under curve.
	Use11Point bool
}

// Result is the precision/recall curve and AP of one class at one threshold.
type Result struct {
	// Recall is the cumulative recall after each ranked detection.
	Recall []float64
	// Precision is the cumulative precision after each ranked detection.
	Precision []float64
	// AP is the interpolated area under the curve, in [0, 1].
	AP float64
}

// Evaluator computes per-class AP for saved detections.
//
// Evaluate is called synchronously once per (class, threshold) pair. Implementations
// return an error wrapping ErrMissingArtifact when an input file is absent.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// Func adapts an ordinary function to the Evaluator interface.
type Func func(ctx context.Context, req Request) (Result, error)

// Evaluate calls f(ctx, req).
func (f Func) Evaluate(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// Use11Point reports whether a dataset year is scored with the VOC07 11-point metric.
// The PASCAL VOC metric changed in 2010.
func Use11Point(year int) bool {
	return year < 2010
}
