package reval

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// ClassAP is the AP of one class at one threshold.
type ClassAP struct {
	Class string  `json:"class"`
	AP    float64 `json:"ap"`
}

// ThresholdSummary aggregates one full-dataset evaluation at a single IoU threshold.
type ThresholdSummary struct {
	Threshold float64 `json:"threshold"`
	// PerClassAP is in class-list order, background excluded.
	PerClassAP []ClassAP `json:"per_class_ap"`
	MeanAP     float64   `json:"mean_ap"`
}

// Summary is the outcome of a full threshold sweep.
type Summary struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Thresholds []ThresholdSummary `json:"thresholds"`
	// MeanAP is the unweighted mean of the per-threshold MeanAP values.
	MeanAP float64 `json:"mean_ap"`
}

// Mean returns the unweighted arithmetic mean of values.
//
// An empty input or a non-finite result is reported as ErrDegenerateAggregation
// rather than returned as NaN.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.Wrap(ErrDegenerateAggregation, "mean of zero values")
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, errors.Wrapf(ErrDegenerateAggregation, "mean is %v", mean)
	}
	return mean, nil
}

// SummarizeThreshold folds the per-class APs of one threshold into a ThresholdSummary.
func SummarizeThreshold(threshold float64, perClass []ClassAP) (ThresholdSummary, error) {
	aps := make([]float64, len(perClass))
	for i, c := range perClass {
		aps[i] = c.AP
	}
	mean, err := Mean(aps)
	if err != nil {
		return ThresholdSummary{}, errors.Wrapf(err, "IoU %.2f", threshold)
	}
	return ThresholdSummary{
		Threshold:  threshold,
		PerClassAP: perClass,
		MeanAP:     mean,
	}, nil
}

// Summarize folds per-threshold summaries into the overall mean.
func Summarize(thresholds []ThresholdSummary) (Summary, error) {
	means := make([]float64, len(thresholds))
	for i, t := range thresholds {
		means[i] = t.MeanAP
	}
	mean, err := Mean(means)
	if err != nil {
		return Summary{}, errors.Wrap(err, "overall mean")
	}
	return Summary{
		Thresholds: thresholds,
		MeanAP:     mean,
	}, nil
}
