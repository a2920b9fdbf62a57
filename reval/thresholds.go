package reval

const (
	thresholdStart = 50
	thresholdStop  = 100
	thresholdStep  = 5
)

// Thresholds returns the IoU sweep 0.50, 0.55, ..., 0.95 in ascending order.
// Each value is an integer percentage divided by 100 so that no step accumulates
// floating-point error: Thresholds()[1] == 0.55 exactly.
func Thresholds() []float64 {
	out := make([]float64, 0, (thresholdStop-thresholdStart)/thresholdStep)
	for i := thresholdStart; i < thresholdStop; i += thresholdStep {
		out = append(out, float64(i)/100)
	}
	return out
}
