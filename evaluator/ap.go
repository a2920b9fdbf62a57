package evaluator

// AveragePrecision summarizes a precision/recall curve.
//
// With use11Point the VOC07 metric is used: the mean over recall levels
// t ∈ {0, 0.1, ..., 1} of the maximum precision at recall >= t. Otherwise the curve is
// made monotone by taking the running maximum of precision from the right, and the
// area under that envelope is summed at every point where recall changes (VOC2010+).
//
// Arguments:
//   - recall: Cumulative recall, non-decreasing.
//   - precision: Cumulative precision, parallel to recall.
//   - use11Point: Selects the VOC07 11-point interpolation.
//
// Returns:
//   - float64: The AP, 0 for an empty curve.
func AveragePrecision(recall, precision []float64, use11Point bool) float64 {
	if use11Point {
		return elevenPointAP(recall, precision)
	}
	return areaAP(recall, precision)
}

func elevenPointAP(recall, precision []float64) float64 {
	var sum float64
	for i := 0; i <= 10; i++ {
		t := float64(i) / 10
		var p float64
		for j, r := range recall {
			if r >= t && precision[j] > p {
				p = precision[j]
			}
		}
		sum += p
	}
	return sum / 11
}

func areaAP(recall, precision []float64) float64 {
	n := len(recall)
	mrec := make([]float64, n+2)
	mpre := make([]float64, n+2)
	mrec[n+1] = 1
	copy(mrec[1:], recall)
	copy(mpre[1:], precision)

	// Precision envelope.
	for i := len(mpre) - 1; i > 0; i-- {
		if mpre[i] > mpre[i-1] {
			mpre[i-1] = mpre[i]
		}
	}

	var ap float64
	for i := 0; i < len(mrec)-1; i++ {
		if mrec[i+1] != mrec[i] {
			ap += (mrec[i+1] - mrec[i]) * mpre[i+1]
		}
	}
	return ap
}
