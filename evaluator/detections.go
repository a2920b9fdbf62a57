package evaluator

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nvr-ai/voc-reval/images"
	"github.com/pkg/errors"
)

// Detection is one line of a per-class results file.
type Detection struct {
	ImageID    string
	Confidence float64
	Box        images.Box
}

// ReadDetections parses a results file of "<image_id> <score> <x1> <y1> <x2> <y2>" lines.
// Blank lines are skipped.
func ReadDetections(path string) ([]Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMissingArtifact, "results file %s", path)
		}
		return nil, errors.Wrapf(err, "open results file %s", path)
	}
	defer f.Close()

	var dets []Detection
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		det, err := parseDetection(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, line)
		}
		dets = append(dets, det)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read results file %s", path)
	}
	return dets, nil
}

func parseDetection(fields []string) (Detection, error) {
	if len(fields) != 6 {
		return Detection{}, errors.Wrapf(ErrMalformed, "expected 6 fields, got %d", len(fields))
	}
	var v [5]float64
	for i := range v {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return Detection{}, errors.Wrapf(ErrMalformed, "field %d: %v", i+2, err)
		}
		v[i] = f
	}
	return Detection{
		ImageID:    fields[0],
		Confidence: v[0],
		Box:        images.Box{X1: v[1], Y1: v[2], X2: v[3], Y2: v[4]},
	}, nil
}

// SortByConfidence orders detections by descending confidence. Ties keep file order.
func SortByConfidence(dets []Detection) {
	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Confidence > dets[j].Confidence
	})
}
