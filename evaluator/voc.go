package evaluator

import (
	"context"
	"math"

	"github.com/nvr-ai/voc-reval/images"
	"github.com/nvr-ai/voc-reval/voc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// VOC evaluates detections with the PASCAL VOC protocol.
//
// Detections are ranked by confidence and greedily matched to the ground-truth box of
// highest overlap in the same image. A match above the threshold on an unclaimed box is
// a true positive, a second match on a claimed box is a false positive, and matches on
// boxes flagged difficult are ignored. Difficult boxes do not count towards recall.
type VOC struct {
	cache *voc.Cache
	log   logrus.FieldLogger
}

// NewVOC creates a VOC evaluator. The annotation cache is shared by every call.
func NewVOC(log logrus.FieldLogger) *VOC {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &VOC{
		cache: voc.NewCache(log),
		log:   log,
	}
}

type classRecord struct {
	boxes     []images.Box
	difficult []bool
	matched   []bool
}

// Evaluate implements Evaluator.
func (e *VOC) Evaluate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	ids, set, err := e.cache.Load(req.CacheDir, req.AnnotationTemplate, req.ImageSetFile)
	if err != nil {
		return Result{}, err
	}
	records, npos := groundTruth(ids, set, req.ClassName)

	dets, err := ReadDetections(req.ResultsFile)
	if err != nil {
		return Result{}, err
	}
	SortByConfidence(dets)

	overlap := images.OverlapFunc(req.UseGIoU)
	tp := make([]float64, len(dets))
	fp := make([]float64, len(dets))

	for d, det := range dets {
		rec, ok := records[det.ImageID]
		if !ok {
			return Result{}, errors.Wrapf(ErrMalformed, "%s: image %q is not in image set %s",
				req.ResultsFile, det.ImageID, req.ImageSetFile)
		}

		ovmax, jmax := math.Inf(-1), -1
		for j, gt := range rec.boxes {
			if o := overlap(det.Box, gt); o > ovmax {
				ovmax, jmax = o, j
			}
		}

		switch {
		case ovmax <= req.IoUThreshold:
			fp[d] = 1
		case rec.difficult[jmax]:
			// neither TP nor FP
		case !rec.matched[jmax]:
			tp[d] = 1
			rec.matched[jmax] = true
		default:
			fp[d] = 1
		}
	}

	recall, precision := curve(tp, fp, npos)
	ap := AveragePrecision(recall, precision, req.Use11Point)

	e.log.WithFields(logrus.Fields{
		"class":      req.ClassName,
		"threshold":  req.IoUThreshold,
		"detections": len(dets),
		"positives":  npos,
		"ap":         ap,
	}).Debug("evaluated class")

	return Result{Recall: recall, Precision: precision, AP: ap}, nil
}

// groundTruth collects the boxes of one class per image and counts the non-difficult ones.
func groundTruth(ids []string, set voc.Set, class string) (map[string]*classRecord, int) {
	records := make(map[string]*classRecord, len(ids))
	npos := 0
	for _, id := range ids {
		rec := &classRecord{}
		for _, obj := range set[id] {
			if obj.Name != class {
				continue
			}
			rec.boxes = append(rec.boxes, obj.Box)
			rec.difficult = append(rec.difficult, obj.Difficult)
			if !obj.Difficult {
				npos++
			}
		}
		rec.matched = make([]bool, len(rec.boxes))
		records[id] = rec
	}
	return records, npos
}

// curve turns per-detection TP/FP flags into cumulative recall and precision.
// Recall is zero throughout when the class has no positives.
func curve(tp, fp []float64, npos int) (recall, precision []float64) {
	recall = make([]float64, len(tp))
	precision = make([]float64, len(tp))
	eps := math.Nextafter(1, 2) - 1

	var ctp, cfp float64
	for i := range tp {
		ctp += tp[i]
		cfp += fp[i]
		if npos > 0 {
			recall[i] = ctp / float64(npos)
		}
		precision[i] = ctp / math.Max(ctp+cfp, eps)
	}
	return recall, precision
}
