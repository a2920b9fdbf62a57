// Package reval re-evaluates saved detections over a sweep of IoU thresholds.
//
// A Sweeper loads the class list, asks an evaluator.Evaluator for the AP of every
// class at every threshold of Thresholds(), persists each precision/recall curve and
// folds the APs into per-threshold and overall mean AP (mAP@[.5:.95]).
package reval

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/voc-reval/evaluator"
	"github.com/nvr-ai/voc-reval/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options locates the inputs and outputs of a sweep.
type Options struct {
	// OutputDir holds the per-class results files and receives the PR artifacts.
	OutputDir string
	// ClassFile is the newline-delimited class list.
	ClassFile string
	// DevkitDir is the dataset root containing VOC<year>/.
	DevkitDir string
	// Year selects VOC<year> and the interpolation metric.
	Year int
	// ImageSet names the evaluated split.
	ImageSet string
	// UseGIoU selects generalized IoU as the overlap measure.
	UseGIoU bool
	// Workers bounds how many classes of one threshold are evaluated at once.
	// Values below 2 evaluate serially.
	Workers int
}

// AnnotationTemplate returns <devkit>/VOC<year>/Annotations/%s.xml.
func (o Options) AnnotationTemplate() string {
	return filepath.Join(o.yearDir(), "Annotations", "%s.xml")
}

// ImageSetFile returns <devkit>/VOC<year>/ImageSets/Main/<image_set>.txt.
func (o Options) ImageSetFile() string {
	return filepath.Join(o.yearDir(), "ImageSets", "Main", o.ImageSet+".txt")
}

// CacheDir returns the annotation cache directory shared by every evaluation.
func (o Options) CacheDir() string {
	return filepath.Join(o.DevkitDir, "annotations_cache")
}

func (o Options) yearDir() string {
	return filepath.Join(o.DevkitDir, "VOC"+strconv.Itoa(o.Year))
}

// ArtifactSink persists the precision/recall curve of one class. Artifacts are keyed by
// class only, so each threshold overwrites the previous one.
type ArtifactSink interface {
	Persist(outputDir, class string, result evaluator.Result) error
}

// Reporter receives already aggregated values for display.
type Reporter interface {
	ReportThreshold(summary ThresholdSummary)
	ReportSummary(summary Summary)
}

// NewSweeperArgs represents the arguments for creating a new Sweeper.
type NewSweeperArgs struct {
	Options   Options
	Evaluator evaluator.Evaluator
	Sink      ArtifactSink
	Reporter  Reporter
	Logger    logrus.FieldLogger
}

// Sweeper drives the threshold sweep.
type Sweeper struct {
	opts      Options
	evaluator evaluator.Evaluator
	sink      ArtifactSink
	reporter  Reporter
	log       logrus.FieldLogger
}

// NewSweeper creates a Sweeper. Sink and Reporter may be nil.
func NewSweeper(args NewSweeperArgs) *Sweeper {
	log := args.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sweeper{
		opts:      args.Options,
		evaluator: args.Evaluator,
		sink:      args.Sink,
		reporter:  args.Reporter,
		log:       log,
	}
}

// Run evaluates every class at every threshold and returns the aggregated summary.
//
// The first failure aborts the run: no ThresholdSummary is produced for the failing
// threshold or any later one. Evaluation failures are returned as *EvalError.
//
// Arguments:
//   - ctx: Cancels the sweep between (and, for the VOC evaluator, before) evaluations.
//
// Returns:
//   - *Summary: Per-threshold and overall mean AP.
//   - error: ErrConfiguration, ErrDegenerateAggregation or an *EvalError.
func (s *Sweeper) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()

	outputDir, err := filepath.Abs(s.opts.OutputDir)
	if err != nil {
		return nil, withKind(ErrConfiguration, errors.Wrap(err, "resolve output directory"))
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, withKind(ErrConfiguration, errors.Wrap(err, "create output directory"))
	}

	classes, err := s.loadClasses()
	if err != nil {
		return nil, err
	}

	use11Point := evaluator.Use11Point(s.opts.Year)
	s.log.WithFields(logrus.Fields{
		"output_dir": outputDir,
		"classes":    len(classes),
		"giou":       s.opts.UseGIoU,
		"voc07":      use11Point,
	}).Info("evaluating detections")

	var summaries []ThresholdSummary
	for _, threshold := range Thresholds() {
		perClass, err := s.evaluateThreshold(ctx, outputDir, classes, threshold, use11Point)
		if err != nil {
			return nil, err
		}
		ts, err := SummarizeThreshold(threshold, perClass)
		if err != nil {
			return nil, err
		}
		if s.reporter != nil {
			s.reporter.ReportThreshold(ts)
		}
		summaries = append(summaries, ts)
	}

	summary, err := Summarize(summaries)
	if err != nil {
		return nil, err
	}
	summary.RunID = uuid.NewString()
	summary.StartedAt = started
	summary.FinishedAt = time.Now()

	if s.reporter != nil {
		s.reporter.ReportSummary(summary)
	}
	return &summary, nil
}

func (s *Sweeper) loadClasses() (models.ClassList, error) {
	classes, err := models.LoadClasses(s.opts.ClassFile)
	switch {
	case errors.Is(err, models.ErrEmptyClassList):
		return nil, withKind(ErrDegenerateAggregation, err)
	case err != nil:
		return nil, withKind(ErrConfiguration, err)
	}

	evaluable := classes.Evaluable()
	if len(evaluable) == 0 {
		return nil, errors.Wrapf(ErrDegenerateAggregation, "%s: no classes besides %s",
			s.opts.ClassFile, models.Background)
	}
	return evaluable, nil
}

// evaluateThreshold returns the AP of every class at one threshold, in class order.
func (s *Sweeper) evaluateThreshold(
	ctx context.Context,
	outputDir string,
	classes models.ClassList,
	threshold float64,
	use11Point bool,
) ([]ClassAP, error) {
	perClass := make([]ClassAP, len(classes))

	if s.opts.Workers < 2 {
		for i, class := range classes {
			ap, err := s.evaluateClass(ctx, outputDir, class, threshold, use11Point)
			if err != nil {
				return nil, err
			}
			perClass[i] = ClassAP{Class: class, AP: ap}
		}
		return perClass, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, class := range classes {
		i, class := i, class
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ap, err := s.evaluateClass(gctx, outputDir, class, threshold, use11Point)
			if err != nil {
				return err
			}
			perClass[i] = ClassAP{Class: class, AP: ap}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perClass, nil
}

func (s *Sweeper) evaluateClass(
	ctx context.Context,
	outputDir, class string,
	threshold float64,
	use11Point bool,
) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &EvalError{Class: class, Threshold: threshold, Err: err}
	}

	path := ResultPath(outputDir, s.opts.ImageSet, class)
	s.log.Infof("reading '%s'", path)

	result, err := s.evaluator.Evaluate(ctx, evaluator.Request{
		ResultsFile:        path,
		AnnotationTemplate: s.opts.AnnotationTemplate(),
		ImageSetFile:       s.opts.ImageSetFile(),
		ClassName:          class,
		CacheDir:           s.opts.CacheDir(),
		IoUThreshold:       threshold,
		UseGIoU:            s.opts.UseGIoU,
		Use11Point:         use11Point,
	})
	if err != nil {
		return 0, &EvalError{Class: class, Threshold: threshold, Err: err}
	}

	if s.sink != nil {
		if err := s.sink.Persist(outputDir, class, result); err != nil {
			return 0, &EvalError{Class: class, Threshold: threshold, Err: errors.Wrap(err, "persist curve")}
		}
	}
	return result.AP, nil
}
