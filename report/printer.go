package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nvr-ai/voc-reval/reval"
	"github.com/pkg/errors"
)

const rule = "--------------------------------------------------------------"

// Printer writes human-readable sweep results. It only formats values that the
// sweep has already aggregated. The first write error is kept for Err and every
// later report is dropped.
type Printer struct {
	w          io.Writer
	useGIoU    bool
	use11Point bool
	err        error
}

// NewPrinter creates a Printer. The flags only label the output.
func NewPrinter(w io.Writer, useGIoU, use11Point bool) *Printer {
	return &Printer{w: w, useGIoU: useGIoU, use11Point: use11Point}
}

// ReportThreshold prints the per-class AP and mean AP of one threshold.
func (p *Printer) ReportThreshold(s reval.ThresholdSummary) {
	var b strings.Builder

	prefix := ""
	if p.useGIoU {
		prefix = "g"
	}
	fmt.Fprintf(&b, "%sIOU Threshold %.2f\n", prefix, s.Threshold)
	fmt.Fprintf(&b, "VOC07 metric? %s\n", yesNo(p.use11Point))
	for _, c := range s.PerClassAP {
		fmt.Fprintf(&b, "AP for %s = %.4f\n", c.Class, c.AP)
	}
	fmt.Fprintf(&b, "Mean AP = %.4f\n", s.MeanAP)

	b.WriteString("~~~~~~~~\n")
	b.WriteString("Results:\n")
	for _, c := range s.PerClassAP {
		fmt.Fprintf(&b, "%.3f\n", c.AP)
	}
	fmt.Fprintf(&b, "%.3f\n", s.MeanAP)
	b.WriteString("~~~~~~~~\n\n")

	b.WriteString(rule + "\n")
	b.WriteString("Results computed with the **unofficial** Go eval code.\n")
	b.WriteString("Results should be very close to the official MATLAB eval code.\n")
	b.WriteString(rule + "\n")

	p.write(b.String())
}

// ReportSummary prints one line per threshold followed by the overall mean.
func (p *Printer) ReportSummary(s reval.Summary) {
	var b strings.Builder
	for _, t := range s.Thresholds {
		fmt.Fprintf(&b, "Threshold: %3.2f | mAP: %4.3f\n", t.Threshold, t.MeanAP)
	}
	fmt.Fprintf(&b, "mAP: %v\n", s.MeanAP)
	p.write(b.String())
}

// Err returns the first error hit while writing, nil if every report was written.
func (p *Printer) Err() error {
	return errors.Wrap(p.err, "write report")
}

func (p *Printer) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
