package report

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/nvr-ai/voc-reval/reval"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SummaryWriter persists a sweep summary as JSON plus a flat CSV.
type SummaryWriter struct {
	outputDir string
}

// NewSummaryWriter creates a SummaryWriter writing into outputDir.
func NewSummaryWriter(outputDir string) *SummaryWriter {
	return &SummaryWriter{outputDir: outputDir}
}

// Save writes reval_summary_<timestamp>.json and .csv and returns their paths.
func (w *SummaryWriter) Save(s reval.Summary) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "failed to create output directory")
	}

	timestamp := s.FinishedAt.Format("2006-01-02_15-04-05")
	jsonPath = filepath.Join(w.outputDir, fmt.Sprintf("reval_summary_%s.json", timestamp))
	csvPath = filepath.Join(w.outputDir, fmt.Sprintf("reval_summary_%s.csv", timestamp))

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal summary")
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "failed to write summary file")
	}

	if err := saveSummaryCSV(csvPath, s); err != nil {
		return "", "", errors.Wrap(err, "failed to save summary CSV")
	}
	return jsonPath, csvPath, nil
}

// LoadSummary reads a JSON summary written by Save.
func LoadSummary(path string) (*reval.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s reval.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return &s, nil
}

func saveSummaryCSV(filename string, s reval.Summary) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.WriteString("Threshold,Class,AP\n"); err != nil {
		return err
	}

	for _, t := range s.Thresholds {
		for _, c := range t.PerClassAP {
			line := fmt.Sprintf("%.2f,%s,%.6f\n", t.Threshold, c.Class, c.AP)
			if _, err := file.WriteString(line); err != nil {
				return err
			}
		}
		if _, err := file.WriteString(fmt.Sprintf("%.2f,mAP,%.6f\n", t.Threshold, t.MeanAP)); err != nil {
			return err
		}
	}

	_, err = file.WriteString(fmt.Sprintf("all,mAP,%.6f\n", s.MeanAP))
	return err
}
