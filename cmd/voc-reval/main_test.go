package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/voc-reval/report"
	"github.com/nvr-ai/voc-reval/reval"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const annotation = `<annotation>
	<object><name>cat</name><difficult>0</difficult>
		<bndbox><xmin>0</xmin><ymin>0</ymin><xmax>9</xmax><ymax>9</ymax></bndbox></object>
	<object><name>dog</name><difficult>0</difficult>
		<bndbox><xmin>20</xmin><ymin>20</ymin><xmax>59</xmax><ymax>59</ymax></bndbox></object>
</annotation>`

type dataset struct {
	devkit    string
	classes   string
	outputDir string
}

func newDataset(t *testing.T) dataset {
	t.Helper()
	root := t.TempDir()
	devkit := filepath.Join(root, "VOCdevkit")

	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write(filepath.Join(devkit, "VOC2007", "Annotations", "img1.xml"), annotation)
	write(filepath.Join(devkit, "VOC2007", "ImageSets", "Main", "test.txt"), "img1\n")

	classes := filepath.Join(root, "voc.names")
	write(classes, "__background__\ncat\ndog\n")

	out := filepath.Join(root, "results")
	write(filepath.Join(out, "comp4_det_test_cat.txt"), "img1 0.9 0 0 9 9\n")
	// IoU 0.9025 with the ground truth: a match at every threshold but 0.95.
	write(filepath.Join(out, "comp4_det_test_dog.txt"), "img1 0.8 22 22 59 59\n")

	return dataset{devkit: devkit, classes: classes, outputDir: out}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestNoArguments(t *testing.T) {
	stdout, stderr, err := execute(t)
	require.ErrorIs(t, err, errUsage)
	assert.Contains(t, stdout+stderr, "voc-reval output_dir")
}

func TestUsageErrorsArePrinted(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"too many arguments", []string{"a", "b"}, "accepts at most 1 arg(s), received 2"},
		{"unknown flag", []string{"out", "--bogus_flag"}, "unknown flag: --bogus_flag"},
		{"bad flag value", []string{"out", "--year", "soon"}, "invalid argument \"soon\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "Error: ")
			assert.Contains(t, stderr, tt.message)
			assert.Contains(t, stderr, "voc-reval --help")
		})
	}
}

func TestRun(t *testing.T) {
	d := newDataset(t)

	stdout, _, err := execute(t, d.outputDir,
		"--voc_dir", d.devkit,
		"--classes", d.classes,
		"--log_level", "error",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "IOU Threshold 0.50\n")
	assert.Contains(t, stdout, "VOC07 metric? Yes\n")
	assert.Contains(t, stdout, "Threshold: 0.90 | mAP: 1.000\n")
	assert.Contains(t, stdout, "Threshold: 0.95 | mAP: 0.500\n")
	assert.Contains(t, stdout, "mAP: 0.95\n")
	assert.NotContains(t, stdout, "__background__")

	// The artifact keeps the last threshold.
	dog, err := report.ReadArtifact(report.ArtifactPath(d.outputDir, "dog"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, dog.AP)
	cat, err := report.ReadArtifact(report.ArtifactPath(d.outputDir, "cat"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, cat.AP)

	summaries, err := filepath.Glob(filepath.Join(d.outputDir, "reval_summary_*.json"))
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	s, err := report.LoadSummary(summaries[0])
	require.NoError(t, err)
	assert.InDelta(t, 0.95, s.MeanAP, 1e-12)
	assert.Len(t, s.Thresholds, 10)
}

func TestRunGIoUWithoutSummary(t *testing.T) {
	d := newDataset(t)

	stdout, _, err := execute(t, d.outputDir,
		"--voc_dir", d.devkit,
		"--classes", d.classes,
		"--giou_metric",
		"--summary=false",
		"--workers", "2",
		"--log_level", "error",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "gIOU Threshold 0.95\n")

	summaries, err := filepath.Glob(filepath.Join(d.outputDir, "reval_summary_*"))
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestRunInvalidConfiguration(t *testing.T) {
	d := newDataset(t)

	_, _, err := execute(t, d.outputDir, "--classes", d.classes, "--workers", "0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, reval.ErrConfiguration))
}

func TestRunMissingResults(t *testing.T) {
	d := newDataset(t)
	require.NoError(t, os.Remove(filepath.Join(d.outputDir, "comp4_det_test_dog.txt")))

	stdout, _, err := execute(t, d.outputDir,
		"--voc_dir", d.devkit,
		"--classes", d.classes,
		"--log_level", "error",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reval.ErrMissingArtifact))

	var evalErr *reval.EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, "dog", evalErr.Class)
	assert.NotContains(t, stdout, "mAP:")
}

func TestConfigFile(t *testing.T) {
	d := newDataset(t)
	cfgPath := filepath.Join(t.TempDir(), "reval.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"output_dir: "+d.outputDir+"\n"+
			"voc_dir: "+d.devkit+"\n"+
			"classes: "+d.classes+"\n"+
			"summary: false\n"+
			"log_level: error\n"), 0o644))

	stdout, _, err := execute(t, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "mAP: 0.95\n")
}
