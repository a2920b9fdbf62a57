// Package report - Persisted artifacts and printed summaries of a threshold sweep.
package report

import (
	"bufio"
	"os"
	"path/filepath"

	pickle "github.com/kisielk/og-rek"
	"github.com/nvr-ai/voc-reval/evaluator"
	"github.com/pkg/errors"
)

// Keys of the persisted precision/recall mapping. Other tooling reads these.
const (
	KeyRecall    = "rec"
	KeyPrecision = "prec"
	KeyAP        = "ap"
)

// Artifact is the decoded content of a <class>_pr.pkl file.
type Artifact struct {
	Recall    []float64
	Precision []float64
	AP        float64
}

// ArtifactPath returns <outputDir>/<class>_pr.pkl.
func ArtifactPath(outputDir, class string) string {
	return filepath.Join(outputDir, class+"_pr.pkl")
}

// ArtifactWriter writes precision/recall curves as pickled {'rec', 'prec', 'ap'} dicts.
type ArtifactWriter struct{}

// NewArtifactWriter creates an ArtifactWriter.
func NewArtifactWriter() *ArtifactWriter {
	return &ArtifactWriter{}
}

// Persist writes the curve of class to ArtifactPath, replacing any previous file.
func (w *ArtifactWriter) Persist(outputDir, class string, result evaluator.Result) error {
	path := ArtifactPath(outputDir, class)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}

	buf := bufio.NewWriter(f)
	err = pickle.NewEncoder(buf).Encode(map[string]interface{}{
		KeyRecall:    nonNil(result.Recall),
		KeyPrecision: nonNil(result.Precision),
		KeyAP:        result.AP,
	})
	if err == nil {
		err = buf.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "write %s", path)
	}

	return errors.Wrapf(os.Rename(tmp, path), "commit %s", path)
}

// ReadArtifact decodes a file written by ArtifactWriter.
func ReadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	v, err := pickle.NewDecoder(bufio.NewReader(f)).Decode()
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	dict, ok := v.(map[interface{}]interface{})
	if !ok {
		return nil, errors.Errorf("%s: expected dict, got %T", path, v)
	}

	var a Artifact
	if a.Recall, err = floatList(dict[KeyRecall]); err != nil {
		return nil, errors.Wrapf(err, "%s: %s", path, KeyRecall)
	}
	if a.Precision, err = floatList(dict[KeyPrecision]); err != nil {
		return nil, errors.Wrapf(err, "%s: %s", path, KeyPrecision)
	}
	ap, ok := dict[KeyAP].(float64)
	if !ok {
		return nil, errors.Errorf("%s: %s is %T, not float", path, KeyAP, dict[KeyAP])
	}
	a.AP = ap
	return &a, nil
}

func floatList(v interface{}) ([]float64, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, errors.Errorf("expected list, got %T", v)
	}
	out := make([]float64, len(list))
	for i, item := range list {
		f, ok := item.(float64)
		if !ok {
			return nil, errors.Errorf("item %d is %T, not float", i, item)
		}
		out[i] = f
	}
	return out, nil
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
