// Package voc reads PASCAL VOC style ground truth: per-image XML annotations and
// image-set lists.
package voc

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nvr-ai/voc-reval/images"
	"github.com/nvr-ai/voc-reval/util"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when an annotation or image-set resource is missing.
	ErrNotFound = errors.New("artifact not found")
	// ErrMalformed is returned when a resource exists but cannot be parsed.
	ErrMalformed = errors.New("malformed artifact")
)

// Object is one annotated ground-truth object.
type Object struct {
	Name      string     `json:"name"`
	Pose      string     `json:"pose,omitempty"`
	Truncated bool       `json:"truncated"`
	Difficult bool       `json:"difficult"`
	Box       images.Box `json:"bbox"`
}

// Set maps an image identifier to its annotated objects.
type Set map[string][]Object

type xmlAnnotation struct {
	Objects []xmlObject `xml:"object"`
}

type xmlObject struct {
	Name      string `xml:"name"`
	Pose      string `xml:"pose"`
	Truncated int    `xml:"truncated"`
	Difficult int    `xml:"difficult"`
	BndBox    struct {
		XMin float64 `xml:"xmin"`
		YMin float64 `xml:"ymin"`
		XMax float64 `xml:"xmax"`
		YMax float64 `xml:"ymax"`
	} `xml:"bndbox"`
}

// ParseAnnotation decodes the objects of a single VOC annotation document.
func ParseAnnotation(r io.Reader) ([]Object, error) {
	var doc xmlAnnotation
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}

	objs := make([]Object, 0, len(doc.Objects))
	for _, o := range doc.Objects {
		objs = append(objs, Object{
			Name:      strings.TrimSpace(o.Name),
			Pose:      strings.TrimSpace(o.Pose),
			Truncated: o.Truncated != 0,
			Difficult: o.Difficult != 0,
			Box: images.Box{
				X1: o.BndBox.XMin,
				Y1: o.BndBox.YMin,
				X2: o.BndBox.XMax,
				Y2: o.BndBox.YMax,
			},
		})
	}
	return objs, nil
}

// Objects loads the annotation of one image.
//
// Arguments:
// - template: Annotation path pattern with a single %s placeholder for the image id.
// - id: The image identifier.
//
// Returns:
// - []Object: The annotated objects, in document order.
// - error: ErrNotFound if the file is missing, ErrMalformed if it cannot be parsed.
func Objects(template, id string) ([]Object, error) {
	path := AnnotationPath(template, id)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "annotation %s", path)
		}
		return nil, errors.Wrapf(err, "open annotation %s", path)
	}
	defer f.Close()

	objs, err := ParseAnnotation(f)
	if err != nil {
		return nil, errors.Wrapf(err, "annotation %s", path)
	}
	return objs, nil
}

// AnnotationPath resolves the annotation template for one image id.
func AnnotationPath(template, id string) string {
	return fmt.Sprintf(template, id)
}

// Images reads the image identifiers of an image-set file, one per line. Only the
// first whitespace-delimited field of each line is kept, so per-class set files
// ("000005 -1") are accepted too.
func Images(imageSetFile string) ([]string, error) {
	lines, err := util.ReadLines(imageSetFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "image set %s", imageSetFile)
		}
		return nil, errors.Wrapf(err, "read image set %s", imageSetFile)
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		ids = append(ids, fields[0])
	}
	return ids, nil
}

// Load loads all object annotations for all images in a set.
func Load(template string, ids []string) (Set, error) {
	set := make(Set, len(ids))
	for _, id := range ids {
		objs, err := Objects(template, id)
		if err != nil {
			return nil, err
		}
		set[id] = objs
	}
	return set, nil
}
