package voc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvr-ai/voc-reval/images"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnnotation = `<annotation>
	<folder>VOC2007</folder>
	<filename>000001.jpg</filename>
	<object>
		<name>dog</name>
		<pose>Left</pose>
		<truncated>1</truncated>
		<difficult>0</difficult>
		<bndbox><xmin>48</xmin><ymin>240</ymin><xmax>195</xmax><ymax>371</ymax></bndbox>
	</object>
	<object>
		<name>person</name>
		<pose>Unspecified</pose>
		<truncated>0</truncated>
		<difficult>1</difficult>
		<bndbox><xmin>8</xmin><ymin>12</ymin><xmax>352</xmax><ymax>498</ymax></bndbox>
	</object>
</annotation>`

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// writeDataset lays out Annotations/<id>.xml and an image-set file under a temp dir.
func writeDataset(t *testing.T, docs map[string]string, ids []string) (template, imageSet string) {
	t.Helper()
	root := t.TempDir()
	annDir := filepath.Join(root, "Annotations")
	require.NoError(t, os.MkdirAll(annDir, 0o755))
	for id, doc := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(annDir, id+".xml"), []byte(doc), 0o644))
	}
	imageSet = filepath.Join(root, "test.txt")
	require.NoError(t, os.WriteFile(imageSet, []byte(strings.Join(ids, "\n")+"\n"), 0o644))
	return filepath.Join(annDir, "%s.xml"), imageSet
}

func TestParseAnnotation(t *testing.T) {
	objs, err := ParseAnnotation(strings.NewReader(sampleAnnotation))
	require.NoError(t, err)
	require.Len(t, objs, 2)

	assert.Equal(t, Object{
		Name:      "dog",
		Pose:      "Left",
		Truncated: true,
		Box:       images.Box{X1: 48, Y1: 240, X2: 195, Y2: 371},
	}, objs[0])
	assert.True(t, objs[1].Difficult)
	assert.False(t, objs[1].Truncated)
}

func TestParseAnnotationMalformed(t *testing.T) {
	_, err := ParseAnnotation(strings.NewReader("<annotation><object>"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestObjectsMissing(t *testing.T) {
	template, _ := writeDataset(t, nil, nil)

	_, err := Objects(template, "000404")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "000404.xml")
}

func TestImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dog_test.txt")
	require.NoError(t, os.WriteFile(path, []byte("000001 -1\n000002  1\n\n000003\n"), 0o644))

	ids, err := Images(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001", "000002", "000003"}, ids)

	_, err = Images(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCacheWritesAndReusesFile(t *testing.T) {
	template, imageSet := writeDataset(t, map[string]string{
		"000001": sampleAnnotation,
		"000002": "<annotation></annotation>",
	}, []string{"000001", "000002"})
	cacheDir := filepath.Join(t.TempDir(), "annotations_cache")

	ids, set, err := NewCache(quietLogger()).Load(cacheDir, template, imageSet)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001", "000002"}, ids)
	assert.Len(t, set["000001"], 2)
	assert.Empty(t, set["000002"])
	assert.FileExists(t, CacheFile(cacheDir, imageSet))

	// A fresh cache must be served from disk even with the XML gone.
	require.NoError(t, os.RemoveAll(filepath.Dir(fmt.Sprintf(template, "x"))))
	ids, set, err = NewCache(quietLogger()).Load(cacheDir, template, imageSet)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Equal(t, "dog", set["000001"][0].Name)
}

func TestCacheRebuildsOnImageSetChange(t *testing.T) {
	template, imageSet := writeDataset(t, map[string]string{
		"000001": sampleAnnotation,
		"000002": sampleAnnotation,
	}, []string{"000001"})
	cacheDir := t.TempDir()

	cache := NewCache(quietLogger())
	_, set, err := cache.Load(cacheDir, template, imageSet)
	require.NoError(t, err)
	assert.Len(t, set, 1)

	require.NoError(t, os.WriteFile(imageSet, []byte("000001\n000002\n"), 0o644))
	ids, set, err := cache.Load(cacheDir, template, imageSet)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001", "000002"}, ids)
	assert.Len(t, set, 2)
}

func TestCacheMissingAnnotation(t *testing.T) {
	template, imageSet := writeDataset(t, map[string]string{
		"000001": sampleAnnotation,
	}, []string{"000001", "000002"})

	_, _, err := NewCache(quietLogger()).Load("", template, imageSet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
