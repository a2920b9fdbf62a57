package voc

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// cacheRecord is the on-disk form of a parsed image set.
type cacheRecord struct {
	Template string   `json:"template"`
	ImageIDs []string `json:"image_ids"`
	Set      Set      `json:"annotations"`
}

// Cache memoizes parsed ground truth, in memory and under a cache directory.
//
// One Cache is meant to be shared by every evaluation of a run: the first call for
// an image set parses the XML annotations and writes <dir>/<set>_annots.json, later
// calls are served from memory. A cache file whose template or image ids differ
// from the request is rebuilt. Safe for concurrent use.
type Cache struct {
	mu   sync.Mutex
	memo map[string]*cacheRecord
	log  logrus.FieldLogger
}

// NewCache creates an empty annotation cache.
func NewCache(log logrus.FieldLogger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{
		memo: make(map[string]*cacheRecord),
		log:  log,
	}
}

// CacheFile returns the path the cache uses for an image-set file.
func CacheFile(dir, imageSetFile string) string {
	base := filepath.Base(imageSetFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"_annots.json")
}

// Load returns the image ids of an image set and the annotations of every image in it.
//
// Arguments:
// - dir: Cache directory. Created if absent. Empty disables the on-disk cache.
// - template: Annotation path pattern with a single %s placeholder.
// - imageSetFile: File listing the image ids of the split.
//
// Returns:
// - []string: Image ids in file order.
// - Set: Annotations keyed by image id.
// - error: ErrNotFound when the image set or an annotation is missing.
func (c *Cache) Load(dir, template, imageSetFile string) ([]string, Set, error) {
	ids, err := Images(imageSetFile)
	if err != nil {
		return nil, nil, err
	}

	key := dir + "\x00" + template + "\x00" + imageSetFile

	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, ok := c.memo[key]; ok && rec.matches(template, ids) {
		return ids, rec.Set, nil
	}

	var path string
	if dir != "" {
		path = CacheFile(dir, imageSetFile)
		if rec, err := readCache(path); err == nil && rec.matches(template, ids) {
			c.log.WithField("path", path).Debug("loaded cached annotations")
			c.memo[key] = rec
			return ids, rec.Set, nil
		}
	}

	c.log.WithFields(logrus.Fields{
		"image_set": imageSetFile,
		"images":    len(ids),
	}).Info("reading annotations")

	set, err := Load(template, ids)
	if err != nil {
		return nil, nil, err
	}
	rec := &cacheRecord{Template: template, ImageIDs: ids, Set: set}

	if path != "" {
		if err := writeCache(path, rec); err != nil {
			return nil, nil, err
		}
		c.log.WithField("path", path).Info("saved cached annotations")
	}

	c.memo[key] = rec
	return ids, set, nil
}

func (r *cacheRecord) matches(template string, ids []string) bool {
	if r.Template != template || len(r.ImageIDs) != len(ids) {
		return false
	}
	for i, id := range ids {
		if r.ImageIDs[i] != id {
			return false
		}
		if _, ok := r.Set[id]; !ok {
			return false
		}
	}
	return true
}

func readCache(path string) (*cacheRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec cacheRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "decode annotation cache %s", path)
	}
	return &rec, nil
}

func writeCache(path string, rec *cacheRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create annotation cache directory")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode annotation cache")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write annotation cache %s", path)
	}
	return errors.Wrap(os.Rename(tmp, path), "commit annotation cache")
}
