// Package models - Definitions for detection class lists.
package models

import (
	"os"
	"strings"

	"github.com/nvr-ai/voc-reval/util"
	"github.com/pkg/errors"
)

// Background is the reserved "no object" class. It may appear in a class list but
// never has a results file and is never evaluated.
const Background = "__background__"

var (
	// ErrClassListNotFound is returned when the class list resource does not exist.
	ErrClassListNotFound = errors.New("class list not found")
	// ErrEmptyClassList is returned when the class list resource has no entries.
	ErrEmptyClassList = errors.New("class list is empty")
)

// ClassList is an ordered list of class names. Order defines reporting order only.
type ClassList []string

// Evaluable returns the classes in list order with every background entry removed.
func (l ClassList) Evaluable() ClassList {
	out := make(ClassList, 0, len(l))
	for _, name := range l {
		if name == Background {
			continue
		}
		out = append(out, name)
	}
	return out
}

// LoadClasses reads a newline-delimited class list, one class name per line.
//
// Arguments:
// - path: Path to the class list file (e.g. data/voc.names).
//
// Returns:
// - ClassList: The class names in file order, trailing newlines stripped.
// - error: ErrClassListNotFound if the file is missing, ErrEmptyClassList if it
// yields no entries.
//
// @example
// classes, err := LoadClasses("data/voc.names")
// for _, name := range classes.Evaluable() { ... }
func LoadClasses(path string) (ClassList, error) {
	lines, err := util.ReadLines(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrClassListNotFound, path)
		}
		return nil, errors.Wrapf(err, "load classes from %s", path)
	}

	classes := make(ClassList, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		classes = append(classes, line)
	}
	if len(classes) == 0 {
		return nil, errors.Wrap(ErrEmptyClassList, path)
	}

	return classes, nil
}
