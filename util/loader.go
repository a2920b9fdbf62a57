package util

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ReadLines reads a newline-delimited text file.
//
// Each line has its trailing newline (and carriage return) stripped. Trailing
// blank lines are dropped so that a final newline does not produce an empty entry.
//
// Arguments:
// - path: Path to the text file.
//
// Returns:
// - []string: The lines in file order.
// - error: Error if the file cannot be opened or read. A missing file is
// reported with an error satisfying os.IsNotExist after errors.Cause.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	return lines, nil
}
