package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/yigit/courseatlas/internal/pkg/apperrors"
)

// Source is one delimited extract loaded into memory
type Source struct {
	Path    string
	Headers []string
	Rows    [][]string
	// FirstLine is the physical line number of Rows[0]
	FirstLine int
}

// ReadSource loads a CSV file with a header row. Short and long rows are kept
// as-is; missing cells read as absent.
func ReadSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	src, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	src.Path = path
	return src, nil
}

func readCSV(r io.Reader) (*Source, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}

	src := &Source{Headers: headers, FirstLine: 2}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		src.Rows = append(src.Rows, row)
	}
	return src, nil
}

// Discover expands the inputs into a sorted, de-duplicated file list. A directory
// contributes the files matching pattern; a plain path is taken as given.
func Discover(inputs []string, pattern string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", in, err)
		}

		var matches []string
		if info.IsDir() {
			matches, err = filepath.Glob(filepath.Join(in, pattern))
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
		} else {
			matches = []string{in}
		}

		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
