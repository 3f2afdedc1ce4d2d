package cmd

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/cleango/metrics"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/storage"
)

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// loadMatrix reads a CSV file or an array file fully into memory.
func loadMatrix(path string) (*mat.Dense, error) {
	if isCSV(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		return storage.ReadCSVMatrix(f)
	}
	a, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.GetChunk(0, a.Rows())
}

// loadLabels reads a one-column CSV file or label array file.
func loadLabels(path string) ([]int, error) {
	if isCSV(path) {
		m, err := loadMatrix(path)
		if err != nil {
			return nil, err
		}
		return metrics.ColumnLabels(m)
	}
	a, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return storage.ReadLabels(a)
}

// writeOutput encodes v to w as "json" or "yaml".
func writeOutput(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.NewValidationError("format", "must be json or yaml", format)
	}
}
