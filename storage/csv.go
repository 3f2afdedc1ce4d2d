package storage

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// ReadCSVMatrix parses numeric CSV text into a matrix. A first row that does
// not parse as numbers is treated as a header and skipped.
func ReadCSVMatrix(r io.Reader) (*mat.Dense, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var data []float64
	cols := -1
	rows := 0
	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "csv line %d", line+1)
		}
		values, perr := parseRecord(record)
		if perr != nil {
			if line == 0 {
				continue
			}
			return nil, errors.Wrapf(perr, "csv line %d", line+1)
		}
		if cols < 0 {
			cols = len(values)
		}
		data = append(data, values...)
		rows++
	}
	if rows == 0 {
		return nil, errors.ErrEmptyData
	}
	return mat.NewDense(rows, cols, data), nil
}

func parseRecord(record []string) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
