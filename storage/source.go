package storage

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// ArraySource pairs a single-column label array with a probability array.
type ArraySource struct {
	labels *Array
	probs  *Array
}

var _ dataset.BatchSource = (*ArraySource)(nil)

// Source returns a dataset.BatchSource reading labels and probs lazily.
func Source(labels, probs *Array) (*ArraySource, error) {
	if labels.Cols() != 1 {
		return nil, errors.NewDimensionError("storage.Source", 1, labels.Cols(), 1)
	}
	if labels.Rows() != probs.Rows() {
		return nil, errors.NewDimensionError("storage.Source", labels.Rows(), probs.Rows(), 0)
	}
	return &ArraySource{labels: labels, probs: probs}, nil
}

// NumRows implements dataset.BatchSource.
func (s *ArraySource) NumRows() int { return s.probs.Rows() }

// NumClasses implements dataset.BatchSource.
func (s *ArraySource) NumClasses() int { return s.probs.Cols() }

// Batch implements dataset.BatchSource.
func (s *ArraySource) Batch(start, end int) ([]int, *mat.Dense, error) {
	lab, err := s.labels.GetChunk(start, end)
	if err != nil {
		return nil, nil, err
	}
	probs, err := s.probs.GetChunk(start, end)
	if err != nil {
		return nil, nil, err
	}
	labels, err := toLabels(lab.RawMatrix().Data, start)
	if err != nil {
		return nil, nil, err
	}
	return labels, probs, nil
}

// ReadLabels loads a whole label array.
func ReadLabels(a *Array) ([]int, error) {
	if a.Cols() != 1 {
		return nil, errors.NewDimensionError("storage.ReadLabels", 1, a.Cols(), 1)
	}
	col, err := a.GetChunk(0, a.Rows())
	if err != nil {
		return nil, err
	}
	return toLabels(col.RawMatrix().Data, 0)
}

func toLabels(values []float64, offset int) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, errors.WithStack(&errors.LabelRangeError{
				Index:  offset + i,
				Label:  int(v),
				Reason: "label is not an integer",
			})
		}
		out[i] = int(v)
	}
	return out, nil
}
