package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// BatchSource gives random row-range access to labels and predicted
// probabilities without requiring them to fit in memory.
type BatchSource interface {
	NumRows() int
	NumClasses() int
	// Batch returns rows [start, end). Implementations may return views;
	// callers must not modify the returned values.
	Batch(start, end int) (labels []int, probs *mat.Dense, err error)
}

// SliceSource adapts in-memory labels and probabilities to BatchSource.
type SliceSource struct {
	labels []int
	probs  *mat.Dense
}

// NewSliceSource creates a SliceSource. Rows are not validated until the
// batches are consumed.
func NewSliceSource(labels []int, probs *mat.Dense) (*SliceSource, error) {
	r, _ := probs.Dims()
	if r != len(labels) {
		return nil, errors.NewDimensionError("dataset.NewSliceSource", len(labels), r, 0)
	}
	return &SliceSource{labels: labels, probs: probs}, nil
}

// NumRows implements BatchSource.
func (s *SliceSource) NumRows() int { return len(s.labels) }

// NumClasses implements BatchSource.
func (s *SliceSource) NumClasses() int {
	_, c := s.probs.Dims()
	return c
}

// Batch implements BatchSource.
func (s *SliceSource) Batch(start, end int) ([]int, *mat.Dense, error) {
	if start < 0 || end > len(s.labels) || start >= end {
		return nil, nil, errors.NewValueError("dataset.SliceSource.Batch", "row range out of bounds")
	}
	view := s.probs.Slice(start, end, 0, s.NumClasses()).(*mat.Dense)
	return s.labels[start:end], view, nil
}
