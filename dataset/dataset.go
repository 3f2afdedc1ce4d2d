// Package dataset holds the (label, predicted-probability row) pairs that
// every label-quality operation consumes, and the checks that guard them.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// DefaultTolerance is the allowed deviation of a probability row sum from 1.
const DefaultTolerance = 1e-6

// Dataset is an ordered collection of N labels and an N×K probability
// matrix whose columns follow ascending class order.
type Dataset struct {
	Labels    []int
	PredProbs *mat.Dense

	// Tolerance overrides DefaultTolerance when positive.
	Tolerance float64
}

// New builds a Dataset and validates it. predProbs is copied when it is not
// already a *mat.Dense.
func New(labels []int, predProbs mat.Matrix) (*Dataset, error) {
	if predProbs == nil {
		return nil, errors.ErrEmptyData
	}
	dense, ok := predProbs.(*mat.Dense)
	if !ok {
		dense = mat.DenseCopyOf(predProbs)
	}
	d := &Dataset{Labels: labels, PredProbs: dense}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// NumRows returns N.
func (d *Dataset) NumRows() int {
	return len(d.Labels)
}

// NumClasses returns K.
func (d *Dataset) NumClasses() int {
	_, c := d.PredProbs.Dims()
	return c
}

// Row returns a view of the i-th probability row. Callers must not modify it.
func (d *Dataset) Row(i int) []float64 {
	return d.PredProbs.RawRowView(i)
}

// Validate checks that every label lies in [0, K-1], that there is one label
// per probability row and that every row is a probability distribution.
func (d *Dataset) Validate() error {
	if len(d.Labels) == 0 {
		return errors.ErrEmptyData
	}
	r, c := d.PredProbs.Dims()
	if c == 0 {
		return errors.ErrNoClasses
	}
	if r != len(d.Labels) {
		return errors.NewDimensionError("dataset.Validate", len(d.Labels), r, 0)
	}
	if err := ValidateLabels(d.Labels, c); err != nil {
		return err
	}
	tol := d.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	for i := 0; i < r; i++ {
		if err := ValidateRow(i, d.PredProbs.RawRowView(i), c, tol); err != nil {
			return err
		}
	}
	return nil
}

// LabelCounts returns the number of examples per given label.
func (d *Dataset) LabelCounts() []int {
	return CountLabels(d.Labels, d.NumClasses())
}

// ValidateLabels returns a LabelRangeError for the first label outside [0, K-1].
func ValidateLabels(labels []int, numClasses int) error {
	for i, l := range labels {
		if l < 0 || l >= numClasses {
			return errors.NewLabelRangeError(i, l, numClasses)
		}
	}
	return nil
}

// CountLabels counts labels per class. Labels must already be validated.
func CountLabels(labels []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, l := range labels {
		counts[l]++
	}
	return counts
}

// CheckRow validates the width and entries of one probability row and
// returns its sum. It does not check the sum itself, see CheckRowSum.
func CheckRow(index int, row []float64, numClasses int) (float64, error) {
	if len(row) != numClasses {
		return 0, errors.NewProbabilityWidthError(index, len(row), numClasses)
	}
	sum := 0.0
	for _, p := range row {
		switch {
		case math.IsNaN(p) || math.IsInf(p, 0):
			return 0, errors.NewMalformedProbabilityError(index, math.NaN(), numClasses, "non-finite probability")
		case p < 0:
			return 0, errors.NewMalformedProbabilityError(index, floats.Sum(row), numClasses, "negative probability")
		}
		sum += p
	}
	return sum, nil
}

// CheckRowSum returns a MalformedProbabilityError when sum deviates from 1 by
// more than tol.
func CheckRowSum(index int, sum float64, width int, tol float64) error {
	if math.Abs(sum-1) > tol {
		return errors.NewMalformedProbabilityError(index, sum, width, "row does not sum to 1")
	}
	return nil
}

// ValidateRow applies CheckRow and CheckRowSum.
func ValidateRow(index int, row []float64, numClasses int, tol float64) error {
	sum, err := CheckRow(index, row, numClasses)
	if err != nil {
		return err
	}
	return CheckRowSum(index, sum, numClasses, tol)
}

// ArgMax returns the index of the largest entry, the lowest index on ties.
func ArgMax(row []float64) int {
	best := 0
	for j := 1; j < len(row); j++ {
		if row[j] > row[best] {
			best = j
		}
	}
	return best
}

// PredictedLabels returns the row-wise argmax of m.
func PredictedLabels(m mat.Matrix) []int {
	r, c := m.Dims()
	out := make([]int, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		out[i] = ArgMax(row)
	}
	return out
}
