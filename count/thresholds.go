// Package count implements the confident-joint arithmetic behind the
// confident-learning issue filter: per-class thresholds, the K×K count
// matrix of (given label, confident class) pairs, its calibration into a
// joint distribution and the per-class number of issues to remove.
//
// Accumulators take rows in any number of Add calls and can be merged, so
// the same code serves the in-memory and the batched finder. Inputs are
// assumed to be validated by the caller.
package count

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// Basis selects which examples contribute to the threshold of class j.
type Basis int

const (
	// BasisPredicted averages probs[j] over examples whose argmax is j.
	BasisPredicted Basis = iota
	// BasisGiven averages probs[j] over examples whose given label is j.
	BasisGiven
)

// String returns the config name of the basis.
func (b Basis) String() string {
	switch b {
	case BasisPredicted:
		return "predicted"
	case BasisGiven:
		return "given"
	default:
		return "unknown"
	}
}

// ParseBasis parses "predicted" or "given". The empty string selects
// BasisPredicted.
func ParseBasis(s string) (Basis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "predicted":
		return BasisPredicted, nil
	case "given":
		return BasisGiven, nil
	default:
		return BasisPredicted, errors.NewValidationError("threshold_basis", "must be predicted or given", s)
	}
}

// PerClassThresholds accumulates the per-class mean self-probability.
type PerClassThresholds struct {
	basis   Basis
	sums    []float64
	counts  []int
	labeled []int
}

// NewPerClassThresholds creates an empty accumulator for numClasses classes.
func NewPerClassThresholds(numClasses int, basis Basis) *PerClassThresholds {
	return &PerClassThresholds{
		basis:   basis,
		sums:    make([]float64, numClasses),
		counts:  make([]int, numClasses),
		labeled: make([]int, numClasses),
	}
}

// NumClasses returns K.
func (t *PerClassThresholds) NumClasses() int {
	return len(t.sums)
}

// Add accumulates rows of probs with their given labels.
func (t *PerClassThresholds) Add(labels []int, probs mat.Matrix) error {
	n, k := probs.Dims()
	if k != len(t.sums) {
		return errors.NewDimensionError("count.PerClassThresholds.Add", len(t.sums), k, 1)
	}
	if n != len(labels) {
		return errors.NewDimensionError("count.PerClassThresholds.Add", len(labels), n, 0)
	}
	row := make([]float64, k)
	for i := 0; i < n; i++ {
		mat.Row(row, i, probs)
		j := labels[i]
		t.labeled[j]++
		if t.basis == BasisPredicted {
			j = dataset.ArgMax(row)
		}
		t.sums[j] += row[j]
		t.counts[j]++
	}
	return nil
}

// Merge adds the state of other into t.
func (t *PerClassThresholds) Merge(other *PerClassThresholds) error {
	if other.basis != t.basis || len(other.sums) != len(t.sums) {
		return errors.NewValueError("count.PerClassThresholds.Merge", "accumulators have different shape or basis")
	}
	for j := range t.sums {
		t.sums[j] += other.sums[j]
		t.counts[j] += other.counts[j]
		t.labeled[j] += other.labeled[j]
	}
	return nil
}

// Thresholds returns the per-class means. A class that is labeled but never
// the argmax under BasisPredicted gets +Inf, so no row is confidently
// counted as that class. A class with no labeled and no predicted example
// yields a LabelRangeError.
func (t *PerClassThresholds) Thresholds() ([]float64, error) {
	out := make([]float64, len(t.sums))
	for j, c := range t.counts {
		switch {
		case c > 0:
			out[j] = t.sums[j] / float64(c)
		case t.labeled[j] > 0:
			out[j] = math.Inf(1)
		default:
			return nil, errors.NewEmptyClassError(j, len(t.sums),
				"no examples labeled or predicted as this class, per-class threshold is undefined")
		}
	}
	return out, nil
}

// ComputeThresholds is the one-shot form of PerClassThresholds.
func ComputeThresholds(labels []int, probs mat.Matrix, basis Basis) ([]float64, error) {
	_, k := probs.Dims()
	acc := NewPerClassThresholds(k, basis)
	if err := acc.Add(labels, probs); err != nil {
		return nil, err
	}
	return acc.Thresholds()
}
