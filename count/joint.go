package count

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// ConfidentJoint accumulates C[i,j]: the number of examples with given label
// i whose most probable class among those reaching their threshold is j.
// Examples with no class at or above its threshold are not counted in C but
// still count toward the given-label totals.
type ConfidentJoint struct {
	counts      *mat.Dense
	labelCounts []int
}

// NewConfidentJoint creates an empty K×K accumulator.
func NewConfidentJoint(numClasses int) *ConfidentJoint {
	return &ConfidentJoint{
		counts:      mat.NewDense(numClasses, numClasses, nil),
		labelCounts: make([]int, numClasses),
	}
}

// NumClasses returns K.
func (c *ConfidentJoint) NumClasses() int {
	return len(c.labelCounts)
}

// ConfidentClass returns the class j maximizing row[j] among those with
// row[j] >= thresholds[j], or -1. Ties pick the lowest index.
func ConfidentClass(row, thresholds []float64) int {
	best := -1
	for j, p := range row {
		if p >= thresholds[j] && (best < 0 || p > row[best]) {
			best = j
		}
	}
	return best
}

// Add counts rows of probs with their given labels against thresholds.
func (c *ConfidentJoint) Add(labels []int, probs mat.Matrix, thresholds []float64) error {
	n, k := probs.Dims()
	if k != len(c.labelCounts) || len(thresholds) != k {
		return errors.NewDimensionError("count.ConfidentJoint.Add", len(c.labelCounts), k, 1)
	}
	if n != len(labels) {
		return errors.NewDimensionError("count.ConfidentJoint.Add", len(labels), n, 0)
	}
	row := make([]float64, k)
	for i := 0; i < n; i++ {
		mat.Row(row, i, probs)
		given := labels[i]
		c.labelCounts[given]++
		if j := ConfidentClass(row, thresholds); j >= 0 {
			c.counts.Set(given, j, c.counts.At(given, j)+1)
		}
	}
	return nil
}

// Merge adds the counts of other into c.
func (c *ConfidentJoint) Merge(other *ConfidentJoint) error {
	if len(other.labelCounts) != len(c.labelCounts) {
		return errors.NewValueError("count.ConfidentJoint.Merge", "accumulators have different shape")
	}
	c.counts.Add(c.counts, other.counts)
	for i, v := range other.labelCounts {
		c.labelCounts[i] += v
	}
	return nil
}

// Counts returns a copy of the raw K×K count matrix.
func (c *ConfidentJoint) Counts() *mat.Dense {
	return mat.DenseCopyOf(c.counts)
}

// LabelCounts returns a copy of the per-class given-label totals.
func (c *ConfidentJoint) LabelCounts() []int {
	return append([]int(nil), c.labelCounts...)
}

// NumExamples returns the number of rows added.
func (c *ConfidentJoint) NumExamples() int {
	n := 0
	for _, v := range c.labelCounts {
		n += v
	}
	return n
}

// Calibrated rescales each row of C to sum to the given-label count of that
// class. A row with no confident counts puts its whole count on the
// diagonal.
func (c *ConfidentJoint) Calibrated() *mat.Dense {
	return CalibrateConfidentJoint(c.counts, c.labelCounts)
}

// Joint returns the estimated joint distribution of (given, true) labels.
func (c *ConfidentJoint) Joint() (*mat.Dense, error) {
	return EstimateJoint(c.counts, c.labelCounts)
}

// CalibrateConfidentJoint rescales each row of counts to sum to labelCounts[i].
func CalibrateConfidentJoint(counts mat.Matrix, labelCounts []int) *mat.Dense {
	k, _ := counts.Dims()
	out := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		rowSum := 0.0
		for j := 0; j < k; j++ {
			rowSum += counts.At(i, j)
		}
		target := float64(labelCounts[i])
		if rowSum == 0 {
			out.Set(i, i, target)
			continue
		}
		for j := 0; j < k; j++ {
			out.Set(i, j, counts.At(i, j)*target/rowSum)
		}
	}
	return out
}

// EstimateJoint calibrates counts and normalizes the result to sum to 1.
func EstimateJoint(counts mat.Matrix, labelCounts []int) (*mat.Dense, error) {
	k, kc := counts.Dims()
	if k != kc || len(labelCounts) != k {
		return nil, errors.NewDimensionError("count.EstimateJoint", k, len(labelCounts), 1)
	}
	joint := CalibrateConfidentJoint(counts, labelCounts)
	total := mat.Sum(joint)
	if total == 0 {
		return nil, errors.ErrEmptyData
	}
	joint.Scale(1/total, joint)
	return joint, nil
}

// NumLabelIssues returns round(n * (1 - trace(joint))).
func NumLabelIssues(joint mat.Matrix, n int) int {
	return int(math.Round(float64(n) * (1 - mat.Trace(joint))))
}

// RemovalCounts returns, per given class i, the number of examples to flag:
// the off-diagonal mass of row i times n, rounded, and capped at
// labelCounts[i]-1 so that no class is emptied.
func RemovalCounts(joint mat.Matrix, labelCounts []int, n int) []int {
	k, _ := joint.Dims()
	out := make([]int, k)
	for i := 0; i < k; i++ {
		off := 0.0
		for j := 0; j < k; j++ {
			if j != i {
				off += joint.At(i, j)
			}
		}
		r := int(math.Round(off * float64(n)))
		if limit := labelCounts[i] - 1; r > limit {
			r = limit
		}
		if r < 0 {
			r = 0
		}
		out[i] = r
	}
	return out
}
