package count

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// six examples, two classes; example 5 is labeled 0 but looks like class 1
func fixture() ([]int, *mat.Dense) {
	labels := []int{0, 0, 0, 1, 1, 0}
	probs := mat.NewDense(6, 2, []float64{
		0.9, 0.1,
		0.8, 0.2,
		0.6, 0.4,
		0.2, 0.8,
		0.1, 0.9,
		0.12, 0.88,
	})
	return labels, probs
}

func TestComputeThresholds(t *testing.T) {
	labels, probs := fixture()

	predicted, err := ComputeThresholds(labels, probs, BasisPredicted)
	require.NoError(t, err)
	assert.InDelta(t, (0.9+0.8+0.6)/3, predicted[0], 1e-12)
	assert.InDelta(t, (0.8+0.9+0.88)/3, predicted[1], 1e-12)

	given, err := ComputeThresholds(labels, probs, BasisGiven)
	require.NoError(t, err)
	assert.InDelta(t, (0.9+0.8+0.6+0.12)/4, given[0], 1e-12)
	assert.InDelta(t, (0.8+0.9)/2, given[1], 1e-12)
}

func TestThresholdsEmptyClass(t *testing.T) {
	probs := mat.NewDense(2, 3, []float64{
		0.8, 0.1, 0.1,
		0.6, 0.3, 0.1,
	})
	_, err := ComputeThresholds([]int{0, 1}, probs, BasisPredicted)
	var lre *errors.LabelRangeError
	require.True(t, errors.As(err, &lre))
	assert.Equal(t, -1, lre.Index)
	assert.Equal(t, 2, lre.Label)

	_, err = ComputeThresholds([]int{0, 1}, probs, BasisGiven)
	require.True(t, errors.As(err, &lre))
	assert.Equal(t, 2, lre.Label)
}

func TestThresholdsLabeledButNeverPredicted(t *testing.T) {
	probs := mat.NewDense(3, 3, []float64{
		0.8, 0.1, 0.1,
		0.6, 0.3, 0.1,
		0.5, 0.1, 0.4,
	})
	labels := []int{0, 1, 2}

	thr, err := ComputeThresholds(labels, probs, BasisPredicted)
	require.NoError(t, err)
	assert.InDelta(t, (0.8+0.6+0.5)/3, thr[0], 1e-12)
	assert.True(t, math.IsInf(thr[1], 1))
	assert.True(t, math.IsInf(thr[2], 1))

	a := NewPerClassThresholds(3, BasisPredicted)
	b := NewPerClassThresholds(3, BasisPredicted)
	require.NoError(t, a.Add(labels[:2], probs.Slice(0, 2, 0, 3)))
	require.NoError(t, b.Add(labels[2:], probs.Slice(2, 3, 0, 3)))
	require.NoError(t, a.Merge(b))
	merged, err := a.Thresholds()
	require.NoError(t, err)
	assert.True(t, math.IsInf(merged[2], 1))

	for i := 0; i < 3; i++ {
		row := mat.Row(nil, i, probs)
		assert.NotEqual(t, 2, ConfidentClass(row, thr))
	}
}

func TestThresholdsMergeMatchesSinglePass(t *testing.T) {
	labels, probs := fixture()

	a := NewPerClassThresholds(2, BasisPredicted)
	b := NewPerClassThresholds(2, BasisPredicted)
	require.NoError(t, a.Add(labels[:3], probs.Slice(0, 3, 0, 2)))
	require.NoError(t, b.Add(labels[3:], probs.Slice(3, 6, 0, 2)))
	require.NoError(t, a.Merge(b))

	merged, err := a.Thresholds()
	require.NoError(t, err)
	single, err := ComputeThresholds(labels, probs, BasisPredicted)
	require.NoError(t, err)
	assert.InDeltaSlice(t, single, merged, 1e-12)

	assert.Error(t, a.Merge(NewPerClassThresholds(2, BasisGiven)))
}

func TestConfidentClass(t *testing.T) {
	thr := []float64{0.5, 0.5, 0.2}
	assert.Equal(t, 0, ConfidentClass([]float64{0.6, 0.1, 0.3}, thr))
	assert.Equal(t, 2, ConfidentClass([]float64{0.4, 0.3, 0.3}, thr))
	assert.Equal(t, -1, ConfidentClass([]float64{0.45, 0.45, 0.1}, thr))
}

func TestConfidentJointAndJoint(t *testing.T) {
	labels, probs := fixture()
	thr, err := ComputeThresholds(labels, probs, BasisPredicted)
	require.NoError(t, err)

	cj := NewConfidentJoint(2)
	require.NoError(t, cj.Add(labels, probs, thr))

	// thresholds are about 0.767 and 0.86; rows 0,1 count as (0,0), rows 2
	// and 3 reach neither threshold, rows 4,5 count as (1,1) and (0,1)
	counts := cj.Counts()
	assert.Equal(t, []float64{2, 1, 0, 1}, counts.RawMatrix().Data)
	assert.Equal(t, []int{4, 2}, cj.LabelCounts())
	assert.Equal(t, 6, cj.NumExamples())

	cal := cj.Calibrated()
	assert.InDelta(t, 4.0*2/3, cal.At(0, 0), 1e-12)
	assert.InDelta(t, 4.0/3, cal.At(0, 1), 1e-12)
	assert.InDelta(t, 2.0, cal.At(1, 1), 1e-12)

	joint, err := cj.Joint()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mat.Sum(joint), 1e-12)

	// off-diagonal mass of row 0 is (4/3)/6 = 2/9; 6*2/9 rounds to 1
	assert.Equal(t, 1, NumLabelIssues(joint, 6))
	assert.Equal(t, []int{1, 0}, RemovalCounts(joint, cj.LabelCounts(), 6))
}

func TestConfidentJointMerge(t *testing.T) {
	labels, probs := fixture()
	thr, err := ComputeThresholds(labels, probs, BasisPredicted)
	require.NoError(t, err)

	whole := NewConfidentJoint(2)
	require.NoError(t, whole.Add(labels, probs, thr))

	a, b := NewConfidentJoint(2), NewConfidentJoint(2)
	require.NoError(t, a.Add(labels[:2], probs.Slice(0, 2, 0, 2), thr))
	require.NoError(t, b.Add(labels[2:], probs.Slice(2, 6, 0, 2), thr))
	require.NoError(t, a.Merge(b))

	assert.True(t, mat.Equal(whole.Counts(), a.Counts()))
	assert.Equal(t, whole.LabelCounts(), a.LabelCounts())
	assert.Error(t, a.Merge(NewConfidentJoint(3)))
}

func TestCalibrateEmptyRowGoesToDiagonal(t *testing.T) {
	counts := mat.NewDense(2, 2, []float64{0, 0, 1, 3})
	cal := CalibrateConfidentJoint(counts, []int{5, 8})
	assert.Equal(t, []float64{5, 0, 2, 6}, cal.RawMatrix().Data)
}

func TestRemovalCountsNeverEmptiesClass(t *testing.T) {
	// every example of class 0 looks like class 1
	joint := mat.NewDense(2, 2, []float64{0, 0.5, 0, 0.5})
	assert.Equal(t, []int{2, 0}, RemovalCounts(joint, []int{3, 3}, 6))
}

func TestEstimateLatent(t *testing.T) {
	joint := mat.NewDense(2, 2, []float64{
		0.4, 0.1,
		0.0, 0.5,
	})
	lat := EstimateLatent(joint)
	assert.InDeltaSlice(t, []float64{0.4, 0.6}, lat.Prior, 1e-12)
	assert.InDelta(t, 1.0, lat.NoiseMatrix.At(0, 0), 1e-12)
	assert.InDelta(t, 0.1/0.6, lat.NoiseMatrix.At(0, 1), 1e-12)
	assert.InDelta(t, 0.8, lat.InverseNoiseMatrix.At(0, 0), 1e-12)
	assert.InDelta(t, 0.2, lat.InverseNoiseMatrix.At(1, 0), 1e-12)
	assert.InDelta(t, 0.1, NoiseRate(joint), 1e-12)
}

func TestParseBasis(t *testing.T) {
	b, err := ParseBasis("")
	require.NoError(t, err)
	assert.Equal(t, BasisPredicted, b)
	b, err = ParseBasis("GIVEN")
	require.NoError(t, err)
	assert.Equal(t, BasisGiven, b)
	_, err = ParseBasis("true")
	assert.Error(t, err)
}
