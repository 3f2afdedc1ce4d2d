package model_selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

func assertPartition(t *testing.T, folds []CVFold, n int) {
	t.Helper()
	seen := make([]int, n)
	for _, f := range folds {
		assert.Equal(t, n, len(f.TrainIndices)+len(f.TestIndices))
		for _, idx := range f.TestIndices {
			seen[idx]++
		}
		test := make(map[int]bool, len(f.TestIndices))
		for _, idx := range f.TestIndices {
			test[idx] = true
		}
		for _, idx := range f.TrainIndices {
			assert.False(t, test[idx], "row %d in both train and test", idx)
		}
	}
	for i, c := range seen {
		assert.Equal(t, 1, c, "row %d held out %d times", i, c)
	}
}

func TestKFold_Split(t *testing.T) {
	y := make([]int, 11)
	for _, shuffle := range []bool{false, true} {
		folds, err := NewKFold(3, shuffle, 42).Split(y)
		require.NoError(t, err)
		require.Len(t, folds, 3)
		assertPartition(t, folds, 11)
		assert.Len(t, folds[0].TestIndices, 4)
		assert.Len(t, folds[2].TestIndices, 3)
	}

	folds, err := NewKFold(3, false, 0).Split(y)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, folds[0].TestIndices)
}

func TestKFold_ShuffleIsSeeded(t *testing.T) {
	y := make([]int, 30)
	a, err := NewKFold(5, true, 7).Split(y)
	require.NoError(t, err)
	b, err := NewKFold(5, true, 7).Split(y)
	require.NoError(t, err)
	c, err := NewKFold(5, true, 8).Split(y)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestStratifiedKFold_Split(t *testing.T) {
	// 12 of class 0, 6 of class 1, 3 of class 2
	var y []int
	for c, n := range []int{12, 6, 3} {
		for i := 0; i < n; i++ {
			y = append(y, c)
		}
	}

	folds, err := NewStratifiedKFold(3, true, 1).Split(y)
	require.NoError(t, err)
	assertPartition(t, folds, len(y))

	for _, f := range folds {
		counts := map[int]int{}
		for _, idx := range f.TestIndices {
			counts[y[idx]]++
		}
		assert.Equal(t, 4, counts[0])
		assert.Equal(t, 2, counts[1])
		assert.Equal(t, 1, counts[2])
		assert.Len(t, f.TestIndices, 7)
	}
}

func TestStratifiedKFold_BalancedFoldSizes(t *testing.T) {
	// Many small classes must not all pile their remainder onto fold 0.
	y := []int{0, 0, 1, 1, 2, 2, 3, 3, 4, 4}
	folds, err := NewStratifiedKFold(3, false, 0).Split(y)
	require.NoError(t, err)
	assertPartition(t, folds, len(y))
	for _, f := range folds {
		assert.GreaterOrEqual(t, len(f.TestIndices), 3)
		assert.LessOrEqual(t, len(f.TestIndices), 4)
	}
}

func TestSplit_Errors(t *testing.T) {
	_, err := NewKFold(1, false, 0).Split(make([]int, 10))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = NewStratifiedKFold(5, false, 0).Split(make([]int, 3))
	var vErr *errors.ValueError
	assert.True(t, errors.As(err, &vErr))
}

func TestMinClassCount(t *testing.T) {
	assert.Equal(t, 1, MinClassCount([]int{0, 0, 1, 2, 2}))
	assert.Equal(t, 0, MinClassCount(nil))
}
