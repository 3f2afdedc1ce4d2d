package rank

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// RankIssues returns the indices of scores sorted by ascending score. Ties
// keep their original index order, so the result is a deterministic
// permutation of 0..N-1.
func RankIssues(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case scores[a] < scores[b]:
			return -1
		case scores[a] > scores[b]:
			return 1
		default:
			return 0
		}
	})
	return idx
}

// OrderLabelIssues returns the indices where mask is set, ordered from most
// to least severe by the given method. Only flagged rows are scored.
func OrderLabelIssues(mask []bool, labels []int, predProbs mat.Matrix, method Method, opts ...ScoreOption) ([]int, error) {
	n, k := predProbs.Dims()
	if len(mask) != n || len(labels) != n {
		return nil, errors.NewDimensionError("rank.OrderLabelIssues", n, len(mask), 0)
	}
	score, err := scoreFunc(method)
	if err != nil {
		return nil, err
	}
	c := newScoreConfig(opts)

	var flagged []int
	var flaggedScores []float64
	buf := make([]float64, k)
	for i, m := range mask {
		if !m {
			continue
		}
		row, err := prepareRow(i, labels[i], mat.Row(buf, i, predProbs), &c)
		if err != nil {
			return nil, err
		}
		flagged = append(flagged, i)
		flaggedScores = append(flaggedScores, score(labels[i], row))
	}

	order := RankIssues(flaggedScores)
	out := make([]int, len(order))
	for i, o := range order {
		out[i] = flagged[o]
	}
	return out, nil
}
