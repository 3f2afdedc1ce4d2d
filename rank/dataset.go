package rank

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/core/parallel"
	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// parallelThreshold is the row count above which ScoreDataset splits work
// across goroutines.
const parallelThreshold = 4096

// rowError keeps the failure with the lowest row index across workers.
type rowError struct {
	mu    sync.Mutex
	index int
	err   error
}

func (e *rowError) set(index int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == nil || index < e.index {
		e.index = index
		e.err = err
	}
}

// ScoreDataset scores every row of predProbs against its label with the
// given method. Rows are validated as they are scored; on failure no scores
// are returned and the error names the lowest offending row index.
func ScoreDataset(labels []int, predProbs mat.Matrix, method Method, opts ...ScoreOption) ([]float64, error) {
	score, err := scoreFunc(method)
	if err != nil {
		return nil, err
	}
	c := newScoreConfig(opts)

	n, k := predProbs.Dims()
	if n != len(labels) {
		return nil, errors.NewDimensionError("rank.ScoreDataset", len(labels), n, 0)
	}
	if n == 0 {
		return []float64{}, nil
	}

	scores := make([]float64, n)
	var failed rowError
	dense, isDense := predProbs.(*mat.Dense)

	run := func(start, end int) {
		var buf []float64
		if !isDense {
			buf = make([]float64, k)
		}
		for i := start; i < end; i++ {
			var row []float64
			if isDense {
				row = dense.RawRowView(i)
			} else {
				row = mat.Row(buf, i, predProbs)
			}
			prepared, err := prepareRow(i, labels[i], row, &c)
			if err != nil {
				failed.set(i, err)
				return
			}
			scores[i] = score(labels[i], prepared)
		}
	}

	parallel.ParallelizeWithThreshold(n, parallelThreshold, c.workers, run)

	if failed.err != nil {
		return nil, failed.err
	}
	return scores, nil
}
