package model_selection

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/core/model"
	"github.com/YuminosukeSato/cleango/metrics"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/sklearn/linear_model"
)

// priorClassifier predicts the class frequencies of its training labels.
// X's first column is the row id, used to check which rows a fold saw.
type priorClassifier struct {
	classes []int
	prior   []float64
	seen    map[int]bool
	report  bool
	failOn  int // row id whose presence in training fails Fit; -1 disables
	panicOn int
	fits    *atomic.Int32
}

func newPrior(report bool) *priorClassifier {
	return &priorClassifier{report: report, failOn: -1, panicOn: -1, fits: &atomic.Int32{}}
}

func (p *priorClassifier) Clone() model.Classifier {
	return &priorClassifier{report: p.report, failOn: p.failOn, panicOn: p.panicOn, fits: p.fits}
}

func (p *priorClassifier) Fit(X, y mat.Matrix) error {
	p.fits.Add(1)
	labels, err := metrics.ColumnLabels(y)
	if err != nil {
		return err
	}
	n, _ := X.Dims()
	p.seen = make(map[int]bool, n)
	for i := 0; i < n; i++ {
		id := int(X.At(i, 0))
		p.seen[id] = true
		if id == p.failOn {
			return errors.New("bad row in training set")
		}
		if id == p.panicOn {
			panic("boom")
		}
	}
	counts := map[int]int{}
	for _, l := range labels {
		counts[l]++
	}
	p.classes = p.classes[:0]
	for c := 0; c < 10; c++ {
		if counts[c] > 0 {
			p.classes = append(p.classes, c)
		}
	}
	p.prior = make([]float64, len(p.classes))
	for j, c := range p.classes {
		p.prior[j] = float64(counts[c]) / float64(len(labels))
	}
	return nil
}

func (p *priorClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, len(p.prior), nil)
	for i := 0; i < n; i++ {
		if p.seen[int(X.At(i, 0))] {
			return nil, errors.New("predicting a training row")
		}
		out.SetRow(i, p.prior)
	}
	return out, nil
}

func (p *priorClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	return mat.NewDense(n, 1, nil), nil
}

// reportingPrior adds Classes() to priorClassifier.
type reportingPrior struct{ *priorClassifier }

func (r reportingPrior) Classes() []int { return r.classes }

func (r reportingPrior) Clone() model.Classifier {
	return reportingPrior{r.priorClassifier.Clone().(*priorClassifier)}
}

func idFeatures(n int) *mat.Dense {
	X := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
	}
	return X
}

func TestCrossValPredictProba_OutOfSample(t *testing.T) {
	y := []int{0, 1, 0, 1, 0, 1, 0, 1, 2, 2}
	clf := newPrior(false)

	probs, err := CrossValPredictProba(context.Background(), clf, idFeatures(10), y,
		NewStratifiedKFold(2, true, 3), 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), clf.fits.Load())

	r, c := probs.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 3, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, mat.Sum(probs.RowView(i)), 1e-12)
	}
}

func TestCrossValPredictProba_MapsReportedClasses(t *testing.T) {
	// class 2 has one member, so the fold holding it out never trains on it
	y := []int{0, 1, 0, 1, 0, 1, 2}
	clf := reportingPrior{newPrior(true)}

	probs, err := CrossValPredictProba(context.Background(), clf, idFeatures(7), y,
		NewKFold(7, false, 0), 3, 1)
	require.NoError(t, err)

	assert.Equal(t, 0.0, probs.At(6, 2))
	assert.InDelta(t, 0.5, probs.At(6, 0), 1e-12)
	assert.InDelta(t, 0.5, probs.At(6, 1), 1e-12)
	// row 0 held out: remaining labels {0,0,1,1,1,2}
	assert.InDelta(t, 2.0/6, probs.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0/6, probs.At(0, 2), 1e-12)
}

func TestCrossValPredictProba_WidthMismatch(t *testing.T) {
	y := []int{0, 1, 0, 1, 0, 1, 2}
	_, err := CrossValPredictProba(context.Background(), newPrior(false), idFeatures(7), y,
		NewKFold(7, false, 0), 3, 1)
	require.Error(t, err)

	var fe *errors.FoldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 6, fe.Fold)
	var me *errors.MalformedProbabilityError
	assert.True(t, errors.As(err, &me))
}

func TestCrossValPredictProba_FoldErrors(t *testing.T) {
	y := []int{0, 1, 0, 1, 0, 1, 0, 1}

	t.Run("error", func(t *testing.T) {
		clf := newPrior(false)
		clf.failOn = 0 // row 0 trains in every fold but the first
		_, err := CrossValPredictProba(context.Background(), clf, idFeatures(8), y,
			NewKFold(4, false, 0), 2, 1)
		var fe *errors.FoldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, 1, fe.Fold)
	})

	t.Run("panic", func(t *testing.T) {
		clf := newPrior(false)
		clf.panicOn = 7
		_, err := CrossValPredictProba(context.Background(), clf, idFeatures(8), y,
			NewKFold(4, false, 0), 2, 4)
		var fe *errors.FoldError
		require.True(t, errors.As(err, &fe))
		var pe *errors.PanicError
		assert.True(t, errors.As(err, &pe))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := CrossValPredictProba(ctx, newPrior(false), idFeatures(8), y,
			NewKFold(4, false, 0), 2, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("dimension", func(t *testing.T) {
		_, err := CrossValPredictProba(context.Background(), newPrior(false), idFeatures(5), y,
			NewKFold(4, false, 0), 2, 1)
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})
}

func TestCrossValPredictProba_LogisticRegression(t *testing.T) {
	centers := [][2]float64{{-2, 0}, {2, 0}, {0, 2}}
	n := 60
	X := mat.NewDense(n, 2, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		c := i % 3
		y[i] = c
		X.Set(i, 0, centers[c][0]+0.3*math.Sin(float64(i)))
		X.Set(i, 1, centers[c][1]+0.3*math.Cos(float64(i)))
	}

	clf := linear_model.NewLogisticRegression(linear_model.WithLRRandomState(1))
	probs, err := CrossValPredictProba(context.Background(), clf, X, y,
		NewStratifiedKFold(5, true, 0), 3, 0)
	require.NoError(t, err)

	pred := make([]int, n)
	for i := range pred {
		row := probs.RawRowView(i)
		for k := range row {
			if row[k] > row[pred[i]] {
				pred[i] = k
			}
		}
	}
	acc, err := metrics.AccuracyScore(y, pred)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.95)
}
