package model_selection

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/core/model"
	"github.com/YuminosukeSato/cleango/metrics"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/pkg/log"
)

// CrossValPredictProba returns the n×numClasses matrix of out-of-sample
// probabilities for X: row i comes from the model of the one fold that held
// out i. Each fold trains a fresh clf.Clone(); at most nJobs folds run at once
// (nJobs < 1 means runtime.NumCPU()).
//
// When a fold model implements model.ClassReporter and reports a non-nil
// class list, its columns are mapped to those global classes and classes it
// never saw get probability 0. Otherwise its output must already be
// numClasses wide.
//
// The first failing fold cancels the rest; its error is a *errors.FoldError.
func CrossValPredictProba(ctx context.Context, clf model.Cloner, X mat.Matrix, y []int,
	splitter Splitter, numClasses, nJobs int) (*mat.Dense, error) {

	nSamples, _ := X.Dims()
	if nSamples != len(y) {
		return nil, errors.NewDimensionError("CrossValPredictProba", nSamples, len(y), 0)
	}
	if numClasses < 1 {
		return nil, errors.ErrNoClasses
	}
	folds, err := splitter.Split(y)
	if err != nil {
		return nil, err
	}
	if nJobs < 1 {
		nJobs = runtime.NumCPU()
	}

	logger := log.GetLoggerWithName("model_selection")
	if minCount := MinClassCount(y); minCount < splitter.GetNSplits() {
		logger.Warn("least populated class has fewer members than folds",
			log.FoldsKey, splitter.GetNSplits(),
			"class.min_count", minCount,
		)
	}

	out := mat.NewDense(nSamples, numClasses, nil)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nJobs)
	for i, fold := range folds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			op := fmt.Sprintf("CrossValPredictProba fold %d", i)
			begin := time.Now()
			if err := errors.SafeExecute(op, func() error {
				return predictFold(clf, X, y, fold, numClasses, out)
			}); err != nil {
				return errors.NewFoldError(i, err)
			}
			logger.Debug("fold finished",
				log.FoldKey, i,
				log.SamplesKey, len(fold.TrainIndices),
				log.DurationMsKey, time.Since(begin).Milliseconds(),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// predictFold fits one clone on the training rows and writes the held-out
// rows of out. Folds own disjoint rows, so concurrent calls never overlap.
func predictFold(clf model.Cloner, X mat.Matrix, y []int, fold CVFold, numClasses int, out *mat.Dense) error {
	m := clf.Clone()
	trainX := SubsetRows(X, fold.TrainIndices)
	trainY := make([]int, len(fold.TrainIndices))
	for j, idx := range fold.TrainIndices {
		trainY[j] = y[idx]
	}
	if err := m.Fit(trainX, metrics.LabelColumn(trainY)); err != nil {
		return err
	}

	proba, err := m.PredictProba(SubsetRows(X, fold.TestIndices))
	if err != nil {
		return err
	}
	rows, cols := proba.Dims()
	if rows != len(fold.TestIndices) {
		return errors.NewDimensionError("PredictProba", len(fold.TestIndices), rows, 0)
	}

	columns, err := columnClasses(m, cols, numClasses)
	if err != nil {
		return err
	}
	for r, idx := range fold.TestIndices {
		for c, global := range columns {
			out.Set(idx, global, proba.At(r, c))
		}
	}
	return nil
}

// columnClasses maps each column of a fold model's output to a global class.
func columnClasses(m model.Classifier, cols, numClasses int) ([]int, error) {
	var classes []int
	if reporter, ok := m.(model.ClassReporter); ok {
		classes = reporter.Classes()
	}
	if classes == nil {
		if cols != numClasses {
			return nil, errors.NewProbabilityWidthError(-1, cols, numClasses)
		}
		columns := make([]int, cols)
		for c := range columns {
			columns[c] = c
		}
		return columns, nil
	}

	if len(classes) != cols {
		return nil, errors.NewProbabilityWidthError(-1, cols, len(classes))
	}
	for _, label := range classes {
		if label < 0 || label >= numClasses {
			return nil, errors.NewLabelRangeError(-1, label, numClasses)
		}
	}
	return classes, nil
}

// SubsetRows copies the given rows of X into a new matrix. indices must not
// be empty.
func SubsetRows(X mat.Matrix, indices []int) *mat.Dense {
	_, cols := X.Dims()
	subset := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		for j := 0; j < cols; j++ {
			subset.Set(i, j, X.At(idx, j))
		}
	}
	return subset
}
