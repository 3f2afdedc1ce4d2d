// Package classification provides CleanLearning, a wrapper that makes any
// classifier robust to noisy labels: it estimates out-of-sample probabilities
// by cross-validation, flags likely label issues and retrains on the rest.
package classification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/core/model"
	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/filter"
	"github.com/YuminosukeSato/cleango/metrics"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/pkg/log"
	"github.com/YuminosukeSato/cleango/rank"
	"github.com/YuminosukeSato/cleango/sklearn/model_selection"
)

// State is the lifecycle stage of a CleanLearning.
type State int

const (
	// StateUnfit is the state after construction.
	StateUnfit State = iota
	// StateIssuesFound means FindLabelIssues has produced a table.
	StateIssuesFound
	// StateFit means a cleaned model has been trained.
	StateFit
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnfit:
		return "unfit"
	case StateIssuesFound:
		return "issues_found"
	case StateFit:
		return "fit"
	default:
		return "unknown"
	}
}

// CleanLearning wraps a classifier and trains it on the examples whose labels
// survive confident-learning filtering.
//
// A CleanLearning is not safe for concurrent use.
type CleanLearning struct {
	cloner model.Cloner
	cfg    *config
	id     string
	logger log.Logger

	lifecycle  State
	fitted     *model.StateManager
	issues     *LabelIssues
	model      model.Classifier
	numClasses int
}

// NewCleanLearning wraps clf, which must offer Fit, Predict, PredictProba and
// Clone. Anything less is rejected with an IncompatibleModelError.
func NewCleanLearning(clf any, opts ...Option) (*CleanLearning, error) {
	if missing := model.Capabilities(clf); len(missing) > 0 {
		return nil, errors.NewIncompatibleModelError(fmt.Sprintf("%T", clf), missing)
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	cl := &CleanLearning{
		cloner: clf.(model.Cloner),
		cfg:    cfg,
		id:     id,
		logger: cfg.logger.With(log.EstimatorIDKey, id, log.ModelNameKey, fmt.Sprintf("%T", clf)),
		fitted: model.NewStateManager(),
	}
	if pg, ok := clf.(model.ParameterGetter); ok {
		cl.logger.Debug("wrapping classifier", log.ParamsKey, pg.GetParams())
	}
	return cl, nil
}

// ID returns the estimator id attached to every log line.
func (cl *CleanLearning) ID() string {
	return cl.id
}

// State returns the lifecycle state.
func (cl *CleanLearning) State() State {
	return cl.lifecycle
}

// LabelIssues returns the table of the last FindLabelIssues or Fit call, or
// nil.
func (cl *CleanLearning) LabelIssues() *LabelIssues {
	return cl.issues
}

// FindLabelIssues estimates out-of-sample probabilities with stratified
// K-fold cross-validation and flags label issues. Labels must cover every
// class in [0, max(labels)].
func (cl *CleanLearning) FindLabelIssues(ctx context.Context, X mat.Matrix, labels []int) (*LabelIssues, error) {
	start := time.Now()
	numClasses, err := checkTrainingData(X, labels)
	if err != nil {
		return nil, err
	}

	splitter := model_selection.NewStratifiedKFold(cl.cfg.cvNFolds, true, cl.cfg.seed)
	predProbs, err := model_selection.CrossValPredictProba(ctx, cl.cloner, X, labels, splitter, numClasses, cl.cfg.nJobs)
	if err != nil {
		return nil, errors.Wrap(err, "CleanLearning.FindLabelIssues")
	}

	findOpts := append([]filter.Option{filter.WithLogger(cl.logger)}, cl.cfg.findOpts...)
	found, err := filter.FindLabelIssues(labels, predProbs, findOpts...)
	if err != nil {
		return nil, err
	}
	quality, err := rank.ScoreDataset(labels, predProbs, cl.cfg.qualityMethod)
	if err != nil {
		return nil, err
	}
	ranked := found.RankedIndices
	if ranked == nil {
		ranked, err = rank.OrderLabelIssues(found.Mask, labels, predProbs, cl.cfg.qualityMethod)
		if err != nil {
			return nil, err
		}
	}

	logLoss, err := metrics.LogLoss(labels, predProbs)
	if err != nil {
		return nil, err
	}

	predicted := dataset.PredictedLabels(predProbs)
	rows := make([]LabelIssue, len(labels))
	for i := range rows {
		rows[i] = LabelIssue{
			Index:          i,
			GivenLabel:     labels[i],
			PredictedLabel: predicted[i],
			LabelQuality:   quality[i],
			IsLabelIssue:   found.Mask[i],
		}
	}

	cl.issues = &LabelIssues{
		Rows:          rows,
		RankedIndices: ranked,
		QualityMethod: cl.cfg.qualityMethod,
		PredProbs:     predProbs,
		LogLoss:       logLoss,
	}
	cl.numClasses = numClasses
	if cl.lifecycle == StateUnfit {
		cl.lifecycle = StateIssuesFound
	}

	cl.logger.Info("cross-validated label issues found",
		log.OperationKey, log.OperationFindLabelIssues,
		log.SamplesKey, len(labels),
		log.ClassesKey, numClasses,
		log.FoldsKey, cl.cfg.cvNFolds,
		log.IssuesCountKey, cl.issues.NumIssues(),
		log.LossKey, logLoss,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return cl.issues, nil
}

// Fit drops the flagged examples and trains a fresh clone on the rest. issues
// is reused when given; otherwise FindLabelIssues runs first.
//
// A class all of whose examples are flagged keeps its single highest-quality
// example and a warning is logged, unless strict class retention is on, in
// which case Fit returns an EmptyClassAfterFilteringError.
func (cl *CleanLearning) Fit(ctx context.Context, X mat.Matrix, labels []int, issues *LabelIssues) error {
	start := time.Now()
	numClasses, err := checkTrainingData(X, labels)
	if err != nil {
		return err
	}
	if issues == nil {
		if issues, err = cl.FindLabelIssues(ctx, X, labels); err != nil {
			return err
		}
	} else if issues.Len() != len(labels) {
		return errors.NewDimensionError("CleanLearning.Fit", len(labels), issues.Len(), 0)
	}

	keep, err := cl.retained(issues, labels, numClasses)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	trainY := make([]int, len(keep))
	for j, idx := range keep {
		trainY[j] = labels[idx]
	}
	m := cl.cloner.Clone()
	if err := errors.SafeExecute("CleanLearning.Fit", func() error {
		return m.Fit(model_selection.SubsetRows(X, keep), metrics.LabelColumn(trainY))
	}); err != nil {
		return errors.Wrap(err, "CleanLearning.Fit")
	}

	_, nFeatures := X.Dims()
	cl.model = m
	cl.issues = issues
	cl.numClasses = numClasses
	cl.fitted.SetFitted(nFeatures, len(keep), numClasses)
	cl.lifecycle = StateFit

	cl.logger.Info("clean model fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(keep),
		log.IssuesCountKey, len(labels)-len(keep),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// retained returns the ascending indices of the rows kept for training.
func (cl *CleanLearning) retained(issues *LabelIssues, labels []int, numClasses int) ([]int, error) {
	kept := make([]int, numClasses)
	removed := make([]int, numClasses)
	best := make([]int, numClasses)
	for c := range best {
		best[c] = -1
	}
	for i, r := range issues.Rows {
		c := labels[i]
		if r.IsLabelIssue {
			removed[c]++
			if best[c] < 0 || r.LabelQuality > issues.Rows[best[c]].LabelQuality {
				best[c] = i
			}
		} else {
			kept[c]++
		}
	}

	rescue := make(map[int]bool)
	for c := 0; c < numClasses; c++ {
		if kept[c] > 0 || removed[c] == 0 {
			continue
		}
		if cl.cfg.strict {
			return nil, errors.NewEmptyClassAfterFilteringError(c, removed[c])
		}
		rescue[best[c]] = true
		cl.logger.Warn("every example of a class was flagged, keeping the highest-quality one",
			log.ClassesKey, c,
			log.IssuesCountKey, removed[c],
			"example.index", best[c],
		)
	}

	keep := make([]int, 0, len(labels))
	for i, r := range issues.Rows {
		if !r.IsLabelIssue || rescue[i] {
			keep = append(keep, i)
		}
	}
	return keep, nil
}

// Predict returns the predictions of the cleaned model.
func (cl *CleanLearning) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := cl.requireFitted("Predict", X); err != nil {
		return nil, err
	}
	return cl.model.Predict(X)
}

// PredictProba returns the class probabilities of the cleaned model.
func (cl *CleanLearning) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := cl.requireFitted("PredictProba", X); err != nil {
		return nil, err
	}
	return cl.model.PredictProba(X)
}

// Score returns the accuracy of Predict(X) against labels.
func (cl *CleanLearning) Score(X mat.Matrix, labels []int) (float64, error) {
	pred, err := cl.Predict(X)
	if err != nil {
		return 0, err
	}
	yPred, err := metrics.ColumnLabels(pred)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(labels, yPred)
}

func (cl *CleanLearning) requireFitted(method string, X mat.Matrix) error {
	if err := cl.fitted.RequireFitted("CleanLearning", method); err != nil {
		return err
	}
	_, nFeatures := X.Dims()
	return cl.fitted.RequireFeatures("CleanLearning."+method, nFeatures)
}

// checkTrainingData validates the shapes and labels and returns K.
func checkTrainingData(X mat.Matrix, labels []int) (int, error) {
	n, _ := X.Dims()
	if n == 0 || len(labels) == 0 {
		return 0, errors.ErrEmptyData
	}
	if n != len(labels) {
		return 0, errors.NewDimensionError("CleanLearning", n, len(labels), 0)
	}
	numClasses := 0
	for i, l := range labels {
		if l < 0 {
			return 0, errors.NewLabelRangeError(i, l, numClasses)
		}
		numClasses = max(numClasses, l+1)
	}
	for c, cnt := range dataset.CountLabels(labels, numClasses) {
		if cnt == 0 {
			return 0, errors.NewEmptyClassError(c, numClasses, "class has no labeled examples")
		}
	}
	return numClasses, nil
}
