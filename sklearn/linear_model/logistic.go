package linear_model

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/core/model"
	"github.com/YuminosukeSato/cleango/metrics"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/pkg/log"
)

// LogisticRegression is a multinomial (softmax) logistic regression trained
// by full-batch gradient descent with L2 regularization.
//
// It satisfies model.Classifier, model.Cloner and model.ClassReporter and
// is the reference classifier wrapped by CleanLearning.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	C            float64 // Inverse regularization strength
	fitIntercept bool    // Whether to fit intercept
	learningRate float64 // Initial step size
	maxIter      int     // Maximum iterations
	tol          float64 // Stop when the largest gradient entry falls below tol
	randomState  uint64  // Seed of the weight initialization

	// Model parameters
	coef_      *mat.Dense // nClasses x nFeatures
	intercept_ []float64  // nClasses
	classes_   []int      // Unique class labels, ascending
	nIter_     int        // Iterations actually run
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		C:            1.0,
		fitIntercept: true,
		learningRate: 0.5,
		maxIter:      300,
		tol:          1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRLearningRate sets the initial gradient step
func WithLRLearningRate(rate float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = rate
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed uint64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// Clone returns an unfit copy with the same hyperparameters.
func (lr *LogisticRegression) Clone() model.Classifier {
	return &LogisticRegression{
		state:        model.NewStateManager(),
		C:            lr.C,
		fitIntercept: lr.fitIntercept,
		learningRate: lr.learningRate,
		maxIter:      lr.maxIter,
		tol:          lr.tol,
		randomState:  lr.randomState,
	}
}

// Fit trains the model. y is an n×1 column of non-negative integer labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 {
		return errors.NewValueError("LogisticRegression.Fit", "empty training data")
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	labels, err := metrics.ColumnLabels(y)
	if err != nil {
		return err
	}

	lr.state.Reset()
	lr.extractClasses(labels)
	nClasses := len(lr.classes_)
	classIndex := make(map[int]int, nClasses)
	for i, c := range lr.classes_ {
		classIndex[c] = i
	}

	Xd := mat.DenseCopyOf(X)
	lr.initializeWeights(nClasses, nFeatures)

	lambda := 1.0 / (lr.C * float64(nSamples))
	scores := mat.NewDense(nSamples, nClasses, nil)
	gradW := mat.NewDense(nClasses, nFeatures, nil)
	gradB := make([]float64, nClasses)

	converged := false
	for iter := 0; iter < lr.maxIter; iter++ {
		// scores = softmax(X Wᵀ + b) - onehot(y)
		scores.Mul(Xd, lr.coef_.T())
		for i := 0; i < nSamples; i++ {
			row := scores.RawRowView(i)
			for k := range row {
				row[k] += lr.intercept_[k]
			}
			errors.Softmax(row)
			row[classIndex[labels[i]]] -= 1
		}

		gradW.Mul(scores.T(), Xd)
		gradW.Scale(1/float64(nSamples), gradW)
		gradW.Add(gradW, scaled(lambda, lr.coef_))
		for k := range gradB {
			gradB[k] = 0
		}
		for i := 0; i < nSamples; i++ {
			for k, v := range scores.RawRowView(i) {
				gradB[k] += v / float64(nSamples)
			}
		}
		if err := errors.CheckNumericalStability("LogisticRegression.Fit", gradB, iter); err != nil {
			return err
		}

		step := lr.learningRate / (1.0 + 0.01*float64(iter))
		lr.coef_.Add(lr.coef_, scaled(-step, gradW))
		if lr.fitIntercept {
			for k := range lr.intercept_ {
				lr.intercept_[k] -= step * gradB[k]
			}
		}
		lr.nIter_ = iter + 1

		maxGrad := mat.Max(absDense(gradW))
		if lr.fitIntercept {
			for _, g := range gradB {
				maxGrad = math.Max(maxGrad, math.Abs(g))
			}
		}
		if err := errors.CheckScalar("LogisticRegression.Fit", maxGrad, iter); err != nil {
			return err
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter_, ""))
	}
	log.GetLoggerWithName("linear_model").Debug("logistic regression fitted",
		log.ModelNameKey, "LogisticRegression",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, nClasses,
		log.IterationKey, lr.nIter_,
	)

	lr.state.SetFitted(nFeatures, nSamples, nClasses)
	return nil
}

// extractClasses identifies unique class labels
func (lr *LogisticRegression) extractClasses(labels []int) {
	lr.classes_ = slices.Clone(labels)
	slices.Sort(lr.classes_)
	lr.classes_ = slices.Compact(lr.classes_)
}

// initializeWeights initializes model weights with small seeded values
func (lr *LogisticRegression) initializeWeights(nClasses, nFeatures int) {
	rng := rand.New(rand.NewPCG(lr.randomState, 0x9e3779b97f4a7c15))
	data := make([]float64, nClasses*nFeatures)
	for i := range data {
		data[i] = rng.NormFloat64() * 0.01
	}
	lr.coef_ = mat.NewDense(nClasses, nFeatures, data)
	lr.intercept_ = make([]float64, nClasses)
}

// PredictProba returns an n×K matrix of class probabilities, columns in
// Classes() order.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.PredictProba", nFeatures); err != nil {
		return nil, err
	}

	probas := mat.NewDense(nSamples, len(lr.classes_), nil)
	probas.Mul(X, lr.coef_.T())
	for i := 0; i < nSamples; i++ {
		row := probas.RawRowView(i)
		for k := range row {
			row[k] += lr.intercept_[k]
		}
		errors.Softmax(row)
	}
	return probas, nil
}

// Predict returns an n×1 column of predicted labels.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "Predict"); err != nil {
		return nil, err
	}
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	p := probas.(*mat.Dense)
	nSamples, _ := p.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		row := p.RawRowView(i)
		best := 0
		for k := 1; k < len(row); k++ {
			if row[k] > row[best] {
				best = k
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[best]))
	}
	return predictions, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := metrics.ColumnLabels(y)
	if err != nil {
		return 0, err
	}
	yPred, err := metrics.ColumnLabels(predictions)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(yTrue, yPred)
}

// Classes returns the labels seen during Fit, ascending.
func (lr *LogisticRegression) Classes() []int {
	return slices.Clone(lr.classes_)
}

// NIter returns the number of gradient steps run by the last Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"learning_rate": lr.learningRate,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"random_state":  lr.randomState,
	}
}

func scaled(f float64, m mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(f, m)
	return &out
}

func absDense(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return math.Abs(v) }, m)
	return &out
}
