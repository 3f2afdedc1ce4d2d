// Package model defines the capability set a classifier must offer to be
// wrapped by the label-quality engine, plus a small fitted-state helper.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit trains the model. y is an n×1 column of class labels.
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict returns an n×1 column of predicted class labels.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbaPredictor returns per-class probability estimates.
type ProbaPredictor interface {
	// PredictProba returns an n×K matrix whose columns follow ascending class
	// order and whose rows sum to 1.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Classifier combines the three operations CleanLearning drives.
type Classifier interface {
	Fitter
	Predictor
	ProbaPredictor
}

// Cloner produces a fresh, unfit copy with identical hyperparameters.
// Cross-validation trains one clone per fold.
type Cloner interface {
	Clone() Classifier
}

// ClassReporter exposes the classes seen during fitting, in ascending order.
type ClassReporter interface {
	Classes() []int
}

// ParameterGetter is the interface for models that expose their parameters.
// CleanLearning logs them when it wraps such a model.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// Capabilities lists the names of the required capabilities clf lacks.
// An empty result means clf implements both Classifier and Cloner.
func Capabilities(clf any) (missing []string) {
	if _, ok := clf.(Fitter); !ok {
		missing = append(missing, "Fit")
	}
	if _, ok := clf.(Predictor); !ok {
		missing = append(missing, "Predict")
	}
	if _, ok := clf.(ProbaPredictor); !ok {
		missing = append(missing, "PredictProba")
	}
	if _, ok := clf.(Cloner); !ok {
		missing = append(missing, "Clone")
	}
	return missing
}
