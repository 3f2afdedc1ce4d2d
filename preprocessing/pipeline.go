package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/core/model"
)

// CloneableClassifier is a classifier that can produce fresh copies.
type CloneableClassifier interface {
	model.Classifier
	model.Cloner
}

// ScaledClassifier standardizes features with a StandardScaler fitted on the
// training data before handing them to the wrapped classifier.
type ScaledClassifier struct {
	scaler *StandardScaler
	inner  CloneableClassifier
}

// NewScaledClassifier wraps inner.
func NewScaledClassifier(inner CloneableClassifier) *ScaledClassifier {
	return &ScaledClassifier{scaler: NewStandardScalerDefault(), inner: inner}
}

// Fit fits the scaler on X, then the wrapped classifier on the scaled X.
func (c *ScaledClassifier) Fit(X, y mat.Matrix) error {
	scaled, err := c.scaler.FitTransform(X)
	if err != nil {
		return err
	}
	return c.inner.Fit(scaled, y)
}

// Predict scales X and delegates.
func (c *ScaledClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	scaled, err := c.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return c.inner.Predict(scaled)
}

// PredictProba scales X and delegates.
func (c *ScaledClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scaled, err := c.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return c.inner.PredictProba(scaled)
}

// Clone returns an unfit wrapper around a clone of the inner classifier.
func (c *ScaledClassifier) Clone() model.Classifier {
	return &ScaledClassifier{
		scaler: NewStandardScaler(c.scaler.WithMean, c.scaler.WithStd),
		inner:  c.inner.Clone().(CloneableClassifier),
	}
}

// Classes forwards model.ClassReporter. It returns nil when the wrapped
// classifier does not report its classes.
func (c *ScaledClassifier) Classes() []int {
	if r, ok := c.inner.(model.ClassReporter); ok {
		return r.Classes()
	}
	return nil
}

// Scaler returns the feature scaler.
func (c *ScaledClassifier) Scaler() *StandardScaler {
	return c.scaler
}
