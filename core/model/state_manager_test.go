package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("LogisticRegression", "Predict")
	require.Error(t, err)
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Predict", nf.Method)

	s.SetFitted(4, 100, 3)
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequireFitted("LogisticRegression", "Predict"))
	f, n, k := s.Dimensions()
	assert.Equal(t, []int{4, 100, 3}, []int{f, n, k})

	assert.NoError(t, s.RequireFeatures("Predict", 4))
	var de *errors.DimensionError
	require.True(t, errors.As(s.RequireFeatures("Predict", 2), &de))
	assert.Equal(t, 4, de.Expected)

	s.Reset()
	assert.False(t, s.IsFitted())
}

func TestStateManagerConcurrentReads(t *testing.T) {
	s := NewStateManager()
	s.SetFitted(2, 10, 2)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, s.IsFitted())
		}()
	}
	wg.Wait()
}

type fitOnly struct{}

func (fitOnly) Fit(X, y mat.Matrix) error { return nil }

type fullModel struct{ fitOnly }

func (fullModel) Predict(X mat.Matrix) (mat.Matrix, error)      { return nil, nil }
func (fullModel) PredictProba(X mat.Matrix) (mat.Matrix, error) { return nil, nil }
func (fullModel) Clone() Classifier                             { return fullModel{} }

func TestCapabilities(t *testing.T) {
	assert.Empty(t, Capabilities(fullModel{}))
	assert.Equal(t, []string{"Predict", "PredictProba", "Clone"}, Capabilities(fitOnly{}))
	assert.Len(t, Capabilities(42), 4)
}
