package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

func TestAccuracyScore(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect accuracy",
			yTrue: []int{0, 1, 2, 1, 0},
			yPred: []int{0, 1, 2, 1, 0},
			want:  1.0,
		},
		{
			name:  "80% accuracy",
			yTrue: []int{0, 1, 2, 1, 0},
			yPred: []int{0, 1, 1, 1, 0},
			want:  0.8,
		},
		{
			name:  "Zero accuracy",
			yTrue: []int{0, 0, 0},
			yPred: []int{1, 1, 1},
			want:  0.0,
		},
		{
			name:    "Empty vectors",
			yTrue:   []int{},
			yPred:   []int{},
			wantErr: true,
		},
		{
			name:    "Length mismatch",
			yTrue:   []int{0, 1},
			yPred:   []int{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AccuracyScore(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("AccuracyScore() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("AccuracyScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	cm, err := ConfusionMatrix([]int{0, 0, 1, 2, 2}, []int{0, 1, 1, 2, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{
		1, 1, 0,
		0, 1, 0,
		1, 0, 1,
	}, cm.RawMatrix().Data)
	assert.Equal(t, 5.0, mat.Sum(cm))

	_, err = ConfusionMatrix([]int{0, 3}, []int{0, 1}, 3)
	var lre *errors.LabelRangeError
	require.True(t, errors.As(err, &lre))
	assert.Equal(t, 1, lre.Index)
}

func TestLogLoss(t *testing.T) {
	probs := mat.NewDense(2, 2, []float64{
		0.8, 0.2,
		0.4, 0.6,
	})
	got, err := LogLoss([]int{0, 1}, probs)
	require.NoError(t, err)
	assert.InDelta(t, -(math.Log(0.8)+math.Log(0.6))/2, got, 1e-12)

	// zero probability is clipped
	got, err = LogLoss([]int{1}, mat.NewDense(1, 2, []float64{1, 0}))
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(logLossEpsilon), got, 1e-9)

	_, err = LogLoss([]int{0}, probs)
	assert.Error(t, err)
}

func TestLabelColumnRoundTrip(t *testing.T) {
	labels := []int{2, 0, 1}
	got, err := ColumnLabels(LabelColumn(labels))
	require.NoError(t, err)
	assert.Equal(t, labels, got)

	_, err = ColumnLabels(mat.NewDense(1, 2, nil))
	assert.Error(t, err)
	_, err = ColumnLabels(mat.NewDense(1, 1, []float64{0.5}))
	assert.Error(t, err)
}
