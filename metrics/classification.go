// Package metrics は分類モデルの評価指標を提供する
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// logLossEpsilon clips probabilities away from 0 before taking the log.
const logLossEpsilon = 1e-15

// AccuracyScore は正解率（一致したラベルの割合）を計算する
func AccuracyScore(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("AccuracyScore", "empty label vector")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("AccuracyScore", n, len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix は K×K の混同行列を返す。行が正解ラベル、列が予測ラベル。
func ConfusionMatrix(yTrue, yPred []int, numClasses int) (*mat.Dense, error) {
	n := len(yTrue)
	if n == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty label vector")
	}
	if len(yPred) != n {
		return nil, errors.NewDimensionError("ConfusionMatrix", n, len(yPred), 0)
	}
	if numClasses < 1 {
		return nil, errors.ErrNoClasses
	}

	cm := mat.NewDense(numClasses, numClasses, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= numClasses {
			return nil, errors.NewLabelRangeError(i, t, numClasses)
		}
		if p < 0 || p >= numClasses {
			return nil, errors.NewLabelRangeError(i, p, numClasses)
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

// LogLoss は多クラスの交差エントロピー損失を計算する。
// probs は n×K の確率行列で、列は昇順のクラスに対応する。
func LogLoss(yTrue []int, probs mat.Matrix) (float64, error) {
	n, k := probs.Dims()
	if len(yTrue) == 0 || n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty input")
	}
	if len(yTrue) != n {
		return 0, errors.NewDimensionError("LogLoss", len(yTrue), n, 0)
	}

	var sum float64
	for i, y := range yTrue {
		if y < 0 || y >= k {
			return 0, errors.NewLabelRangeError(i, y, k)
		}
		p := errors.ClipValue(probs.At(i, y), logLossEpsilon, 1-logLossEpsilon)
		sum -= math.Log(p)
	}
	return sum / float64(n), nil
}

// ColumnLabels は n×1 の行列からラベルを取り出す
func ColumnLabels(y mat.Matrix) ([]int, error) {
	r, c := y.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError("ColumnLabels", 1, c, 1)
	}
	out := make([]int, r)
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) {
			return nil, errors.NewValueError("ColumnLabels", "labels must be integers")
		}
		out[i] = int(v)
	}
	return out, nil
}

// LabelColumn はラベルを n×1 の行列に変換する
func LabelColumn(labels []int) *mat.Dense {
	data := make([]float64, len(labels))
	for i, l := range labels {
		data[i] = float64(l)
	}
	return mat.NewDense(len(labels), 1, data)
}
