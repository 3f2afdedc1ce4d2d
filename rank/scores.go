// Package rank computes per-example label-quality scores from given labels
// and out-of-sample predicted probabilities, and orders examples by them.
//
// Every score lies in [0, 1]; lower means the given label is more likely
// wrong.
package rank

import (
	"math"

	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// entropyFloor clips the normalized entropy and the self-confidence before
// dividing one by the other.
const entropyFloor = 1e-6

type scoreConfig struct {
	renormalize bool
	tolerance   float64
	workers     int
}

// ScoreOption configures score computation.
type ScoreOption func(*scoreConfig)

// WithRenormalize divides rows by their sum instead of rejecting rows whose
// sum deviates from 1. Negative or non-finite entries are always rejected.
func WithRenormalize(renormalize bool) ScoreOption {
	return func(c *scoreConfig) {
		c.renormalize = renormalize
	}
}

// WithTolerance sets the allowed deviation of a row sum from 1.
func WithTolerance(tol float64) ScoreOption {
	return func(c *scoreConfig) {
		c.tolerance = tol
	}
}

// WithWorkers sets the number of goroutines ScoreDataset may use. Values
// below 1 mean one per CPU core.
func WithWorkers(n int) ScoreOption {
	return func(c *scoreConfig) {
		c.workers = n
	}
}

func newScoreConfig(opts []ScoreOption) scoreConfig {
	c := scoreConfig{tolerance: dataset.DefaultTolerance}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// prepareRow validates label and probs and returns the row to score, which
// is a renormalized copy when renormalization applies.
func prepareRow(index, label int, probs []float64, c *scoreConfig) ([]float64, error) {
	k := len(probs)
	if k == 0 {
		return nil, errors.ErrNoClasses
	}
	if label < 0 || label >= k {
		return nil, errors.NewLabelRangeError(index, label, k)
	}
	sum, err := dataset.CheckRow(index, probs, k)
	if err != nil {
		return nil, err
	}
	if math.Abs(sum-1) <= c.tolerance {
		return probs, nil
	}
	if !c.renormalize || sum == 0 {
		return nil, dataset.CheckRowSum(index, sum, k, c.tolerance)
	}
	out := make([]float64, k)
	for j, p := range probs {
		out[j] = p / sum
	}
	return out, nil
}

// SelfConfidenceScore returns probs[label].
func SelfConfidenceScore(label int, probs []float64, opts ...ScoreOption) (float64, error) {
	c := newScoreConfig(opts)
	row, err := prepareRow(0, label, probs, &c)
	if err != nil {
		return 0, err
	}
	return selfConfidence(label, row), nil
}

// NormalizedMarginScore returns (probs[label] - max_{j≠label} probs[j] + 1) / 2.
func NormalizedMarginScore(label int, probs []float64, opts ...ScoreOption) (float64, error) {
	c := newScoreConfig(opts)
	row, err := prepareRow(0, label, probs, &c)
	if err != nil {
		return 0, err
	}
	return normalizedMargin(label, row), nil
}

// ConfidenceWeightedEntropyScore returns log(x+1)/x with
// x = normalized_entropy(probs) / probs[label].
func ConfidenceWeightedEntropyScore(label int, probs []float64, opts ...ScoreOption) (float64, error) {
	c := newScoreConfig(opts)
	row, err := prepareRow(0, label, probs, &c)
	if err != nil {
		return 0, err
	}
	return confidenceWeightedEntropy(label, row), nil
}

func selfConfidence(label int, probs []float64) float64 {
	return probs[label]
}

func normalizedMargin(label int, probs []float64) float64 {
	other := 0.0
	if len(probs) > 1 {
		other = math.Inf(-1)
		for j, p := range probs {
			if j != label && p > other {
				other = p
			}
		}
	}
	return (probs[label] - other + 1) / 2
}

func normalizedEntropy(probs []float64) float64 {
	if len(probs) < 2 {
		return 0
	}
	h := 0.0
	for _, p := range probs {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h / math.Log(float64(len(probs)))
}

func confidenceWeightedEntropy(label int, probs []float64) float64 {
	h := normalizedEntropy(probs)
	if h <= 0 {
		return 1
	}
	x := math.Max(h, entropyFloor) / math.Max(probs[label], entropyFloor)
	return math.Log(x+1) / x
}

func scoreFunc(m Method) (func(int, []float64) float64, error) {
	switch m {
	case SelfConfidence:
		return selfConfidence, nil
	case NormalizedMargin:
		return normalizedMargin, nil
	case ConfidenceWeightedEntropy:
		return confidenceWeightedEntropy, nil
	default:
		return nil, errors.NewValidationError("ranked_by", "unknown scoring method", int(m))
	}
}
