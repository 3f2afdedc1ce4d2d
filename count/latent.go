package count

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// Latent holds the noise-process estimates derived from a joint.
type Latent struct {
	// Prior is P(true = j), the column sums of the joint.
	Prior []float64
	// NoiseMatrix[i,j] is P(given = i | true = j).
	NoiseMatrix *mat.Dense
	// InverseNoiseMatrix[j,i] is P(true = j | given = i).
	InverseNoiseMatrix *mat.Dense
}

// EstimateLatent derives the true-label prior and both noise matrices from
// a joint distribution with given labels on rows. Empty rows or columns
// leave the matching entries at zero.
func EstimateLatent(joint mat.Matrix) *Latent {
	k, _ := joint.Dims()
	colSums := make([]float64, k)
	rowSums := make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			v := joint.At(i, j)
			rowSums[i] += v
			colSums[j] += v
		}
	}

	noise := mat.NewDense(k, k, nil)
	inverse := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			v := joint.At(i, j)
			noise.Set(i, j, errors.SafeDivide(v, colSums[j]))
			inverse.Set(j, i, errors.SafeDivide(v, rowSums[i]))
		}
	}
	return &Latent{Prior: colSums, NoiseMatrix: noise, InverseNoiseMatrix: inverse}
}

// NoiseRate returns the estimated fraction of examples whose given label
// differs from the true label, 1 - trace(joint).
func NoiseRate(joint mat.Matrix) float64 {
	return 1 - mat.Trace(joint)
}
