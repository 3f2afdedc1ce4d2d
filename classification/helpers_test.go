package classification

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/core/model"
	"github.com/YuminosukeSato/cleango/metrics"
	"github.com/YuminosukeSato/cleango/pkg/errors"
)

var (
	centers = [][2]float64{{-2, 0}, {2, 0}, {0, 2}}
	// outward points away from the other two centers
	outward = [][2]float64{{-0.95, -0.32}, {0.95, -0.32}, {0, 1}}
)

// noisyBlobs returns perClass points around each center. The last two
// points of every class sit on the far side of their blob and are labeled
// (class+1)%3; their indices are returned as corrupted.
func noisyBlobs(perClass int) (X *mat.Dense, labels, truth, corrupted []int) {
	n := perClass * len(centers)
	X = mat.NewDense(n, 2, nil)
	labels = make([]int, n)
	truth = make([]int, n)
	for c, ctr := range centers {
		for i := 0; i < perClass; i++ {
			r := c*perClass + i
			x := ctr[0] + 0.3*math.Sin(float64(r)*1.7)
			y := ctr[1] + 0.3*math.Cos(float64(r)*2.3)
			labels[r] = c
			if i >= perClass-2 {
				x = ctr[0] + 0.6*outward[c][0] + 0.1*float64(i-perClass+2)
				y = ctr[1] + 0.6*outward[c][1]
				labels[r] = (c + 1) % 3
				corrupted = append(corrupted, r)
			}
			X.Set(r, 0, x)
			X.Set(r, 1, y)
			truth[r] = c
		}
	}
	return X, labels, truth, corrupted
}

// oracle predicts 0.9 for the class stored in the first feature column and
// spreads the rest evenly. It records the labels it was trained on.
type oracle struct {
	k       int
	trained []int
	failFit bool
}

func (o *oracle) Clone() model.Classifier {
	return &oracle{k: o.k, failFit: o.failFit}
}

func (o *oracle) Fit(_, y mat.Matrix) error {
	if o.failFit {
		return errors.New("fit failed")
	}
	labels, err := metrics.ColumnLabels(y)
	if err != nil {
		return err
	}
	o.trained = labels
	return nil
}

func (o *oracle) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, o.k, nil)
	rest := 0.1 / float64(o.k-1)
	for i := 0; i < n; i++ {
		for j := 0; j < o.k; j++ {
			out.Set(i, j, rest)
		}
		out.Set(i, int(X.At(i, 0)), 0.9)
	}
	return out, nil
}

func (o *oracle) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, X.At(i, 0))
	}
	return out, nil
}

// predictOnly lacks Clone.
type predictOnly struct{ oracle }

func (predictOnly) Clone() {}

func toSet(xs []int) map[int]bool {
	s := make(map[int]bool, len(xs))
	for _, x := range xs {
		s[x] = true
	}
	return s
}
