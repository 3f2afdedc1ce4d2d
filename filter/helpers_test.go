package filter

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// corruptedIndices are relabeled in threeClassFixture.
var corruptedIndices = []int{3, 17, 28, 41}

// threeClassFixture returns 50 examples of 3 classes where the examples at
// corruptedIndices carry a wrong label while the model is confident in
// their true class.
func threeClassFixture() ([]int, *mat.Dense) {
	const n, k = 50, 3
	corrupted := make(map[int]bool)
	for _, i := range corruptedIndices {
		corrupted[i] = true
	}

	labels := make([]int, n)
	probs := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		truth := i % k
		row := probs.RawRowView(i)
		if corrupted[i] {
			labels[i] = (truth + 1) % k
			for j := range row {
				row[j] = 0.025
			}
			row[truth] = 0.95
			continue
		}
		labels[i] = truth
		p := 0.6 + 0.2*float64((i*7)%10)/9
		row[truth] = p
		row[(truth+1)%k] = (1 - p) * 0.6
		row[(truth+2)%k] = (1 - p) * 0.4
	}
	return labels, probs
}

// noisyFixture draws n examples over k classes with roughly noiseRate of
// the labels flipped to another class.
func noisyFixture(seed uint64, n, k int, noiseRate float64) ([]int, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	labels := make([]int, n)
	probs := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		truth := i % k
		row := probs.RawRowView(i)
		rest := 0.0
		for j := range row {
			if j != truth {
				row[j] = rng.Float64()
				rest += row[j]
			}
		}
		p := 0.45 + 0.5*rng.Float64()
		for j := range row {
			if j != truth {
				row[j] = row[j] / rest * (1 - p)
			}
		}
		row[truth] = p

		labels[i] = truth
		if rng.Float64() < noiseRate {
			labels[i] = (truth + 1 + rng.IntN(k-1)) % k
		}
	}
	return labels, probs
}

func toSet(idx []int) map[int]bool {
	s := make(map[int]bool, len(idx))
	for _, i := range idx {
		s[i] = true
	}
	return s
}
