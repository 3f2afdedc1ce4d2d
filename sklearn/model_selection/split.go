// Package model_selection provides K-fold splitters and out-of-sample
// probability estimation by cross-validation.
package model_selection

import (
	"math/rand/v2"
	"slices"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// Splitter defines interface for cross-validation splitters
type Splitter interface {
	// Split partitions the rows of y into folds. Every row appears in exactly
	// one TestIndices slice.
	Split(y []int) ([]CVFold, error)
	GetNSplits() int
}

// CVFold represents a single fold in cross-validation
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed uint64
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, randomSeed uint64) *KFold {
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold. Only len(y) is used.
func (kf *KFold) Split(y []int) ([]CVFold, error) {
	nSamples := len(y)
	if err := checkSplits(kf.NSplits, nSamples); err != nil {
		return nil, err
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		newRand(kf.RandomSeed).Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	foldOf := make([]int, nSamples)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits
	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		for _, idx := range indices[currentIdx : currentIdx+testSize] {
			foldOf[idx] = i
		}
		currentIdx += testSize
	}
	return buildFolds(foldOf, kf.NSplits), nil
}

// StratifiedKFold implements stratified k-fold cross-validation. Each fold
// receives a share of every class proportional to the class size.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed uint64
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed uint64) *StratifiedKFold {
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold.
//
// Classes are visited in ascending order and their members are dealt to the
// folds round-robin, continuing where the previous class stopped, so fold
// sizes differ by at most one.
func (skf *StratifiedKFold) Split(y []int) ([]CVFold, error) {
	nSamples := len(y)
	if err := checkSplits(skf.NSplits, nSamples); err != nil {
		return nil, err
	}

	classIndices := make(map[int][]int)
	for i, label := range y {
		classIndices[label] = append(classIndices[label], i)
	}
	classes := make([]int, 0, len(classIndices))
	for c := range classIndices {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	var r *rand.Rand
	if skf.Shuffle {
		r = newRand(skf.RandomSeed)
	}

	foldOf := make([]int, nSamples)
	next := 0
	for _, c := range classes {
		indices := classIndices[c]
		if r != nil {
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
		for _, idx := range indices {
			foldOf[idx] = next
			next = (next + 1) % skf.NSplits
		}
	}
	return buildFolds(foldOf, skf.NSplits), nil
}

// MinClassCount returns the size of the least populated class in y.
func MinClassCount(y []int) int {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	minCount := 0
	for _, c := range counts {
		if minCount == 0 || c < minCount {
			minCount = c
		}
	}
	return minCount
}

func checkSplits(nSplits, nSamples int) error {
	if nSplits < 2 {
		return errors.NewValidationError("n_splits", "must be at least 2", nSplits)
	}
	if nSamples < nSplits {
		return errors.NewValueError("Split",
			"cannot have number of splits greater than the number of samples")
	}
	return nil
}

// buildFolds turns a row→fold assignment into folds with ascending indices.
func buildFolds(foldOf []int, nSplits int) []CVFold {
	folds := make([]CVFold, nSplits)
	for i := range folds {
		folds[i] = CVFold{
			TrainIndices: make([]int, 0, len(foldOf)),
			TestIndices:  make([]int, 0, len(foldOf)/nSplits+1),
		}
	}
	for idx, f := range foldOf {
		for i := range folds {
			if i == f {
				folds[i].TestIndices = append(folds[i].TestIndices, idx)
			} else {
				folds[i].TrainIndices = append(folds[i].TrainIndices, idx)
			}
		}
	}
	return folds
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
