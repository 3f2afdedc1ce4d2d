package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// MergedClasses is the result of MergeRareClasses.
type MergedClasses struct {
	Labels    []int
	PredProbs *mat.Dense

	// ClassMapping maps every original class to its merged class.
	ClassMapping []int
	// RareClasses lists the original classes folded into OtherClass,
	// ascending. It is empty when nothing was merged.
	RareClasses []int
	// OtherClass is the index of the merged class, or -1.
	OtherClass int
}

// NumClasses returns the number of columns after merging.
func (m *MergedClasses) NumClasses() int {
	_, c := m.PredProbs.Dims()
	return c
}

// MergeRareClasses folds every class with fewer than countThreshold examples
// into a single class appended as the last column. The remaining classes
// keep their relative order. The merged column is the sum of the rare
// columns, so rows still sum to 1 and the column count drops by
// len(RareClasses)-1. With fewer than two rare classes the inputs are
// returned unchanged (copied).
func MergeRareClasses(labels []int, predProbs mat.Matrix, countThreshold int) (*MergedClasses, error) {
	if countThreshold < 1 {
		return nil, errors.NewValidationError("count_threshold", "must be at least 1", countThreshold)
	}
	d, err := New(labels, predProbs)
	if err != nil {
		return nil, err
	}
	n, k := d.PredProbs.Dims()
	counts := d.LabelCounts()

	var rare []int
	for c, cnt := range counts {
		if cnt < countThreshold {
			rare = append(rare, c)
		}
	}

	mapping := make([]int, k)
	if len(rare) < 2 {
		for c := range mapping {
			mapping[c] = c
		}
		return &MergedClasses{
			Labels:       append([]int(nil), labels...),
			PredProbs:    mat.DenseCopyOf(d.PredProbs),
			ClassMapping: mapping,
			RareClasses:  []int{},
			OtherClass:   -1,
		}, nil
	}

	isRare := make([]bool, k)
	for _, c := range rare {
		isRare[c] = true
	}
	next := 0
	for c := 0; c < k; c++ {
		if !isRare[c] {
			mapping[c] = next
			next++
		}
	}
	other := next
	for _, c := range rare {
		mapping[c] = other
	}

	merged := mat.NewDense(n, other+1, nil)
	for i := 0; i < n; i++ {
		src := d.PredProbs.RawRowView(i)
		dst := merged.RawRowView(i)
		for c, p := range src {
			dst[mapping[c]] += p
		}
	}
	newLabels := make([]int, n)
	for i, l := range labels {
		newLabels[i] = mapping[l]
	}

	return &MergedClasses{
		Labels:       newLabels,
		PredProbs:    merged,
		ClassMapping: mapping,
		RareClasses:  rare,
		OtherClass:   other,
	}, nil
}
