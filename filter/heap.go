package filter

import (
	"container/heap"
	"slices"
)

// candidate is a flagged-example candidate. sel orders selection, score
// orders the final ranking.
type candidate struct {
	index int
	sel   float64
	score float64
}

// worse reports whether a should be evicted before b: a larger selection
// score, and on ties the larger index.
func worse(a, b candidate) bool {
	if a.sel != b.sel {
		return a.sel > b.sel
	}
	return a.index > b.index
}

// boundedHeap keeps the capacity lowest candidates seen. Its root is the
// worst kept candidate.
type boundedHeap struct {
	capacity int
	items    []candidate
}

func newBoundedHeap(capacity int) *boundedHeap {
	return &boundedHeap{capacity: capacity}
}

func (h *boundedHeap) Len() int           { return len(h.items) }
func (h *boundedHeap) Less(i, j int) bool { return worse(h.items[i], h.items[j]) }
func (h *boundedHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *boundedHeap) Push(x any)         { h.items = append(h.items, x.(candidate)) }

func (h *boundedHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// offer adds c if it is among the capacity lowest seen so far.
func (h *boundedHeap) offer(c candidate) {
	if h.capacity <= 0 {
		return
	}
	if len(h.items) < h.capacity {
		heap.Push(h, c)
		return
	}
	if worse(h.items[0], c) {
		h.items[0] = c
		heap.Fix(h, 0)
	}
}

// merge offers every candidate of other. The kept set equals the lowest
// capacity of the union.
func (h *boundedHeap) merge(other *boundedHeap) {
	for _, c := range other.items {
		h.offer(c)
	}
}

// rankCandidates orders candidates by ascending score, ties by index.
func rankCandidates(cs []candidate) []int {
	sorted := slices.Clone(cs)
	slices.SortFunc(sorted, func(a, b candidate) int {
		switch {
		case a.score < b.score:
			return -1
		case a.score > b.score:
			return 1
		default:
			return a.index - b.index
		}
	})
	out := make([]int, len(sorted))
	for i, c := range sorted {
		out[i] = c.index
	}
	return out
}
