package filter

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Cutoff returns the score below which examples are flagged under rule.
// The std_dev rule yields mean - numStdDevs*std clipped to [0, median];
// the quantile rule yields the linearly interpolated q-quantile.
func Cutoff(scores []float64, rule ThresholdRule, numStdDevs, q float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := slices.Clone(scores)
	slices.Sort(sorted)

	if rule == RuleQuantile {
		return stat.Quantile(q, stat.LinInterp, sorted, nil)
	}

	mean, std := stat.MeanStdDev(sorted, nil)
	if math.IsNaN(std) {
		std = 0
	}
	cut := mean - numStdDevs*std
	return math.Max(0, math.Min(cut, median(sorted)))
}

// median of sorted values, averaging the middle pair for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
