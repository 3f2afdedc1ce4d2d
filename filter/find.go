// Package filter turns label-quality scores into an issue mask and a
// severity ranking, in memory or over batches read from a BatchSource.
package filter

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/count"
	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/pkg/log"
	"github.com/YuminosukeSato/cleango/rank"
)

// Issues is the result of FindLabelIssues.
type Issues struct {
	// Mask flags every example considered a label issue.
	Mask []bool
	// RankedIndices lists the flagged examples from most to least severe.
	// It is nil unless WithRankedBy was given.
	RankedIndices []int
	// SelfConfidence holds the self-confidence score of every example.
	SelfConfidence []float64

	FilterBy FilterBy
	RankedBy rank.Method

	// Rule and Cutoff describe the active score cutoff. HasCutoff is false
	// for the policies that do not use one.
	Rule      ThresholdRule
	Cutoff    float64
	HasCutoff bool

	// Joint and EstimatedNumIssues are set by the confident_learning policy.
	Joint              *mat.Dense
	EstimatedNumIssues int
}

// NumIssues returns the number of flagged examples.
func (is *Issues) NumIssues() int {
	n := 0
	for _, m := range is.Mask {
		if m {
			n++
		}
	}
	return n
}

// Indices returns the flagged example indices in ascending order.
func (is *Issues) Indices() []int {
	out := make([]int, 0, is.NumIssues())
	for i, m := range is.Mask {
		if m {
			out = append(out, i)
		}
	}
	return out
}

// FindLabelIssues flags likely label issues given labels and out-of-sample
// predicted probabilities (N×K). Every row is validated before any policy
// runs; the first offending row index is reported in the error. The result
// is a deterministic function of the inputs and options.
func FindLabelIssues(labels []int, predProbs mat.Matrix, opts ...Option) (*Issues, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	n, k := predProbs.Dims()
	if len(labels) == 0 || n == 0 {
		return nil, errors.ErrEmptyData
	}
	if k == 0 {
		return nil, errors.ErrNoClasses
	}
	if n != len(labels) {
		return nil, errors.NewDimensionError("filter.FindLabelIssues", len(labels), n, 0)
	}

	logger := cfg.logger.With(
		log.OperationKey, log.OperationFindLabelIssues,
		log.FilterByKey, cfg.filterBy.String(),
	)

	selfConf, err := rank.ScoreDataset(labels, predProbs, rank.SelfConfidence,
		rank.WithTolerance(cfg.tolerance), rank.WithWorkers(cfg.nJobs))
	if err != nil {
		return nil, err
	}

	issues := &Issues{
		SelfConfidence: selfConf,
		FilterBy:       cfg.filterBy,
		RankedBy:       cfg.rankedBy,
		Rule:           cfg.rule,
	}
	predicted := dataset.PredictedLabels(predProbs)

	switch cfg.filterBy {
	case LowSelfConfidence:
		issues.Cutoff = Cutoff(selfConf, cfg.rule, cfg.numStdDevs, cfg.quantile)
		issues.HasCutoff = true
		issues.Mask = make([]bool, n)
		for i, s := range selfConf {
			issues.Mask[i] = s < issues.Cutoff
		}

	case LowNormalizedMargin:
		margins, err := rank.ScoreDataset(labels, predProbs, rank.NormalizedMargin,
			rank.WithTolerance(cfg.tolerance), rank.WithWorkers(cfg.nJobs))
		if err != nil {
			return nil, err
		}
		issues.Cutoff = Cutoff(margins, cfg.rule, cfg.numStdDevs, cfg.quantile)
		issues.HasCutoff = true
		issues.Mask = make([]bool, n)
		for i, m := range margins {
			issues.Mask[i] = predicted[i] != labels[i] && m < issues.Cutoff
		}

	case PredictedNeqGiven:
		issues.Mask = make([]bool, n)
		for i := range labels {
			issues.Mask[i] = predicted[i] != labels[i]
		}

	case ConfidentLearning:
		if err := confidentLearning(issues, labels, predProbs, predicted, cfg); err != nil {
			return nil, err
		}

	default:
		return nil, errors.NewValidationError("filter_by", "unknown filter policy", int(cfg.filterBy))
	}

	if cfg.ranked {
		ranked, err := rank.OrderLabelIssues(issues.Mask, labels, predProbs, cfg.rankedBy,
			rank.WithTolerance(cfg.tolerance))
		if err != nil {
			return nil, err
		}
		issues.RankedIndices = ranked
	}

	fields := []any{
		log.SamplesKey, n,
		log.ClassesKey, k,
		log.IssuesCountKey, issues.NumIssues(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	if issues.HasCutoff {
		fields = append(fields, log.ThresholdRuleKey, issues.Rule.String(), log.CutoffKey, issues.Cutoff)
	}
	if cfg.filterBy == ConfidentLearning {
		fields = append(fields, log.IssuesEstimatedKey, issues.EstimatedNumIssues)
	}
	logger.Info("label issues found", fields...)
	return issues, nil
}

// confidentLearning fills issues.Mask by removing, in every given class i,
// the RemovalCounts[i] lowest self-confidence examples predicted as another
// class.
func confidentLearning(issues *Issues, labels []int, predProbs mat.Matrix, predicted []int, cfg *config) error {
	_, k := predProbs.Dims()
	thresholds, err := count.ComputeThresholds(labels, predProbs, cfg.basis)
	if err != nil {
		return err
	}
	cj := count.NewConfidentJoint(k)
	if err := cj.Add(labels, predProbs, thresholds); err != nil {
		return err
	}
	joint, err := cj.Joint()
	if err != nil {
		return err
	}
	n := len(labels)
	removal := count.RemovalCounts(joint, cj.LabelCounts(), n)

	heaps := newClassHeaps(removal)
	for i, l := range labels {
		if predicted[i] != l {
			heaps[l].offer(candidate{index: i, sel: issues.SelfConfidence[i]})
		}
	}

	issues.Mask = make([]bool, n)
	for _, h := range heaps {
		for _, c := range h.items {
			issues.Mask[c.index] = true
		}
	}
	issues.Joint = joint
	issues.EstimatedNumIssues = count.NumLabelIssues(joint, n)
	return nil
}

func newClassHeaps(capacities []int) []*boundedHeap {
	heaps := make([]*boundedHeap, len(capacities))
	for i, c := range capacities {
		heaps[i] = newBoundedHeap(c)
	}
	return heaps
}
