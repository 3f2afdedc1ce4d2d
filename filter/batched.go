package filter

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/core/parallel"
	"github.com/YuminosukeSato/cleango/count"
	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/pkg/log"
	"github.com/YuminosukeSato/cleango/rank"
)

// DefaultBatchSize is the row count of one batch when none is given.
const DefaultBatchSize = 10000

// Batch is a contiguous run of rows starting at global row Start.
type Batch struct {
	Start  int
	Labels []int
	Probs  mat.Matrix
}

type batchedPhase int

const (
	phaseThresholds batchedPhase = iota
	phaseJoint
	phaseScoring
)

// LabelIssuesBatched finds confident-learning label issues over data that
// arrives in batches. It makes three passes: per-class thresholds, the
// confident joint, then per-class candidate selection. Only O(K²) counts
// and the per-class candidate heaps, whose total size is the number of
// issues, persist between batches.
//
// A LabelIssuesBatched is not safe for concurrent use. Parallel drivers
// give each worker its own shard (see Shard) and Merge them.
type LabelIssuesBatched struct {
	k     int
	cfg   *config
	phase batchedPhase

	thresholdAcc *count.PerClassThresholds
	thresholds   []float64

	joint    *count.ConfidentJoint
	jointEst *mat.Dense
	removal  []int

	heaps []*boundedHeap
}

// NewLabelIssuesBatched creates a finder for numClasses classes. Only the
// threshold, ranking and logging options apply.
func NewLabelIssuesBatched(numClasses int, opts ...Option) (*LabelIssuesBatched, error) {
	if numClasses < 1 {
		return nil, errors.ErrNoClasses
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &LabelIssuesBatched{
		k:            numClasses,
		cfg:          cfg,
		thresholdAcc: count.NewPerClassThresholds(numClasses, cfg.basis),
	}, nil
}

// Shard returns an empty accumulator for the current pass that can be fed
// independently and merged back with Merge.
func (l *LabelIssuesBatched) Shard() *LabelIssuesBatched {
	s := &LabelIssuesBatched{
		k:          l.k,
		cfg:        l.cfg,
		phase:      l.phase,
		thresholds: l.thresholds,
		removal:    l.removal,
	}
	switch l.phase {
	case phaseThresholds:
		s.thresholdAcc = count.NewPerClassThresholds(l.k, l.cfg.basis)
	case phaseJoint:
		s.joint = count.NewConfidentJoint(l.k)
	case phaseScoring:
		s.heaps = newClassHeaps(l.removal)
	}
	return s
}

// Merge folds the state of a shard of the same pass into l.
func (l *LabelIssuesBatched) Merge(shard *LabelIssuesBatched) error {
	if shard.phase != l.phase || shard.k != l.k {
		return errors.NewValueError("filter.LabelIssuesBatched.Merge", "shard belongs to a different pass")
	}
	switch l.phase {
	case phaseThresholds:
		return l.thresholdAcc.Merge(shard.thresholdAcc)
	case phaseJoint:
		return l.joint.Merge(shard.joint)
	default:
		for i, h := range l.heaps {
			h.merge(shard.heaps[i])
		}
		return nil
	}
}

func (l *LabelIssuesBatched) validate(b Batch) error {
	n, k := b.Probs.Dims()
	if k != l.k {
		return errors.NewProbabilityWidthError(b.Start, k, l.k)
	}
	if n != len(b.Labels) {
		return errors.NewDimensionError("filter.LabelIssuesBatched", len(b.Labels), n, 0)
	}
	row := make([]float64, k)
	for i := 0; i < n; i++ {
		idx := b.Start + i
		if lbl := b.Labels[i]; lbl < 0 || lbl >= k {
			return errors.NewLabelRangeError(idx, lbl, k)
		}
		if err := dataset.ValidateRow(idx, mat.Row(row, i, b.Probs), k, l.cfg.tolerance); err != nil {
			return err
		}
	}
	return nil
}

func (l *LabelIssuesBatched) requirePhase(p batchedPhase, op string) error {
	if l.phase != p {
		return errors.NewValueError("filter.LabelIssuesBatched."+op, "called out of order")
	}
	return nil
}

// UpdateThresholds accumulates one batch into the per-class thresholds.
func (l *LabelIssuesBatched) UpdateThresholds(b Batch) error {
	if err := l.requirePhase(phaseThresholds, "UpdateThresholds"); err != nil {
		return err
	}
	if err := l.validate(b); err != nil {
		return err
	}
	return l.thresholdAcc.Add(b.Labels, b.Probs)
}

// FinalizeThresholds computes the thresholds and starts the joint pass.
func (l *LabelIssuesBatched) FinalizeThresholds() ([]float64, error) {
	if err := l.requirePhase(phaseThresholds, "FinalizeThresholds"); err != nil {
		return nil, err
	}
	thr, err := l.thresholdAcc.Thresholds()
	if err != nil {
		return nil, err
	}
	l.thresholds = thr
	l.thresholdAcc = nil
	l.joint = count.NewConfidentJoint(l.k)
	l.phase = phaseJoint
	return thr, nil
}

// UpdateConfidentJoint counts one batch into the confident joint.
func (l *LabelIssuesBatched) UpdateConfidentJoint(b Batch) error {
	if err := l.requirePhase(phaseJoint, "UpdateConfidentJoint"); err != nil {
		return err
	}
	if err := l.validate(b); err != nil {
		return err
	}
	return l.joint.Add(b.Labels, b.Probs, l.thresholds)
}

// FinalizeJoint estimates the joint and the per-class removal counts and
// starts the scoring pass. It returns the estimated number of issues.
func (l *LabelIssuesBatched) FinalizeJoint() (int, error) {
	if err := l.requirePhase(phaseJoint, "FinalizeJoint"); err != nil {
		return 0, err
	}
	joint, err := l.joint.Joint()
	if err != nil {
		return 0, err
	}
	n := l.joint.NumExamples()
	l.jointEst = joint
	l.removal = count.RemovalCounts(joint, l.joint.LabelCounts(), n)
	l.heaps = newClassHeaps(l.removal)
	l.phase = phaseScoring
	return count.NumLabelIssues(joint, n), nil
}

// Joint returns the estimated joint after FinalizeJoint, or nil.
func (l *LabelIssuesBatched) Joint() *mat.Dense {
	return l.jointEst
}

// ScoreLabelIssues offers the examples of one batch to the candidate heaps.
func (l *LabelIssuesBatched) ScoreLabelIssues(b Batch) error {
	if err := l.requirePhase(phaseScoring, "ScoreLabelIssues"); err != nil {
		return err
	}
	if err := l.validate(b); err != nil {
		return err
	}
	rankScore, err := rank.ScoreDataset(b.Labels, b.Probs, l.cfg.rankedBy,
		rank.WithTolerance(l.cfg.tolerance), rank.WithWorkers(1))
	if err != nil {
		return err
	}
	n, k := b.Probs.Dims()
	row := make([]float64, k)
	for i := 0; i < n; i++ {
		mat.Row(row, i, b.Probs)
		given := b.Labels[i]
		if dataset.ArgMax(row) == given {
			continue
		}
		l.heaps[given].offer(candidate{index: b.Start + i, sel: row[given], score: rankScore[i]})
	}
	return nil
}

// LabelIssues returns the flagged indices, most severe first.
func (l *LabelIssuesBatched) LabelIssues() []int {
	var all []candidate
	for _, h := range l.heaps {
		all = append(all, h.items...)
	}
	return rankCandidates(all)
}

// FindLabelIssuesBatched runs the three passes of LabelIssuesBatched over
// src in batches of batchSize rows. With nJobs > 1 each worker owns a
// contiguous shard of batches and the shard accumulators are merged after
// every pass. The first failing batch cancels the others and is reported as
// a ChunkError. Values of nJobs below 1 mean one worker per CPU core.
func FindLabelIssuesBatched(ctx context.Context, src dataset.BatchSource, batchSize, nJobs int, opts ...Option) ([]int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if nJobs < 1 {
		nJobs = runtime.NumCPU()
	}
	finder, err := NewLabelIssuesBatched(src.NumClasses(), opts...)
	if err != nil {
		return nil, err
	}
	n := src.NumRows()
	if n == 0 {
		return nil, errors.ErrEmptyData
	}
	start := time.Now()
	batches := parallel.Ranges(n, batchSize)
	if nJobs > len(batches) {
		nJobs = len(batches)
	}
	logger := finder.cfg.logger.With(
		log.OperationKey, log.OperationFindLabelIssues,
		log.PhaseKey, log.PhaseStreaming,
		log.BatchSizeKey, batchSize,
		log.WorkersKey, nJobs,
	)

	passes := []func(*LabelIssuesBatched, Batch) error{
		(*LabelIssuesBatched).UpdateThresholds,
		(*LabelIssuesBatched).UpdateConfidentJoint,
		(*LabelIssuesBatched).ScoreLabelIssues,
	}

	var estimated int
	for p, update := range passes {
		if err := runPass(ctx, finder, src, batches, nJobs, update); err != nil {
			return nil, err
		}
		switch p {
		case 0:
			if _, err := finder.FinalizeThresholds(); err != nil {
				return nil, err
			}
		case 1:
			if estimated, err = finder.FinalizeJoint(); err != nil {
				return nil, err
			}
		}
		logger.Debug("batched pass complete", "pass", p)
	}

	issues := finder.LabelIssues()
	logger.Info("label issues found",
		log.SamplesKey, n,
		log.ClassesKey, src.NumClasses(),
		log.IssuesCountKey, len(issues),
		log.IssuesEstimatedKey, estimated,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return issues, nil
}

func runPass(ctx context.Context, finder *LabelIssuesBatched, src dataset.BatchSource, batches [][2]int, workers int, update func(*LabelIssuesBatched, Batch) error) error {
	shards := make([]*LabelIssuesBatched, workers)
	per := (len(batches) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		shard := finder.Shard()
		shards[w] = shard
		lo, hi := w*per, min((w+1)*per, len(batches))
		g.Go(errors.SafeGo("filter.FindLabelIssuesBatched", func() error {
			for bi := lo; bi < hi; bi++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				r := batches[bi]
				labels, probs, err := src.Batch(r[0], r[1])
				if err != nil {
					return errors.NewChunkError(bi, r[0], r[1], err)
				}
				if err := update(shard, Batch{Start: r[0], Labels: labels, Probs: probs}); err != nil {
					return errors.NewChunkError(bi, r[0], r[1], err)
				}
			}
			return nil
		}))
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, s := range shards {
		if err := finder.Merge(s); err != nil {
			return err
		}
	}
	return nil
}
