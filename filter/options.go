package filter

import (
	"strings"

	"github.com/YuminosukeSato/cleango/count"
	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/pkg/log"
	"github.com/YuminosukeSato/cleango/rank"
)

// FilterBy selects the policy that turns scores into an issue mask.
type FilterBy int

const (
	// ConfidentLearning flags, per given class, the estimated number of
	// mislabeled examples among those whose argmax differs from the label.
	ConfidentLearning FilterBy = iota
	// LowSelfConfidence flags examples whose self-confidence is below the cutoff.
	LowSelfConfidence
	// LowNormalizedMargin flags examples whose argmax differs from the label
	// and whose normalized margin is below the cutoff.
	LowNormalizedMargin
	// PredictedNeqGiven flags every example whose argmax differs from the label.
	PredictedNeqGiven
)

var filterNames = [...]string{
	ConfidentLearning:   "confident_learning",
	LowSelfConfidence:   "low_self_confidence",
	LowNormalizedMargin: "low_normalized_margin",
	PredictedNeqGiven:   "predicted_neq_given",
}

// String returns the snake_case policy name.
func (f FilterBy) String() string {
	if f < 0 || int(f) >= len(filterNames) {
		return "unknown"
	}
	return filterNames[f]
}

// ParseFilterBy parses a policy name. The empty string selects ConfidentLearning.
func ParseFilterBy(s string) (FilterBy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ConfidentLearning, nil
	}
	for i, name := range filterNames {
		if name == s {
			return FilterBy(i), nil
		}
	}
	return ConfidentLearning, errors.NewValidationError("filter_by", "unknown filter policy", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f FilterBy) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ThresholdRule selects how the score cutoff is derived from the scores.
type ThresholdRule int

const (
	// RuleStdDev uses mean - numStdDevs*std, clipped to [0, median].
	RuleStdDev ThresholdRule = iota
	// RuleQuantile uses a fixed low quantile of the scores.
	RuleQuantile
)

// String returns the config name of the rule.
func (r ThresholdRule) String() string {
	switch r {
	case RuleStdDev:
		return "std_dev"
	case RuleQuantile:
		return "quantile"
	default:
		return "unknown"
	}
}

// ParseThresholdRule parses "std_dev" or "quantile". The empty string
// selects RuleStdDev.
func ParseThresholdRule(s string) (ThresholdRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "std_dev":
		return RuleStdDev, nil
	case "quantile":
		return RuleQuantile, nil
	default:
		return RuleStdDev, errors.NewValidationError("threshold_rule", "must be std_dev or quantile", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r ThresholdRule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

const (
	// DefaultNumStdDevs is the std_dev rule multiplier.
	DefaultNumStdDevs = 1.0
	// DefaultQuantile is the quantile rule level.
	DefaultQuantile = 0.05
)

type config struct {
	filterBy   FilterBy
	rankedBy   rank.Method
	ranked     bool
	rule       ThresholdRule
	numStdDevs float64
	quantile   float64
	basis      count.Basis
	nJobs      int
	tolerance  float64
	logger     log.Logger
}

// Option configures FindLabelIssues and the batched finder.
type Option func(*config)

// WithFilterBy sets the issue policy.
func WithFilterBy(f FilterBy) Option {
	return func(c *config) {
		c.filterBy = f
	}
}

// WithRankedBy requests RankedIndices ordered by the given score.
func WithRankedBy(m rank.Method) Option {
	return func(c *config) {
		c.rankedBy = m
		c.ranked = true
	}
}

// WithThresholdRule sets the cutoff rule of the score-based policies.
func WithThresholdRule(r ThresholdRule) Option {
	return func(c *config) {
		c.rule = r
	}
}

// WithNumStdDevs sets the std_dev rule multiplier.
func WithNumStdDevs(k float64) Option {
	return func(c *config) {
		c.numStdDevs = k
	}
}

// WithQuantile sets the quantile rule level in (0, 1).
func WithQuantile(q float64) Option {
	return func(c *config) {
		c.quantile = q
	}
}

// WithThresholdBasis selects the examples averaged into per-class thresholds.
func WithThresholdBasis(b count.Basis) Option {
	return func(c *config) {
		c.basis = b
	}
}

// WithNJobs sets the number of goroutines used for scoring. Values below 1
// mean one per CPU core.
func WithNJobs(n int) Option {
	return func(c *config) {
		c.nJobs = n
	}
}

// WithTolerance sets the allowed deviation of a row sum from 1.
func WithTolerance(tol float64) Option {
	return func(c *config) {
		c.tolerance = tol
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(opts []Option) (*config, error) {
	c := &config{
		filterBy:   ConfidentLearning,
		rankedBy:   rank.SelfConfidence,
		rule:       RuleStdDev,
		numStdDevs: DefaultNumStdDevs,
		quantile:   DefaultQuantile,
		basis:      count.BasisPredicted,
		nJobs:      1,
		tolerance:  dataset.DefaultTolerance,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("filter")
	}
	if c.numStdDevs < 0 {
		return nil, errors.NewValidationError("num_std_devs", "must be non-negative", c.numStdDevs)
	}
	if c.quantile <= 0 || c.quantile >= 1 {
		return nil, errors.NewValidationError("quantile", "must be in (0, 1)", c.quantile)
	}
	if c.tolerance <= 0 {
		return nil, errors.NewValidationError("tolerance", "must be positive", c.tolerance)
	}
	return c, nil
}
