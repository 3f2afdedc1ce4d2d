package classification

import (
	"github.com/YuminosukeSato/cleango/filter"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/pkg/log"
	"github.com/YuminosukeSato/cleango/rank"
)

const (
	// DefaultCVNFolds is the number of cross-validation folds used to
	// estimate out-of-sample probabilities.
	DefaultCVNFolds = 5
	minCVNFolds     = 2
	maxCVNFolds     = 20
)

type config struct {
	cvNFolds      int
	seed          uint64
	nJobs         int
	findOpts      []filter.Option
	qualityMethod rank.Method
	strict        bool
	logger        log.Logger
}

// Option configures a CleanLearning.
type Option func(*config)

// WithCVNFolds sets the number of cross-validation folds (2..20).
func WithCVNFolds(n int) Option {
	return func(c *config) {
		c.cvNFolds = n
	}
}

// WithSeed seeds the fold shuffle. The same seed, data and classifier give
// the same folds.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithNJobs bounds the number of folds trained concurrently. n < 1 uses all
// CPUs; 1 trains the folds one after another.
func WithNJobs(n int) Option {
	return func(c *config) {
		c.nJobs = n
	}
}

// WithFindIssuesOptions passes options through to filter.FindLabelIssues.
func WithFindIssuesOptions(opts ...filter.Option) Option {
	return func(c *config) {
		c.findOpts = append(c.findOpts, opts...)
	}
}

// WithQualityMethod selects the score reported as LabelQuality.
func WithQualityMethod(m rank.Method) Option {
	return func(c *config) {
		c.qualityMethod = m
	}
}

// WithStrictClassRetention makes Fit fail with EmptyClassAfterFilteringError
// instead of keeping one example of a class every member of which was
// flagged.
func WithStrictClassRetention(strict bool) Option {
	return func(c *config) {
		c.strict = strict
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
		cvNFolds:      DefaultCVNFolds,
		nJobs:         1,
		qualityMethod: rank.SelfConfidence,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cvNFolds < minCVNFolds || c.cvNFolds > maxCVNFolds {
		return nil, errors.NewValidationError("cv_n_folds", "must be between 2 and 20", c.cvNFolds)
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("classification")
	}
	return c, nil
}
