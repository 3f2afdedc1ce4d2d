// Package config loads the YAML settings file of the cleango command.
package config

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/cleango/count"
	"github.com/YuminosukeSato/cleango/filter"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/pkg/log"
	"github.com/YuminosukeSato/cleango/rank"
)

const fileMode = 0600

// Config holds every setting a cleango run can take from a file. Flags given
// on the command line override the file.
type Config struct {
	CVNFolds       int     `yaml:"cv_n_folds"`
	Seed           uint64  `yaml:"seed"`
	NJobs          int     `yaml:"n_jobs"`
	FilterBy       string  `yaml:"filter_by"`
	RankBy         string  `yaml:"rank_by"`
	ThresholdRule  string  `yaml:"threshold_rule"`
	ThresholdBasis string  `yaml:"threshold_basis"`
	NumStdDevs     float64 `yaml:"num_std_devs"`
	Quantile       float64 `yaml:"quantile"`
	BatchSize      int     `yaml:"batch_size"`
	LogLevel       string  `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		CVNFolds:       5,
		NJobs:          1,
		FilterBy:       filter.ConfidentLearning.String(),
		RankBy:         rank.SelfConfidence.String(),
		ThresholdRule:  filter.RuleStdDev.String(),
		ThresholdBasis: count.BasisPredicted.String(),
		NumStdDevs:     filter.DefaultNumStdDevs,
		Quantile:       filter.DefaultQuantile,
		BatchSize:      filter.DefaultBatchSize,
		LogLevel:       "info",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening config file: %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes YAML from r over the defaults and validates the result.
func Read(r io.Reader) (*Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "error unmarshalling config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c to path as YAML.
func Save(path string, c *Config) error {
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}

// Validate rejects out-of-range or unknown values with a ValidationError.
func (c *Config) Validate() error {
	if c.CVNFolds < 2 || c.CVNFolds > 20 {
		return errors.NewValidationError("cv_n_folds", "must be between 2 and 20", c.CVNFolds)
	}
	if c.BatchSize < 1 {
		return errors.NewValidationError("batch_size", "must be positive", c.BatchSize)
	}
	if c.NumStdDevs < 0 {
		return errors.NewValidationError("num_std_devs", "must not be negative", c.NumStdDevs)
	}
	if c.Quantile <= 0 || c.Quantile >= 1 {
		return errors.NewValidationError("quantile", "must be in (0, 1)", c.Quantile)
	}
	if _, err := filter.ParseFilterBy(c.FilterBy); err != nil {
		return err
	}
	if _, err := rank.ParseMethod(c.RankBy); err != nil {
		return err
	}
	if _, err := filter.ParseThresholdRule(c.ThresholdRule); err != nil {
		return err
	}
	if _, err := count.ParseBasis(c.ThresholdBasis); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", "must be debug, info, warn or error", c.LogLevel)
	}
	return nil
}

// FilterOptions converts the issue-selection settings into filter options.
// Validate must have succeeded.
func (c *Config) FilterOptions() []filter.Option {
	filterBy, _ := filter.ParseFilterBy(c.FilterBy)
	rankBy, _ := rank.ParseMethod(c.RankBy)
	rule, _ := filter.ParseThresholdRule(c.ThresholdRule)
	basis, _ := count.ParseBasis(c.ThresholdBasis)
	opts := []filter.Option{
		filter.WithFilterBy(filterBy),
		filter.WithThresholdRule(rule),
		filter.WithThresholdBasis(basis),
		filter.WithNumStdDevs(c.NumStdDevs),
		filter.WithQuantile(c.Quantile),
		filter.WithNJobs(c.NJobs),
	}
	return append(opts, filter.WithRankedBy(rankBy))
}
