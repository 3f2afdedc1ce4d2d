package datalab

import (
	"context"
	"slices"
	"time"

	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/pkg/log"
)

// SummaryRow reports one issue type.
type SummaryRow struct {
	IssueType string  `json:"issue_type" yaml:"issue_type"`
	NumIssues int     `json:"num_issues" yaml:"num_issues"`
	Score     float64 `json:"score" yaml:"score"`
}

// Report holds the results of a Datalab run.
type Report struct {
	Results map[string]*IssueResult
	Summary []SummaryRow
}

// Datalab audits one dataset with the managers of a registry.
type Datalab struct {
	ds       *dataset.Dataset
	registry *Registry
	logger   log.Logger
}

// New creates a Datalab over ds. A nil registry gets the defaults.
func New(ds *dataset.Dataset, registry *Registry) (*Datalab, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
		if err := RegisterDefaults(registry); err != nil {
			return nil, err
		}
	}
	return &Datalab{ds: ds, registry: registry, logger: log.GetLoggerWithName("datalab")}, nil
}

// FindIssues runs the named managers, or all of them when names is empty,
// in ascending name order. The first failure aborts the run.
func (d *Datalab) FindIssues(ctx context.Context, names ...string) (*Report, error) {
	if len(names) == 0 {
		names = d.registry.Names()
	} else {
		names = slices.Clone(names)
		slices.Sort(names)
		names = slices.Compact(names)
	}

	report := &Report{Results: make(map[string]*IssueResult, len(names))}
	for _, name := range names {
		m, ok := d.registry.Get(name)
		if !ok {
			return nil, errors.NewValidationError("issue_types", "unknown issue type", name)
		}
		start := time.Now()
		res, err := m.FindIssues(ctx, d.ds)
		if err != nil {
			return nil, errors.Wrapf(err, "issue check %s", name)
		}
		report.Results[name] = res
		report.Summary = append(report.Summary, SummaryRow{
			IssueType: name,
			NumIssues: res.NumIssues(),
			Score:     res.MeanScore(),
		})
		d.logger.Info("issue check finished",
			log.ComponentKey, name,
			log.IssuesCountKey, res.NumIssues(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
	return report, nil
}

// Info returns the details of one result visible at verbosity.
func (d *Datalab) Info(report *Report, name string, verbosity int) map[string]any {
	res, ok := report.Results[name]
	if !ok {
		return nil
	}
	m, ok := d.registry.Get(name)
	if !ok {
		return nil
	}
	out := make(map[string]any)
	for _, k := range m.InfoKeys(verbosity) {
		if v, ok := res.Info[k]; ok {
			out[k] = v
		}
	}
	return out
}
