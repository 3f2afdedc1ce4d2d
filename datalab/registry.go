// Package datalab runs named issue checks over a dataset of labels and
// predicted probabilities and summarizes what they found.
package datalab

import (
	"context"
	"slices"
	"sync"

	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// IssueResult is the per-example output of one issue check.
type IssueResult struct {
	// Mask flags the examples with the issue.
	Mask []bool
	// Scores holds a quality score in [0, 1] per example; lower is worse.
	Scores []float64
	// Info carries check-specific details, filtered by verbosity in reports.
	Info map[string]any
}

// NumIssues returns the number of flagged examples.
func (r *IssueResult) NumIssues() int {
	n := 0
	for _, m := range r.Mask {
		if m {
			n++
		}
	}
	return n
}

// MeanScore returns the mean of Scores, or 1 when there are none.
func (r *IssueResult) MeanScore() float64 {
	if len(r.Scores) == 0 {
		return 1
	}
	var sum float64
	for _, s := range r.Scores {
		sum += s
	}
	return sum / float64(len(r.Scores))
}

// IssueManager is a named issue check.
type IssueManager struct {
	Name       string
	FindIssues func(ctx context.Context, ds *dataset.Dataset) (*IssueResult, error)
	// VerbosityKeys lists, per verbosity level, the Info keys shown in
	// reports. Level n includes the keys of every level below it.
	VerbosityKeys map[int][]string
}

// InfoKeys returns the Info keys visible at the given verbosity.
func (m IssueManager) InfoKeys(verbosity int) []string {
	var keys []string
	for level, ks := range m.VerbosityKeys {
		if level <= verbosity {
			keys = append(keys, ks...)
		}
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

// Registry holds issue managers by name. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]IssueManager
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{managers: make(map[string]IssueManager)}
}

// Register adds m. A second manager with the same name is rejected.
func (r *Registry) Register(m IssueManager) error {
	if m.Name == "" {
		return errors.NewValidationError("name", "must not be empty", m.Name)
	}
	if m.FindIssues == nil {
		return errors.NewValidationError("find_issues", "must not be nil", m.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.managers[m.Name]; ok {
		return errors.NewValueError("Registry.Register", "issue manager "+m.Name+" is already registered")
	}
	r.managers[m.Name] = m
	return nil
}

// Get returns the manager registered under name.
func (r *Registry) Get(name string) (IssueManager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[name]
	return m, ok
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.managers))
	for name := range r.managers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
