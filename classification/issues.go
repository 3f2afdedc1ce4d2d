package classification

import (
	"encoding/json"
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/rank"
)

// LabelIssue is one row of the issue table.
type LabelIssue struct {
	Index          int     `json:"index" yaml:"index"`
	GivenLabel     int     `json:"given_label" yaml:"given_label"`
	PredictedLabel int     `json:"predicted_label" yaml:"predicted_label"`
	LabelQuality   float64 `json:"label_quality" yaml:"label_quality"`
	IsLabelIssue   bool    `json:"is_label_issue" yaml:"is_label_issue"`
}

// LabelIssues is the per-example table produced by CleanLearning.FindLabelIssues.
type LabelIssues struct {
	Rows []LabelIssue

	// RankedIndices lists the flagged rows from most to least severe.
	RankedIndices []int
	// QualityMethod is the score stored in LabelQuality.
	QualityMethod rank.Method
	// PredProbs holds the out-of-sample probabilities the table was built from.
	PredProbs *mat.Dense
	// LogLoss is the cross-entropy of PredProbs against the given labels.
	LogLoss float64
}

// Len returns the number of rows.
func (li *LabelIssues) Len() int {
	return len(li.Rows)
}

// Mask returns IsLabelIssue for every row.
func (li *LabelIssues) Mask() []bool {
	mask := make([]bool, len(li.Rows))
	for i, r := range li.Rows {
		mask[i] = r.IsLabelIssue
	}
	return mask
}

// NumIssues returns the number of flagged rows.
func (li *LabelIssues) NumIssues() int {
	n := 0
	for _, r := range li.Rows {
		if r.IsLabelIssue {
			n++
		}
	}
	return n
}

// Save writes the table to w as "json" or "yaml".
func (li *LabelIssues) Save(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(li.Rows), "encode label issues")
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(li.Rows); err != nil {
			return errors.Wrap(err, "encode label issues")
		}
		return errors.Wrap(enc.Close(), "encode label issues")
	default:
		return errors.NewValidationError("format", "must be json or yaml", format)
	}
}
