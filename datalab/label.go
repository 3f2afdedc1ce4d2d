package datalab

import (
	"context"
	"slices"

	"github.com/YuminosukeSato/cleango/count"
	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/filter"
	"github.com/YuminosukeSato/cleango/metrics"
	"github.com/YuminosukeSato/cleango/rank"
)

// LabelIssueName is the name of the label issue manager.
const LabelIssueName = "label"

// NewLabelIssueManager returns the manager that flags label issues with
// filter.FindLabelIssues and scores every example with self-confidence.
// With the confident_learning policy its Info also carries the noise
// estimates derived from the joint.
func NewLabelIssueManager(opts ...filter.Option) IssueManager {
	return IssueManager{
		Name: LabelIssueName,
		FindIssues: func(ctx context.Context, ds *dataset.Dataset) (*IssueResult, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			findOpts := opts
			var scoreOpts []rank.ScoreOption
			if ds.Tolerance > 0 {
				findOpts = append(slices.Clone(opts), filter.WithTolerance(ds.Tolerance))
				scoreOpts = append(scoreOpts, rank.WithTolerance(ds.Tolerance))
			}
			found, err := filter.FindLabelIssues(ds.Labels, ds.PredProbs, findOpts...)
			if err != nil {
				return nil, err
			}
			scores, err := rank.ScoreDataset(ds.Labels, ds.PredProbs, rank.SelfConfidence, scoreOpts...)
			if err != nil {
				return nil, err
			}
			predicted := dataset.PredictedLabels(ds.PredProbs)
			confusion, err := metrics.ConfusionMatrix(ds.Labels, predicted, ds.NumClasses())
			if err != nil {
				return nil, err
			}
			info := map[string]any{
				"filter_by":            found.FilterBy.String(),
				"num_issues":           found.NumIssues(),
				"estimated_num_issues": found.EstimatedNumIssues,
				"predicted_labels":     predicted,
				"confusion_matrix":     confusion,
			}
			if found.HasCutoff {
				info["cutoff"] = found.Cutoff
				info["threshold_rule"] = found.Rule.String()
			}
			if found.Joint != nil {
				latent := count.EstimateLatent(found.Joint)
				info["confident_joint"] = found.Joint
				info["noise_rate"] = count.NoiseRate(found.Joint)
				info["noise_matrix"] = latent.NoiseMatrix
				info["inverse_noise_matrix"] = latent.InverseNoiseMatrix
				info["true_label_prior"] = latent.Prior
			}
			return &IssueResult{Mask: found.Mask, Scores: scores, Info: info}, nil
		},
		VerbosityKeys: map[int][]string{
			0: {"num_issues"},
			1: {"filter_by", "estimated_num_issues", "cutoff", "threshold_rule", "noise_rate"},
			2: {"confident_joint", "predicted_labels", "confusion_matrix", "noise_matrix", "inverse_noise_matrix", "true_label_prior"},
		},
	}
}

// RegisterDefaults registers the built-in managers.
func RegisterDefaults(r *Registry, opts ...filter.Option) error {
	return r.Register(NewLabelIssueManager(opts...))
}
