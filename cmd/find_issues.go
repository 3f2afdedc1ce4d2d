package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/cleango/filter"
	"github.com/YuminosukeSato/cleango/pkg/config"
	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/storage"
)

type findIssuesOutput struct {
	NumIssues          int      `json:"num_issues" yaml:"num_issues"`
	RankedIndices      []int    `json:"ranked_indices" yaml:"ranked_indices"`
	FilterBy           string   `json:"filter_by,omitempty" yaml:"filter_by,omitempty"`
	Cutoff             *float64 `json:"cutoff,omitempty" yaml:"cutoff,omitempty"`
	EstimatedNumIssues int      `json:"estimated_num_issues,omitempty" yaml:"estimated_num_issues,omitempty"`
	Batched            bool     `json:"batched,omitempty" yaml:"batched,omitempty"`
}

func newFindIssuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find-issues",
		Short: "Flag and rank likely label issues",
		Long: "Reads labels and out-of-sample predicted probabilities (CSV or array files) and prints the flagged examples, most severe first.\n" +
			"With --batch-size and array inputs the files are streamed in batches instead of loaded into memory;\n" +
			"streamed runs use the confident_learning policy only.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			labelsPath, _ := cmd.Flags().GetString("labels")
			probsPath, _ := cmd.Flags().GetString("pred-probs")
			format, _ := cmd.Flags().GetString("format")

			var out *findIssuesOutput
			if cmd.Flags().Changed("batch-size") && !isCSV(labelsPath) && !isCSV(probsPath) {
				out, err = findIssuesBatched(cmd, cfg, labelsPath, probsPath)
			} else {
				out, err = findIssuesInMemory(cfg, labelsPath, probsPath)
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().String("labels", "", "Label file (.csv or array)")
	cmd.Flags().String("pred-probs", "", "Predicted probability file (.csv or array)")
	cmd.Flags().Int("batch-size", filter.DefaultBatchSize, "Rows per batch for streamed array inputs")
	addFilterFlags(cmd)
	_ = cmd.MarkFlagRequired("labels")
	_ = cmd.MarkFlagRequired("pred-probs")
	return cmd
}

func findIssuesInMemory(cfg *config.Config, labelsPath, probsPath string) (*findIssuesOutput, error) {
	labels, err := loadLabels(labelsPath)
	if err != nil {
		return nil, err
	}
	probs, err := loadMatrix(probsPath)
	if err != nil {
		return nil, err
	}
	found, err := filter.FindLabelIssues(labels, probs, cfg.FilterOptions()...)
	if err != nil {
		return nil, err
	}
	out := &findIssuesOutput{
		NumIssues:          found.NumIssues(),
		RankedIndices:      found.RankedIndices,
		FilterBy:           found.FilterBy.String(),
		EstimatedNumIssues: found.EstimatedNumIssues,
	}
	if found.HasCutoff {
		cutoff := found.Cutoff
		out.Cutoff = &cutoff
	}
	return out, nil
}

func findIssuesBatched(cmd *cobra.Command, cfg *config.Config, labelsPath, probsPath string) (*findIssuesOutput, error) {
	if policy, _ := filter.ParseFilterBy(cfg.FilterBy); policy != filter.ConfidentLearning {
		return nil, errors.NewValidationError("filter_by", "batched runs support only confident_learning", cfg.FilterBy)
	}
	labels, err := storage.Open(labelsPath)
	if err != nil {
		return nil, err
	}
	defer labels.Close()
	probs, err := storage.Open(probsPath)
	if err != nil {
		return nil, err
	}
	defer probs.Close()

	src, err := storage.Source(labels, probs)
	if err != nil {
		return nil, err
	}
	ranked, err := filter.FindLabelIssuesBatched(cmd.Context(), src, cfg.BatchSize, cfg.NJobs, cfg.FilterOptions()...)
	if err != nil {
		return nil, err
	}
	return &findIssuesOutput{
		NumIssues:     len(ranked),
		RankedIndices: ranked,
		FilterBy:      filter.ConfidentLearning.String(),
		Batched:       true,
	}, nil
}
