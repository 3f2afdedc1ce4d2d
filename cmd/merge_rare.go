package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/storage"
)

type mergeRareOutput struct {
	RareClasses  []int  `json:"rare_classes" yaml:"rare_classes"`
	OtherClass   int    `json:"other_class" yaml:"other_class"`
	NumClasses   int    `json:"num_classes" yaml:"num_classes"`
	ClassMapping []int  `json:"class_mapping" yaml:"class_mapping"`
	LabelsPath   string `json:"labels_path" yaml:"labels_path"`
	ProbsPath    string `json:"pred_probs_path" yaml:"pred_probs_path"`
}

func newMergeRareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge-rare",
		Short: "Merge rare classes into one Other class",
		Long:  "Merges every class with fewer than --count-threshold examples into a single class appended as the last column, and writes the remapped labels and probabilities as array files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			labelsPath, _ := cmd.Flags().GetString("labels")
			probsPath, _ := cmd.Flags().GetString("pred-probs")
			threshold, _ := cmd.Flags().GetInt("count-threshold")
			prefix, _ := cmd.Flags().GetString("out-prefix")
			format, _ := cmd.Flags().GetString("format")

			labels, err := loadLabels(labelsPath)
			if err != nil {
				return err
			}
			probs, err := loadMatrix(probsPath)
			if err != nil {
				return err
			}
			merged, err := dataset.MergeRareClasses(labels, probs, threshold)
			if err != nil {
				return err
			}

			out := &mergeRareOutput{
				RareClasses:  merged.RareClasses,
				OtherClass:   merged.OtherClass,
				NumClasses:   merged.NumClasses(),
				ClassMapping: merged.ClassMapping,
				LabelsPath:   prefix + "_labels.bin",
				ProbsPath:    prefix + "_pred_probs.bin",
			}
			if err := storage.WriteLabels(out.LabelsPath, merged.Labels); err != nil {
				return err
			}
			if err := storage.WriteMatrix(out.ProbsPath, merged.PredProbs); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().String("labels", "", "Label file (.csv or array)")
	cmd.Flags().String("pred-probs", "", "Predicted probability file (.csv or array)")
	cmd.Flags().Int("count-threshold", 5, "Classes with fewer examples are merged")
	cmd.Flags().String("out-prefix", "merged", "Prefix of the output array files")
	cmd.Flags().String("format", "json", "Output format: json or yaml")
	_ = cmd.MarkFlagRequired("labels")
	_ = cmd.MarkFlagRequired("pred-probs")
	return cmd
}
