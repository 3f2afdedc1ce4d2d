package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/cleango/classification"
	"github.com/YuminosukeSato/cleango/preprocessing"
	"github.com/YuminosukeSato/cleango/sklearn/linear_model"
)

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Train a logistic regression on cleaned labels",
		Long:  "Estimates out-of-sample probabilities by cross-validation, flags label issues, retrains on the remaining examples and prints the issue table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			featuresPath, _ := cmd.Flags().GetString("features")
			labelsPath, _ := cmd.Flags().GetString("labels")
			format, _ := cmd.Flags().GetString("format")
			maxIter, _ := cmd.Flags().GetInt("max-iter")

			X, err := loadMatrix(featuresPath)
			if err != nil {
				return err
			}
			labels, err := loadLabels(labelsPath)
			if err != nil {
				return err
			}

			standardize, _ := cmd.Flags().GetBool("standardize")
			var clf preprocessing.CloneableClassifier = linear_model.NewLogisticRegression(
				linear_model.WithLRMaxIter(maxIter),
				linear_model.WithLRRandomState(cfg.Seed),
			)
			if standardize {
				clf = preprocessing.NewScaledClassifier(clf)
			}
			cl, err := classification.NewCleanLearning(clf,
				classification.WithCVNFolds(cfg.CVNFolds),
				classification.WithSeed(cfg.Seed),
				classification.WithNJobs(cfg.NJobs),
				classification.WithFindIssuesOptions(cfg.FilterOptions()...),
			)
			if err != nil {
				return err
			}
			if err := cl.Fit(cmd.Context(), X, labels, nil); err != nil {
				return err
			}
			return cl.LabelIssues().Save(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().String("features", "", "Feature matrix file (.csv or array)")
	cmd.Flags().String("labels", "", "Label file (.csv or array)")
	cmd.Flags().Int("cv-folds", 5, "Number of cross-validation folds")
	cmd.Flags().Uint64("seed", 0, "Seed of the fold shuffle and weight initialization")
	cmd.Flags().Int("max-iter", 300, "Maximum gradient steps of the logistic regression")
	cmd.Flags().Bool("standardize", true, "Standardize features before training")
	addFilterFlags(cmd)
	_ = cmd.MarkFlagRequired("features")
	_ = cmd.MarkFlagRequired("labels")
	return cmd
}
