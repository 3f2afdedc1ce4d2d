// Package cmd implements the cleango command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/cleango/pkg/config"
	"github.com/YuminosukeSato/cleango/pkg/log"
)

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is canceled to abort
// long runs.
func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cleango",
		Short:         "Find label issues in classification datasets",
		Long:          "cleango scores labels against out-of-sample predicted probabilities, flags likely label errors and trains classifiers on the cleaned data.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return log.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML settings file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides the settings file)")

	rootCmd.AddCommand(newFindIssuesCmd())
	rootCmd.AddCommand(newMergeRareCmd())
	rootCmd.AddCommand(newPackCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// resolveConfig returns the settings file given by --config (or the
// defaults) with every explicitly set flag applied on top.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		loaded, err := config.Load(p)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	setString := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	setInt := func(name string, dst *int) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	setFloat := func(name string, dst *float64) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetFloat64(name)
		}
	}
	setString("log-level", &cfg.LogLevel)
	setString("filter-by", &cfg.FilterBy)
	setString("rank-by", &cfg.RankBy)
	setString("threshold-rule", &cfg.ThresholdRule)
	setString("threshold-basis", &cfg.ThresholdBasis)
	setFloat("num-std-devs", &cfg.NumStdDevs)
	setFloat("quantile", &cfg.Quantile)
	setInt("batch-size", &cfg.BatchSize)
	setInt("n-jobs", &cfg.NJobs)
	setInt("cv-folds", &cfg.CVNFolds)
	if flags.Lookup("seed") != nil && flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// addFilterFlags registers the issue-selection flags shared by find-issues
// and clean.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("filter-by", "", "Issue policy: confident_learning, low_self_confidence, low_normalized_margin or predicted_neq_given")
	cmd.Flags().String("rank-by", "", "Ranking score: self_confidence, normalized_margin or confidence_weighted_entropy")
	cmd.Flags().String("threshold-rule", "", "Cutoff rule of the score policies: std_dev or quantile")
	cmd.Flags().String("threshold-basis", "", "Per-class threshold basis: predicted or given")
	cmd.Flags().Float64("num-std-devs", 0, "Multiplier of the std_dev rule")
	cmd.Flags().Float64("quantile", 0, "Level of the quantile rule")
	cmd.Flags().Int("n-jobs", 1, "Number of parallel workers")
	cmd.Flags().String("format", "json", "Output format: json or yaml")
}
