package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/cleango/pkg/errors"
	"github.com/YuminosukeSato/cleango/storage"
)

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Convert a CSV matrix into an array file",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("csv")
			out, _ := cmd.Flags().GetString("out")

			f, err := os.Open(in)
			if err != nil {
				return errors.Wrapf(err, "open %s", in)
			}
			defer f.Close()
			m, err := storage.ReadCSVMatrix(f)
			if err != nil {
				return err
			}
			if err := storage.WriteMatrix(out, m); err != nil {
				return err
			}
			rows, cols := m.Dims()
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d x %d)\n", out, rows, cols)
			return nil
		},
	}
	cmd.Flags().String("csv", "", "Input CSV file")
	cmd.Flags().String("out", "", "Output array file")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
