package cli

import (
	"github.com/spf13/cobra"
)

// NewGradeCommand creates the grade command group.
func NewGradeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Operate on customer grades",
	}
	cmd.AddCommand(newGradeRecalcCommand(rootOpts))
	return cmd
}

func newGradeRecalcCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recalc",
		Short: "Recompute every customer's grade",
		Long: `Recompute every customer's grade from delivered order totals.

All changes are persisted; only customers whose tier strictly increased
are reported as upgrades.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(rootOpts)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.recalc.RecalculateAll(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "recalculation failed", err)
			}
			return nil
		},
	}
}
