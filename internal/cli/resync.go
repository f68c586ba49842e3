package cli

import (
	"github.com/spf13/cobra"
)

// NewResyncCommand creates the resync command (the manual retry action).
func NewResyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Reconcile every collection with the remote store",
		Long: `Run a full local-to-remote resync.

Each collection is merged with its remote counterpart (local wins on
conflict) and the result is written back to both sides. Fails when the
remote store is unreachable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(rootOpts)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.store.Resync(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "resync failed", err)
			}
			c.logger.Info("resync complete")
			return nil
		},
	}
}
