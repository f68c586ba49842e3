package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parkminsu/janbu/internal/record"
)

// NewRecordsCommand creates the records command group.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect cached collections",
	}
	cmd.AddCommand(newRecordsListCommand(rootOpts))
	return cmd
}

func newRecordsListCommand(rootOpts *RootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List a collection as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := args[0]
			if !record.KnownCollection(collection) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("unknown collection %q (known: %v)", collection, record.Collections))
			}

			c, err := buildCore(rootOpts)
			if err != nil {
				return err
			}
			defer c.Close()

			records, err := c.store.Load(cmd.Context(), collection, refresh)
			if err != nil {
				return WrapExitError(ExitFailure, "load failed", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "force a remote fetch before listing")
	return cmd
}
