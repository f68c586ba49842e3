// Package cli implements the janbu command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Config  string
}

// NewRootCommand creates the root command for the janbu CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "janbu",
		Short: "janbu - offline-first record keeper sync core",
		Long: `janbu keeps a local record cache and a remote backend consistent
under unreliable connectivity. Orders, customers, products, waitlist
entries and sales channels live in a SQLite cache that stays writable
while offline; the remote store is updated best-effort and reconciled
on reconnect.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "janbu.yaml", "path to config file")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewResyncCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewGradeCommand(opts))
	cmd.AddCommand(NewRecordsCommand(opts))

	return cmd
}
