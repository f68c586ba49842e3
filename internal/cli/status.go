package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/parkminsu/janbu/internal/monitor"
	"github.com/parkminsu/janbu/internal/record"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and cache status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(rootOpts, cmd)
		},
	}
}

func showStatus(opts *RootOptions, cmd *cobra.Command) error {
	c, err := buildCore(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	mon := monitor.New(c.remote, c.cfg.ProbeInterval(), c.cfg.ProbeTimeout(), c.logger)
	state := mon.RetryNow(cmd.Context())

	out := cmd.OutOrStdout()
	switch state {
	case monitor.StateConnected:
		fmt.Fprintf(out, "remote: %s\n", color.GreenString("connected"))
	default:
		fmt.Fprintf(out, "remote: %s\n", color.RedString("offline"))
	}
	fmt.Fprintf(out, "endpoint: %s\n", c.cfg.RemoteURL)
	fmt.Fprintf(out, "cache: %s\n", c.cfg.CachePath)

	ctx := cmd.Context()
	for _, collection := range record.Collections {
		records, err := c.store.Load(ctx, collection, false)
		if err != nil {
			fmt.Fprintf(out, "  %-12s %s\n", collection, color.RedString("error: %v", err))
			continue
		}
		fmt.Fprintf(out, "  %-12s %d records\n", collection, len(records))
	}
	return nil
}
