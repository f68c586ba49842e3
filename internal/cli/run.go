package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parkminsu/janbu/internal/deltas"
	"github.com/parkminsu/janbu/internal/monitor"
	"github.com/parkminsu/janbu/internal/record"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the sync engine",
		Long: `Start the janbu sync engine.

The engine loads every collection (cache first, remote when empty),
opens one realtime change subscription per collection, and probes
remote connectivity periodically. On reconnect, locally held records
are pushed back to the remote store; with resync_on_reconnect enabled
the full merge runs instead.

Example:
  janbu run --config janbu.yaml
  janbu run -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(rootOpts)
		},
	}
	return cmd
}

func runEngine(opts *RootOptions) error {
	c, err := buildCore(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial load: cache-first, remote fill for empty collections.
	for _, collection := range record.Collections {
		if _, err := c.store.Load(ctx, collection, false); err != nil {
			return WrapExitError(ExitCommandError, "failed to load collection "+collection, err)
		}
	}

	// Connectivity monitor with the reconnect hook.
	mon := monitor.New(c.remote, c.cfg.ProbeInterval(), c.cfg.ProbeTimeout(), c.logger)
	mon.OnReconnect(func(ctx context.Context) {
		var err error
		if c.cfg.ResyncOnReconnect {
			err = c.store.Resync(ctx)
		} else {
			err = c.store.PushLocal(ctx)
		}
		if err != nil {
			c.logger.Warn("reconnect sync failed", "error", err)
		}
	})

	// Realtime delta consumers, one subscription per collection.
	consumer := deltas.NewConsumer(c.remote, c.store, c.logger)
	consumer.Start(ctx, record.Collections)

	c.logger.Info("sync engine started",
		"remote", c.cfg.RemoteURL,
		"cache", c.cfg.CachePath,
		"probe_interval", c.cfg.ProbeInterval().String())

	mon.Run(ctx)

	consumer.Wait()
	c.logger.Info("sync engine stopped")
	return nil
}
