package cli

import (
	"log/slog"
	"os"

	"github.com/parkminsu/janbu/internal/cache"
	"github.com/parkminsu/janbu/internal/config"
	"github.com/parkminsu/janbu/internal/deltas"
	"github.com/parkminsu/janbu/internal/facade"
	"github.com/parkminsu/janbu/internal/grade"
	"github.com/parkminsu/janbu/internal/notify"
	"github.com/parkminsu/janbu/internal/pubsub"
	"github.com/parkminsu/janbu/internal/remote"
	"github.com/parkminsu/janbu/internal/status"
)

// core bundles the assembled sync components for one command run.
type core struct {
	cfg    config.Config
	cache  *cache.Store
	remote remote.Client
	bus    *pubsub.Bus
	tombs  *deltas.Tombstones
	store  *facade.Facade
	recalc *grade.Recalculator
	orders *status.Service
	logger *slog.Logger
}

// buildCore configures logging, loads configuration, and wires the
// cache, remote client, facade and services together.
func buildCore(opts *RootOptions) (*core, error) {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	store, err := cache.Open(cfg.CachePath, cfg.CachePrefix, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open local cache", err)
	}

	client, err := remote.NewHTTPClient(cfg.RemoteURL, cfg.APIKey, logger)
	if err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "failed to build remote client", err)
	}

	bus := pubsub.NewBus()
	tombs := deltas.NewTombstones()
	fac := facade.New(store, client, bus, tombs, nil, nil, logger)

	notifier := notify.LogNotifier{Logger: logger}
	recalc := grade.NewRecalculator(fac, cfg.Thresholds(), notifier, bus, logger)
	orders := status.NewService(fac, notifier, recalc, bus, status.Options{
		DebounceWindow: cfg.DebounceWindow(),
		SettleDelay:    cfg.SettleDelay(),
	}, logger)

	return &core{
		cfg:    cfg,
		cache:  store,
		remote: client,
		bus:    bus,
		tombs:  tombs,
		store:  fac,
		recalc: recalc,
		orders: orders,
		logger: logger,
	}, nil
}

// Close releases the core's resources.
func (c *core) Close() error {
	return c.cache.Close()
}
