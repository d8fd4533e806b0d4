package cmd

import (
	"context"

	"github.com/Iron-Ham/mindnode/internal/board"
	"github.com/Iron-Ham/mindnode/internal/config"
	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/logging"
	"github.com/Iron-Ham/mindnode/internal/metrics"
	"github.com/Iron-Ham/mindnode/internal/storage"
)

// app is the set of collaborators a command works with.
type app struct {
	cfg     *config.Config
	dataDir string
	logger  *logging.Logger
	metrics *metrics.Metrics
	backend storage.Store
	store   *board.Store
}

// openApp loads configuration and opens the board store. Metrics are only
// collected for long-running commands.
func openApp(ctx context.Context, withMetrics bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, dataDir: cfg.Storage.ResolveDir()}

	a.logger = logging.NopLogger()
	if cfg.Logging.Enabled {
		a.logger, err = logging.NewLogger(a.dataDir, cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   cfg.Logging.Compress,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to open log")
		}
	}
	if withMetrics {
		a.metrics = metrics.New(metrics.DefaultNamespace)
	}

	a.backend, err = storage.Open(cfg.Storage.Backend, a.dataDir)
	if err != nil {
		_ = a.logger.Close()
		return nil, errors.Wrapf(err, "failed to open %s storage", cfg.Storage.Backend)
	}

	a.store, err = board.Open(ctx, a.backend,
		board.WithKey(cfg.Storage.Key),
		board.WithLogger(a.logger),
		board.WithMetrics(a.metrics),
		board.WithEngine(layout.New()),
		board.WithImportDescription(cfg.Import.Description),
	)
	if err != nil {
		_ = a.backend.Close()
		_ = a.logger.Close()
		return nil, err
	}
	return a, nil
}

// direction returns the configured default layout direction.
func (a *app) direction() layout.Direction {
	d, err := layout.ParseDirection(a.cfg.Layout.Direction)
	if err != nil {
		return layout.TopToBottom
	}
	return d
}

// Close flushes the store and releases the backend and log file.
func (a *app) Close(ctx context.Context) error {
	return errors.Join(
		a.store.Close(ctx),
		a.backend.Close(),
		a.logger.Close(),
	)
}
