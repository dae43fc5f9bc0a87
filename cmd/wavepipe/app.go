package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wavepipe/internal/config"
	"wavepipe/internal/download"
	"wavepipe/internal/history"
	"wavepipe/internal/infocache"
	"wavepipe/internal/logging"
	"wavepipe/internal/metrics"
	"wavepipe/internal/preflight"
	"wavepipe/internal/server"
	"wavepipe/internal/workspace"
)

type appOptions struct {
	// cache selects the configured info cache; otherwise a no-op cache is used.
	cache bool
	// history opens the ledger when history is enabled in config.
	history bool
	// downloadOpts are appended when building the download service.
	downloadOpts []download.Option
}

// app holds the components shared by serve and the local commands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	workspaces *workspace.Manager
	downloads  *download.Service
	cache      infocache.Cache
	history    *history.Store
}

func newApp(cfg *config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	workspaces, err := workspace.NewManager(cfg.Paths.WorkspaceDir)
	if err != nil {
		return nil, err
	}
	workspaces.OnDelete = metrics.RecordWorkspaceDeletion

	downloadOpts := append([]download.Option{download.WithLogger(logger)}, opts.downloadOpts...)
	downloads, err := download.New(cfg, workspaces, downloadOpts...)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		workspaces: workspaces,
		downloads:  downloads,
		cache:      infocache.Nop{},
	}
	if opts.cache {
		cache, err := infocache.New(cfg, logging.NewComponentLogger(logger, "infocache"))
		if err != nil {
			return nil, fmt.Errorf("open info cache: %w", err)
		}
		a.cache = cache
	}
	if opts.history && cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			_ = a.cache.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.history = store
	}
	return a, nil
}

// ledger returns the history store as a server.Ledger, nil when disabled.
func (a *app) ledger() server.Ledger {
	if a.history == nil {
		return nil
	}
	return a.history
}

func (a *app) health(ctx context.Context) preflight.Report {
	return preflight.Evaluate(ctx, a.cfg, a.downloads.Resolver())
}

// sweep removes stale workspace files and prunes the ledger.
func (a *app) sweep(ctx context.Context) (workspace.SweepResult, error) {
	result, err := a.workspaces.Sweep(ctx, a.cfg.WorkspaceMaxAge(), time.Now())
	if err != nil {
		return result, err
	}
	metrics.RecordSweepRemoved(len(result.Removed))
	if a.history != nil && a.cfg.History.RetentionDays > 0 {
		retention := time.Duration(a.cfg.History.RetentionDays) * 24 * time.Hour
		if _, err := a.history.Prune(ctx, retention); err != nil {
			return result, fmt.Errorf("prune history: %w", err)
		}
	}
	return result, nil
}

func (a *app) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	return errors.Join(errs...)
}
