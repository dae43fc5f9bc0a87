package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wavepipe/internal/logging"
	"wavepipe/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(appOptions{cache: true, history: true})
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := server.New(a.cfg, server.Options{
				Downloader: a.downloads,
				Cache:      a.cache,
				History:    a.ledger(),
				Health:     a.health,
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}

			report := a.health(cmd.Context())
			if !report.Ready {
				logging.WarnWithHint(a.logger, "starting with unmet dependencies", "preflight_failed", "run `wavepipe status` for details")
			}

			group, groupCtx := errgroup.WithContext(cmd.Context())
			group.Go(func() error {
				return srv.ListenAndServe(groupCtx)
			})
			group.Go(func() error {
				runJanitor(groupCtx, a)
				return nil
			})
			return group.Wait()
		},
	}
}

// runJanitor sweeps the workspace at startup and then every sweep interval.
func runJanitor(ctx context.Context, a *app) {
	interval := a.cfg.SweepInterval()
	if interval <= 0 {
		return
	}
	logger := logging.NewComponentLogger(a.logger, "janitor")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		result, err := a.sweep(ctx)
		switch {
		case err != nil:
			logger.Warn("workspace sweep failed", logging.Error(err))
		case result.Skipped:
			logger.Debug("workspace sweep skipped, lock held elsewhere")
		case len(result.Removed) > 0:
			logger.Info("workspace sweep removed stale files",
				logging.Int("files", len(result.Removed)),
				logging.Int64("bytes", result.Bytes),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
