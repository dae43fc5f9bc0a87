package download

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"wavepipe/internal/engine"
	"wavepipe/internal/logging"
	"wavepipe/internal/media"
	"wavepipe/internal/metadata"
	"wavepipe/internal/metrics"
	"wavepipe/internal/services"
)

// Describe dumps the page metadata and normalizes it.
//
// A non-zero exit is tolerated when the engine still printed JSON: playlists
// with unavailable entries exit 1 but the dump is complete enough to show.
func (s *Service) Describe(ctx context.Context, url string) (metadata.Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return metadata.Result{}, services.Wrap(services.ErrInvalidRequest, "info", "validate", "url is required", nil)
	}
	binary, err := s.resolver.Resolve()
	if err != nil {
		return metadata.Result{}, err
	}

	ctx = services.WithStage(ctx, "info")
	logger := logging.WithContext(ctx, s.logger)

	args := infoArgs(url, s.baseArgs(s.credentials.Args()))
	runCtx := ctx
	if s.infoTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.infoTimeout)
		defer cancel()
	}
	started := time.Now()
	result, err := s.runner.Run(runCtx, binary, args, engine.RunOptions{
		CaptureStdout: true,
		MaxStdout:     s.maxMetadataBytes,
	})
	if err != nil {
		metrics.RecordEngineRun("info", services.Category(err), time.Since(started))
		return metadata.Result{}, err
	}
	if result.Truncated {
		metrics.RecordEngineRun("info", "truncated", result.Duration)
		return metadata.Result{}, services.Wrap(services.ErrMetadataParse, "info", "capture",
			fmt.Sprintf("metadata exceeds %d bytes", s.maxMetadataBytes), nil)
	}
	empty := len(bytes.TrimSpace(result.Stdout)) == 0
	if result.ExitCode != 0 {
		summary := engine.SummarizeStderr(result.Stderr, s.stderrLines)
		if empty {
			metrics.RecordEngineRun("info", "exit_nonzero", result.Duration)
			return metadata.Result{}, services.Wrap(services.ErrEngineExecution, "info",
				fmt.Sprintf("engine exited with code %d", result.ExitCode), summary, nil)
		}
		logger.Warn("engine exited non-zero but produced metadata; continuing",
			logging.Int("exit_code", result.ExitCode),
			logging.String("stderr", summary),
		)
	}
	metrics.RecordEngineRun("info", "ok", result.Duration)

	normalized, err := s.normalizer.Normalize(result.Stdout)
	if err != nil {
		return metadata.Result{}, err
	}
	logger.Debug("metadata normalized",
		logging.String("kind", string(normalized.Kind())),
		logging.String("title", normalized.Title()),
	)
	return normalized, nil
}

// infoArgs builds the metadata dump argument vector.
func infoArgs(url string, base []string) []string {
	args := []string{"--dump-single-json", "--flat-playlist", "--no-warnings", "--no-call-home"}
	if media.IsPlaylistURL(url) {
		args = append(args, "--yes-playlist")
	}
	args = append(args, base...)
	return append(args, url)
}
