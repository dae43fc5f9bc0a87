package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"wavepipe/internal/engine"
	"wavepipe/internal/logging"
	"wavepipe/internal/media"
	"wavepipe/internal/metrics"
	"wavepipe/internal/services"
	"wavepipe/internal/stream"
	"wavepipe/internal/workspace"
)

// Download is a finished file ready to stream. Closing Body, or reading it to
// the end, deletes the temporary file.
type Download struct {
	Body          *stream.File
	Filename      string
	ContentType   string
	ContentLength int64
	Format        media.Format
	WorkspaceID   string
	Probe         ProbeResult
}

// Payload adapts the download for stream.Serve.
func (d *Download) Payload() stream.Payload {
	return stream.Payload{
		Body:          d.Body,
		Filename:      d.Filename,
		ContentType:   d.ContentType,
		ContentLength: d.ContentLength,
	}
}

// Fetch probes the title, runs the engine into a fresh workspace and opens the
// result. On any error the workspace has already been deleted; on success the
// returned Body owns the deletion.
func (s *Service) Fetch(ctx context.Context, req media.Request) (*Download, error) {
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return nil, services.Wrap(services.ErrInvalidRequest, "download", "validate", "url is required", nil)
	}
	if req.Format == "" {
		req.Format = media.FormatAudio
	}

	binary, err := s.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	ws, err := s.workspaces.Create(req.Format)
	if err != nil {
		return nil, services.Wrap(services.ErrEngineExecution, "download", "workspace", "allocate workspace", err)
	}
	ctx = services.WithWorkspaceID(ctx, ws.ID)
	logger := logging.WithContext(ctx, s.logger)

	// Resolved once so probe and fetch agree even if the file appears mid-request.
	cookies := s.credentials.Args()
	logger.Info("download started",
		logging.String("url", req.URL),
		logging.String("format", req.Format.String()),
		logging.Bool("cookies", len(cookies) > 0),
	)

	probe := s.probe(ctx, binary, req, cookies)

	if err := s.fetch(ctx, binary, ws, req, cookies); err != nil {
		s.discard(ctx, ws)
		return nil, err
	}

	if err := verifyOutput(ws.ExpectedPath); err != nil {
		s.discard(ctx, ws)
		return nil, err
	}

	file, err := stream.Open(ws.ExpectedPath, ws.Delete, logger)
	if err != nil {
		return nil, services.Wrap(services.ErrOutputMissing, "download", "open", ws.ExpectedPath, err)
	}

	logger.Info("download ready",
		logging.String("filename", probe.Filename),
		logging.Int64("bytes", file.Size()),
	)
	return &Download{
		Body:          file,
		Filename:      probe.Filename,
		ContentType:   req.Format.ContentType(),
		ContentLength: file.Size(),
		Format:        req.Format,
		WorkspaceID:   ws.ID,
		Probe:         probe,
	}, nil
}

func (s *Service) fetch(ctx context.Context, binary string, ws *workspace.Workspace, req media.Request, cookies []string) error {
	ctx = services.WithStage(ctx, "fetch")
	logger := logging.WithContext(ctx, s.logger)

	args := fetchArgs(ws.OutputTemplate, req.Format, s.baseArgs(cookies), req.URL)

	runCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	started := time.Now()
	result, err := s.runner.Run(runCtx, binary, args, engine.RunOptions{
		OnStderrLine: func(line string) {
			logger.Debug("engine output", logging.String("line", line))
		},
	})
	if err != nil {
		metrics.RecordEngineRun("fetch", services.Category(err), time.Since(started))
		return err
	}
	if result.ExitCode != 0 {
		metrics.RecordEngineRun("fetch", "exit_nonzero", result.Duration)
		summary := engine.SummarizeStderr(result.Stderr, s.stderrLines)
		if summary == "" {
			summary = "no diagnostic output"
		}
		return services.Wrap(services.ErrDownloadFailed, "fetch", fmt.Sprintf("engine exited with code %d", result.ExitCode), summary, nil)
	}
	metrics.RecordEngineRun("fetch", "ok", result.Duration)
	logger.Debug("engine fetch complete", logging.Duration("elapsed", result.Duration))
	return nil
}

// fetchArgs builds the fetch+transcode argument vector.
func fetchArgs(template string, format media.Format, base []string, url string) []string {
	args := []string{"--no-warnings", "--output", template, "--embed-thumbnail", "--add-metadata"}
	args = append(args, base...)
	switch format {
	case media.FormatVideo:
		args = append(args,
			"--format", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
			"--merge-output-format", "mp4",
		)
	default:
		args = append(args, "--extract-audio", "--audio-format", "mp3", "--audio-quality", "0")
	}
	return append(args, url)
}

func verifyOutput(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return services.Wrap(services.ErrOutputMissing, "fetch", "verify", "file not generated, is FFmpeg installed?", nil)
	case err != nil:
		return services.Wrap(services.ErrOutputMissing, "fetch", "verify", path, err)
	case info.IsDir():
		return services.Wrap(services.ErrOutputMissing, "fetch", "verify", fmt.Sprintf("%s is a directory", path), nil)
	}
	return nil
}

// discard deletes a workspace on the error path. Failures are logged only.
func (s *Service) discard(ctx context.Context, ws *workspace.Workspace) {
	if err := ws.Delete(); err != nil {
		logging.WarnWithHint(logging.WithContext(ctx, s.logger), "workspace cleanup failed", "cleanup_failed",
			"the workspace sweeper removes leftovers after workspace.max_age",
			logging.Error(err),
		)
	}
}
