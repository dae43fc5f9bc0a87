package download

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"wavepipe/internal/engine"
	"wavepipe/internal/logging"
	"wavepipe/internal/media"
	"wavepipe/internal/metrics"
	"wavepipe/internal/services"
)

const (
	fallbackTitle  = "video"
	maxTitleLength = 150
	maxProbeOutput = 64 << 10
)

// ProbeResult is what the fetch stage takes from the probe.
type ProbeResult struct {
	Title    string
	Filename string
	// Fallback is set when the probe failed and Title is the default.
	Fallback bool
}

// probe asks the engine for the page title. It never fails: any problem is
// logged and the default title is used.
func (s *Service) probe(ctx context.Context, binary string, req media.Request, cookies []string) ProbeResult {
	ctx = services.WithStage(ctx, "probe")
	logger := logging.WithContext(ctx, s.logger)

	args := []string{"--print", "title", "--no-warnings"}
	args = append(args, s.baseArgs(cookies)...)
	args = append(args, req.URL)

	runCtx := ctx
	if s.probeTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.probeTimeout)
		defer cancel()
	}
	result, err := s.runner.Run(runCtx, binary, args, engine.RunOptions{CaptureStdout: true, MaxStdout: maxProbeOutput})

	var title string
	switch {
	case err != nil:
		metrics.RecordEngineRun("probe", services.Category(err), result.Duration)
		logging.WarnWithHint(logger, "title probe failed; using default filename", "probe_failed", "", logging.Error(err))
	case result.ExitCode != 0:
		metrics.RecordEngineRun("probe", "exit_nonzero", result.Duration)
		logging.WarnWithHint(logger, "title probe exited non-zero; using default filename", "probe_failed", "",
			logging.Int("exit_code", result.ExitCode),
			logging.String("stderr", engine.SummarizeStderr(result.Stderr, s.stderrLines)),
		)
	default:
		metrics.RecordEngineRun("probe", "ok", result.Duration)
		title = SanitizeTitle(firstLine(string(result.Stdout)))
		if title == "" {
			logger.Warn("title probe returned no usable title; using default filename")
		}
	}

	probe := ProbeResult{Title: title}
	if probe.Title == "" {
		probe.Title = fallbackTitle
		probe.Fallback = true
	}
	probe.Filename = probe.Title + "." + req.Format.Extension()
	logger.Debug("title probe complete", logging.String("title", probe.Title), logging.Bool("fallback", probe.Fallback))
	return probe
}

func firstLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// SanitizeTitle makes a page title safe for Content-Disposition and local
// filesystems. Accents are folded to their base letters, then everything but
// ASCII letters, digits, underscore, space, dot and hyphen is dropped.
func SanitizeTitle(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}
	var b strings.Builder
	lastSpace := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	cleaned := strings.Trim(b.String(), " .")
	if len(cleaned) > maxTitleLength {
		cleaned = strings.TrimRight(cleaned[:maxTitleLength], " .")
	}
	return cleaned
}
