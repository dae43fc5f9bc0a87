package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wavepipe/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Files receive a copy of every line in addition to Writer.
	Files []string
	// Writer defaults to stderr; stdout stays free for command output.
	Writer io.Writer
	// Source adds file:line to every record. Debug level implies it.
	Source bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	source := opts.Source || level.Level() <= slog.LevelDebug

	out, err := openOutput(opts.Writer, opts.Files)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return slog.New(newConsoleHandler(out, level, source)), nil
	case "json":
		return slog.New(newJSONHandler(out, level, source)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig builds the process logger: console or JSON on stderr, plus
// wavepipe.log under paths.log_dir when one is configured.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if cfg.Paths.LogDir != "" {
		opts.Files = []string{filepath.Join(cfg.Paths.LogDir, "wavepipe.log")}
	}
	return New(opts)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a discarding one.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithHint logs a warning that carries an event type and an operator hint.
func WarnWithHint(logger *slog.Logger, msg, eventType, hint string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = append(attrs, String(FieldEventType, eventType))
	if hint != "" {
		attrs = append(attrs, String(FieldErrorHint, hint))
	}
	logger.Warn(msg, Args(attrs...)...)
}

func parseLevel(level string) slog.Level {
	var parsed slog.Level
	normalized := strings.TrimSpace(level)
	if strings.EqualFold(normalized, "warning") {
		normalized = "warn"
	}
	if err := parsed.UnmarshalText([]byte(normalized)); err != nil {
		return slog.LevelInfo
	}
	return parsed
}

func openOutput(base io.Writer, files []string) (io.Writer, error) {
	if base == nil {
		base = os.Stderr
	}
	writers := []io.Writer{base}
	seen := make(map[string]bool, len(files))
	for _, path := range files {
		path = strings.TrimSpace(path)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		writers = append(writers, file)
	}
	if len(writers) == 1 {
		return base, nil
	}
	return io.MultiWriter(writers...), nil
}
