package stream

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"wavepipe/internal/logging"
)

// File is a read-once view over a finished download. The first EOF, read
// error or Close closes the descriptor and then runs the cleanup func. Cleanup
// runs exactly once whichever of those happens first.
type File struct {
	file    *os.File
	size    int64
	cleanup func() error
	logger  *slog.Logger

	once     sync.Once
	done     atomic.Bool
	closeErr error
}

// Open opens path and returns a File that calls cleanup when finished. If the
// open or stat fails, cleanup runs before Open returns.
func Open(path string, cleanup func() error, logger *slog.Logger) (*File, error) {
	handle, err := os.Open(path)
	if err != nil {
		runCleanup(cleanup, logger, path)
		return nil, err
	}
	info, err := handle.Stat()
	if err != nil {
		_ = handle.Close()
		runCleanup(cleanup, logger, path)
		return nil, err
	}
	return NewFile(handle, info.Size(), cleanup, logger), nil
}

// NewFile wraps an already open file.
func NewFile(handle *os.File, size int64, cleanup func() error, logger *slog.Logger) *File {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &File{file: handle, size: size, cleanup: cleanup, logger: logger}
}

// Size is the byte length observed when the file was opened.
func (f *File) Size() int64 { return f.size }

// Read implements io.Reader. The first error from the underlying file is
// returned unchanged after cleanup has run; once finished, Read keeps
// returning io.EOF.
func (f *File) Read(p []byte) (int, error) {
	if f.done.Load() {
		return 0, io.EOF
	}
	n, err := f.file.Read(p)
	if err != nil {
		f.finish()
	}
	return n, err
}

// Close releases the file and runs cleanup if no earlier call did. It returns
// the error from closing the descriptor; cleanup failures are only logged.
func (f *File) Close() error {
	f.finish()
	return f.closeErr
}

func (f *File) finish() {
	f.once.Do(func() {
		f.done.Store(true)
		if err := f.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			f.closeErr = err
		}
		runCleanup(f.cleanup, f.logger, f.file.Name())
	})
}

func runCleanup(cleanup func() error, logger *slog.Logger, path string) {
	if cleanup == nil {
		return
	}
	if err := cleanup(); err != nil {
		if logger == nil {
			logger = logging.NewNop()
		}
		logging.WarnWithHint(logger, "temporary file cleanup failed", "cleanup_failed",
			"the workspace sweeper removes leftovers after workspace.max_age",
			logging.String("path", path),
			logging.Error(err),
		)
	}
}

var _ io.ReadCloser = (*File)(nil)
