package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// SweepResult summarizes one janitor pass.
type SweepResult struct {
	Removed []string
	Bytes   int64
	// Skipped is set when another process holds the sweep lock.
	Skipped bool
}

// LockPath returns the lock file that serializes sweeps across processes.
func (m *Manager) LockPath() string {
	return filepath.Join(m.Dir, m.prefix()+"sweep.lock")
}

// Sweep removes workspace artifacts older than maxAge that no live request
// owns. They are left behind when a process dies between fetch and cleanup.
func (m *Manager) Sweep(ctx context.Context, maxAge time.Duration, now time.Time) (SweepResult, error) {
	if maxAge <= 0 {
		return SweepResult{}, errors.New("sweep max age must be positive")
	}
	lock := flock.New(m.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return SweepResult{}, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !locked {
		return SweepResult{Skipped: true}, nil
	}
	defer func() {
		_ = lock.Unlock()
	}()

	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list workspace dir: %w", err)
	}

	var result SweepResult
	var errs []error
	lockName := filepath.Base(m.LockPath())
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		name := entry.Name()
		if name == lockName || !strings.HasPrefix(name, m.prefix()) {
			continue
		}
		if id := idFromName(strings.TrimPrefix(name, m.prefix())); id != "" && m.Active(id) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		path := filepath.Join(m.Dir, name)
		if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		result.Removed = append(result.Removed, path)
		if !info.IsDir() {
			result.Bytes += info.Size()
		}
	}
	return result, errors.Join(errs...)
}

func idFromName(rest string) string {
	if idx := strings.IndexByte(rest, '.'); idx > 0 {
		return rest[:idx]
	}
	return rest
}
