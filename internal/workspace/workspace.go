package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"wavepipe/internal/media"
)

// DefaultPrefix names every artifact the proxy writes: wavepipe_<id>.<ext>.
const DefaultPrefix = "wavepipe_"

// Manager allocates per-request workspaces in one directory.
type Manager struct {
	Dir    string
	Prefix string
	// OnDelete, when set, runs once per deleted workspace.
	OnDelete func()

	active sync.Map
}

// NewManager returns a Manager rooted at dir, creating it if needed.
func NewManager(dir string) (*Manager, error) {
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	return &Manager{Dir: dir, Prefix: DefaultPrefix}, nil
}

// Workspace is the temp-file identity of one download.
type Workspace struct {
	ID     string
	Dir    string
	Format media.Format
	// OutputTemplate is passed to the engine; it substitutes %(ext)s.
	OutputTemplate string
	// ExpectedPath is where the finished file must appear.
	ExpectedPath string

	prefix  string
	once    sync.Once
	err     error
	manager *Manager
}

// Create allocates a fresh workspace. No file is created until the engine writes one.
func (m *Manager) Create(format media.Format) (*Workspace, error) {
	if format == "" {
		return nil, errors.New("workspace format required")
	}
	id := uuid.NewString()
	base := m.prefix() + id
	m.active.Store(id, struct{}{})
	return &Workspace{
		ID:             id,
		Dir:            m.Dir,
		Format:         format,
		OutputTemplate: filepath.Join(m.Dir, base+".%(ext)s"),
		ExpectedPath:   filepath.Join(m.Dir, base+"."+format.Extension()),
		prefix:         m.prefix(),
		manager:        m,
	}, nil
}

// Active reports whether id belongs to a workspace that has not been deleted yet.
func (m *Manager) Active(id string) bool {
	_, ok := m.active.Load(id)
	return ok
}

func (m *Manager) prefix() string {
	if m.Prefix == "" {
		return DefaultPrefix
	}
	return m.Prefix
}

// Delete removes the expected output and any sibling the engine left behind
// (partial downloads, thumbnails). Only the first call does work; later calls
// return the first result. A missing file is not an error.
func (w *Workspace) Delete() error {
	if w == nil {
		return nil
	}
	w.once.Do(func() {
		w.err = w.remove()
		if w.manager != nil {
			w.manager.active.Delete(w.ID)
			if w.manager.OnDelete != nil {
				w.manager.OnDelete()
			}
		}
	})
	return w.err
}

func (w *Workspace) remove() error {
	var errs []error
	if err := os.Remove(w.ExpectedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove %s: %w", w.ExpectedPath, err))
	}
	entries, err := os.ReadDir(w.Dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("list %s: %w", w.Dir, err))
	}
	stem := w.prefix + w.ID + "."
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), stem) {
			continue
		}
		path := filepath.Join(w.Dir, entry.Name())
		if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}
