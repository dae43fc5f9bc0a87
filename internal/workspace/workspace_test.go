package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"wavepipe/internal/media"
	"wavepipe/internal/workspace"
)

func TestCreateDerivesPaths(t *testing.T) {
	dir := t.TempDir()
	manager, err := workspace.NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	audio, err := manager.Create(media.FormatAudio)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if audio.OutputTemplate != filepath.Join(dir, "wavepipe_"+audio.ID+".%(ext)s") {
		t.Fatalf("unexpected template: %q", audio.OutputTemplate)
	}
	if audio.ExpectedPath != filepath.Join(dir, "wavepipe_"+audio.ID+".mp3") {
		t.Fatalf("unexpected audio path: %q", audio.ExpectedPath)
	}

	video, err := manager.Create(media.FormatVideo)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasSuffix(video.ExpectedPath, ".mp4") {
		t.Fatalf("unexpected video path: %q", video.ExpectedPath)
	}
	if _, err := os.Stat(audio.ExpectedPath); !os.IsNotExist(err) {
		t.Fatalf("expected Create not to touch the filesystem, stat err=%v", err)
	}
}

func TestWorkspaceIDsAreUnique(t *testing.T) {
	manager := &workspace.Manager{Dir: t.TempDir()}
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		ws, err := manager.Create(media.FormatAudio)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, dup := seen[ws.ID]; dup {
			t.Fatalf("duplicate workspace id %q after %d allocations", ws.ID, i)
		}
		if _, dup := seen[ws.ExpectedPath]; dup {
			t.Fatalf("duplicate path %q", ws.ExpectedPath)
		}
		seen[ws.ID] = struct{}{}
		seen[ws.ExpectedPath] = struct{}{}
	}
}

func TestDeleteRemovesOutputAndSiblingsOnce(t *testing.T) {
	var deletions atomic.Int32
	manager := &workspace.Manager{Dir: t.TempDir(), OnDelete: func() { deletions.Add(1) }}
	ws, err := manager.Create(media.FormatAudio)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, err := manager.Create(media.FormatAudio)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	partial := filepath.Join(ws.Dir, "wavepipe_"+ws.ID+".webm.part")
	thumb := filepath.Join(ws.Dir, "wavepipe_"+ws.ID+".jpg")
	keep := other.ExpectedPath
	for _, path := range []string{ws.ExpectedPath, partial, thumb, keep} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	if !manager.Active(ws.ID) {
		t.Fatal("expected workspace to be active before delete")
	}

	for i := 0; i < 3; i++ {
		if err := ws.Delete(); err != nil {
			t.Fatalf("Delete call %d: %v", i, err)
		}
	}
	for _, path := range []string{ws.ExpectedPath, partial, thumb} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", path, err)
		}
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("expected other workspace file to survive: %v", err)
	}
	if got := deletions.Load(); got != 1 {
		t.Fatalf("expected one deletion callback, got %d", got)
	}
	if manager.Active(ws.ID) {
		t.Fatal("expected workspace to be inactive after delete")
	}
}

func TestDeleteToleratesMissingFile(t *testing.T) {
	manager := &workspace.Manager{Dir: t.TempDir()}
	ws, err := manager.Create(media.FormatVideo)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := ws.Delete(); err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
}

func TestSweepRemovesStaleOrphans(t *testing.T) {
	dir := t.TempDir()
	manager := &workspace.Manager{Dir: dir}
	now := time.Now()
	old := now.Add(-3 * time.Hour)

	orphan := filepath.Join(dir, "wavepipe_dead.mp3")
	fresh := filepath.Join(dir, "wavepipe_fresh.mp3")
	foreign := filepath.Join(dir, "unrelated.mp3")
	for _, path := range []string{orphan, fresh, foreign} {
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	live, err := manager.Create(media.FormatAudio)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(live.ExpectedPath, []byte("live"), 0o644); err != nil {
		t.Fatalf("write live: %v", err)
	}
	for _, path := range []string{orphan, foreign, live.ExpectedPath} {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	result, err := manager.Sweep(context.Background(), 2*time.Hour, now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(result.Removed) != 1 || result.Removed[0] != orphan {
		t.Fatalf("unexpected removals: %v", result.Removed)
	}
	if result.Bytes != 4 {
		t.Fatalf("unexpected reclaimed bytes: %d", result.Bytes)
	}
	for _, path := range []string{fresh, foreign, live.ExpectedPath, manager.LockPath()} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to survive: %v", path, err)
		}
	}
}

func TestSweepSkipsWhenLocked(t *testing.T) {
	manager := &workspace.Manager{Dir: t.TempDir()}
	holder := flock.New(manager.LockPath())
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("expected to take lock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock()

	result, err := manager.Sweep(context.Background(), time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if !result.Skipped {
		t.Fatal("expected sweep to be skipped while lock is held")
	}
}
