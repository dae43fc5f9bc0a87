package stream_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"wavepipe/internal/stream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingCleanup struct {
	calls atomic.Int32
	path  string
}

func (c *countingCleanup) run() error {
	c.calls.Add(1)
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wavepipe_test.mp3")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	return path
}

func TestFileCleansUpOnceAfterEOF(t *testing.T) {
	path := writeTemp(t, "payload")
	cleanup := &countingCleanup{path: path}
	file, err := stream.Open(path, cleanup.run, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if file.Size() != int64(len("payload")) {
		t.Fatalf("unexpected size %d", file.Size())
	}
	data, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected data %q", data)
	}
	for i := 0; i < 2; i++ {
		if n, err := file.Read(make([]byte, 8)); n != 0 || err != io.EOF {
			t.Fatalf("read %d after EOF = (%d, %v), want (0, EOF)", i, n, err)
		}
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_ = file.Close()
	if got := cleanup.calls.Load(); got != 1 {
		t.Fatalf("expected one cleanup, got %d", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
}

func TestFileCleansUpOnceOnReadError(t *testing.T) {
	path := writeTemp(t, "payload")
	cleanup := &countingCleanup{path: path}
	handle, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	file := stream.NewFile(handle, 7, cleanup.run, nil)
	_ = handle.Close()

	buf := make([]byte, 4)
	if _, err := file.Read(buf); err == nil {
		t.Fatal("expected read error from closed descriptor")
	}
	if _, err := file.Read(buf); err == nil {
		t.Fatal("expected second read to fail too")
	}
	_ = file.Close()
	if got := cleanup.calls.Load(); got != 1 {
		t.Fatalf("expected one cleanup, got %d", got)
	}
}

func TestFileConcurrentCloseRunsCleanupOnce(t *testing.T) {
	path := writeTemp(t, "payload")
	cleanup := &countingCleanup{path: path}
	file, err := stream.Open(path, cleanup.run, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = file.Close()
		}()
	}
	wg.Wait()
	if got := cleanup.calls.Load(); got != 1 {
		t.Fatalf("expected one cleanup, got %d", got)
	}
}

func TestOpenMissingFileStillCleansUp(t *testing.T) {
	cleanup := &countingCleanup{path: filepath.Join(t.TempDir(), "missing.mp3")}
	if _, err := stream.Open(cleanup.path, cleanup.run, nil); err == nil {
		t.Fatal("expected open error")
	}
	if got := cleanup.calls.Load(); got != 1 {
		t.Fatalf("expected cleanup on open failure, got %d", got)
	}
}

func TestServeWritesHeadersAndBody(t *testing.T) {
	path := writeTemp(t, "0123456789")
	cleanup := &countingCleanup{path: path}
	file, err := stream.Open(path, cleanup.run, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec := httptest.NewRecorder()
	written, err := stream.Serve(rec, stream.Payload{
		Body:          file,
		Filename:      "My Song.mp3",
		ContentType:   "audio/mpeg",
		ContentLength: file.Size(),
	})
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if written != 10 || rec.Body.String() != "0123456789" {
		t.Fatalf("unexpected body %q (%d bytes)", rec.Body.String(), written)
	}
	header := rec.Result().Header
	if got := header.Get("Content-Disposition"); !strings.HasPrefix(got, `attachment; filename="My Song.mp3"`) {
		t.Fatalf("unexpected disposition %q", got)
	}
	if got := header.Get("Content-Type"); got != "audio/mpeg" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := header.Get("Content-Length"); got != "10" {
		t.Fatalf("unexpected content length %q", got)
	}
	if got := cleanup.calls.Load(); got != 1 {
		t.Fatalf("expected one cleanup, got %d", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed after serve, stat err=%v", err)
	}
}

type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header { return w.header }
func (w *brokenWriter) WriteHeader(int)     {}
func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestServeClientAbortStillCleansUp(t *testing.T) {
	path := writeTemp(t, strings.Repeat("x", 64<<10))
	cleanup := &countingCleanup{path: path}
	file, err := stream.Open(path, cleanup.run, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = stream.Serve(&brokenWriter{header: http.Header{}}, stream.Payload{Body: file, Filename: "a.mp3", ContentLength: file.Size()})
	if err == nil {
		t.Fatal("expected copy error")
	}
	if got := cleanup.calls.Load(); got != 1 {
		t.Fatalf("expected one cleanup, got %d", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed after abort, stat err=%v", err)
	}
}

func TestContentDispositionEscapes(t *testing.T) {
	got := stream.ContentDisposition(`we"ird\name.mp4`)
	if !strings.Contains(got, `filename="we\"ird\\name.mp4"`) {
		t.Fatalf("unexpected quoting: %q", got)
	}
	if got := stream.ContentDisposition(""); !strings.Contains(got, `filename="download"`) {
		t.Fatalf("unexpected fallback: %q", got)
	}
	if got := stream.ContentDisposition("café.mp3"); !strings.Contains(got, `filename="caf_.mp3"`) || !strings.Contains(got, "filename*=UTF-8''caf%C3%A9.mp3") {
		t.Fatalf("unexpected non-ascii handling: %q", got)
	}
}
