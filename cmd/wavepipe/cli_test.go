package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"wavepipe/internal/config"
	"wavepipe/internal/deps"
	"wavepipe/internal/history"
	"wavepipe/internal/metadata"
	"wavepipe/internal/preflight"
	"wavepipe/internal/testsupport"
	"wavepipe/internal/workspace"
)

var songEngine = testsupport.FakeEngine{
	InfoJSON: `{"title":"Song","uploader":"Band","duration":65,"thumbnail":"https://img/t.jpg"}`,
	Title:    "Song Title",
	Ext:      "mp3",
	Content:  "audio-bytes",
}

type cliEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLIEnv(t *testing.T, opts ...testsupport.ConfigOption) cliEnv {
	t.Helper()
	enginePath := testsupport.WriteFakeEngine(t, t.TempDir(), songEngine)
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithEngine(enginePath)}, opts...)...)

	configPath := filepath.Join(cfg.Paths.WorkDir, "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cliEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLIEnv(t, func(cfg *config.Config) {
		cfg.Server.APIToken = "hunter2"
	})

	out, err := runCLI(t, "--config", env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, err = runCLI(t, "--config", env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "<redacted>")
	if strings.Contains(out, "hunter2") {
		t.Fatal("expected api token to be redacted")
	}

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, err = runCLI(t, "--config", filepath.Join(t.TempDir(), "broken.toml"), "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestInfoCommandJSON(t *testing.T) {
	env := setupCLIEnv(t)
	out, err := runCLI(t, "--config", env.configPath, "info", "https://youtu.be/abc", "--json")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var result metadata.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.Item == nil || result.Item.Title != "Song" || result.Item.Author != "Band" || result.Item.Duration != "1:05" {
		t.Fatalf("unexpected result %+v", result.Item)
	}
}

func TestInfoCommandTable(t *testing.T) {
	env := setupCLIEnv(t)
	out, err := runCLI(t, "--config", env.configPath, "info", "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "Song")
	requireContains(t, out, "1:05")
}

func TestInfoCommandRejectsOptionLikeURL(t *testing.T) {
	env := setupCLIEnv(t)
	if _, err := runCLI(t, "--config", env.configPath, "info", "--", "-o/etc/passwd"); err == nil {
		t.Fatal("expected an error for a non-URL argument")
	}
}

func TestFetchCommandWritesFileAndCleansWorkspace(t *testing.T) {
	env := setupCLIEnv(t)
	outputDir := filepath.Join(t.TempDir(), "out")

	out, err := runCLI(t, "--config", env.configPath, "fetch", "https://youtu.be/abc", "--output", outputDir)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "Song Title.mp3")

	data, err := os.ReadFile(filepath.Join(outputDir, "Song Title.mp3"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Fatalf("unexpected content %q", data)
	}

	entries, err := os.ReadDir(env.cfg.Paths.WorkspaceDir)
	if err != nil {
		t.Fatalf("read workspace: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), workspace.DefaultPrefix) {
			t.Fatalf("leftover workspace file %s", entry.Name())
		}
	}
}

func TestFetchCommandReportsMissingOutput(t *testing.T) {
	enginePath := testsupport.WriteFakeEngine(t, t.TempDir(), testsupport.FakeEngine{Title: "Song"})
	env := setupCLIEnv(t, testsupport.WithEngine(enginePath))

	_, err := runCLI(t, "--config", env.configPath, "fetch", "https://youtu.be/abc", "--output", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "FFmpeg") {
		t.Fatalf("expected missing output error mentioning FFmpeg, got %v", err)
	}
	entries, err := os.ReadDir(env.cfg.Paths.WorkspaceDir)
	if err != nil {
		t.Fatalf("read workspace: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), workspace.DefaultPrefix) {
			t.Fatalf("leftover workspace file %s", entry.Name())
		}
	}
}

func TestSweepCommandRemovesStaleFiles(t *testing.T) {
	env := setupCLIEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.WorkspaceDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stale := filepath.Join(env.cfg.Paths.WorkspaceDir, workspace.DefaultPrefix+"dead.mp4.part")
	if err := os.WriteFile(stale, []byte("partial"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	out, err := runCLI(t, "--config", env.configPath, "sweep")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	requireContains(t, out, "Removed 1 file(s)")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale file removed, stat err=%v", err)
	}
}

func TestHistoryCommand(t *testing.T) {
	disabled := setupCLIEnv(t, func(cfg *config.Config) { cfg.History.Enabled = false })
	if _, err := runCLI(t, "--config", disabled.configPath, "history"); err == nil {
		t.Fatal("expected error when history is disabled")
	}

	env := setupCLIEnv(t, testsupport.WithHistory())
	if err := os.MkdirAll(env.cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	store, err := history.Open(env.cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	err = store.Record(context.Background(), history.Entry{
		Kind:     history.KindDownload,
		URL:      "https://youtu.be/abc",
		Format:   "mp3",
		Outcome:  history.OutcomeOK,
		Bytes:    2048,
		Duration: 1500,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out, err := runCLI(t, "--config", env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "https://youtu.be/abc")
	requireContains(t, out, "2.0 KiB")
}

func TestRenderInfoCollection(t *testing.T) {
	out := renderInfo(metadata.Result{Collection: &metadata.Collection{
		Title:      "Mix",
		Author:     "Curator",
		TotalCount: 2,
		Duration:   "0:30",
		Tracks: []metadata.Track{
			{ID: "a", Title: "One", Duration: "0:10"},
			{ID: "b", Title: "Two", Duration: "0:20"},
		},
	}})
	for _, want := range []string{"Mix", "Curator", "One", "Two", "0:20"} {
		requireContains(t, out, want)
	}
}

func TestByteSize(t *testing.T) {
	cases := map[int64]string{
		-1:          "0 B",
		1023:        "1023 B",
		2048:        "2.0 KiB",
		5 * 1 << 20: "5.0 MiB",
	}
	for input, want := range cases {
		if got := byteSize(input); got != want {
			t.Fatalf("byteSize(%d) = %q, want %q", input, got, want)
		}
	}
}

func TestRenderReportMarksOptionalDependencies(t *testing.T) {
	report := preflight.Report{
		Ready: false,
		Dependencies: []deps.Status{
			{Name: "yt-dlp", Available: true, Detail: "/usr/bin/yt-dlp"},
			{Name: "ffmpeg", Optional: true, Detail: "not found"},
		},
		Checks: []preflight.Result{{Name: "Workspace directory", Detail: "/tmp/x (error: does not exist)"}},
	}
	out := renderReport(report, "/etc/wavepipe.toml", false)
	for _, fragment := range []string{"yt-dlp", "degraded", "failed", "Config: /etc/wavepipe.toml", "Ready:  no (failed)"} {
		requireContains(t, out, fragment)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes, got %q", out)
	}
}
