package engine_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wavepipe/internal/engine"
	"wavepipe/internal/services"
)

func notOnPath(string) (string, error) { return "", errors.New("not found") }

func TestEnvironmentLayout(t *testing.T) {
	env := engine.Environment{WorkDir: "/srv/app", GOOS: "linux"}
	if got := env.BundledBinary(); got != filepath.Join("/srv/app", "bin", "yt-dlp") {
		t.Fatalf("unexpected bundled binary: %q", got)
	}
	if got := env.CookiesPath(); got != filepath.Join("/srv/app", "cookies.txt") {
		t.Fatalf("unexpected cookies path: %q", got)
	}
	win := engine.Environment{WorkDir: "/srv/app", GOOS: "windows"}
	if got := win.BinaryName(); got != "yt-dlp.exe" {
		t.Fatalf("unexpected windows binary name: %q", got)
	}
}

func TestResolverPrefersBundledBinary(t *testing.T) {
	workDir := t.TempDir()
	env := engine.Environment{WorkDir: workDir, GOOS: "linux"}
	if err := os.MkdirAll(filepath.Join(workDir, "bin"), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(env.BundledBinary(), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write bundled: %v", err)
	}

	got, err := engine.Resolver{Env: env, LookPath: notOnPath}.Resolve()
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != env.BundledBinary() {
		t.Fatalf("expected bundled binary, got %q", got)
	}
}

func TestResolverFallsBackToPath(t *testing.T) {
	env := engine.Environment{WorkDir: t.TempDir(), GOOS: "linux"}
	lookPath := func(name string) (string, error) {
		if name != "yt-dlp" {
			t.Fatalf("unexpected lookup %q", name)
		}
		return "/usr/local/bin/yt-dlp", nil
	}
	got, err := engine.Resolver{Env: env, LookPath: lookPath}.Resolve()
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "/usr/local/bin/yt-dlp" {
		t.Fatalf("unexpected path: %q", got)
	}
}

func TestResolverReportsEngineNotFound(t *testing.T) {
	env := engine.Environment{WorkDir: t.TempDir(), GOOS: "linux"}
	_, err := engine.Resolver{Env: env, LookPath: notOnPath}.Resolve()
	if !errors.Is(err, services.ErrEngineNotFound) {
		t.Fatalf("expected ErrEngineNotFound, got %v", err)
	}

	_, err = engine.Resolver{Configured: filepath.Join(env.WorkDir, "nope"), Env: env, LookPath: notOnPath}.Resolve()
	if !errors.Is(err, services.ErrEngineNotFound) {
		t.Fatalf("expected ErrEngineNotFound for configured path, got %v", err)
	}
}

func TestCredentialsArgsFollowFilePresence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	creds := engine.Credentials{CookiesFile: path}
	if args := creds.Args(); args != nil {
		t.Fatalf("expected no args without cookies file, got %v", args)
	}
	if err := os.WriteFile(path, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatalf("write cookies: %v", err)
	}
	args := creds.Args()
	if len(args) != 2 || args[0] != "--cookies" || args[1] != path {
		t.Fatalf("unexpected args: %v", args)
	}
	if !creds.Present() {
		t.Fatal("expected Present to report true")
	}
}
