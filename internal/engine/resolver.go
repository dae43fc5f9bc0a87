package engine

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"wavepipe/internal/services"
)

// Resolver locates the engine executable.
//
// Lookup order: the configured binary, the bundled <workdir>/bin/yt-dlp, then
// yt-dlp on PATH.
type Resolver struct {
	Configured string
	Env        Environment
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Resolve returns the absolute engine path or an ErrEngineNotFound error.
func (r Resolver) Resolve() (string, error) {
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if configured := strings.TrimSpace(r.Configured); configured != "" {
		if strings.ContainsAny(configured, `/\`) {
			if err := checkExecutable(configured); err != nil {
				return "", services.Wrap(services.ErrEngineNotFound, "engine", "resolve", fmt.Sprintf("configured binary %s", configured), err)
			}
			return configured, nil
		}
		path, err := lookPath(configured)
		if err != nil {
			return "", services.Wrap(services.ErrEngineNotFound, "engine", "resolve", fmt.Sprintf("configured binary %q not on PATH", configured), err)
		}
		return path, nil
	}

	if r.Env.WorkDir != "" {
		bundled := r.Env.BundledBinary()
		if err := checkExecutable(bundled); err == nil {
			return bundled, nil
		}
	}

	path, err := lookPath(r.Env.BinaryName())
	if err != nil {
		hint := fmt.Sprintf("%s not found on PATH", r.Env.BinaryName())
		if r.Env.WorkDir != "" {
			hint = fmt.Sprintf("%s not found at %s or on PATH", r.Env.BinaryName(), r.Env.BundledBinary())
		}
		return "", services.Wrap(services.ErrEngineNotFound, "engine", "resolve", hint, nil)
	}
	return path, nil
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// Credentials attaches the cookies file to engine invocations when it exists.
type Credentials struct {
	CookiesFile string
}

// Args returns ["--cookies", path] when the cookies file is present and nil
// otherwise. Presence is checked on every call so a file dropped in while the
// server runs takes effect on the next request.
func (c Credentials) Args() []string {
	path := strings.TrimSpace(c.CookiesFile)
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}
	return []string{"--cookies", path}
}

// Present reports whether Args would attach the cookies file.
func (c Credentials) Present() bool {
	return len(c.Args()) > 0
}

