package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Environment captures the host facts the engine layout depends on. It is a
// plain value so tests can point it at a temp directory.
type Environment struct {
	WorkDir string
	TempDir string
	GOOS    string
}

// DefaultEnvironment reads the process working directory, temp directory and OS.
func DefaultEnvironment() (Environment, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Environment{}, fmt.Errorf("resolve working directory: %w", err)
	}
	return Environment{WorkDir: wd, TempDir: os.TempDir(), GOOS: runtime.GOOS}, nil
}

// BinaryName returns the engine executable name for the target OS.
func (e Environment) BinaryName() string {
	if e.goos() == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

// BundledBinary is the engine shipped next to the service: <workdir>/bin/yt-dlp.
func (e Environment) BundledBinary() string {
	return filepath.Join(e.WorkDir, "bin", e.BinaryName())
}

// CookiesPath is the default credentials location: <workdir>/cookies.txt.
func (e Environment) CookiesPath() string {
	return filepath.Join(e.WorkDir, "cookies.txt")
}

func (e Environment) goos() string {
	if e.GOOS == "" {
		return runtime.GOOS
	}
	return e.GOOS
}
