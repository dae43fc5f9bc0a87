package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Status reports whether one external binary can be run.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

func (s Status) found(path string) Status {
	s.Command = path
	s.Available = true
	s.Detail = ""
	return s
}

func (s Status) missing(detail string) Status {
	s.Available = false
	s.Detail = detail
	return s
}

// EngineResolver locates the extraction engine.
type EngineResolver interface {
	Resolve() (string, error)
}

// CheckEngine reports the yt-dlp binary the download service would run.
func CheckEngine(resolver EngineResolver) Status {
	status := Status{Name: "yt-dlp", Description: "Required for metadata and downloads"}
	path, err := resolver.Resolve()
	if err != nil {
		return status.missing(err.Error())
	}
	return status.found(path)
}

// CheckFFmpeg reports the ffmpeg yt-dlp will pick up: a copy next to the
// engine binary first, then configured resolved through PATH.
func CheckFFmpeg(configured, enginePath string) Status {
	status := Status{
		Name:        "FFmpeg",
		Description: "Used by yt-dlp to transcode and embed metadata",
	}
	if enginePath = strings.TrimSpace(enginePath); enginePath != "" {
		sidecar := filepath.Join(filepath.Dir(enginePath), executableName("ffmpeg"))
		if executable(sidecar) {
			return status.found(sidecar)
		}
	}

	name := strings.TrimSpace(configured)
	if name == "" {
		name = "ffmpeg"
	}
	status.Command = name
	if path, err := exec.LookPath(name); err == nil {
		return status.found(path)
	}
	return status.missing(fmt.Sprintf("binary %q not found; downloads will fail with OutputMissing", name))
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}
