package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sys/unix"

	"wavepipe/internal/config"
	"wavepipe/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCookies reports whether the credentials file will be attached. A
// missing file passes: requests then run unauthenticated.
func CheckCookies(path string) Result {
	const name = "Cookies file"
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Passed: true, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (absent, requests are unauthenticated)", path)}
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	case info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (attached to engine calls)", path)}
}

// CheckRedis pings the shared cache with a short timeout.
func CheckRedis(ctx context.Context, addr, password string, db int) Result {
	const name = "Redis cache"
	if strings.TrimSpace(addr) == "" {
		return Result{Name: name, Detail: "missing address"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db, MaxRetries: -1})
	defer client.Close()
	if err := client.Ping(checkCtx).Err(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", addr, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", addr)}
}

// CheckSystemDeps evaluates the engine and ffmpeg. Both the server health
// endpoint and the CLI status command use this so the list stays in one place.
func CheckSystemDeps(cfg *config.Config, engine deps.EngineResolver) []deps.Status {
	engineStatus := deps.CheckEngine(engine)
	ffmpegStatus := deps.CheckFFmpeg(cfg.Engine.FFmpegBinary, engineStatus.Command)
	return []deps.Status{engineStatus, ffmpegStatus}
}
