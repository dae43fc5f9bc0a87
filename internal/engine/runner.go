package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"wavepipe/internal/services"
)

const (
	defaultMaxStdout = 16 << 20
	defaultMaxStderr = 64 << 10
	waitDelay        = 5 * time.Second
)

// RunOptions tunes output capture for a single invocation.
type RunOptions struct {
	// CaptureStdout keeps stdout in Result.Stdout; otherwise it is discarded.
	CaptureStdout bool
	// MaxStdout caps captured stdout. Zero uses 16 MiB.
	MaxStdout int64
	// MaxStderr caps the retained stderr tail. Zero uses 64 KiB.
	MaxStderr int64
	// OnStderrLine receives each stderr line as it arrives.
	OnStderrLine func(string)
}

// Result is the outcome of one engine run.
type Result struct {
	// ExitCode is -1 when the process was terminated by a signal.
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	// Truncated is set when stdout exceeded MaxStdout.
	Truncated bool
	Duration  time.Duration
}

// Runner abstracts engine execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, opts RunOptions) (Result, error)
}

// ExecRunner runs the engine as a child process.
//
// Both output streams are always drained so a chatty engine never blocks on a
// full pipe. Any observed exit code, zero or not, is reported through Result
// with a nil error; errors are reserved for spawn failures and cancellation.
type ExecRunner struct{}

// Run executes binary with args and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, binary string, args []string, opts RunOptions) (Result, error) {
	if err := checkExecutable(binary); err != nil {
		return Result{ExitCode: -1}, services.Wrap(services.ErrEngineNotFound, "engine", "run", binary, err)
	}

	stdout := io.Writer(io.Discard)
	var captured *headBuffer
	if opts.CaptureStdout {
		captured = &headBuffer{limit: orDefault(opts.MaxStdout, defaultMaxStdout)}
		stdout = captured
	}
	stderr := &tailBuffer{limit: orDefault(opts.MaxStderr, defaultMaxStderr), onLine: opts.OnStderrLine}

	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdin = nil
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, services.Wrap(services.ErrEngineExecution, "engine", "start", binary, err)
	}
	waitErr := cmd.Wait()
	stderr.flush()

	result := Result{
		ExitCode: -1,
		Stderr:   stderr.Bytes(),
		Duration: time.Since(started),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if captured != nil {
		result.Stdout = captured.Bytes()
		result.Truncated = captured.truncated
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		marker := services.ErrEngineExecution
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return result, services.Wrap(marker, "engine", "wait", fmt.Sprintf("%s terminated after %s", binary, result.Duration.Round(time.Millisecond)), ctxErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
		case errors.Is(waitErr, exec.ErrWaitDelay):
		default:
			return result, services.Wrap(services.ErrEngineExecution, "engine", "wait", binary, waitErr)
		}
	}
	return result, nil
}

func orDefault(value, fallback int64) int64 {
	if value <= 0 {
		return fallback
	}
	return value
}

var _ Runner = ExecRunner{}

// killProcess kills p, ignoring a process that already exited.
func killProcess(p *os.Process) error {
	if p == nil {
		return nil
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
