package sidecar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"syscall"
	"time"

	"icabridge/internal/config"
	"icabridge/internal/logging"
)

// Result is what the sidecar reported.
type Result struct {
	// Code is the exit code; nil when the process was killed by a signal.
	Code *int
	// Signal names the terminating signal, empty when there was none.
	Signal string
	Stdout string
	Stderr string
}

// Success returns true if the process exited with code 0.
func (r *Result) Success() bool {
	return r.Code != nil && *r.Code == 0
}

// CodeString formats the exit code for messages ("unknown" when absent).
func (r *Result) CodeString() string {
	if r.Code == nil {
		return "unknown"
	}
	return strconv.Itoa(*r.Code)
}

// Executor runs the sidecar with a final argument list.
type Executor interface {
	Execute(ctx context.Context, args []string) (*Result, error)
}

// Func adapts a function to the Executor interface.
type Func func(ctx context.Context, args []string) (*Result, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, args []string) (*Result, error) {
	return f(ctx, args)
}

// ExecExecutor launches the sidecar with os/exec.
type ExecExecutor struct {
	// Command is the executable name or path.
	Command string

	// PrefixArgs are placed before every argument list.
	PrefixArgs []string

	// Dir is the working directory; empty means the current one.
	Dir string

	// Env holds extra environment variables on top of os.Environ().
	Env map[string]string

	// Timeout bounds each run; zero means no limit beyond ctx.
	Timeout time.Duration
}

// NewExecExecutor builds an executor from the sidecar section of cfg.
func NewExecExecutor(cfg *config.Config) *ExecExecutor {
	return &ExecExecutor{
		Command:    cfg.Sidecar.Command,
		PrefixArgs: cfg.Sidecar.Args,
		Dir:        cfg.Sidecar.WorkingDirectory,
		Env:        cfg.Sidecar.Env,
		Timeout:    cfg.GetSidecarTimeout(),
	}
}

// Execute runs the sidecar once and captures its output.
func (e *ExecExecutor) Execute(ctx context.Context, args []string) (*Result, error) {
	if e.Command == "" {
		return nil, ErrEmptyCommand
	}

	argv := make([]string, 0, len(e.PrefixArgs)+len(args))
	argv = append(argv, e.PrefixArgs...)
	argv = append(argv, args...)

	execCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	logging.SidecarDebug("exec: cmd=%s, args=%q, dir=%s, timeout=%s", e.Command, argv, e.Dir, e.Timeout)

	cmd := exec.CommandContext(execCtx, e.Command, argv...)
	cmd.Dir = e.Dir
	cmd.Env = e.environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to start sidecar %s: %w", e.Command, err)
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("%w after %s", ErrTimeout, e.Timeout)
		}
		fillExit(result, exitErr.ProcessState)
	} else {
		fillExit(result, cmd.ProcessState)
	}

	logging.Sidecar("exec completed: code=%s signal=%q stdout=%dB stderr=%dB in %s",
		result.CodeString(), result.Signal, len(result.Stdout), len(result.Stderr), elapsed)
	return result, nil
}

func (e *ExecExecutor) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(e.Env))
	for k := range e.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+e.Env[k])
	}
	return env
}

func fillExit(result *Result, state *os.ProcessState) {
	if state == nil {
		return
	}
	if code := state.ExitCode(); code >= 0 {
		result.Code = &code
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		result.Signal = ws.Signal().String()
	}
}
