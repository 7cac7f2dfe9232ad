package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iishyfishyy/shellmind/internal/metrics"
)

// DefaultTimeout bounds every shell execution
const DefaultTimeout = 30 * time.Second

// killGrace bounds the wait for output pipes to close after a kill
const killGrace = 5 * time.Second

// Status reports whether an execution succeeded
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the outcome of one shell execution.
// Completed results always carry Stdout, Stderr and ReturnCode, even on a
// non-zero exit. Results that never completed (empty command, spawn failure,
// timeout) carry only Error.
type Result struct {
	Status     Status
	Stdout     string
	Stderr     string
	ReturnCode int
	Error      string
	Completed  bool
	TimedOut   bool
}

// MarshalJSON emits the shell result shape: stdout/stderr/return_code for
// completed runs, error otherwise.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Completed {
		return json.Marshal(struct {
			Status Status `json:"status,omitempty"`
			Error  string `json:"error"`
		}{r.Status, r.Error})
	}
	return json.Marshal(struct {
		Status     Status `json:"status"`
		Stdout     string `json:"stdout"`
		Stderr     string `json:"stderr"`
		ReturnCode int    `json:"return_code"`
	}{r.Status, r.Stdout, r.Stderr, r.ReturnCode})
}

// Executor runs command strings through the host shell
type Executor struct {
	shell     string
	shellArgs []string
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures an Executor
type Option func(*Executor)

// WithTimeout overrides the wall-clock limit
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithShell overrides the shell binary and the flag used to pass the command
func WithShell(shell string, args ...string) Option {
	return func(e *Executor) {
		e.shell = shell
		e.shellArgs = args
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// New creates an executor using the user's shell
func New(opts ...Option) *Executor {
	shell, args := defaultShell()
	e := &Executor{
		shell:     shell,
		shellArgs: args,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// defaultShell determines the shell based on OS
func defaultShell() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return shell, []string{"-c"}
}

// Timeout returns the configured wall-clock limit
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs command and waits for it to finish or time out.
// It never returns an error: spawn failures and timeouts are reported in
// the Result. On timeout the whole process group is killed and reaped.
func (e *Executor) Execute(ctx context.Context, command string) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Error: "Empty command"}
	}

	e.logger.Info("executing shell command", zap.String("command", command))

	args := append(append([]string{}, e.shellArgs...), command)
	cmd := exec.Command(e.shell, args...)
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		e.logger.Error("failed to start command", zap.String("command", command), zap.Error(err))
		return Result{
			Status: StatusError,
			Error:  fmt.Sprintf("Command execution failed: %v", err),
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-done:
	case <-timer.C:
		return e.kill(cmd, done, start, command, fmt.Sprintf("Command execution timed out after %s", e.timeout))
	case <-ctx.Done():
		return e.kill(cmd, done, start, command, fmt.Sprintf("Command execution cancelled: %v", ctx.Err()))
	}
	e.metrics.ShellExecuted(time.Since(start), false)

	result := Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Completed: true,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Status = StatusSuccess
	case errors.As(err, &exitErr):
		result.Status = StatusError
		result.ReturnCode = exitErr.ExitCode()
		e.logger.Warn("command returned non-zero exit code",
			zap.String("command", command),
			zap.Int("return_code", result.ReturnCode))
	default:
		// the shell exited but collecting its output failed
		result.ReturnCode = -1
		if cmd.ProcessState != nil {
			result.ReturnCode = cmd.ProcessState.ExitCode()
		}
		result.Status = StatusError
		if result.ReturnCode == 0 {
			result.Status = StatusSuccess
		}
		e.logger.Warn("command wait failed", zap.String("command", command), zap.Error(err))
	}
	return result
}

// kill terminates the process group and waits for the shell to be reaped
// and its output pipes to close
func (e *Executor) kill(cmd *exec.Cmd, done <-chan error, start time.Time, command, msg string) Result {
	if err := killProcessGroup(cmd); err != nil {
		e.logger.Warn("failed to kill process group", zap.String("command", command), zap.Error(err))
	}
	select {
	case <-done:
	case <-time.After(killGrace):
		e.logger.Warn("command output still open after kill", zap.String("command", command))
	}
	e.metrics.ShellExecuted(time.Since(start), true)
	e.logger.Error("command terminated", zap.String("command", command), zap.String("reason", msg))
	return Result{
		Status:   StatusError,
		Error:    msg,
		TimedOut: true,
	}
}
