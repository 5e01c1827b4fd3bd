// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/clock"
)

const (
	// DefaultTimeout bounds a single command.
	DefaultTimeout = 300 * time.Second

	// DefaultShell interprets commands.
	DefaultShell = "/bin/sh"

	// waitDelay bounds how long Wait blocks on output pipes after the
	// process group has been killed.
	waitDelay = 5 * time.Second
)

// TimeoutError is returned when a command exceeds its timeout. Its
// message is what the agent sees.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Command timed out after %d seconds.", int(e.Timeout.Seconds()))
}

// Result is the outcome of a command that ran to completion, whatever
// its exit status.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Format renders the result the way tools report it to the model.
// Empty streams are omitted.
func (r *Result) Format() string {
	var builder strings.Builder
	builder.WriteString("Return Code: " + strconv.Itoa(r.ExitCode) + "\n")
	if r.Stdout != "" {
		builder.WriteString("STDOUT:\n" + r.Stdout + "\n")
	}
	if r.Stderr != "" {
		builder.WriteString("STDERR:\n" + r.Stderr + "\n")
	}
	return builder.String()
}

// Runner executes commands. The zero value is not usable; construct
// with NewRunner.
type Runner struct {
	timeout time.Duration
	shell   string
	env     []string
	clock   clock.Clock
	logger  *slog.Logger
}

// Config holds the parameters for NewRunner.
type Config struct {
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// Shell defaults to DefaultShell. It is invoked as Shell -c command.
	Shell string

	// Env is appended to the process environment.
	Env []string

	// Clock drives the timeout. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewRunner returns a Runner with defaults applied.
func NewRunner(config Config) *Runner {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Shell == "" {
		config.Shell = DefaultShell
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Runner{
		timeout: config.Timeout,
		shell:   config.Shell,
		env:     config.Env,
		clock:   config.Clock,
		logger:  config.Logger,
	}
}

// Timeout returns the per-command limit.
func (r *Runner) Timeout() time.Duration { return r.timeout }

// Run executes command in dir (the current directory when empty). A
// non-zero exit status is not an error; it is reported in the Result.
// Errors are a *TimeoutError, ctx cancellation, or a failure to start.
func (r *Runner) Run(ctx context.Context, command, dir string) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("shell: empty command")
	}
	r.logger.Info("executing command", "command", command, "dir", dir)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var timedOut atomic.Bool
	timer := r.clock.NewTimer(r.timeout)
	defer timer.Stop()
	go func() {
		select {
		case <-timer.C:
			timedOut.Store(true)
			cancel()
		case <-ctx.Done():
		}
	}()

	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Dir = dir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Own process group, so the kill reaches every descendant.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if timedOut.Load() {
		r.logger.Warn("command timed out", "command", command, "timeout", r.timeout)
		return nil, &TimeoutError{Command: command, Timeout: r.timeout}
	}

	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) && ctx.Err() == nil {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("shell: %q: %w", command, ctx.Err())
	}
	return nil, fmt.Errorf("shell: running %q: %w", command, err)
}
