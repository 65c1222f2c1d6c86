// Package runner is the single place where kcontrib spawns external tools such as npm and npx.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/playkit-contrib/kcontrib/internal/env"
	"github.com/playkit-contrib/kcontrib/internal/logging"
)

// Command describes one process invocation.
type Command struct {
	// Name is the executable, resolved through PATH.
	Name string
	// Args are passed verbatim.
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is layered over the parent environment for this process only.
	Env env.Vars
	// Stdin feeds the process; nil means no input.
	Stdin io.Reader
	// Interactive attaches the process to the terminal; output is still recorded in the Result.
	Interactive bool
}

// String renders the command line for logs and errors.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExitError reports a process that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// IsExitError reports whether err is (or wraps) an *ExitError.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// Exec runs commands as real child processes.
type Exec struct {
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewExec constructs an Exec that mirrors captured output to logger at debug level
// and attaches interactive commands to the process's standard streams.
func NewExec(logger *slog.Logger) *Exec {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Exec{logger: logger, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// Run starts c and waits for it. A non-zero exit returns the Result together with an *ExitError.
func (e *Exec) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = env.Merge(env.FromOS(), c.Env).List()
	}

	var stdout, stderr bytes.Buffer
	if c.Interactive {
		cmd.Stdin = e.stdin
		if c.Stdin != nil {
			cmd.Stdin = c.Stdin
		}
		cmd.Stdout = io.MultiWriter(e.stdout, &stdout)
		cmd.Stderr = io.MultiWriter(e.stderr, &stderr)
	} else {
		outLog := logging.NewWriter(e.logger, c.Name+" stdout")
		errLog := logging.NewWriter(e.logger, c.Name+" stderr")
		defer outLog.Flush()
		defer errLog.Flush()
		cmd.Stdin = c.Stdin
		cmd.Stdout = io.MultiWriter(&stdout, outLog)
		cmd.Stderr = io.MultiWriter(&stderr, errLog)
	}

	e.logger.Debug("running command", "cmd", c.String(), "dir", c.Dir)
	start := time.Now()
	err := cmd.Run()
	res := Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return res, &ExitError{Command: c.String(), Code: exitErr.ExitCode(), Stderr: res.Stderr}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%s interrupted: %w", c.String(), ctxErr)
		}
		return res, fmt.Errorf("%s failed: %w", c.String(), err)
	}
	e.logger.Debug("command finished", "cmd", c.String(), "duration", res.Duration)
	return res, nil
}

// LookPath resolves an executable in PATH.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s binary not found in PATH: %w", name, err)
	}
	return path, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
