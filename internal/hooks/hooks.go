// Package hooks runs the ordered steps and preflight checks that make up kcontrib commands.
package hooks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playkit-contrib/kcontrib/internal/logging"
)

// Step is one stage of a multi-stage command.
type Step struct {
	// Name is announced before the step runs.
	Name string
	// When, if set, decides at run time whether the step runs.
	When func() bool
	// Run does the work.
	Run func(ctx context.Context) error
}

// Check is one preflight check.
type Check struct {
	Name string
	// Optional checks only warn when they fail.
	Optional bool
	Run      func(ctx context.Context) error
}

// Executor runs steps and checks, logging each one.
type Executor struct {
	logger   *slog.Logger
	announce func(name string)
}

// Option customizes an Executor.
type Option func(*Executor)

// WithAnnounce sets a callback invoked with the name of every step before it runs.
func WithAnnounce(fn func(name string)) Option {
	return func(e *Executor) {
		e.announce = fn
	}
}

// NewExecutor constructs an Executor.
func NewExecutor(logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	e := &Executor{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes steps in order and stops at the first failure.
func (e *Executor) Run(ctx context.Context, steps []Step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.When != nil && !s.When() {
			e.logger.Debug("step skipped", "step", s.Name)
			continue
		}
		if e.announce != nil {
			e.announce(s.Name)
		}
		e.logger.Debug("step started", "step", s.Name)
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	return nil
}

// RunChecks runs every check, logging each outcome, and fails when any required check failed.
func (e *Executor) RunChecks(ctx context.Context, checks []Check) error {
	fatal := 0
	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.Run(ctx)
		switch {
		case err == nil:
			e.logger.Info("doctor check ok", "check", c.Name)
		case c.Optional:
			e.logger.Warn("optional check failed", "check", c.Name, "error", err)
		default:
			e.logger.Error("doctor check failed", "check", c.Name, "error", err)
			fatal++
		}
	}
	if fatal > 0 {
		return fmt.Errorf("doctor found %d fatal issue(s); see log for details", fatal)
	}
	return nil
}
