// Package npm wraps the npm and npx command-line tools.
package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/playkit-contrib/kcontrib/internal/env"
	"github.com/playkit-contrib/kcontrib/internal/runner"
)

// MinVersion is the oldest npm release kcontrib works with.
const MinVersion = "3.0.0"

// Client runs npm commands through a runner.
type Client struct {
	runner runner.Runner
	env    env.Vars
}

// NewClient constructs a Client. childEnv is added to every npm process.
func NewClient(r runner.Runner, childEnv env.Vars) *Client {
	return &Client{runner: r, env: childEnv}
}

// InstallOptions tunes npm install.
type InstallOptions struct {
	// Packages to add; empty installs the manifest's dependencies.
	Packages []string
	// Dev saves to devDependencies instead of dependencies.
	Dev bool
	// Exact pins the resolved version instead of a range.
	Exact bool
	// Verbose passes --verbose, otherwise --loglevel error.
	Verbose bool
}

// InstallArgs builds the argument list of an npm install.
func InstallArgs(opts InstallOptions) []string {
	args := []string{"install"}
	if len(opts.Packages) > 0 {
		if opts.Dev {
			args = append(args, "--save-dev")
		} else {
			args = append(args, "--save")
		}
		if opts.Exact {
			args = append(args, "--save-exact")
		}
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	} else {
		args = append(args, "--loglevel", "error")
	}
	return append(args, opts.Packages...)
}

// Install runs npm install in dir.
func (c *Client) Install(ctx context.Context, dir string, opts InstallOptions) error {
	return c.run(ctx, dir, true, InstallArgs(opts)...)
}

// Link links packages from the global npm prefix into dir.
func (c *Client) Link(ctx context.Context, dir string, packages ...string) error {
	return c.run(ctx, dir, true, append([]string{"link"}, packages...)...)
}

// RunScript runs a package.json script.
func (c *Client) RunScript(ctx context.Context, dir, script string, extra ...string) error {
	args := []string{"run", script}
	if len(extra) > 0 {
		args = append(append(args, "--"), extra...)
	}
	return c.run(ctx, dir, true, args...)
}

// Publish publishes the package in dir with the given access level.
func (c *Client) Publish(ctx context.Context, dir, access string) error {
	args := []string{"publish"}
	if access != "" {
		args = append(args, "--access", access)
	}
	return c.run(ctx, dir, true, args...)
}

// Npx runs a package binary through npx attached to the terminal.
// The result carries the tool's output so callers can inspect it.
func (c *Client) Npx(ctx context.Context, dir string, extra env.Vars, args ...string) (runner.Result, error) {
	res, err := c.runner.Run(ctx, runner.Command{
		Name:        "npx",
		Args:        args,
		Dir:         dir,
		Env:         c.childEnv(extra),
		Interactive: true,
	})
	if err != nil {
		return res, fmt.Errorf("npx %s: %w", strings.Join(args, " "), err)
	}
	return res, nil
}

// SearchResult is one package reported by npm search.
type SearchResult struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Search lists the packages published under scope (e.g. "@playkit-js-contrib").
func (c *Client) Search(ctx context.Context, scope string) ([]SearchResult, error) {
	res, err := c.runner.Run(ctx, runner.Command{
		Name: "npm",
		Args: []string{"search", "--no-description", "--json", strings.TrimSuffix(scope, "/") + "/"},
		Env:  c.env,
	})
	if err != nil {
		return nil, fmt.Errorf("search packages %s/: %w", scope, err)
	}
	var out []SearchResult
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return nil, fmt.Errorf("decode npm search output: %w", err)
	}
	prefix := strings.TrimSuffix(scope, "/") + "/"
	filtered := out[:0]
	for _, p := range out {
		if strings.HasPrefix(p.Name, prefix) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Version returns the installed npm version.
func (c *Client) Version(ctx context.Context) (*semver.Version, error) {
	res, err := c.runner.Run(ctx, runner.Command{Name: "npm", Args: []string{"--version"}})
	if err != nil {
		return nil, fmt.Errorf("npm --version: %w", err)
	}
	v, err := semver.NewVersion(strings.TrimSpace(res.Stdout))
	if err != nil {
		return nil, fmt.Errorf("parse npm version %q: %w", strings.TrimSpace(res.Stdout), err)
	}
	return v, nil
}

// CheckVersion fails when v is older than MinVersion.
func CheckVersion(v *semver.Version) error {
	constraint, err := semver.NewConstraint(">= " + MinVersion)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("npm %s is too old, %s or newer is required", v, MinVersion)
	}
	return nil
}

// ConfigCwd returns the working directory npm reports from dir, or "" when npm does not print one.
func (c *Client) ConfigCwd(ctx context.Context, dir string) (string, error) {
	res, err := c.runner.Run(ctx, runner.Command{Name: "npm", Args: []string{"config", "list"}, Dir: dir})
	if err != nil {
		return "", fmt.Errorf("npm config list: %w", err)
	}
	return ParseConfigCwd(res.Stdout), nil
}

// ParseConfigCwd extracts the "; cwd = <dir>" line from npm config list output.
func ParseConfigCwd(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "; cwd = "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func (c *Client) run(ctx context.Context, dir string, interactive bool, args ...string) error {
	_, err := c.runner.Run(ctx, runner.Command{
		Name:        "npm",
		Args:        args,
		Dir:         dir,
		Env:         c.env,
		Interactive: interactive,
	})
	if err != nil {
		return fmt.Errorf("npm %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

func (c *Client) childEnv(extra env.Vars) env.Vars {
	if len(extra) == 0 {
		return c.env
	}
	return env.Merge(c.env, extra)
}
