package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/playkit-contrib/kcontrib/internal/env"
)

// errWarningsInCI fails a build whose webpack run printed warnings while CI is set.
var errWarningsInCI = errors.New("treating warnings as errors because CI is set; most CI servers set it automatically")

const (
	modeProduction  = "production"
	modeDevelopment = "development"
)

// newBuildCommand creates the "build" subcommand that bundles the plugin with webpack.
func newBuildCommand(opts *Options, d *deps) *cobra.Command {
	var (
		dev  bool
		vars string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bundle the plugin with webpack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProject(cmd, opts, d)
			if err != nil {
				return err
			}

			var be buildEnv
			if err := parseEnv(&be, d.environ); err != nil {
				return err
			}
			if !cmd.Flags().Changed("vars") {
				vars = be.Vars
			}
			inlineVars, err := env.ParseInlineVars(vars)
			if err != nil {
				return err
			}

			mode := modeProduction
			if dev {
				mode = modeDevelopment
			}
			return runBuild(cmd, p, mode, inlineVars, ciEnabled(be.CI))
		},
	}

	cmd.Flags().BoolVar(&dev, "dev", false, "Build in development mode")
	cmd.Flags().StringVar(&vars, "vars", "", "Additional variables for webpack in k=v,k2=v2 format")

	return cmd
}

func runBuild(cmd *cobra.Command, p *project, mode string, vars env.Vars, ci bool) error {
	configFile, err := webpackConfigFile(p)
	if err != nil {
		return err
	}

	childEnv := env.Merge(vars, env.Vars{"NODE_ENV": mode, "BABEL_ENV": mode})
	p.logger.Info("building plugin", "mode", mode, "config", p.cfg.Paths.Rel(configFile))

	res, err := p.npm.Npx(cmd.Context(), p.cfg.Paths.Root, childEnv, "webpack", "--config", configFile, "--mode", mode)
	if err != nil {
		p.ui.failure("Failed to compile.")
		return err
	}

	if hasWebpackWarnings(res.Stdout) || hasWebpackWarnings(res.Stderr) {
		if ci {
			p.ui.failure("Failed to compile.")
			return errWarningsInCI
		}
		p.ui.warning("Compiled with warnings.")
		return nil
	}
	p.ui.success("Compiled successfully.")
	return nil
}

// webpackConfigFile prefers webpack.override.js over the configured webpack config.
func webpackConfigFile(p *project) (string, error) {
	override := p.cfg.Paths.WebpackOverride
	exists, err := afero.Exists(p.fs, override)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", override, err)
	}
	if exists {
		p.logger.Info("Using webpack config from webpack.override.js")
		return override, nil
	}
	return p.cfg.Paths.Resolve(p.cfg.Settings.WebpackConfig), nil
}

func hasWebpackWarnings(out string) bool {
	return strings.Contains(out, "WARNING in ")
}

// ciEnabled mirrors how CI tools read the CI variable: set and not "false".
func ciEnabled(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.EqualFold(value, "false")
}
