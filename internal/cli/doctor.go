package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/playkit-contrib/kcontrib/internal/devenv"
	"github.com/playkit-contrib/kcontrib/internal/engine"
	"github.com/playkit-contrib/kcontrib/internal/hooks"
	"github.com/playkit-contrib/kcontrib/internal/npm"
)

// requiredTools must be on PATH for any kcontrib workflow.
var requiredTools = []string{"node", "npm", "npx", "git"}

// newDoctorCommand creates the "doctor" subcommand that runs environment preflight checks.
func newDoctorCommand(opts *Options, d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run environment preflight checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProject(cmd, opts, d)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			if err := hooks.NewExecutor(p.logger).RunChecks(ctx, doctorChecks(p)); err != nil {
				return err
			}
			p.logger.Info("doctor checks completed successfully", "project", p.cfg.Paths.Root)
			return nil
		},
	}
}

func doctorChecks(p *project) []hooks.Check {
	var checks []hooks.Check
	for _, tool := range requiredTools {
		checks = append(checks, hooks.Check{
			Name: tool + " in PATH",
			Run: func(context.Context) error {
				_, err := p.lookPath(tool)
				return err
			},
		})
	}

	root := p.cfg.Paths.Root
	checks = append(checks,
		hooks.Check{Name: "npm version", Run: func(ctx context.Context) error {
			v, err := p.npm.Version(ctx)
			if err != nil {
				return err
			}
			return npm.CheckVersion(v)
		}},
		hooks.Check{Name: "npm working directory", Run: func(ctx context.Context) error {
			cwd, err := p.npm.ConfigCwd(ctx, root)
			if err != nil {
				return err
			}
			if cwd != "" && filepath.Clean(cwd) != filepath.Clean(root) {
				return fmt.Errorf("npm runs in %s instead of %s; this is probably caused by a misconfigured system terminal shell", cwd, root)
			}
			return nil
		}},
		hooks.Check{Name: "package.json", Optional: true, Run: func(context.Context) error {
			_, err := p.manifest()
			return err
		}},
		hooks.Check{Name: "plugin config", Optional: true, Run: func(context.Context) error {
			_, err := engine.ReadPluginName(p.fs, root)
			return err
		}},
		hooks.Check{Name: "test environment", Optional: true, Run: func(context.Context) error {
			ok, err := devenv.Exists(p.fs, p.cfg.Paths)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is missing; run 'kcontrib serve' to create it", p.cfg.Paths.Rel(p.cfg.Paths.EnvJSON))
			}
			return nil
		}},
		hooks.Check{Name: "webpack config", Optional: true, Run: func(context.Context) error {
			path, err := webpackConfigFile(p)
			if err != nil {
				return err
			}
			if ok, _ := afero.Exists(p.fs, path); !ok {
				return fmt.Errorf("%s not found", p.cfg.Paths.Rel(path))
			}
			return nil
		}},
	)
	return checks
}
