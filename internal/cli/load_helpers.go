package cli

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/playkit-contrib/kcontrib/internal/config"
	"github.com/playkit-contrib/kcontrib/internal/npm"
	"github.com/playkit-contrib/kcontrib/internal/packagejson"
)

// project is a loaded plugin project with the clients commands need.
type project struct {
	*deps
	cfg    *config.Config
	npm    *npm.Client
	logger *slog.Logger
	ui     printer
}

// projectRoot resolves --project-dir against the working directory.
func projectRoot(opts *Options, d *deps) string {
	root := opts.ProjectDir
	if root == "" {
		return d.cwd
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(d.cwd, root)
	}
	return filepath.Clean(root)
}

func loadProject(cmd *cobra.Command, opts *Options, d *deps) (*project, error) {
	logger := LoggerFromContext(cmd.Context())
	cfg, err := config.Load(d.fs, projectRoot(opts, d), config.LoadOptions{
		Environ:  d.environ,
		UserFile: d.userFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("project loaded", "root", cfg.Paths.Root, "env_files", len(cfg.Settings.EnvFiles))
	return &project{
		deps:   d,
		cfg:    cfg,
		npm:    npm.NewClient(d.runner(logger), cfg.ChildEnv),
		logger: logger,
		ui:     newPrinter(d.out),
	}, nil
}

func (p *project) manifest() (*packagejson.Manifest, error) {
	return packagejson.Load(p.fs, p.cfg.Paths.PackageJSON)
}
