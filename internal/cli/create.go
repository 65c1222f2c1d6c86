package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/playkit-contrib/kcontrib/internal/config"
	"github.com/playkit-contrib/kcontrib/internal/engine"
	"github.com/playkit-contrib/kcontrib/internal/npm"
	"github.com/playkit-contrib/kcontrib/internal/scaffold"
)

// newCreateCommand creates the "create" subcommand that scaffolds a new plugin project.
func newCreateCommand(opts *Options, d *deps) *cobra.Command {
	var (
		templateDir string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "create [directory]",
		Short: "Create a new contrib plugin from the plugin template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())
			ui := newPrinter(d.out)

			settings, err := config.Load(d.fs, d.cwd, config.LoadOptions{Environ: d.environ, UserFile: d.userFile})
			if err != nil {
				return err
			}

			var target string
			if len(args) == 1 {
				target = args[0]
			}
			createOpts := scaffold.Options{
				Target:       target,
				Cwd:          d.cwd,
				Home:         d.home,
				Verbose:      verbose,
				ContribScope: settings.Settings.ContribScope,
			}
			if templateDir != "" {
				dir := templateDir
				if !filepath.IsAbs(dir) {
					dir = filepath.Join(d.cwd, dir)
				}
				createOpts.Template = &engine.Source{FS: afero.NewReadOnlyFs(d.fs), Dir: dir}
			}

			s := scaffold.New(scaffold.Config{
				FS:       d.fs,
				Prompter: d.prompter,
				NPM:      npm.NewClient(d.runner(logger), settings.ChildEnv),
				Engine:   engine.NewEngine(logger, engine.WithClock(d.now)),
				GitInit:  d.git.initAndCommit,
				Logger:   logger,
				Announce: ui.step,
			})

			answers, err := s.Ask(createOpts)
			if err != nil {
				return err
			}
			ui.blank()
			ui.line("Creating a new contrib plugin for Kaltura player v7 in %s.", answers.Dest)
			ui.blank()

			res, err := s.Build(cmd.Context(), answers, createOpts)
			if err != nil {
				return err
			}
			printCreateSummary(ui, d.cwd, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&templateDir, "template", "", "Directory of a custom plugin template (defaults to the built-in template)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Print npm install output")

	return cmd
}

func printCreateSummary(ui printer, cwd string, res *scaffold.Result) {
	dest := res.Answers.Dest
	display := dest
	if rel, err := filepath.Rel(cwd, dest); err == nil && !strings.HasPrefix(rel, "..") {
		display = rel
	}

	ui.blank()
	if res.ReadmeRenamed {
		ui.warning("You had a `README.md` file, we renamed it to `README.old.md`")
		ui.blank()
	}
	ui.success("Success! Created %s at %s", res.Answers.Name, dest)
	ui.line("Inside that directory, you can run several commands:")
	ui.blank()
	ui.command("npm run serve", "Starts the development server.")
	ui.command("npm run build", "Bundles the plugin into static files for production.")
	ui.command("npm run deploy:prepare", "Prepares a new version for deployment.")
	ui.blank()
	ui.line("We suggest that you begin by typing:")
	ui.blank()
	ui.command("cd "+display, "")
	ui.command("npm run serve", "")
	if !res.GitInitialized {
		ui.blank()
		ui.warning("Git repository was not initialized.")
	}
	ui.blank()
	ui.line("Happy hacking!")
}
