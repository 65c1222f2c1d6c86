// Package cli defines the command-line interface for kcontrib.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/playkit-contrib/kcontrib/internal/config"
	"github.com/playkit-contrib/kcontrib/internal/env"
	"github.com/playkit-contrib/kcontrib/internal/git"
	"github.com/playkit-contrib/kcontrib/internal/logging"
	"github.com/playkit-contrib/kcontrib/internal/prompt"
	"github.com/playkit-contrib/kcontrib/internal/runner"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ProjectDir string
	LogLevel   logging.Level
}

// deps are the collaborators commands reach the outside world through.
type deps struct {
	fs       afero.Fs
	runner   func(logger *slog.Logger) runner.Runner
	prompter prompt.Prompter
	out      io.Writer
	errOut   io.Writer
	environ  env.Vars
	now      func() time.Time
	cwd      string
	home     string
	userFile string
	lookPath func(name string) (string, error)
	git      gitOps
}

// gitOps are the git operations commands use.
type gitOps struct {
	initAndCommit func(dir, message string) (bool, error)
	remoteTags    func(ctx context.Context, url string) ([]string, error)
	latestTag     func(dir string) (string, error)
	stageAll      func(dir string) error
}

func defaultDeps() (*deps, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	home, _ := os.UserHomeDir()
	return &deps{
		fs:       afero.NewOsFs(),
		runner:   func(l *slog.Logger) runner.Runner { return runner.NewExec(l) },
		prompter: prompt.NewTerminal(),
		out:      os.Stdout,
		errOut:   os.Stderr,
		environ:  env.FromOS(),
		now:      time.Now,
		cwd:      cwd,
		home:     home,
		userFile: config.DefaultUserFile(),
		lookPath: runner.LookPath,
		git: gitOps{
			initAndCommit: func(dir, message string) (bool, error) {
				return git.InitAndCommit(dir, message, nil)
			},
			remoteTags: git.RemoteTags,
			latestTag:  git.LatestTag,
			stageAll:   git.StageAll,
		},
	}, nil
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	d, err := defaultDeps()
	if err != nil {
		return err
	}

	rootCmd := newRootCommand(&Options{LogLevel: logging.LevelInfo}, d)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.WithValue(context.Background(), loggerKey{}, logger))
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kcontrib",
		Short:         "kcontrib scaffolds, builds and publishes player contrib plugins",
		Long:          "kcontrib creates contrib plugins for the Kaltura player from a template and wraps the npm, webpack and git workflows used to develop, test and publish them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var base baseEnv
			if err := parseEnv(&base, d.environ); err != nil {
				return err
			}
			levelValue := cmd.Flag("log-level").Value.String()
			if !cmd.Flags().Changed("log-level") && base.LogLevel != "" {
				levelValue = base.LogLevel
			}
			if !cmd.Flags().Changed("project-dir") && base.ProjectDir != "" {
				opts.ProjectDir = base.ProjectDir
			}

			level := logging.ParseLevel(levelValue)
			opts.LogLevel = level
			logger := logging.NewLogger(d.errOut, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ProjectDir, "project-dir", "C", "", "Plugin project directory (defaults to the current directory)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newCreateCommand(opts, d),
		newBuildCommand(opts, d),
		newServeCommand(opts, d),
		newDeployCommand(opts, d),
		newInfraCommand(opts, d),
		newDoctorCommand(opts, d),
	)
	cmd.SetOut(d.out)
	cmd.SetErr(d.errOut)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
