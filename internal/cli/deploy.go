package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/playkit-contrib/kcontrib/internal/ghoutput"
	"github.com/playkit-contrib/kcontrib/internal/hooks"
	"github.com/playkit-contrib/kcontrib/internal/npm"
)

var (
	errNotPublished      = errors.New("cannot continue with the deployment; please publish contrib first and try again")
	errCanceledByUser    = errors.New("operation cancelled by user")
	errRebuildDeclined   = errors.New("cannot continue with the publish; argument 'skipRebuild' was falsy provided")
	errVersionTagged     = errors.New("version does not match the chosen publish type")
	errVersionTagMissing = errors.New("current tag version is not matching package.json version")
)

const (
	publishLatest = "Latest"
	publishNext   = "Next"
)

// newDeployCommand creates the "deploy" subcommand that prepares and publishes plugin releases.
func newDeployCommand(opts *Options, d *deps) *cobra.Command {
	var (
		prepare     bool
		publish     bool
		prerelease  string
		skipRebuild bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Prepare or publish a plugin release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if prepare == publish {
				return fmt.Errorf("exactly one of --prepare or --publish is required")
			}
			p, err := loadProject(cmd, opts, d)
			if err != nil {
				return err
			}
			if prepare {
				var de deployEnv
				if err := parseEnv(&de, d.environ); err != nil {
					return err
				}
				if !cmd.Flags().Changed("prerelease") {
					prerelease = de.Prerelease
				}
				return runDeployPrepare(cmd.Context(), p, prerelease)
			}
			return runDeployPublish(cmd.Context(), p, skipRebuild)
		},
	}

	cmd.Flags().BoolVar(&prepare, "prepare", false, "Bump the version and changelog of the next release")
	cmd.Flags().StringVar(&prerelease, "prerelease", "", "Prepare a prerelease with the given identifier (e.g. next)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish the prepared release to npm")
	cmd.Flags().BoolVar(&skipRebuild, "skip-rebuild", false, "Publish without rebuilding (only right after a local prepare)")

	return cmd
}

func runDeployPrepare(ctx context.Context, p *project, prerelease string) error {
	root := p.cfg.Paths.Root

	usedLocal, err := p.prompter.Confirm("Did you work with local version of contrib libraries?", false)
	if err != nil {
		return err
	}
	if usedLocal {
		published, err := p.prompter.Confirm("Did you or someone else published those changes to npm?", false)
		if err != nil {
			return err
		}
		if !published {
			p.ui.failure("Cannot continue with the deployment. Please publish contrib first and try again")
			return errNotPublished
		}
	}

	m, err := p.manifest()
	if err != nil {
		return err
	}

	standardVersion := []string{"standard-version", "--skip.tag", "--skip.commit"}
	if prerelease != "" {
		standardVersion = append(standardVersion, "--prerelease", prerelease)
	}

	exec := hooks.NewExecutor(p.logger, hooks.WithAnnounce(p.ui.step))
	steps := []hooks.Step{
		{Name: "Re-installing contrib libraries from npm", When: func() bool { return usedLocal }, Run: func(ctx context.Context) error {
			return p.npm.RunScript(ctx, root, "infra:latest")
		}},
		{Name: "Cleaning project", Run: func(ctx context.Context) error {
			return p.npm.RunScript(ctx, root, "reset")
		}},
		{Name: "Installing dependencies", Run: func(ctx context.Context) error {
			return p.npm.Install(ctx, root, npm.InstallOptions{})
		}},
		{Name: "Building and analyzing bundle", Run: func(ctx context.Context) error {
			return p.npm.RunScript(ctx, root, "analyze")
		}},
		{Name: "Copying resources", When: func() bool { return m.HasScript("copy-resources") }, Run: func(ctx context.Context) error {
			return p.npm.RunScript(ctx, root, "copy-resources")
		}},
		{Name: "Bumping version and changelog", Run: func(ctx context.Context) error {
			_, err := p.npm.Npx(ctx, root, nil, standardVersion...)
			return err
		}},
		{Name: "Staging changes", Run: func(context.Context) error {
			return p.git.stageAll(root)
		}},
	}
	if err := exec.Run(ctx, steps); err != nil {
		return err
	}

	bumped, err := p.manifest()
	if err != nil {
		return err
	}
	version := bumped.Version()
	if err := ghoutput.Write(releaseOutputs(version)); err != nil {
		p.logger.Warn("failed to write GitHub outputs", "error", err)
	}

	publishScript := "deploy:publish-to-npm"
	if isNextVersion(version) {
		publishScript = "deploy:next:publish-to-npm"
	}
	p.ui.blank()
	p.ui.success("Version %s is ready to be published.", version)
	p.ui.line("Review the changes, then run:")
	p.ui.blank()
	p.ui.command("git reset --hard", "Discard the prepared release.")
	p.ui.command(fmt.Sprintf("git commit -am \"chore: publish version %s\"", version), "")
	p.ui.command(fmt.Sprintf("git tag -a v%s -m \"v%s\"", version, version), "")
	p.ui.command("git push --follow-tags", "")
	p.ui.command(fmt.Sprintf("npm run %s -- --skip-rebuild", publishScript), "")
	return nil
}

func runDeployPublish(ctx context.Context, p *project, skipRebuild bool) error {
	root := p.cfg.Paths.Root
	m, err := p.manifest()
	if err != nil {
		return err
	}
	version := m.Version()

	tag, err := p.git.latestTag(root)
	if err != nil {
		return fmt.Errorf("read latest tag: %w", err)
	}
	if tag != "v"+version {
		p.ui.failure("Cannot publish. Current tag version is not matching package.json version (expected %s got %s).", "v"+version, tag)
		return fmt.Errorf("%w: expected v%s got %s", errVersionTagMissing, version, tag)
	}

	confirmed, err := p.prompter.Confirm(fmt.Sprintf("Are you trying to publish version %s?", version), true)
	if err != nil {
		return err
	}
	if !confirmed {
		p.ui.failure("Operation cancelled by user.")
		return errCanceledByUser
	}
	kind, err := p.prompter.Select("What is the type of version you want to publish?", []string{publishLatest, publishNext}, publishLatest)
	if err != nil {
		return err
	}
	if skipRebuild {
		sure, err := p.prompter.Confirm("Are you sure you want to skip rebuild (accept only if you just ran the prepare locally)?", true)
		if err != nil {
			return err
		}
		if !sure {
			p.ui.failure("Cannot continue with the publish. argument 'skipRebuild' was falsy provided.")
			return errRebuildDeclined
		}
	}
	if err := checkPublishType(kind, version); err != nil {
		p.ui.failure("Cannot publish. %s", err)
		return fmt.Errorf("%w: %v", errVersionTagged, err)
	}

	exec := hooks.NewExecutor(p.logger, hooks.WithAnnounce(p.ui.step))
	steps := []hooks.Step{
		{Name: "Cleaning project", When: func() bool { return !skipRebuild }, Run: func(ctx context.Context) error {
			return p.npm.RunScript(ctx, root, "reset")
		}},
		{Name: "Installing dependencies", When: func() bool { return !skipRebuild }, Run: func(ctx context.Context) error {
			return p.npm.Install(ctx, root, npm.InstallOptions{})
		}},
		{Name: "Building plugin", When: func() bool { return !skipRebuild }, Run: func(ctx context.Context) error {
			return p.npm.RunScript(ctx, root, "build")
		}},
		{Name: "Publishing to npm", Run: func(ctx context.Context) error {
			return p.npm.Publish(ctx, root, "public")
		}},
	}
	if err := exec.Run(ctx, steps); err != nil {
		return err
	}

	if err := ghoutput.Write(releaseOutputs(version)); err != nil {
		p.logger.Warn("failed to write GitHub outputs", "error", err)
	}
	p.ui.success("Successfully published plugin to npm")
	return nil
}

// checkPublishType rejects publishing a next version as latest and the other way around.
func checkPublishType(kind, version string) error {
	next := isNextVersion(version)
	switch {
	case kind == publishLatest && next:
		return fmt.Errorf("you cannot publish version %s as 'latest'. Current version is tagged as 'next'", version)
	case kind == publishNext && !next:
		return fmt.Errorf("you cannot publish version %s as 'next'. Current version is tagged as 'latest'", version)
	}
	return nil
}

func isNextVersion(version string) bool {
	return strings.Contains(version, "next")
}

// releaseOutputs describes a plugin version for downstream workflow steps.
func releaseOutputs(version string) map[string]string {
	out := map[string]string{
		"version": version,
		"tag":     "v" + version,
	}
	if isNextVersion(version) {
		out["dist-tag"] = "next"
	}
	return out
}
