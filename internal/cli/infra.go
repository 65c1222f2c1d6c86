package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/playkit-contrib/kcontrib/internal/npm"
	"github.com/playkit-contrib/kcontrib/internal/packagejson"
)

var errInfraMode = errors.New("either --type or --add is required")

// newInfraCommand creates the "infra" subcommand that switches and adds contrib libraries.
func newInfraCommand(opts *Options, d *deps) *cobra.Command {
	var (
		contribType string
		add         bool
	)

	cmd := &cobra.Command{
		Use:   "infra",
		Short: "Re-install, link or add contrib libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if add {
				p, err := loadProject(cmd, opts, d)
				if err != nil {
					return err
				}
				return runInfraAdd(cmd.Context(), p)
			}
			if contribType == "" {
				_ = cmd.Usage()
				return errInfraMode
			}
			t, err := packagejson.ParseContribType(contribType)
			if err != nil {
				_ = cmd.Usage()
				return err
			}
			p, err := loadProject(cmd, opts, d)
			if err != nil {
				return err
			}
			return runInfraType(cmd.Context(), p, t)
		},
	}

	cmd.Flags().StringVar(&contribType, "type", "", "Where contrib libraries come from: latest, next or local")
	cmd.Flags().BoolVar(&add, "add", false, "Choose contrib libraries to add to the project")

	return cmd
}

func runInfraType(ctx context.Context, p *project, t packagejson.ContribType) error {
	m, err := p.manifest()
	if err != nil {
		return err
	}
	packages := m.ContribPackages(p.cfg.Settings.ContribScope, p.cfg.Settings.IgnoredPackages)
	if len(packages) == 0 {
		p.ui.warning("No %s packages found in package.json.", p.cfg.Settings.ContribScope)
		return nil
	}

	if t == packagejson.ContribLocal {
		p.ui.line("The following packages will be linked to local libraries:")
		p.ui.list(packages)
		p.ui.muted("Make sure you ran 'npm run setup' in the contrib repository first.")
	} else {
		p.ui.line("The following packages will be re-installed from npm:")
		p.ui.list(packages)
	}
	p.ui.blank()

	if err := installContrib(ctx, p, t, packages); err != nil {
		p.ui.failure("Error while updating packages.")
		return err
	}
	p.ui.success("Contrib packages updated (%s).", t)
	return nil
}

func runInfraAdd(ctx context.Context, p *project) error {
	m, err := p.manifest()
	if err != nil {
		return err
	}
	scope := p.cfg.Settings.ContribScope
	installed := m.ContribPackages(scope, nil)

	p.ui.line("Currently installed packages are:")
	p.ui.list(installed)
	p.ui.blank()

	found, err := p.npm.Search(ctx, scope)
	if err != nil {
		return fmt.Errorf("search packages %s/: %w", scope, err)
	}
	current := make(map[string]struct{}, len(installed))
	for _, name := range installed {
		current[name] = struct{}{}
	}
	var available []string
	for _, r := range found {
		if _, ok := current[r.Name]; !ok {
			available = append(available, r.Name)
		}
	}
	if len(available) == 0 {
		p.ui.success("All available packages already installed!")
		return nil
	}

	chosen, err := p.prompter.MultiSelect("Choose packages for install:", available, 1)
	if err != nil {
		return err
	}
	types := make([]string, 0, len(packagejson.ContribTypes))
	for _, t := range packagejson.ContribTypes {
		types = append(types, string(t))
	}
	tag, err := p.prompter.Select("Choose tag for packages to be installed:", types, types[0])
	if err != nil {
		return err
	}
	t, err := packagejson.ParseContribType(tag)
	if err != nil {
		return err
	}

	if err := installContrib(ctx, p, t, chosen); err != nil {
		p.ui.failure("Error while installing packages.")
		return err
	}
	p.ui.success("Installed %d package(s).", len(chosen))
	return nil
}

func installContrib(ctx context.Context, p *project, t packagejson.ContribType, packages []string) error {
	strategy := packagejson.InstallStrategy(t)
	root := p.cfg.Paths.Root
	if strategy.Command == "link" {
		return p.npm.Link(ctx, root, packages...)
	}
	return p.npm.Install(ctx, root, npm.InstallOptions{Packages: strategy.Tagged(packages)})
}
