package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/playkit-contrib/kcontrib/internal/devenv"
	"github.com/playkit-contrib/kcontrib/internal/env"
	"github.com/playkit-contrib/kcontrib/internal/git"
)

// newServeCommand creates the "serve" subcommand that runs the local dev server and edits its env.json.
func newServeCommand(opts *Options, d *deps) *cobra.Command {
	var updateModes, updatePlayer bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the plugin in the local test environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if updateModes && updatePlayer {
				return fmt.Errorf("--update-modes and --update-player cannot be used together")
			}
			p, err := loadProject(cmd, opts, d)
			if err != nil {
				return err
			}
			switch {
			case updateModes:
				return runUpdateModes(p)
			case updatePlayer:
				return runUpdatePlayer(cmd, p)
			default:
				return runServe(cmd, p)
			}
		},
	}

	cmd.Flags().BoolVar(&updateModes, "update-modes", false, "Choose the modes stored in test/env.json again")
	cmd.Flags().BoolVar(&updatePlayer, "update-player", false, "Choose the player version stored in test/env.json")

	return cmd
}

func runServe(cmd *cobra.Command, p *project) error {
	exists, err := devenv.Exists(p.fs, p.cfg.Paths)
	if err != nil {
		return err
	}
	if !exists {
		modes, err := selectModes(p, nil)
		if err != nil {
			return err
		}
		if err := devenv.Create(p.fs, p.cfg.Paths, modes); err != nil {
			return err
		}
		p.ui.success("Config files were created successfully.")
		p.ui.line("For more info read the Readme at %s", p.cfg.Paths.Rel(p.cfg.Paths.TestReadme))
	}

	configFile, err := webpackConfigFile(p)
	if err != nil {
		return err
	}
	port := strconv.Itoa(p.cfg.Settings.DevServerPort)
	p.logger.Info("starting dev server", "port", port, "config", p.cfg.Paths.Rel(configFile))

	childEnv := env.Vars{"NODE_ENV": modeDevelopment, "BABEL_ENV": modeDevelopment}
	_, err = p.npm.Npx(cmd.Context(), p.cfg.Paths.Root, childEnv,
		"webpack-dev-server", "--config", configFile, "--mode", modeDevelopment, "--port", port)
	return err
}

// selectModes asks for every mode. current preselects the stored value of each mode.
func selectModes(p *project, current map[string]string) (map[string]string, error) {
	selected := map[string]string{}
	for _, mode := range p.cfg.Settings.Modes.List() {
		initial := current[mode.Name]
		if initial == "" {
			initial = mode.Values[0]
		}
		value, err := p.prompter.Select(fmt.Sprintf("Choose %s:", mode.Name), mode.Values, initial)
		if err != nil {
			return nil, err
		}
		selected[mode.Name] = value
	}
	return selected, nil
}

func loadEnvDocument(p *project) (devenv.Document, error) {
	doc, err := devenv.Load(p.fs, p.cfg.Paths.EnvJSON)
	if errors.Is(err, devenv.ErrMissing) {
		p.ui.failure("Please run 'kcontrib serve' to create the env.json file.")
	}
	return doc, err
}

func runUpdateModes(p *project) error {
	doc, err := loadEnvDocument(p)
	if err != nil {
		return err
	}
	modes, err := selectModes(p, doc.Modes())
	if err != nil {
		return err
	}
	if err := doc.SetModes(modes); err != nil {
		return err
	}
	if err := devenv.Save(p.fs, p.cfg.Paths.EnvJSON, doc); err != nil {
		return err
	}
	p.ui.success("Modes in the env.json were successfully updated!")
	return nil
}

func runUpdatePlayer(cmd *cobra.Command, p *project) error {
	doc, err := loadEnvDocument(p)
	if err != nil {
		return err
	}

	s := p.cfg.Settings
	tags, err := p.git.remoteTags(cmd.Context(), s.PlayerRepo)
	if err != nil {
		return fmt.Errorf("fetch tags from repo %s: %w", s.PlayerRepo, err)
	}
	versions := git.PlayerVersions(tags, s.PlayerTagPattern)
	if len(versions) == 0 {
		return fmt.Errorf("no player versions found in %s (tag prefix %q)", s.PlayerRepo, s.PlayerTagPattern)
	}

	version := versions[0]
	if current := doc.PlayerVersion(); current == "" {
		p.ui.line("Setup latest version of the player.")
	} else {
		version, err = p.prompter.Select("Choose the version for the player to use:", versions, current)
		if err != nil {
			return err
		}
	}

	if err := doc.SetPlayerVersion(version); err != nil {
		return err
	}
	if err := devenv.Save(p.fs, p.cfg.Paths.EnvJSON, doc); err != nil {
		return err
	}
	p.logger.Debug("player version stored", "version", version)
	p.ui.success("Version of the player successfully updated!")
	return nil
}
