// Package config contains the loader and typed model for per-project kcontrib settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/adrg/xdg"
	envparse "github.com/caarlos0/env/v11"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/playkit-contrib/kcontrib/internal/env"
)

// FileName is the optional settings file looked up in the project root.
const FileName = "kcontrib.yaml"

// Settings holds the tunables shared by every command.
// Values are layered: defaults, kcontrib.yaml, env files, KCONTRIB_* variables, then flags.
type Settings struct {
	// ContribScope is the npm scope of the contrib libraries.
	ContribScope string `yaml:"contribScope,omitempty" env:"KCONTRIB_CONTRIB_SCOPE"`
	// PlayerRepo is the git repository whose tags list player versions.
	PlayerRepo string `yaml:"playerRepo,omitempty" env:"KCONTRIB_PLAYER_REPO"`
	// PlayerTagPattern is the tag prefix that marks a player release.
	PlayerTagPattern string `yaml:"playerTagPattern,omitempty" env:"KCONTRIB_PLAYER_TAG_PATTERN"`
	// IgnoredPackages lists contrib packages (without scope) left alone by infra commands.
	IgnoredPackages []string `yaml:"ignoredPackages,omitempty" env:"KCONTRIB_IGNORED_PACKAGES" envSeparator:","`
	// WebpackConfig is the webpack config file, relative to the project root.
	WebpackConfig string `yaml:"webpackConfig,omitempty" env:"KCONTRIB_WEBPACK_CONFIG"`
	// DevServerPort is the port of the local dev server.
	DevServerPort int `yaml:"devServerPort,omitempty" env:"KCONTRIB_DEV_SERVER_PORT"`
	// Modes lists the allowed values of every serve mode.
	Modes Modes `yaml:"modes,omitempty"`
	// EnvFiles lists .env files whose variables are passed to child processes.
	EnvFiles []string `yaml:"envFiles,omitempty" env:"KCONTRIB_ENV_FILES" envSeparator:","`
}

// Modes lists the choices offered for each serve mode, first value being the default.
type Modes struct {
	UserType   []string `yaml:"userType,omitempty"`
	Bundler    []string `yaml:"bundler,omitempty"`
	ServerEnv  []string `yaml:"serverEnv,omitempty"`
	BundlerEnv []string `yaml:"bundlerEnv,omitempty"`
}

// Mode is one named serve mode and its allowed values.
type Mode struct {
	Name   string
	Values []string
}

// List returns the modes in prompt order.
func (m Modes) List() []Mode {
	return []Mode{
		{Name: "userType", Values: m.UserType},
		{Name: "bundler", Values: m.Bundler},
		{Name: "serverEnv", Values: m.ServerEnv},
		{Name: "bundlerEnv", Values: m.BundlerEnv},
	}
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		ContribScope:     "@playkit-js-contrib",
		PlayerRepo:       "https://github.com/kaltura/playkit-js-contrib.git",
		PlayerTagPattern: "kaltura-ovp-player@",
		WebpackConfig:    "webpack.config.js",
		DevServerPort:    8017,
		Modes: Modes{
			UserType:   []string{"annonymous", "widgetId", "ks"},
			Bundler:    []string{"custom", "uiconf"},
			ServerEnv:  []string{"qa", "production"},
			BundlerEnv: []string{"qa", "production"},
		},
	}
}

// LoadOptions controls how settings are resolved.
type LoadOptions struct {
	// Environ replaces the process environment; nil means os.Environ.
	Environ env.Vars
	// UserFile is a settings file applied before the project file. Empty skips it.
	UserFile string
}

// DefaultUserFile is the per-user settings file under the XDG config home.
func DefaultUserFile() string {
	return filepath.Join(xdg.ConfigHome, "kcontrib", FileName)
}

// Config is the resolved configuration of one project.
type Config struct {
	Settings Settings
	Paths    Paths
	// ChildEnv holds variables from env files, passed to every spawned tool.
	ChildEnv env.Vars
}

// rawHeader extracts the fields needed before templating.
type rawHeader struct {
	EnvFiles []string `yaml:"envFiles"`
}

// Load resolves the settings of the project rooted at root.
func Load(fsys afero.Fs, root string, opts LoadOptions) (*Config, error) {
	if root == "" {
		return nil, fmt.Errorf("project root is empty")
	}
	environ := opts.Environ
	if environ == nil {
		environ = env.FromOS()
	}

	settings := Defaults()
	path := filepath.Join(root, FileName)
	raw, err := readOptional(fsys, path)
	if err != nil {
		return nil, err
	}

	var header rawHeader
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &header); err != nil {
			return nil, fmt.Errorf("parse top-level config fields: %w", err)
		}
	}

	fileVars, err := env.LoadEnvFiles(fsys, root, header.EnvFiles)
	if err != nil {
		return nil, err
	}
	envMap := env.Merge(fileVars, environ)

	if opts.UserFile != "" {
		userRaw, err := readOptional(fsys, opts.UserFile)
		if err != nil {
			return nil, err
		}
		if err := applyLayer(&settings, opts.UserFile, userRaw, envMap); err != nil {
			return nil, err
		}
	}
	if err := applyLayer(&settings, path, raw, envMap); err != nil {
		return nil, err
	}

	if err := envparse.ParseWithOptions(&settings, envparse.Options{Environment: envMap}); err != nil {
		return nil, fmt.Errorf("parse KCONTRIB_* variables: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &Config{
		Settings: settings,
		Paths:    NewPaths(root),
		ChildEnv: fileVars,
	}, nil
}

func readOptional(fsys afero.Fs, path string) ([]byte, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return raw, nil
}

// applyLayer renders raw and decodes it over settings. Keys absent from raw keep their value.
func applyLayer(settings *Settings, path string, raw []byte, envMap env.Vars) error {
	if len(raw) == 0 {
		return nil
	}
	rendered, err := RenderTemplate(filepath.Base(path), raw, envMap)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(rendered, settings); err != nil {
		return fmt.Errorf("parse rendered %s: %w", path, err)
	}
	return nil
}

// Validate checks settings that would otherwise fail later in a confusing way.
func (s Settings) Validate() error {
	if !strings.HasPrefix(s.ContribScope, "@") {
		return fmt.Errorf("contribScope %q must start with @", s.ContribScope)
	}
	if s.DevServerPort <= 0 || s.DevServerPort > 65535 {
		return fmt.Errorf("devServerPort %d is out of range", s.DevServerPort)
	}
	for _, m := range s.Modes.List() {
		if len(m.Values) == 0 {
			return fmt.Errorf("mode %q has no values", m.Name)
		}
	}
	return nil
}

// RenderTemplate renders raw with envMap available to the env helpers.
func RenderTemplate(name string, raw []byte, envMap env.Vars) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{
		"default": funcDef,
		"envOr":   funcEnvOr(envMap),
	}).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any{"Env": envMap}); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func funcDef(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func funcEnvOr(envMap env.Vars) func(key, def string) string {
	return func(key, def string) string {
		if v, ok := envMap[key]; ok && v != "" {
			return v
		}
		return def
	}
}
