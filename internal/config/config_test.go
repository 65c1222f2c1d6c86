package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playkit-contrib/kcontrib/internal/env"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "/proj", LoadOptions{Environ: env.Vars{}})
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg.Settings)
	assert.Equal(t, 8017, cfg.Settings.DevServerPort)
	assert.Equal(t, "/proj/package.json", cfg.Paths.PackageJSON)
	assert.Equal(t, "/proj/test/env.json", cfg.Paths.EnvJSON)
	assert.Equal(t, "/proj/.kcontrib.json", cfg.Paths.ProjectConfig)
	assert.Empty(t, cfg.ChildEnv)
}

func TestLoadLayering(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/proj/kcontrib.yaml", []byte(`
envFiles: [".env"]
playerRepo: '{{ envOr "PLAYER_MIRROR" "https://example.com/player.git" }}'
ignoredPackages: [common]
devServerPort: 9000
modes:
  userType: [ks]
`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/proj/.env", []byte("NPM_TOKEN=secret\nKCONTRIB_WEBPACK_CONFIG=webpack.dev.js\nPLAYER_MIRROR=https://mirror/player.git\n"), 0o644))

	cfg, err := Load(fsys, "/proj", LoadOptions{Environ: env.Vars{
		"KCONTRIB_DEV_SERVER_PORT":  "9100",
		"KCONTRIB_IGNORED_PACKAGES": "ui,plugin",
	}})
	require.NoError(t, err)

	s := cfg.Settings
	assert.Equal(t, "https://mirror/player.git", s.PlayerRepo)
	assert.Equal(t, "webpack.dev.js", s.WebpackConfig)
	assert.Equal(t, 9100, s.DevServerPort)
	assert.Equal(t, []string{"ui", "plugin"}, s.IgnoredPackages)
	assert.Equal(t, []string{"ks"}, s.Modes.UserType)
	assert.Equal(t, []string{"custom", "uiconf"}, s.Modes.Bundler)
	assert.Equal(t, "@playkit-js-contrib", s.ContribScope)
	assert.Equal(t, "secret", cfg.ChildEnv["NPM_TOKEN"])
}

func TestLoadUserFileUnderProjectFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/home/me/.config/kcontrib/kcontrib.yaml", []byte("contribScope: '@acme'\ndevServerPort: 9000\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/proj/kcontrib.yaml", []byte("devServerPort: 9001\n"), 0o644))

	cfg, err := Load(fsys, "/proj", LoadOptions{
		Environ:  env.Vars{},
		UserFile: "/home/me/.config/kcontrib/kcontrib.yaml",
	})
	require.NoError(t, err)
	assert.Equal(t, "@acme", cfg.Settings.ContribScope)
	assert.Equal(t, 9001, cfg.Settings.DevServerPort)

	cfg, err = Load(fsys, "/proj", LoadOptions{Environ: env.Vars{}, UserFile: "/nowhere/kcontrib.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "@playkit-js-contrib", cfg.Settings.ContribScope)
}

func TestDefaultUserFile(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultUserFile(), filepath.Join("kcontrib", FileName)))
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/proj/kcontrib.yaml", []byte("contribScope: playkit\n"), 0o644))
	_, err := Load(fsys, "/proj", LoadOptions{Environ: env.Vars{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start with @")

	_, err = Load(afero.NewMemMapFs(), "/proj", LoadOptions{Environ: env.Vars{"KCONTRIB_DEV_SERVER_PORT": "nope"}})
	require.Error(t, err)
}

func TestLoadMissingEnvFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/proj/kcontrib.yaml", []byte("envFiles: [missing.env]\n"), 0o644))
	_, err := Load(fsys, "/proj", LoadOptions{Environ: env.Vars{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.env")
}

func TestModesListOrder(t *testing.T) {
	var names []string
	for _, m := range Defaults().Modes.List() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"userType", "bundler", "serverEnv", "bundlerEnv"}, names)
}

func TestPathsRel(t *testing.T) {
	p := NewPaths("/proj")
	assert.Equal(t, "webpack.override.js", p.Rel(p.WebpackOverride))
}

func TestPathsResolve(t *testing.T) {
	p := NewPaths("/proj")
	assert.Equal(t, "/proj/webpack.config.js", p.Resolve("webpack.config.js"))
	assert.Equal(t, "/etc/webpack.js", p.Resolve("/etc/webpack.js"))
}
