package config

import (
	"path/filepath"

	"github.com/playkit-contrib/kcontrib/internal/engine"
)

// Paths locates the files kcontrib reads and writes inside a plugin project.
type Paths struct {
	// Root is the project directory.
	Root string
	// PackageJSON is the npm manifest.
	PackageJSON string
	// ProjectConfig is the companion file written at creation time.
	ProjectConfig string
	// TestDir holds the local test environment.
	TestDir string
	// EnvJSON stores the selected serve modes and player version.
	EnvJSON string
	// ConfigJSON is the player configuration used by the dev server.
	ConfigJSON string
	// TestReadme documents the test folder.
	TestReadme string
	// WebpackOverride replaces the configured webpack config when present.
	WebpackOverride string
	// NodeModules is the npm install target.
	NodeModules string
}

// NewPaths resolves every well-known path under root.
func NewPaths(root string) Paths {
	testDir := filepath.Join(root, "test")
	return Paths{
		Root:            root,
		PackageJSON:     filepath.Join(root, "package.json"),
		ProjectConfig:   filepath.Join(root, engine.ConfigFileName),
		TestDir:         testDir,
		EnvJSON:         filepath.Join(testDir, "env.json"),
		ConfigJSON:      filepath.Join(testDir, "config.json"),
		TestReadme:      filepath.Join(testDir, "readme.md"),
		WebpackOverride: filepath.Join(root, "webpack.override.js"),
		NodeModules:     filepath.Join(root, "node_modules"),
	}
}

// Rel returns path relative to the project root, or path itself when that fails.
func (p Paths) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil {
		return path
	}
	return rel
}

// Resolve joins a project-relative path onto Root. Absolute paths are returned unchanged.
func (p Paths) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}
