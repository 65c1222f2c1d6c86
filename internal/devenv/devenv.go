// Package devenv manages the local test environment of a plugin project: the env.json file
// holding the selected serve modes and player version, and the files copied next to it.
package devenv

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/spf13/afero"

	"github.com/playkit-contrib/kcontrib/internal/config"
	"github.com/playkit-contrib/kcontrib/internal/templates"
)

// ErrMissing reports a project without a test environment.
var ErrMissing = errors.New("test environment is not initialized")

// Document is the decoded env.json. Unknown keys are kept as they are.
type Document map[string]any

// Exists reports whether both env.json and config.json are present.
func Exists(fsys afero.Fs, paths config.Paths) (bool, error) {
	for _, path := range []string{paths.EnvJSON, paths.ConfigJSON} {
		ok, err := afero.Exists(fsys, path)
		if err != nil {
			return false, fmt.Errorf("stat %s: %w", path, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Create writes env.json with modes selected, and copies config.json and readme.md into the test folder.
func Create(fsys afero.Fs, paths config.Paths, modes map[string]string) error {
	raw, err := templates.ReadServeFile("env.json")
	if err != nil {
		return fmt.Errorf("read default env.json: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode default env.json: %w", err)
	}
	if err := doc.SetModes(modes); err != nil {
		return err
	}

	if err := fsys.MkdirAll(paths.TestDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", paths.TestDir, err)
	}
	if err := Save(fsys, paths.EnvJSON, doc); err != nil {
		return err
	}
	for name, dst := range map[string]string{"config.json": paths.ConfigJSON, "readme.md": paths.TestReadme} {
		data, err := templates.ReadServeFile(name)
		if err != nil {
			return fmt.Errorf("read default %s: %w", name, err)
		}
		if err := afero.WriteFile(fsys, dst, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
	}
	return nil
}

// Load reads env.json, returning ErrMissing when it does not exist.
func Load(fsys afero.Fs, path string) (Document, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found", ErrMissing, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// Save writes doc with two-space indentation and a trailing newline.
func Save(fsys afero.Fs, path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Modes returns the selected value of every mode.
func (d Document) Modes() map[string]string {
	out := map[string]string{}
	section, _ := d["modes"].(map[string]any)
	for k, v := range section {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// SetModes merges modes into the modes section, overriding existing selections.
func (d Document) SetModes(modes map[string]string) error {
	section := make(map[string]any, len(modes))
	for k, v := range modes {
		section[k] = v
	}
	return d.merge("modes", section)
}

// PlayerVersion returns bundler.customPlayerVersion, or "" when unset.
func (d Document) PlayerVersion() string {
	bundler, _ := d["bundler"].(map[string]any)
	v, _ := bundler["customPlayerVersion"].(string)
	return v
}

// SetPlayerVersion merges the player version into the bundler section.
func (d Document) SetPlayerVersion(version string) error {
	return d.merge("bundler", map[string]any{"customPlayerVersion": version})
}

func (d Document) merge(key string, values map[string]any) error {
	section, ok := d[key].(map[string]any)
	if !ok {
		section = map[string]any{}
	}
	if err := mergo.Merge(&section, values, mergo.WithOverride); err != nil {
		return fmt.Errorf("merge %s: %w", key, err)
	}
	d[key] = section
	return nil
}
