// Package packagejson reads and edits npm manifests while keeping fields kcontrib does not know about.
package packagejson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
)

// Manifest is a package.json document. Top-level key order is preserved on Save.
type Manifest struct {
	keys   []string
	fields map[string]json.RawMessage
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{fields: map[string]json.RawMessage{}}
}

// Load reads and parses the manifest at path.
func Load(fsys afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest from JSON.
func Parse(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("manifest must be a JSON object")
	}

	m := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		if _, seen := m.fields[key]; !seen {
			m.keys = append(m.keys, key)
		}
		m.fields[key] = raw
	}
	return m, nil
}

// Save writes the manifest with two-space indentation and a trailing newline.
func (m *Manifest) Save(fsys afero.Fs, path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Marshal encodes the manifest the way npm does.
func (m *Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(m.fields[key])
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("encode package.json: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Has reports whether the top-level key exists.
func (m *Manifest) Has(key string) bool {
	_, ok := m.fields[key]
	return ok
}

// Get decodes the top-level key into v. Missing keys leave v untouched.
func (m *Manifest) Get(key string, v any) error {
	raw, ok := m.fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// Set encodes v under key, appending new keys at the end.
func (m *Manifest) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if _, ok := m.fields[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.fields[key] = raw
	return nil
}

// String returns a top-level string field, or "" when it is missing or not a string.
func (m *Manifest) String(key string) string {
	var s string
	if err := m.Get(key, &s); err != nil {
		return ""
	}
	return s
}

// Name is the package name.
func (m *Manifest) Name() string { return m.String("name") }

// Version is the package version.
func (m *Manifest) Version() string { return m.String("version") }

// Dependencies returns a dependency section ("dependencies", "devDependencies").
func (m *Manifest) Dependencies(section string) map[string]string {
	deps := map[string]string{}
	_ = m.Get(section, &deps)
	return deps
}

// Scripts returns the scripts table.
func (m *Manifest) Scripts() map[string]string {
	return m.Dependencies("scripts")
}

// HasScript reports whether a script is defined.
func (m *Manifest) HasScript(name string) bool {
	_, ok := m.Scripts()[name]
	return ok
}

// Initial builds the manifest written before dependencies are installed.
func Initial(npmName, repo string) *Manifest {
	m := New()
	_ = m.Set("name", npmName)
	_ = m.Set("version", "0.0.1")
	_ = m.Set("private", false)
	_ = m.Set("bugs", map[string]string{"url": fmt.Sprintf("https://github.com/%s/issues", repo)})
	_ = m.Set("homepage", fmt.Sprintf("https://github.com/%s#readme", repo))
	_ = m.Set("repository", map[string]string{"type": "git", "url": fmt.Sprintf("git+https://github.com/%s.git", repo)})
	return m
}

// PluginScripts is the scripts table every generated plugin gets.
func PluginScripts(pluginName string) map[string]string {
	return map[string]string{
		"clean":                      "rm -rf dist",
		"reset":                      "npm run clean && rm -rf node_modules",
		"build":                      "kcontrib build",
		"build:dev":                  "kcontrib build --dev",
		"serve":                      "kcontrib serve",
		"serve:update-modes":         "kcontrib serve --update-modes",
		"serve:update-player":        "kcontrib serve --update-player",
		"analyze":                    fmt.Sprintf("npm run build && npx source-map-explorer dist/%s.js", pluginName),
		"lint":                       "tsc --noEmit && eslint ./src --ext .ts,.tsx",
		"lint:fix":                   "tsc --noEmit && eslint ./src --ext .ts,.tsx --fix",
		"husky:pre-commit":           "lint-staged",
		"husky:commit-msg":           "commitlint -E HUSKY_GIT_PARAMS",
		"deploy:prepare":             "kcontrib deploy --prepare",
		"deploy:publish-to-npm":      "kcontrib deploy --publish",
		"deploy:next:prepare":        "kcontrib deploy --prepare --prerelease next",
		"deploy:next:publish-to-npm": "kcontrib deploy --publish",
		"infra:latest":               "kcontrib infra --type=latest",
		"infra:next":                 "kcontrib infra --type=next",
		"infra:local":                "kcontrib infra --type=local",
		"infra:add":                  "kcontrib infra --add",
	}
}

// Browserslist is the default browser support matrix.
func Browserslist() map[string][]string {
	return map[string][]string{
		"production":  {">0.2%", "not dead", "not op_mini all"},
		"development": {"last 1 chrome version", "last 1 firefox version", "last 1 safari version"},
	}
}

// ApplyPluginDefaults sets license, files, scripts and browserslist for a generated plugin.
func (m *Manifest) ApplyPluginDefaults(pluginName string) error {
	if !m.Has("dependencies") {
		if err := m.Set("dependencies", map[string]string{}); err != nil {
			return err
		}
	}
	steps := []struct {
		key   string
		value any
	}{
		{"license", "AGPL-3.0"},
		{"files", []string{"dist", "LICENSE", "README.md", "CHANGELOG.md", "src"}},
		{"scripts", PluginScripts(pluginName)},
		{"browserslist", Browserslist()},
	}
	for _, s := range steps {
		if err := m.Set(s.key, s.value); err != nil {
			return err
		}
	}
	return nil
}

// ContribPackages lists dependencies and devDependencies under scope, sorted, skipping
// packages whose unscoped name appears in ignore.
func (m *Manifest) ContribPackages(scope string, ignore []string) []string {
	prefix := strings.TrimSuffix(scope, "/") + "/"
	skip := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		skip[strings.TrimPrefix(name, prefix)] = struct{}{}
	}

	var out []string
	seen := map[string]struct{}{}
	for _, section := range []string{"dependencies", "devDependencies"} {
		names := make([]string, 0)
		for dep := range m.Dependencies(section) {
			names = append(names, dep)
		}
		sort.Strings(names)
		for _, dep := range names {
			short, ok := strings.CutPrefix(dep, prefix)
			if !ok || short == "" {
				continue
			}
			if _, ignored := skip[short]; ignored {
				continue
			}
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			out = append(out, dep)
		}
	}
	return out
}

// MakeCaretRange rewrites the version of name in section to a caret range.
// Versions that do not form a valid range afterwards are kept and a warning is logged.
func (m *Manifest) MakeCaretRange(logger *slog.Logger, section, name string) error {
	deps := m.Dependencies(section)
	version, ok := deps[name]
	if !ok {
		return fmt.Errorf("%s is not listed in %s", name, section)
	}
	caret, ok := CaretRange(version)
	if !ok {
		if logger != nil {
			logger.Warn("version is not a valid semver range, keeping it", "package", name, "version", version)
		}
		return nil
	}
	deps[name] = caret
	return m.Set(section, deps)
}

// CaretRange prefixes version with ^ and reports whether the result is a valid semver range.
func CaretRange(version string) (string, bool) {
	version = strings.TrimSpace(version)
	if version == "" || strings.HasPrefix(version, "^") {
		_, err := semver.NewConstraint(version)
		return version, version != "" && err == nil
	}
	if _, err := semver.StrictNewVersion(strings.TrimPrefix(version, "v")); err != nil {
		return version, false
	}
	caret := "^" + version
	if _, err := semver.NewConstraint(caret); err != nil {
		return version, false
	}
	return caret, true
}
