// Package engine materializes plugin templates: it copies a template tree, substitutes the
// plugin name and date markers in file contents, and renames files whose names carry markers.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/playkit-contrib/kcontrib/internal/naming"
)

const (
	// ConfigFileName is the companion file recording the plugin name for later commands.
	ConfigFileName = ".kcontrib.json"
	// gitignoreName is the template stand-in for .gitignore; npm drops dotfiles named .gitignore.
	gitignoreName = "gitignore"
)

// Engine coordinates template instantiation.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for the date marker.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs an Engine. A nil logger discards output.
func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Source locates a template tree on some filesystem (disk, embedded, in-memory).
type Source struct {
	FS  afero.Fs
	Dir string
}

// Options describes a single instantiation.
type Options struct {
	// Name is the plugin name, validated before any I/O.
	Name string
	// Template is the tree copied into the destination.
	Template Source
	// DestFS is the filesystem receiving the project.
	DestFS afero.Fs
	// DestDir is the project root on DestFS.
	DestDir string
}

// Result summarizes what an instantiation touched.
type Result struct {
	// Copied counts files copied from the template.
	Copied int
	// Rewritten lists files whose contents had markers substituted.
	Rewritten []string
	// Renamed maps original paths to their new paths.
	Renamed map[string]string
	// ConfigPath is the companion JSON file written for later tooling.
	ConfigPath string
}

// Instantiate copies opts.Template into opts.DestDir and rewrites every marker for opts.Name.
// The name and the template directory are checked before anything is written; later failures
// abort immediately and leave the destination as it is.
func (e *Engine) Instantiate(ctx context.Context, opts Options) (*Result, error) {
	forms, err := naming.Derive(opts.Name)
	if err != nil {
		return nil, err
	}
	if opts.Template.FS == nil || opts.DestFS == nil {
		return nil, fmt.Errorf("template and destination filesystems are required")
	}
	info, err := opts.Template.FS.Stat(opts.Template.Dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: could not locate supplied template %q", ErrTemplateNotFound, opts.Template.Dir)
	}

	res := &Result{Renamed: map[string]string{}}

	copied, err := e.copyTree(ctx, opts.Template, opts.DestFS, opts.DestDir)
	if err != nil {
		return nil, err
	}
	res.Copied = copied

	configPath := filepath.Join(opts.DestDir, ConfigFileName)
	if err := writeInitialConfig(opts.DestFS, configPath, forms.Lowercase); err != nil {
		return nil, err
	}
	res.ConfigPath = configPath

	if err := restoreGitignore(opts.DestFS, opts.DestDir); err != nil {
		return nil, err
	}

	if err := e.apply(ctx, opts.DestFS, opts.DestDir, forms, res); err != nil {
		return nil, err
	}

	e.logger.Debug("template instantiated",
		"plugin", forms.Lowercase,
		"dest", opts.DestDir,
		"copied", res.Copied,
		"rewritten", len(res.Rewritten),
		"renamed", len(res.Renamed),
	)
	return res, nil
}

// Apply rewrites markers in place across an existing tree without copying anything.
func (e *Engine) Apply(ctx context.Context, fsys afero.Fs, root, name string) (*Result, error) {
	forms, err := naming.Derive(name)
	if err != nil {
		return nil, err
	}
	res := &Result{Renamed: map[string]string{}}
	if err := e.apply(ctx, fsys, root, forms, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) apply(ctx context.Context, fsys afero.Fs, root string, forms naming.Forms, res *Result) error {
	files, err := Walk(fsys, root)
	if err != nil {
		return err
	}

	rw := NewRewriter(forms, e.now)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rewritten, newPath, err := processFile(fsys, path, rw)
		if err != nil {
			return err
		}
		if rewritten {
			res.Rewritten = append(res.Rewritten, path)
			e.logger.Debug("rewrote markers", "path", path)
		}
		if newPath != "" {
			res.Renamed[path] = newPath
			e.logger.Debug("renamed file", "from", path, "to", newPath)
		}
	}
	return nil
}

// processFile rewrites the contents of path, then renames it. It reports whether the contents
// changed and the new path ("" when not renamed).
func processFile(fsys afero.Fs, path string, rw *Rewriter) (bool, string, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return false, "", &IOError{Op: "read", Path: path, Err: err}
	}

	rewritten := false
	if content := string(data); content != "" && Detect(content) {
		info, err := fsys.Stat(path)
		if err != nil {
			return false, "", &IOError{Op: "stat", Path: path, Err: err}
		}
		if err := afero.WriteFile(fsys, path, []byte(rw.Rewrite(content)), info.Mode().Perm()); err != nil {
			return false, "", &IOError{Op: "write", Path: path, Err: err}
		}
		rewritten = true
	}

	base := filepath.Base(path)
	if !DetectInName(base) {
		return rewritten, "", nil
	}
	newPath := filepath.Join(filepath.Dir(path), rw.Rewrite(base))
	if err := fsys.Rename(path, newPath); err != nil {
		return rewritten, "", &IOError{Op: "rename", Path: path, Err: err}
	}
	return rewritten, newPath, nil
}

func (e *Engine) copyTree(ctx context.Context, src Source, dstFS afero.Fs, dstDir string) (int, error) {
	if err := dstFS.MkdirAll(dstDir, 0o755); err != nil {
		return 0, &IOError{Op: "mkdir", Path: dstDir, Err: err}
	}

	copied := 0
	err := afero.Walk(src.FS, src.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return &IOError{Op: "walk", Path: path, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src.Dir, path)
		if err != nil {
			return &IOError{Op: "copy", Path: path, Err: err}
		}
		target := filepath.Join(dstDir, rel)
		if info.IsDir() {
			if err := dstFS.MkdirAll(target, 0o755); err != nil {
				return &IOError{Op: "mkdir", Path: target, Err: err}
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		data, err := afero.ReadFile(src.FS, path)
		if err != nil {
			return &IOError{Op: "read", Path: path, Err: err}
		}
		if err := afero.WriteFile(dstFS, target, data, filePerm(info.Mode())); err != nil {
			return &IOError{Op: "write", Path: target, Err: err}
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, err
	}
	e.logger.Debug("copied template", "from", src.Dir, "to", dstDir, "files", copied)
	return copied, nil
}

// filePerm keeps execute bits from the template but always makes copies writable,
// since embedded templates report read-only modes.
func filePerm(mode fs.FileMode) fs.FileMode {
	return mode.Perm() | 0o644
}

func writeInitialConfig(fsys afero.Fs, path, name string) error {
	data, err := json.MarshalIndent(struct {
		PluginName string `json:"pluginName"`
	}{PluginName: name}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", ConfigFileName, err)
	}
	data = append(data, '\n')
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// ReadPluginName reads the plugin name recorded in the companion config of a project.
func ReadPluginName(fsys afero.Fs, projectDir string) (string, error) {
	path := filepath.Join(projectDir, ConfigFileName)
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	var cfg struct {
		PluginName string `json:"pluginName"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.PluginName == "" {
		return "", fmt.Errorf("%s does not define pluginName", path)
	}
	return cfg.PluginName, nil
}

// restoreGitignore renames the template's gitignore to .gitignore, appending to an existing one.
func restoreGitignore(fsys afero.Fs, dir string) error {
	src := filepath.Join(dir, gitignoreName)
	dst := filepath.Join(dir, "."+gitignoreName)

	data, err := afero.ReadFile(fsys, src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &IOError{Op: "read", Path: src, Err: err}
	}

	exists, err := afero.Exists(fsys, dst)
	if err != nil {
		return &IOError{Op: "stat", Path: dst, Err: err}
	}
	if !exists {
		if err := fsys.Rename(src, dst); err != nil {
			return &IOError{Op: "rename", Path: src, Err: err}
		}
		return nil
	}

	f, err := fsys.OpenFile(dst, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &IOError{Op: "open", Path: dst, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return &IOError{Op: "write", Path: dst, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "write", Path: dst, Err: err}
	}
	if err := fsys.Remove(src); err != nil {
		return &IOError{Op: "remove", Path: src, Err: err}
	}
	return nil
}
