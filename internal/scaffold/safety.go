package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// allowedEntries may exist in a destination before a project is created in it.
var allowedEntries = map[string]struct{}{
	".DS_Store":      {},
	"Thumbs.db":      {},
	".git":           {},
	".gitignore":     {},
	".idea":          {},
	"README.md":      {},
	"LICENSE":        {},
	".hg":            {},
	".hgignore":      {},
	".hgcheck":       {},
	".npmignore":     {},
	"mkdocs.yml":     {},
	"docs":           {},
	".travis.yml":    {},
	".gitlab-ci.yml": {},
	".gitattributes": {},
}

// errorLogPrefixes match logs left behind by a failed install; they are removed, not reported.
var errorLogPrefixes = []string{"npm-debug.log", "yarn-error.log", "yarn-debug.log"}

// ConflictError lists destination entries that could be overwritten.
type ConflictError struct {
	Dir       string
	Conflicts []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("the directory %s contains files that could conflict: %s; either try using a new directory name, or remove the files listed",
		filepath.Base(e.Dir), strings.Join(e.Conflicts, ", "))
}

func isErrorLog(name string) bool {
	for _, p := range errorLogPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// EnsureSafeDir creates dir if needed and fails with a *ConflictError when it holds entries
// outside the allow list. Leftover npm and yarn error logs are deleted.
func EnsureSafeDir(fsys afero.Fs, dir string) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	var conflicts, logs []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case isErrorLog(name):
			logs = append(logs, name)
		case strings.HasSuffix(name, ".iml"):
		default:
			if _, ok := allowedEntries[name]; !ok {
				conflicts = append(conflicts, name)
			}
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return &ConflictError{Dir: dir, Conflicts: conflicts}
	}
	for _, name := range logs {
		if err := fsys.RemoveAll(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// generatedEntries are removed when dependency installation fails.
var generatedEntries = []string{"package.json", "yarn.lock", "node_modules"}

// rollback deletes what a failed install produced and the destination itself when nothing else is left.
func rollback(fsys afero.Fs, dir string) ([]string, error) {
	var removed []string
	for _, name := range generatedEntries {
		path := filepath.Join(dir, name)
		if _, err := fsys.Stat(path); err != nil {
			continue
		}
		if err := fsys.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed = append(removed, name)
	}
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil && !os.IsNotExist(err) {
		return removed, fmt.Errorf("read %s: %w", dir, err)
	}
	if err == nil && len(entries) == 0 {
		if err := fsys.Remove(dir); err != nil {
			return removed, fmt.Errorf("remove %s: %w", dir, err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}
