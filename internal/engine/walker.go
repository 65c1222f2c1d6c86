package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// skippedDirs are never descended into: dependency caches and VCS metadata.
var skippedDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
}

// archiveExts mark packaged payloads that must not be scanned as text.
var archiveExts = map[string]struct{}{
	".tgz": {},
	".tar": {},
	".gz":  {},
}

// IsArchive reports whether name looks like a tar or gzip payload.
func IsArchive(name string) bool {
	_, ok := archiveExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Walk returns every regular file under root in lexical order, excluding
// node_modules and .git subtrees and archive files.
// A missing root yields an *IOError wrapping fs.ErrNotExist.
func Walk(fsys afero.Fs, root string) ([]string, error) {
	info, err := fsys.Stat(root)
	if err != nil {
		return nil, &IOError{Op: "walk", Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &IOError{Op: "walk", Path: root, Err: fmt.Errorf("not a directory")}
	}

	var files []string
	err = afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return &IOError{Op: "walk", Path: path, Err: err}
		}
		if info.IsDir() {
			if _, skip := skippedDirs[info.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || IsArchive(info.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
