package git

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/storage"
)

const gitignoreFile = ".gitignore"

// stageTree writes every file of a fresh work tree that is not ignored into the index.
// Each directory's .gitignore is read when the walk reaches it and ignored directories
// are never listed, so an installed node_modules costs nothing.
func stageTree(s storage.Storer, fsys billy.Filesystem, excludes []gitignore.Pattern) error {
	idx, err := s.Index()
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	st := &stager{s: s, fs: fsys, idx: idx}
	if err := st.dir(nil, excludes); err != nil {
		return err
	}
	return s.SetIndex(idx)
}

type stager struct {
	s   storage.Storer
	fs  billy.Filesystem
	idx *index.Index
}

func (st *stager) dir(path []string, inherited []gitignore.Pattern) error {
	own, err := readIgnoreFile(st.fs, path)
	if err != nil {
		return err
	}
	patterns := append(append([]gitignore.Pattern(nil), inherited...), own...)
	matcher := gitignore.NewMatcher(patterns)

	entries, err := st.fs.ReadDir(joinPath(path))
	if err != nil {
		return fmt.Errorf("read dir %s: %w", joinPath(path), err)
	}
	for _, fi := range entries {
		child := append(append([]string(nil), path...), fi.Name())
		if fi.IsDir() {
			if fi.Name() == gogit.GitDirName || matcher.Match(child, true) {
				continue
			}
			if err := st.dir(child, patterns); err != nil {
				return err
			}
			continue
		}
		if matcher.Match(child, false) {
			continue
		}
		if !fi.Mode().IsRegular() && fi.Mode()&os.ModeSymlink == 0 {
			continue
		}
		if err := st.file(strings.Join(child, "/"), fi); err != nil {
			return err
		}
	}
	return nil
}

func (st *stager) file(name string, fi os.FileInfo) error {
	obj := st.s.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(fi.Size())

	w, err := obj.Writer()
	if err != nil {
		return err
	}
	if err := writeContent(w, st.fs, name, fi); err != nil {
		_ = w.Close()
		return fmt.Errorf("stage %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	h, err := st.s.SetEncodedObject(obj)
	if err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}

	mode, err := filemode.NewFromOSFileMode(fi.Mode())
	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	e := st.idx.Add(name)
	e.Hash = h
	e.Mode = mode
	e.ModifiedAt = fi.ModTime()
	if mode.IsRegular() {
		e.Size = uint32(fi.Size())
	}
	return nil
}

func writeContent(w io.Writer, fsys billy.Filesystem, name string, fi os.FileInfo) error {
	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := fsys.Readlink(name)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, target)
		return err
	}
	f, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}

func readIgnoreFile(fsys billy.Filesystem, path []string) ([]gitignore.Pattern, error) {
	name := joinPath(append(append([]string(nil), path...), gitignoreFile))
	f, err := fsys.Open(name)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	var out []gitignore.Pattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, gitignore.ParsePattern(line, path))
	}
	return out, sc.Err()
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "."
	}
	return strings.Join(path, "/")
}
