// Package git performs the few repository operations kcontrib needs, natively through go-git.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// ErrNoTags is returned by LatestTag for a repository without tags.
var ErrNoTags = errors.New("repository has no tags")

// IsRepository reports whether dir is inside a git work tree, looking through parent directories.
func IsRepository(dir string) bool {
	_, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}

// InitAndCommit creates a repository in dir and commits every file in it.
// It returns false without doing anything when dir already belongs to a repository.
// When the commit fails the new .git directory is removed again. A nil author falls
// back to the user's git configuration.
func InitAndCommit(dir, message string, author *object.Signature) (bool, error) {
	if IsRepository(dir) {
		return false, nil
	}

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		return false, fmt.Errorf("git init: %w", err)
	}

	if err := commitAll(repo, message, author); err != nil {
		if rmErr := os.RemoveAll(filepath.Join(dir, gogit.GitDirName)); rmErr != nil {
			return false, errors.Join(err, fmt.Errorf("remove .git: %w", rmErr))
		}
		return false, err
	}
	return true, nil
}

func commitAll(repo *gogit.Repository, message string, author *object.Signature) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := stageTree(repo.Storer, wt.Filesystem, wt.Excludes); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if _, err := wt.Commit(message, &gogit.CommitOptions{Author: author}); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}

// StageAll stages every change in the repository containing dir.
func StageAll(dir string) error {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	return nil
}

// RemoteTags lists the tag names advertised by the remote at url without cloning it.
func RemoteTags(ctx context.Context, url string) ([]string, error) {
	remote := gogit.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	refs, err := remote.ListContext(ctx, &gogit.ListOptions{PeelingOption: gogit.IgnorePeeled})
	if err != nil {
		return nil, fmt.Errorf("list tags of %s: %w", url, err)
	}
	tags := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Name().IsTag() {
			tags = append(tags, ref.Name().Short())
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// PlayerVersions keeps the tags starting with prefix, strips it and sorts the versions
// newest first. Semver versions come before anything that does not parse, which is
// ordered lexically descending.
func PlayerVersions(tags []string, prefix string) []string {
	versions := make([]string, 0, len(tags))
	for _, tag := range tags {
		if v, ok := strings.CutPrefix(tag, prefix); ok && v != "" {
			versions = append(versions, v)
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		vi, errI := semver.NewVersion(versions[i])
		vj, errJ := semver.NewVersion(versions[j])
		switch {
		case errI == nil && errJ == nil:
			if vi.Equal(vj) {
				return versions[i] > versions[j]
			}
			return vi.GreaterThan(vj)
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return versions[i] > versions[j]
		}
	})
	return versions
}

// LatestTag returns the most recent tag of the repository containing dir, dated by the
// tagger for annotated tags and by the commit for lightweight ones.
func LatestTag(dir string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	iter, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("list tags: %w", err)
	}

	var (
		latest string
		when   time.Time
	)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		t, err := tagTime(repo, ref)
		if err != nil {
			return err
		}
		name := ref.Name().Short()
		if latest == "" || t.After(when) || (t.Equal(when) && name > latest) {
			latest, when = name, t
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if latest == "" {
		return "", ErrNoTags
	}
	return latest, nil
}

func tagTime(repo *gogit.Repository, ref *plumbing.Reference) (time.Time, error) {
	if tag, err := repo.TagObject(ref.Hash()); err == nil {
		return tag.Tagger.When, nil
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve tag %s: %w", ref.Name().Short(), err)
	}
	return commit.Committer.When, nil
}
