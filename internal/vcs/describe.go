// Package vcs inspects the enclosing git repository to derive the project
// version used for the {version} placeholder and run history records.
package vcs

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/labrunner/internal/errors"
)

// Info describes the repository state at HEAD.
type Info struct {
	Version    string    // Tag on HEAD or v0.0.0-<shortsha>, -dirty appended
	Commit     string    // Full HEAD commit hash
	CommitTime time.Time // Committer timestamp of HEAD
	Dirty      bool      // Uncommitted changes in the worktree
}

// Fallback is the version reported outside any repository.
const Fallback = "v0.0.0"

// Describe resolves version information for the repository containing path.
// Detection walks up the directory tree like git itself does.
func Describe(path string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.GitDescribeError(path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, errors.GitDescribeError(path, err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, errors.GitDescribeError(path, err)
	}

	info := &Info{
		Commit:     head.Hash().String(),
		CommitTime: commit.Committer.When,
	}

	if tag := tagAt(repo, head.Hash()); tag != "" {
		info.Version = tag
	} else {
		info.Version = fmt.Sprintf("%s-%s", Fallback, head.Hash().String()[:8])
	}

	if worktree, wtErr := repo.Worktree(); wtErr == nil {
		if status, stErr := worktree.Status(); stErr == nil {
			info.Dirty = !status.IsClean()
		}
	}
	if info.Dirty {
		info.Version += "-dirty"
	}

	return info, nil
}

// tagAt returns a tag name pointing at the commit, resolving annotated tags to
// their targets. With several candidates the sorted-last name wins.
func tagAt(repo *git.Repository, commit plumbing.Hash) string {
	iter, err := repo.Tags()
	if err != nil {
		return ""
	}
	defer iter.Close()

	var matches []string
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tagObj, tagErr := repo.TagObject(ref.Hash()); tagErr == nil {
			target = tagObj.Target
		}
		if target == commit {
			matches = append(matches, strings.TrimPrefix(ref.Name().String(), "refs/tags/"))
		}
		return nil
	})

	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}

// VersionOrFallback returns the described version, or the fallback when the
// path is not inside a repository.
func VersionOrFallback(path string) string {
	info, err := Describe(path)
	if err != nil {
		return Fallback
	}
	return info.Version
}
