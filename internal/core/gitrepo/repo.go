// Package gitrepo is the repository backend for the ranking pipeline, built
// on go-git. It resolves revisions, computes the comparison boundary, diffs
// trees, and attributes lines to authors.
package gitrepo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	// ErrRevisionNotFound is returned when a revision identifier does not
	// resolve to a commit in the repository.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrNoCommonAncestor is returned when base and compare share no history.
	ErrNoCommonAncestor = errors.New("no common ancestor")
)

// Repo is a handle to an on-disk (or in-memory, in tests) git repository.
// Pool workers reopen the repository rather than sharing one handle, since
// go-git handles are not guaranteed safe for concurrent use.
type Repo struct {
	repo   *git.Repository
	reopen func() (*git.Repository, error)
}

// Discover opens the repository containing path, walking up to find the .git
// directory the way the git CLI does.
func Discover(path string) (*Repo, error) {
	open := func() (*git.Repository, error) {
		return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	}
	r, err := open()
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", path, err)
	}
	return &Repo{repo: r, reopen: open}, nil
}

// NewFromRepository wraps an already-open repository. Workers share the
// single handle, so this is only appropriate for storage that tolerates
// concurrent reads (in-memory test repositories).
func NewFromRepository(r *git.Repository) *Repo {
	return &Repo{repo: r, reopen: func() (*git.Repository, error) { return r, nil }}
}

// Resolve resolves a revision identifier (branch, tag, hash, or any rev
// expression go-git understands) to its commit.
func (r *Repo) Resolve(rev string) (*object.Commit, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrRevisionNotFound, rev)
	}
	c, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, fmt.Errorf("%w: %q does not point to a commit", ErrRevisionNotFound, rev)
	}
	return c, nil
}
