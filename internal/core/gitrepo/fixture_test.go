package gitrepo

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

// fixture is an in-memory repository that tests build commits in. Commit
// timestamps increase monotonically so history ordering is deterministic.
type fixture struct {
	t     *testing.T
	repo  *git.Repository
	wt    *git.Worktree
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &fixture{
		t:     t,
		repo:  repo,
		wt:    wt,
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	require.NoError(f.t, util.WriteFile(f.wt.Filesystem, path, []byte(content), 0o644))
	_, err := f.wt.Add(path)
	require.NoError(f.t, err)
}

func (f *fixture) symlink(target, path string) {
	f.t.Helper()
	require.NoError(f.t, f.wt.Filesystem.Symlink(target, path))
	_, err := f.wt.Add(path)
	require.NoError(f.t, err)
}

func (f *fixture) remove(path string) {
	f.t.Helper()
	_, err := f.wt.Remove(path)
	require.NoError(f.t, err)
}

func (f *fixture) commit(msg, name, email string) plumbing.Hash {
	f.t.Helper()
	f.clock = f.clock.Add(time.Hour)
	sig := &object.Signature{Name: name, Email: email, When: f.clock}
	hash, err := f.wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(f.t, err)
	return hash
}

func (f *fixture) branch(name string) {
	f.t.Helper()
	err := f.wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	require.NoError(f.t, err)
}

func (f *fixture) checkout(name string) {
	f.t.Helper()
	err := f.wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
	})
	require.NoError(f.t, err)
}

// orphanCommit stores a root commit sharing HEAD's tree but with no parents,
// giving the repository a second unrelated history.
func (f *fixture) orphanCommit() plumbing.Hash {
	f.t.Helper()
	head, err := f.repo.Head()
	require.NoError(f.t, err)
	headCommit, err := f.repo.CommitObject(head.Hash())
	require.NoError(f.t, err)

	f.clock = f.clock.Add(time.Hour)
	sig := object.Signature{Name: "Orphan", Email: "orphan@example.com", When: f.clock}
	commit := &object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   "unrelated root",
		TreeHash:  headCommit.TreeHash,
	}
	obj := f.repo.Storer.NewEncodedObject()
	require.NoError(f.t, commit.Encode(obj))
	hash, err := f.repo.Storer.SetEncodedObject(obj)
	require.NoError(f.t, err)
	return hash
}

// lines joins the given lines with trailing newlines.
func lines(ls ...string) string {
	out := ""
	for _, l := range ls {
		out += l + "\n"
	}
	return out
}
