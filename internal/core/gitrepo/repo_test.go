package gitrepo

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_NotFound(t *testing.T) {
	f := newFixture(t)
	f.write("file.txt", lines("one"))
	f.commit("init", "Alice", "alice@example.com")

	repo := NewFromRepository(f.repo)

	_, err := repo.Resolve("does-not-exist")
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestResolveBoundary_MergeBaseIsForkPoint(t *testing.T) {
	f := newFixture(t)
	f.write("file.txt", lines("one"))
	fork := f.commit("init", "Alice", "alice@example.com")

	f.branch("feature")
	f.write("file.txt", lines("one", "two"))
	f.commit("feature work", "Bob", "bob@example.com")

	f.checkout("master")
	f.write("other.txt", lines("x"))
	base := f.commit("master work", "Alice", "alice@example.com")

	repo := NewFromRepository(f.repo)
	boundary, err := repo.ResolveBoundary("master", "feature", "", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, base, boundary.Base)
	assert.Equal(t, fork, boundary.MergeBase)
	assert.True(t, boundary.StopAt.IsZero())
}

func TestResolveBoundary_UnresolvableRevision(t *testing.T) {
	f := newFixture(t)
	f.write("file.txt", lines("one"))
	f.commit("init", "Alice", "alice@example.com")

	repo := NewFromRepository(f.repo)

	_, err := repo.ResolveBoundary("nope", "master", "", zerolog.Nop())
	assert.ErrorIs(t, err, ErrRevisionNotFound)

	_, err = repo.ResolveBoundary("master", "nope", "", zerolog.Nop())
	assert.ErrorIs(t, err, ErrRevisionNotFound)

	_, err = repo.ResolveBoundary("master", "master", "nope", zerolog.Nop())
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestResolveBoundary_NoCommonAncestor(t *testing.T) {
	f := newFixture(t)
	f.write("file.txt", lines("one"))
	f.commit("init", "Alice", "alice@example.com")
	orphan := f.orphanCommit()

	repo := NewFromRepository(f.repo)

	_, err := repo.ResolveBoundary("master", orphan.String(), "", zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoCommonAncestor)
}

func TestResolveBoundary_StopAtNotAncestorIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.write("file.txt", lines("one"))
	f.commit("init", "Alice", "alice@example.com")

	f.branch("feature")
	f.write("file.txt", lines("one", "two"))
	f.commit("feature work", "Bob", "bob@example.com")

	f.checkout("master")
	f.write("other.txt", lines("x"))
	stray := f.commit("master-only work", "Alice", "alice@example.com")

	repo := NewFromRepository(f.repo)

	// stray is on master after the fork point, so the blame walk from the
	// merge base can never reach it.
	boundary, err := repo.ResolveBoundary("master", "feature", stray.String(), zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, boundary.StopAt.IsZero())
}

func TestResolveBoundary_StopAtAncestorIsKept(t *testing.T) {
	f := newFixture(t)
	f.write("file.txt", lines("one"))
	first := f.commit("init", "Alice", "alice@example.com")
	f.write("file.txt", lines("one", "two"))
	f.commit("second", "Alice", "alice@example.com")

	f.branch("feature")
	f.write("file.txt", lines("one", "two", "three"))
	f.commit("feature work", "Bob", "bob@example.com")

	repo := NewFromRepository(f.repo)
	boundary, err := repo.ResolveBoundary("master", "feature", first.String(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, first, boundary.StopAt)
}
