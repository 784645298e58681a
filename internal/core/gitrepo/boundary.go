package gitrepo

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog"
)

// Boundary is the resolved comparison boundary. MergeBase is the nearest
// common ancestor of Base and Compare; its tree is the old side of the diff
// and the point blame runs at. StopAt is zero when no history cutoff applies.
// Base itself is not consulted again once the merge base is known; it is kept
// so callers can report what was actually resolved.
type Boundary struct {
	Base      plumbing.Hash
	Compare   plumbing.Hash
	MergeBase plumbing.Hash
	StopAt    plumbing.Hash
}

// ResolveBoundary resolves base, compare, and the optional stopAt revision.
// A stopAt that is not an ancestor of the merge base can never be reached by
// the attribution walk; it is logged and treated as unset.
func (r *Repo) ResolveBoundary(base, compare, stopAt string, logger zerolog.Logger) (*Boundary, error) {
	baseCommit, err := r.Resolve(base)
	if err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	logger.Info().Stringer("base", baseCommit.Hash).Msg("resolved base")

	compareCommit, err := r.Resolve(compare)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	logger.Info().Stringer("compare", compareCommit.Hash).Msg("resolved compare")

	bases, err := baseCommit.MergeBase(compareCommit)
	if err != nil {
		return nil, fmt.Errorf("merge base of %s and %s: %w", base, compare, err)
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("%w: %s and %s have unrelated histories", ErrNoCommonAncestor, base, compare)
	}
	mergeBase := bases[0]
	logger.Info().Stringer("merge_base", mergeBase.Hash).Msg("resolved merge base")

	b := &Boundary{
		Base:      baseCommit.Hash,
		Compare:   compareCommit.Hash,
		MergeBase: mergeBase.Hash,
	}

	if stopAt != "" {
		stopCommit, err := r.Resolve(stopAt)
		if err != nil {
			return nil, fmt.Errorf("stop-at: %w", err)
		}
		ancestor, err := stopCommit.IsAncestor(mergeBase)
		if err != nil {
			return nil, fmt.Errorf("check stop-at ancestry: %w", err)
		}
		if !ancestor {
			logger.Warn().
				Stringer("stop_at", stopCommit.Hash).
				Msg("stop-at is not an ancestor of the merge base; ignoring cutoff")
		} else {
			b.StopAt = stopCommit.Hash
			logger.Info().Stringer("stop_at", stopCommit.Hash).Msg("resolved history cutoff")
		}
	}

	return b, nil
}
