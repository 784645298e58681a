package gitrepo

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"github.com/blamerank/blamerank/internal/core/rank"
)

// blamer attributes lines of one file at a time against the merge-base tree.
// Each pool worker gets its own instance backed by its own repository handle.
type blamer struct {
	mergeBase  *object.Commit
	older      map[plumbing.Hash]bool
	stopAuthor rank.Author
	logger     zerolog.Logger
}

// NewBlamer opens a fresh repository handle for one pool worker and returns a
// blamer positioned at the merge-base commit.
func (s *Source) NewBlamer(ctx context.Context) (rank.Blamer, error) {
	if err := s.ensureCutoff(); err != nil {
		return nil, err
	}

	handle, err := s.repo.reopen()
	if err != nil {
		return nil, fmt.Errorf("reopen repository: %w", err)
	}
	mergeBase, err := handle.CommitObject(s.boundary.MergeBase)
	if err != nil {
		return nil, fmt.Errorf("load merge base commit: %w", err)
	}

	return &blamer{
		mergeBase:  mergeBase,
		older:      s.older,
		stopAuthor: s.stopAuthor,
		logger:     s.logger,
	}, nil
}

// ensureCutoff computes, once per run, the set of commits strictly older than
// the stop-at commit. Attributions landing in that set collapse to the
// stop-at commit's author, so history past the cutoff never surfaces.
func (s *Source) ensureCutoff() error {
	s.cutoffOnce.Do(func() {
		if s.boundary.StopAt.IsZero() {
			return
		}
		stop, err := s.repo.repo.CommitObject(s.boundary.StopAt)
		if err != nil {
			s.cutoffErr = fmt.Errorf("load stop-at commit: %w", err)
			return
		}
		s.stopAuthor = rank.Author{Name: stop.Author.Name, Email: stop.Author.Email}

		older := make(map[plumbing.Hash]bool)
		iter := object.NewCommitPreorderIter(stop, nil, nil)
		err = iter.ForEach(func(c *object.Commit) error {
			if c.Hash != stop.Hash {
				older[c.Hash] = true
			}
			return nil
		})
		if err != nil {
			s.cutoffErr = fmt.Errorf("walk stop-at ancestors: %w", err)
			return
		}
		s.older = older
	})
	return s.cutoffErr
}

// Blame attributes every line of path covered by spans to the author of the
// most recent commit at or before the merge base that modified it.
func (b *blamer) Blame(ctx context.Context, path string, spans []rank.Span) (map[rank.Author]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := git.Blame(b.mergeBase, path)
	if err != nil {
		return nil, fmt.Errorf("blame %s: %w", path, err)
	}

	counts := make(map[rank.Author]int)
	for _, span := range spans {
		if span.End > len(result.Lines) {
			b.logger.Debug().
				Str("path", path).
				Int("line_count", len(result.Lines)).
				Int("span_end", span.End).
				Msg("span reaches past the last blamed line; truncating")
		}
		for i := span.Start; i < span.End && i < len(result.Lines); i++ {
			line := result.Lines[i]
			author := rank.Author{Name: line.AuthorName, Email: line.Author}
			if b.older[line.Hash] {
				author = b.stopAuthor
			}
			counts[author]++
		}
	}
	return counts, nil
}

func (b *blamer) Close() error { return nil }
