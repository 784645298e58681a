package gitrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/rs/zerolog"

	"github.com/blamerank/blamerank/internal/core/rank"
)

// SourceOptions configures how changes are derived from the boundary.
type SourceOptions struct {
	// DetectRenames tracks renamed files so their old-side lines stay
	// attributable under the old path.
	DetectRenames bool
	// Exclude drops files whose old-side path matches any of these
	// doublestar glob patterns.
	Exclude []string
}

// Source derives FileChanges from a comparison boundary and opens blame
// handles for pool workers. It implements rank.Source.
type Source struct {
	repo     *Repo
	boundary *Boundary
	opts     SourceOptions
	logger   zerolog.Logger

	cutoffOnce sync.Once
	cutoffErr  error
	older      map[plumbing.Hash]bool
	stopAuthor rank.Author
}

// NewSource returns a Source over the given repository and boundary.
func NewSource(repo *Repo, boundary *Boundary, opts SourceOptions, logger zerolog.Logger) *Source {
	return &Source{repo: repo, boundary: boundary, opts: opts, logger: logger}
}

// Changes computes the tree-to-tree diff between the merge-base tree and the
// compare tree and returns one FileChange per path with attributable old-side
// ranges, ordered lexicographically by path.
//
// Created files have no old side and are dropped. Non-blob entries, binary
// files, and excluded paths are dropped as well, each with a debug log line.
func (s *Source) Changes(ctx context.Context) ([]rank.FileChange, error) {
	mergeBase, err := s.repo.repo.CommitObject(s.boundary.MergeBase)
	if err != nil {
		return nil, fmt.Errorf("load merge base commit: %w", err)
	}
	compare, err := s.repo.repo.CommitObject(s.boundary.Compare)
	if err != nil {
		return nil, fmt.Errorf("load compare commit: %w", err)
	}

	oldTree, err := mergeBase.Tree()
	if err != nil {
		return nil, fmt.Errorf("load merge base tree: %w", err)
	}
	newTree, err := compare.Tree()
	if err != nil {
		return nil, fmt.Errorf("load compare tree: %w", err)
	}

	diffOpts := &object.DiffTreeOptions{}
	if s.opts.DetectRenames {
		diffOpts = object.DefaultDiffTreeOptions
	}
	changes, err := object.DiffTreeWithOptions(ctx, oldTree, newTree, diffOpts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	var files []rank.FileChange
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, fmt.Errorf("classify change: %w", err)
		}
		if action == merkletrie.Insert {
			s.logger.Debug().Str("path", change.To.Name).Msg("skipping created file")
			continue
		}

		path := change.From.Name
		if s.excluded(path) {
			s.logger.Debug().Str("path", path).Msg("skipping excluded file")
			continue
		}
		if mode := change.From.TreeEntry.Mode; mode != filemode.Regular && mode != filemode.Executable {
			s.logger.Debug().Str("path", path).Stringer("mode", mode).Msg("skipping non-blob entry")
			continue
		}

		fc, ok, err := s.fileChange(ctx, change, path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		files = append(files, fc)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Source) fileChange(ctx context.Context, change *object.Change, path string) (rank.FileChange, bool, error) {
	patch, err := change.PatchContext(ctx)
	if err != nil {
		return rank.FileChange{}, false, fmt.Errorf("patch %s: %w", path, err)
	}

	filePatches := patch.FilePatches()
	if len(filePatches) == 0 {
		return rank.FileChange{}, false, nil
	}
	fp := filePatches[0]
	if fp.IsBinary() {
		s.logger.Debug().Str("path", path).Msg("skipping binary file")
		return rank.FileChange{}, false, nil
	}

	spans, lineCount := oldSpans(fp)
	if len(spans) == 0 {
		return rank.FileChange{}, false, nil
	}

	size, err := s.maxBlobSize(change)
	if err != nil {
		return rank.FileChange{}, false, fmt.Errorf("blob size of %s: %w", path, err)
	}

	return rank.FileChange{
		Path:      path,
		Spans:     spans,
		LineCount: lineCount,
		Size:      size,
	}, true, nil
}

// oldSpans walks the file patch chunks and returns the changed spans in
// old-side 0-based line numbers, plus the old-side line count. Deleted chunks
// cover their old lines; added chunks leave a zero-width insertion marker for
// the expander to widen.
func oldSpans(fp fdiff.FilePatch) ([]rank.Span, int) {
	var spans []rank.Span
	old := 0
	for _, chunk := range fp.Chunks() {
		n := countLines(chunk.Content())
		switch chunk.Type() {
		case fdiff.Equal:
			old += n
		case fdiff.Delete:
			spans = append(spans, rank.Span{Start: old, End: old + n})
			old += n
		case fdiff.Add:
			spans = append(spans, rank.Span{Start: old, End: old})
		}
	}
	return spans, old
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// maxBlobSize returns the larger of the old and new blob sizes, matching the
// size-ceiling semantics of comparing against the bigger side.
func (s *Source) maxBlobSize(change *object.Change) (int64, error) {
	size := int64(0)
	for _, entry := range []object.ChangeEntry{change.From, change.To} {
		if entry.Name == "" {
			continue
		}
		blob, err := s.repo.repo.BlobObject(entry.TreeEntry.Hash)
		if err != nil {
			return 0, err
		}
		if blob.Size > size {
			size = blob.Size
		}
	}
	return size, nil
}

func (s *Source) excluded(path string) bool {
	for _, pattern := range s.opts.Exclude {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}
