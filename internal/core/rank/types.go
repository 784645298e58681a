// Package rank implements the diff-to-blame aggregation pipeline: expanding
// changed line ranges with context, attributing each line to its last author,
// and merging per-file results into a single ranked table.
package rank

import (
	"context"
	"fmt"
)

// Span is a half-open [Start, End) range of 0-based line numbers in the
// old-side (comparison base) version of a file. A zero-width span marks a pure
// insertion point; it becomes attributable only once context widens it.
type Span struct {
	Start int
	End   int
}

// Len returns the number of lines covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// FileChange is one changed file as reported by the diff, with its changed
// spans, the old-side line count used for clamping, and the larger of the two
// blob sizes used for the size ceiling check.
type FileChange struct {
	Path      string
	Spans     []Span
	LineCount int
	Size      int64
}

// Author identifies a person by exact (name, email) equality. No fuzzy
// merging of near-duplicate identities is attempted.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// AuthorLines is one row of the final ranked table.
type AuthorLines struct {
	Author Author
	Lines  int
}

// FileFailure records a file whose attribution failed. Failures are partial:
// the file's lines are excluded from the totals and the run continues.
type FileFailure struct {
	Path string
	Err  error
}

// Blamer attributes lines of a single file to their last authors as of the
// comparison base. Implementations are not required to be safe for concurrent
// use; the pool gives each worker its own instance.
type Blamer interface {
	// Blame returns per-author line counts for every line of path covered by
	// spans. Spans are sorted and disjoint.
	Blame(ctx context.Context, path string, spans []Span) (map[Author]int, error)
	Close() error
}

// Source supplies the set of changed files and per-worker blamers. It is the
// narrow contract with the repository backend.
type Source interface {
	// Changes returns one FileChange per path with old-side content
	// differences, ordered lexicographically by path.
	Changes(ctx context.Context) ([]FileChange, error)
	// NewBlamer opens a fresh read-only handle for one pool worker.
	NewBlamer(ctx context.Context) (Blamer, error)
}

// Reporter receives abstract progress events from the pool. Announce is called
// exactly once, before any work starts; Completed exactly once per file task
// resolution, whether it succeeded, was skipped, or failed.
type Reporter interface {
	Announce(total int)
	Completed()
}

// NopReporter discards all progress events.
type NopReporter struct{}

func (NopReporter) Announce(int) {}
func (NopReporter) Completed()   {}
