package rank

import (
	"sort"
	"sync"
)

// Aggregator accumulates per-file author counts into one shared table. Merge
// is safe to call from multiple pool workers; addition is commutative, so the
// final totals do not depend on completion order.
type Aggregator struct {
	mu     sync.Mutex
	counts map[Author]int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{counts: make(map[Author]int)}
}

// Merge adds one file's per-author counts into the table.
func (a *Aggregator) Merge(partial map[Author]int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for author, n := range partial {
		a.counts[author] += n
	}
}

// Finalize returns the ranked table: line count descending, ties broken by
// author name then email ascending so output is deterministic.
func (a *Aggregator) Finalize() []AuthorLines {
	a.mu.Lock()
	defer a.mu.Unlock()

	ranked := make([]AuthorLines, 0, len(a.counts))
	for author, n := range a.counts {
		ranked = append(ranked, AuthorLines{Author: author, Lines: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Lines != ranked[j].Lines {
			return ranked[i].Lines > ranked[j].Lines
		}
		if ranked[i].Author.Name != ranked[j].Author.Name {
			return ranked[i].Author.Name < ranked[j].Author.Name
		}
		return ranked[i].Author.Email < ranked[j].Author.Email
	})
	return ranked
}
