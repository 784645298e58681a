package rank

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	alice = Author{Name: "Alice", Email: "alice@example.com"}
	bob   = Author{Name: "Bob", Email: "bob@example.com"}
	carol = Author{Name: "Carol", Email: "carol@example.com"}
)

func TestAggregator_RankedOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Merge(map[Author]int{alice: 3, bob: 10})
	agg.Merge(map[Author]int{carol: 3})

	got := agg.Finalize()

	assert.Equal(t, []AuthorLines{
		{Author: bob, Lines: 10},
		{Author: alice, Lines: 3},
		{Author: carol, Lines: 3},
	}, got, "ties break by author name ascending")
}

func TestAggregator_MergeOrderIndependent(t *testing.T) {
	partials := []map[Author]int{
		{alice: 5},
		{bob: 2, carol: 7},
		{alice: 1, bob: 4},
		{carol: 7},
	}

	var want []AuthorLines
	for trial := range 20 {
		shuffled := make([]map[Author]int, len(partials))
		copy(shuffled, partials)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		agg := NewAggregator()
		for _, p := range shuffled {
			agg.Merge(p)
		}
		got := agg.Finalize()

		if trial == 0 {
			want = got
			continue
		}
		assert.Equal(t, want, got, "permutation %d must not change the ranking", trial)
	}
}

func TestAggregator_ConcurrentMerge(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Merge(map[Author]int{alice: 1, bob: 2})
		}()
	}
	wg.Wait()

	got := agg.Finalize()
	assert.Equal(t, []AuthorLines{
		{Author: bob, Lines: 100},
		{Author: alice, Lines: 50},
	}, got)
}

func TestAggregator_ExactIdentityEquality(t *testing.T) {
	agg := NewAggregator()
	agg.Merge(map[Author]int{
		{Name: "Alice", Email: "alice@example.com"}: 1,
		{Name: "alice", Email: "alice@example.com"}: 1,
	})

	assert.Len(t, agg.Finalize(), 2, "near-duplicate identities must not be merged")
}
