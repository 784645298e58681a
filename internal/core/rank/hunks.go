package rank

import "sort"

// Expand widens each changed span of fc by context lines on both sides,
// clamped to [0, fc.LineCount), and merges overlapping or touching spans into
// a minimal sorted, disjoint cover. Zero-width spans that stay empty after
// expansion (pure insertions with context 0) are dropped, since they cover no
// attributable old-side lines.
func Expand(fc FileChange, context int) []Span {
	expanded := make([]Span, 0, len(fc.Spans))
	for _, s := range fc.Spans {
		e := Span{Start: s.Start - context, End: s.End + context}
		if e.Start < 0 {
			e.Start = 0
		}
		if e.End > fc.LineCount {
			e.End = fc.LineCount
		}
		if e.Len() <= 0 {
			continue
		}
		expanded = append(expanded, e)
	}

	sort.Slice(expanded, func(i, j int) bool {
		if expanded[i].Start != expanded[j].Start {
			return expanded[i].Start < expanded[j].Start
		}
		return expanded[i].End < expanded[j].End
	})

	merged := expanded[:0]
	for _, s := range expanded {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
