package picker

import (
	"sort"

	"github.com/standardbeagle/fff/internal/fileindex"
)

// less orders scored results by descending total score, breaking ties by
// more-recently-modified first, matching score.rs's sort_and_paginate
// comparator.
func less(a, b scored) bool {
	if a.score.Total != b.score.Total {
		return a.score.Total > b.score.Total
	}
	return a.file.Modified > b.file.Modified
}

// sortAndPaginate sorts results best-first and returns the requested page.
// For large result sets where only a small page is needed, it partitions
// with quickselect before sorting just the needed prefix, mirroring
// score.rs's select_nth_unstable_by optimization.
func sortAndPaginate(results []scored, ctx Context) ([]*fileindex.FileItem, []Score, int) {
	total := len(results)
	if total == 0 {
		return nil, nil, 0
	}

	offset := ctx.Offset
	if offset < 0 {
		offset = 0
	}
	limit := ctx.Limit
	if limit <= 0 {
		limit = total
	}

	if offset >= total {
		return nil, nil, total
	}

	itemsNeeded := offset + limit
	if itemsNeeded > total {
		itemsNeeded = total
	}

	if itemsNeeded < total/2 && total > 100 {
		quickselect(results, itemsNeeded-1)
		results = results[:itemsNeeded]
	}

	sort.SliceStable(results, func(i, j int) bool { return less(results[i], results[j]) })

	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	results = results[offset:end]

	items := make([]*fileindex.FileItem, len(results))
	scores := make([]Score, len(results))
	for i, r := range results {
		items[i] = r.file
		scores[i] = r.score
	}
	return items, scores, total
}

// quickselect partitions s in place so that s[k] holds the element that
// would occupy position k under less, with everything "less-or-equal"
// (in rank order) to its left. A Hoare-style single-pivot selection,
// recursing only into the side containing k.
func quickselect(s []scored, k int) {
	lo, hi := 0, len(s)-1
	for lo < hi {
		p := partition(s, lo, hi)
		switch {
		case k == p:
			return
		case k < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

func partition(s []scored, lo, hi int) int {
	pivot := s[(lo+hi)/2]
	s[(lo+hi)/2], s[hi] = s[hi], s[(lo+hi)/2]

	store := lo
	for i := lo; i < hi; i++ {
		if less(s[i], pivot) {
			s[i], s[store] = s[store], s[i]
			store++
		}
	}
	s[store], s[hi] = s[hi], s[store]
	return store
}
