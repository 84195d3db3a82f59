package storage

import "sort"

// SortByRelevance orders keywords by relevance descending. The sort is
// stable so equal-relevance keywords keep their discovery order.
func SortByRelevance(kws []*Keyword) {
	sort.SliceStable(kws, func(i, j int) bool {
		return kws[i].Relevance > kws[j].Relevance
	})
}
