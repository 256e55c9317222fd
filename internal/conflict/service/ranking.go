package service

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// rankOrder returns candidate indexes with exact identifier hits first, then
// name hits by fuzzy distance. Ties keep storage order, which is newest first.
func rankOrder(query string, names []string, exact []bool) []int {
	distance := make(map[int]int, len(names))
	if query != "" {
		ranks := fuzzy.RankFindNormalizedFold(query, names)
		sort.Sort(ranks)
		for _, rank := range ranks {
			distance[rank.OriginalIndex] = rank.Distance
		}
	}

	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if exact[ia] != exact[ib] {
			return exact[ia]
		}
		da, okA := distance[ia]
		db, okB := distance[ib]
		if okA != okB {
			return okA
		}
		return da < db
	})
	return order
}
