// Package ranking turns score vectors into orderings and compares orderings
// produced by different methods.
package ranking

import "sort"

// Order returns alternative indices from best to worst. Ties keep their
// original index order.
func Order(scores []float64, descending bool) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		if descending {
			return scores[order[a]] > scores[order[b]]
		}
		return scores[order[a]] < scores[order[b]]
	})

	return order
}

// Rank returns the 1-based position of each alternative, in input order. With
// descending set the highest score is ranked first.
func Rank(scores []float64, descending bool) []int {
	ranks := make([]int, len(scores))
	for pos, idx := range Order(scores, descending) {
		ranks[idx] = pos + 1
	}
	return ranks
}

// Floats converts integer ranks for the correlation helpers.
func Floats(ranks []int) []float64 {
	out := make([]float64, len(ranks))
	for i, r := range ranks {
		out[i] = float64(r)
	}
	return out
}
