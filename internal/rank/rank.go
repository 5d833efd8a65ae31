// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders scored items for the inbox. The order is a total
// order: score, then publication year, then citation count, then
// canonical item ID, so two runs over the same corpus always render
// the same list.
package rank

import (
	"sort"

	"github.com/meshintel/oncopulse/pkg/types"
)

// Rank sorts descending by score, breaking ties by year (newest first,
// absent year sorts oldest), then citation count (absent counts as
// zero), then item ID ascending. The input slice is sorted in place
// and returned.
func Rank(items []types.ScoredItem) []types.ScoredItem {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i], items[j])
	})
	return items
}

// Less reports whether a ranks strictly ahead of b.
func Less(a, b types.ScoredItem) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	ay, by := yearOrOldest(a.Item), yearOrOldest(b.Item)
	if ay != by {
		return ay > by
	}
	ac, bc := citationsOrZero(a.Item), citationsOrZero(b.Item)
	if ac != bc {
		return ac > bc
	}
	return a.Item.ID < b.Item.ID
}

// Top returns the first n ranked items without re-sorting; n larger
// than the list returns the whole list.
func Top(items []types.ScoredItem, n int) []types.ScoredItem {
	if n < 0 || n > len(items) {
		n = len(items)
	}
	return items[:n]
}

func yearOrOldest(item *types.CanonicalItem) int {
	if item.Year == nil {
		return 0
	}
	return *item.Year
}

func citationsOrZero(item *types.CanonicalItem) int {
	if item.CitedByCount == nil {
		return 0
	}
	return *item.CitedByCount
}
