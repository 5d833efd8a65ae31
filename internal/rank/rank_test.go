// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshintel/oncopulse/pkg/types"
)

func scored(id int64, score float64, year, citations *int) types.ScoredItem {
	return types.ScoredItem{
		Item: &types.CanonicalItem{ID: id, Year: year, CitedByCount: citations},
		Score: score,
	}
}

func ids(items []types.ScoredItem) []int64 {
	out := make([]int64, len(items))
	for i, s := range items {
		out[i] = s.Item.ID
	}
	return out
}

func TestRankOrdersByScoreThenTieBreaks(t *testing.T) {
	items := []types.ScoredItem{
		scored(1, 5, types.IntPtr(2024), types.IntPtr(10)),
		scored(2, 8, types.IntPtr(2020), nil),
		scored(3, 5, types.IntPtr(2026), nil),
		scored(4, 5, types.IntPtr(2024), types.IntPtr(90)),
	}
	Rank(items)
	assert.Equal(t, []int64{2, 3, 4, 1}, ids(items))
}

func TestAbsentYearSortsBelowDatedTies(t *testing.T) {
	items := []types.ScoredItem{
		scored(1, 5, nil, types.IntPtr(500)),
		scored(2, 5, types.IntPtr(2020), nil),
	}
	Rank(items)
	assert.Equal(t, []int64{2, 1}, ids(items), "an undated item never outranks a dated tie")
}

func TestFullTiesFallBackToItemID(t *testing.T) {
	items := []types.ScoredItem{
		scored(7, 5, types.IntPtr(2025), types.IntPtr(3)),
		scored(2, 5, types.IntPtr(2025), types.IntPtr(3)),
		scored(5, 5, types.IntPtr(2025), types.IntPtr(3)),
	}
	Rank(items)
	assert.Equal(t, []int64{2, 5, 7}, ids(items))
}

func TestRankIsDeterministicAcrossShuffles(t *testing.T) {
	base := []types.ScoredItem{
		scored(1, 9.5, types.IntPtr(2026), types.IntPtr(2)),
		scored(2, 9.5, types.IntPtr(2026), types.IntPtr(2)),
		scored(3, 9.5, nil, types.IntPtr(40)),
		scored(4, 3.0, types.IntPtr(2019), nil),
		scored(5, 9.5, types.IntPtr(2024), types.IntPtr(40)),
	}
	want := ids(Rank(append([]types.ScoredItem(nil), base...)))

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]types.ScoredItem(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		assert.Equal(t, want, ids(Rank(shuffled)), "trial %d", trial)
	}
}

func TestTop(t *testing.T) {
	items := Rank([]types.ScoredItem{
		scored(1, 1, nil, nil),
		scored(2, 3, nil, nil),
		scored(3, 2, nil, nil),
	})
	assert.Len(t, Top(items, 2), 2)
	assert.Equal(t, int64(2), Top(items, 2)[0].Item.ID)
	assert.Len(t, Top(items, 10), 3)
	assert.Len(t, Top(items, -1), 3)
}
