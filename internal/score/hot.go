// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"math"
	"time"

	"github.com/meshintel/oncopulse/pkg/types"
)

// minAgeYears keeps very recent items from producing absurd
// citations-per-year rates; anything younger than a month counts as a
// month old.
const minAgeYears = 1.0 / 12

// CitationsPerYear is the item's citation rate over its lifetime.
// Items without a year or a citation count rate zero.
func CitationsPerYear(item *types.CanonicalItem, now time.Time) float64 {
	if item.Year == nil || item.CitedByCount == nil || *item.CitedByCount <= 0 {
		return 0
	}
	age := float64(now.Year() - *item.Year)
	if age < minAgeYears {
		age = minAgeYears
	}
	return float64(*item.CitedByCount) / age
}

// HotScore blends citation velocity with recency so a fresh
// fast-moving result outranks an old heavily cited one. Both inputs
// are saturating, the result is bounded and comparable across runs.
func HotScore(item *types.CanonicalItem, now time.Time) float64 {
	rate := CitationsPerYear(item, now)
	velocity := math.Log1p(rate) / math.Log1p(100)
	if velocity > 1 {
		velocity = 1
	}

	recency := 0.0
	if item.Year != nil {
		age := float64(now.Year() - *item.Year)
		if age < 0 {
			age = 0
		}
		recency = 1 / (1 + age/types.DefaultRecencyHalf)
	}
	return 0.55*velocity + 0.45*recency
}
