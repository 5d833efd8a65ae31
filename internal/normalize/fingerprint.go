// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"crypto/sha1"
	"fmt"
	"strconv"
	"strings"
)

// asciiFold maps common accented Latin runes to their ASCII base before
// punctuation stripping, so "naïve Bayes" and "naive Bayes" fingerprint
// identically. Anything not covered is treated as punctuation.
var asciiFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'ç': 'c', 'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i', 'ñ': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u', 'ý': 'y',
}

// Title lowercases a title, folds accents to ASCII, replaces punctuation
// with spaces, and collapses whitespace.
func Title(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if f, ok := asciiFold[r]; ok {
			r = f
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// YearBucket returns the fingerprint year component: the decimal year, or
// "unknown" when the record has none. Absent years bucket together so two
// undated copies of the same title still merge.
func YearBucket(year *int) string {
	if year == nil {
		return "unknown"
	}
	return strconv.Itoa(*year)
}

// Fingerprint builds the weakest identity key: a digest of the normalized
// title combined with the year bucket. Matching on it is exact; there is
// no similarity threshold.
func Fingerprint(title string, year *int) string {
	raw := "title:" + Title(title) + "|year:" + YearBucket(year)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%x", sum[:8])
}
