// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"regexp"
	"strings"
)

// doiResolverPrefix matches URL resolver prefixes in front of a DOI:
// "https://doi.org/", "http://dx.doi.org/", "doi:".
var doiResolverPrefix = regexp.MustCompile(`^(https?://(dx\.)?doi\.org/|doi:)`)

// doiPattern matches a bare DOI: "10.1056/nejmoa2034577".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// DOI lowercases a DOI, strips resolver prefixes, and trims whitespace.
// Normalizing an already-normalized DOI is a no-op. An empty input stays
// empty.
func DOI(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = doiResolverPrefix.ReplaceAllString(d, "")
	return strings.TrimSpace(d)
}

// ValidDOI reports whether s is a plausible normalized DOI.
func ValidDOI(s string) bool {
	return doiPattern.MatchString(s)
}
