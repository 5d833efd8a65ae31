// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts raw per-source payloads into the common
// NormalizedRecord shape. It is the only package that understands
// source-specific payload structure; everything downstream consumes
// typed records.
package normalize

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/meshintel/oncopulse/pkg/types"
)

// MalformedPayloadError reports a payload missing a required structural
// field. The offending record is skipped and the run continues; optional
// fields never produce this error.
type MalformedPayloadError struct {
	Source types.Source
	Field  string
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: %s (%s)", e.Source, e.Field, e.Reason)
}

// nctPattern matches a ClinicalTrials.gov registry number in free text.
var nctPattern = regexp.MustCompile(`\bNCT\d{8}\b`)

// tagPattern strips residual markup from abstract text.
var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Normalize parses one raw payload for the given source. PubMed payloads
// are single PubmedArticle XML documents, CTGov payloads single study
// JSON objects, and agnostic payloads the common record shape in JSON.
func Normalize(payload []byte, source types.Source, fetchedAt time.Time) (types.NormalizedRecord, error) {
	switch source {
	case types.SourcePubMed:
		return normalizePubMed(payload, fetchedAt)
	case types.SourceCTGov:
		return normalizeCTGov(payload, fetchedAt)
	case types.SourceAgnostic:
		return normalizeAgnostic(payload, fetchedAt)
	default:
		return types.NormalizedRecord{}, fmt.Errorf("unknown source %q", source)
	}
}

// normalizeAgnostic accepts a JSON document already close to the common
// shape, used by feed connectors and fixtures.
func normalizeAgnostic(payload []byte, fetchedAt time.Time) (types.NormalizedRecord, error) {
	var rec types.NormalizedRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return types.NormalizedRecord{}, &MalformedPayloadError{
			Source: types.SourceAgnostic, Field: "payload", Reason: err.Error(),
		}
	}
	rec.Source = types.SourceAgnostic
	rec.FetchedAt = fetchedAt
	if rec.SourceID == "" {
		return types.NormalizedRecord{}, &MalformedPayloadError{
			Source: types.SourceAgnostic, Field: "source_id", Reason: "missing",
		}
	}
	if strings.TrimSpace(rec.Title) == "" {
		return types.NormalizedRecord{}, &MalformedPayloadError{
			Source: types.SourceAgnostic, Field: "title", Reason: "missing",
		}
	}
	if rec.DOI != nil {
		rec.DOI = optional(DOI(*rec.DOI))
	}
	return rec, nil
}

// cleanText unescapes HTML entities, strips markup, and collapses
// whitespace.
func cleanText(raw string) string {
	text := html.UnescapeString(raw)
	text = tagPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// extractNCT returns the first trial registry number mentioned in text,
// or nil. PubMed abstracts frequently cite the NCT number of the trial
// they report, which lets a paper and its registration merge.
func extractNCT(text string) *string {
	m := nctPattern.FindString(text)
	if m == "" {
		return nil
	}
	return &m
}

// optional returns nil for empty strings so absent and empty never
// conflate downstream.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
