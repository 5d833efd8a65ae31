// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Source identifies which public registry supplied a record.
type Source string

const (
	SourcePubMed Source = "pubmed"
	SourceCTGov  Source = "ctgov"
	// SourceAgnostic marks records whose payload already carries the
	// common shape (journal RSS items, manual entries).
	SourceAgnostic Source = "agnostic"
)

// TrialPhase is the ClinicalTrials.gov design phase, present only on
// CTGov records.
type TrialPhase string

const (
	PhaseEarly1 TrialPhase = "EARLY_PHASE1"
	Phase1      TrialPhase = "PHASE1"
	Phase2      TrialPhase = "PHASE2"
	Phase3      TrialPhase = "PHASE3"
	Phase4      TrialPhase = "PHASE4"
	PhaseNA     TrialPhase = "NA"
)

// NormalizedRecord is the common pre-merge shape produced by the
// normalizer, one per source fetch. Optional fields are pointers so that
// "absent" and "empty string" never conflate: a trial with no abstract
// has Abstract == nil, not Abstract pointing at "".
//
// Records are immutable once produced; the resolver copies values out of
// them during reconciliation and never writes back.
type NormalizedRecord struct {
	// Source tags which connector produced the record.
	Source Source `json:"source" yaml:"source"`

	// SourceID is the source-local identifier: PMID for PubMed,
	// NCT number for ClinicalTrials.gov.
	SourceID string `json:"source_id" yaml:"source_id"`

	// DOI is the normalized DOI (lowercase, resolver prefix stripped),
	// or nil when the source did not report one.
	DOI *string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Title is the work's title. Required.
	Title string `json:"title" yaml:"title"`

	// Abstract is the abstract or registry description text.
	Abstract *string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Year is the publication (or registry last-update) year.
	Year *int `json:"year,omitempty" yaml:"year,omitempty"`

	// NCTID is the linked trial registration, either the record's own
	// identifier (CTGov) or one mined from the abstract (PubMed).
	NCTID *string `json:"nct_id,omitempty" yaml:"nct_id,omitempty"`

	// Venue is the journal or registry name.
	Venue *string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Authors is a display string, first authors only.
	Authors *string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// URL links back to the source page for the record.
	URL *string `json:"url,omitempty" yaml:"url,omitempty"`

	// TrialPhase and TrialStatus are CTGov-only design metadata.
	TrialPhase  *TrialPhase `json:"trial_phase,omitempty" yaml:"trial_phase,omitempty"`
	TrialStatus *string     `json:"trial_status,omitempty" yaml:"trial_status,omitempty"`

	// FetchedAt records when the connector retrieved the payload.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// StrPtr returns a pointer to s. Convenience for building records.
func StrPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
