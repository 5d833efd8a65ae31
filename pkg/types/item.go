// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// KeyType classifies an identity key used to match records to canonical
// items, strongest first.
type KeyType string

const (
	KeyDOI         KeyType = "doi"
	KeyPMID        KeyType = "pmid"
	KeyNCT         KeyType = "nct"
	KeyFingerprint KeyType = "fingerprint"
)

// ConflictNote records a reconciliation disagreement that was kept for
// audit instead of raised as an error: the first-seen value won and the
// losing value is preserved here.
type ConflictNote struct {
	Field    string `json:"field" yaml:"field"`
	Kept     string `json:"kept" yaml:"kept"`
	Rejected string `json:"rejected" yaml:"rejected"`
	// RejectedFrom names the source whose value lost.
	RejectedFrom Source `json:"rejected_from" yaml:"rejected_from"`
}

// CanonicalItem is the merged, deduplicated representation of one
// real-world research work. It owns its SourceRecords exclusively; no
// record belongs to two items.
type CanonicalItem struct {
	// ID is a stable surrogate key assigned once on creation and never
	// reused within a store.
	ID int64 `json:"id" yaml:"id"`

	// IdentityKeys is the set of key types that led to merges into this
	// item. A never-merged item has none.
	IdentityKeys map[KeyType]bool `json:"identity_keys" yaml:"identity_keys"`

	// SourceRecords holds the merged records in merge order, kept for
	// provenance.
	SourceRecords []NormalizedRecord `json:"source_records" yaml:"source_records"`

	// Reconciled fields. Title is always present (records without a
	// title are rejected by the normalizer); the rest follow record
	// optionality.
	Title    string  `json:"title" yaml:"title"`
	Abstract *string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Year     *int    `json:"year,omitempty" yaml:"year,omitempty"`

	// TitleFrom and AbstractFrom record which source supplied the
	// reconciled value, so precedence upgrades stay auditable.
	TitleFrom    Source `json:"title_from" yaml:"title_from"`
	AbstractFrom Source `json:"abstract_from,omitempty" yaml:"abstract_from,omitempty"`

	// DOI, PMID and NCTID are the item's claimed strong keys.
	DOI   *string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID  *string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	NCTID *string `json:"nct_id,omitempty" yaml:"nct_id,omitempty"`

	Venue   *string `json:"venue,omitempty" yaml:"venue,omitempty"`
	Authors *string `json:"authors,omitempty" yaml:"authors,omitempty"`
	URL     *string `json:"url,omitempty" yaml:"url,omitempty"`

	TrialPhase  *TrialPhase `json:"trial_phase,omitempty" yaml:"trial_phase,omitempty"`
	TrialStatus *string     `json:"trial_status,omitempty" yaml:"trial_status,omitempty"`

	// CitedByCount and CitedByFetchedAt come from the citation
	// enricher. CitationStale marks a count served from an expired
	// cache entry after a failed refresh.
	CitedByCount     *int       `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`
	CitedByFetchedAt *time.Time `json:"cited_by_fetched_at,omitempty" yaml:"cited_by_fetched_at,omitempty"`
	CitationStale    bool       `json:"citation_stale,omitempty" yaml:"citation_stale,omitempty"`

	// Conflicts lists reconciliation disagreements, in discovery order.
	Conflicts []ConflictNote `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

// HasSource reports whether a record with the given source and source ID
// was already merged into the item. The resolver uses this to keep
// re-resolution idempotent.
func (c *CanonicalItem) HasSource(source Source, sourceID string) bool {
	for _, r := range c.SourceRecords {
		if r.Source == source && r.SourceID == sourceID {
			return true
		}
	}
	return false
}

// CitationEntry is one citation-cache row, keyed by normalized DOI.
// CitedByCount may be nil when the upstream knows the DOI but reports no
// count (or reported a 404). Entries are refreshed when FetchedAt ages
// past the configured TTL and are never deleted automatically.
type CitationEntry struct {
	DOI          string    `json:"doi" yaml:"doi"`
	CitedByCount *int      `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`
	FetchedAt    time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Contribution is one named factor's share of an item's score.
type Contribution struct {
	Factor string  `json:"factor" yaml:"factor"`
	Points float64 `json:"points" yaml:"points"`
}

// ScoredItem pairs a canonical item with its relevance score and the
// per-factor breakdown. Scores are recomputed per query context and
// never persisted as authoritative.
type ScoredItem struct {
	Item      *CanonicalItem `json:"item" yaml:"item"`
	Score     float64        `json:"score" yaml:"score"`
	Breakdown []Contribution `json:"breakdown" yaml:"breakdown"`
}

// RunSummary is handed to the run-tracking collaborator after a pipeline
// run. It is informational only and feeds back into nothing.
type RunSummary struct {
	Specialty   string    `json:"specialty" yaml:"specialty"`
	Subcategory string    `json:"subcategory" yaml:"subcategory"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at" yaml:"finished_at"`
	Status      string    `json:"status" yaml:"status"`

	Fetched   int `json:"fetched" yaml:"fetched"`
	Malformed int `json:"malformed" yaml:"malformed"`
	Created   int `json:"created" yaml:"created"`
	Merged    int `json:"merged" yaml:"merged"`

	CitationHits   int `json:"citation_hits" yaml:"citation_hits"`
	CitationMisses int `json:"citation_misses" yaml:"citation_misses"`
	CitationStale  int `json:"citation_stale" yaml:"citation_stale"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
