// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve decides whether records from different sources refer
// to the same real-world work and merges them into canonical items.
//
// Matching cascades over identity keys, strongest first: DOI, PMID, NCT
// number, then the title+year fingerprint. When a record's keys are
// claimed by different items the record proves they describe the same
// work: the items are unioned into the strongest-key match and every
// index entry is re-pointed, so no two items ever share a key and the
// final item set does not depend on processing order. Merges are
// monotonic and never undone.
package resolve

import (
	"fmt"
	"sort"
	"sync"

	"github.com/meshintel/oncopulse/internal/normalize"
	"github.com/meshintel/oncopulse/pkg/types"
)

// matcher is one step of the cascade: a key type plus a pure function
// extracting that key from a record.
type matcher struct {
	key   types.KeyType
	keyOf func(types.NormalizedRecord) (string, bool)
}

// matchers is the cascade, ordered strongest to weakest.
var matchers = []matcher{
	{types.KeyDOI, func(r types.NormalizedRecord) (string, bool) {
		if r.DOI == nil || *r.DOI == "" {
			return "", false
		}
		return *r.DOI, true
	}},
	{types.KeyPMID, func(r types.NormalizedRecord) (string, bool) {
		if r.Source != types.SourcePubMed || r.SourceID == "" {
			return "", false
		}
		return r.SourceID, true
	}},
	{types.KeyNCT, func(r types.NormalizedRecord) (string, bool) {
		if r.NCTID == nil || *r.NCTID == "" {
			return "", false
		}
		return *r.NCTID, true
	}},
	{types.KeyFingerprint, func(r types.NormalizedRecord) (string, bool) {
		return normalize.Fingerprint(r.Title, r.Year), true
	}},
}

// Resolver holds the canonical item set and the multi-key index over it.
// All mutation goes through Resolve under a single mutex: match-then-merge
// is one atomic unit, so concurrent callers can never create duplicate
// items for the same identity key.
type Resolver struct {
	mu     sync.Mutex
	items  map[int64]*types.CanonicalItem
	index  map[types.KeyType]map[string]int64
	nextID int64
}

// New returns an empty resolver whose first item will get ID 1.
func New() *Resolver {
	r := &Resolver{
		items:  make(map[int64]*types.CanonicalItem),
		index:  make(map[types.KeyType]map[string]int64),
		nextID: 1,
	}
	for _, m := range matchers {
		r.index[m.key] = make(map[string]int64)
	}
	return r
}

// NewFromItems rebuilds a resolver over items loaded from a previous
// run. Index entries are derived from the items' claimed keys and every
// merged source record, so re-running the pipeline resumes where the
// last run stopped. IDs continue after the highest seen.
func NewFromItems(items []*types.CanonicalItem) (*Resolver, error) {
	r := New()
	for _, item := range items {
		if item.ID >= r.nextID {
			r.nextID = item.ID + 1
		}
		if _, dup := r.items[item.ID]; dup {
			return nil, fmt.Errorf("duplicate item ID %d", item.ID)
		}
		r.items[item.ID] = item
		if item.IdentityKeys == nil {
			item.IdentityKeys = make(map[types.KeyType]bool)
		}

		if item.DOI != nil {
			r.claim(types.KeyDOI, *item.DOI, item.ID)
		}
		if item.PMID != nil {
			r.claim(types.KeyPMID, *item.PMID, item.ID)
		}
		if item.NCTID != nil {
			r.claim(types.KeyNCT, *item.NCTID, item.ID)
		}
		r.claim(types.KeyFingerprint, normalize.Fingerprint(item.Title, item.Year), item.ID)
		for _, rec := range item.SourceRecords {
			for _, m := range matchers {
				if key, ok := m.keyOf(rec); ok {
					r.claim(m.key, key, item.ID)
				}
			}
		}
	}
	return r, nil
}

// claim registers key → id unless some other item already holds the key.
// A collision between items is resolved by Resolve unioning them; claim
// itself never re-points an entry.
func (r *Resolver) claim(kt types.KeyType, key string, id int64) {
	if _, taken := r.index[kt][key]; !taken {
		r.index[kt][key] = id
	}
}

// Resolve matches the record against the existing items and either
// merges it into the matched item or creates a new one. A record whose
// keys are claimed by different items unions those items first. The
// returned bool reports creation. Resolving the same record twice is a
// no-op on the second call.
func (r *Resolver) Resolve(rec types.NormalizedRecord) (*types.CanonicalItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var item *types.CanonicalItem
	var matched types.KeyType
	for _, m := range matchers {
		key, ok := m.keyOf(rec)
		if !ok {
			continue
		}
		id, found := r.index[m.key][key]
		if !found {
			continue
		}
		switch {
		case item == nil:
			item = r.items[id]
			matched = m.key
		case id != item.ID:
			// The record connects two existing items (e.g. a paper
			// whose abstract names the registration's NCT number).
			r.absorb(item, r.items[id])
			item.IdentityKeys[m.key] = true
		}
	}
	if item == nil {
		return r.create(rec), true
	}
	if item.HasSource(rec.Source, rec.SourceID) {
		// Same record seen again; nothing to merge.
		return item, false
	}
	r.merge(item, rec, matched)
	return item, false
}

// Items returns the canonical set ordered by ID.
func (r *Resolver) Items() []*types.CanonicalItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*types.CanonicalItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of canonical items.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Resolver) create(rec types.NormalizedRecord) *types.CanonicalItem {
	item := &types.CanonicalItem{
		ID:            r.nextID,
		IdentityKeys:  make(map[types.KeyType]bool),
		SourceRecords: []types.NormalizedRecord{rec},
		Title:         rec.Title,
		TitleFrom:     rec.Source,
		Year:          rec.Year,
		DOI:           rec.DOI,
		NCTID:         rec.NCTID,
		Venue:         rec.Venue,
		Authors:       rec.Authors,
		URL:           rec.URL,
		TrialPhase:    rec.TrialPhase,
		TrialStatus:   rec.TrialStatus,
	}
	if rec.Abstract != nil {
		item.Abstract = rec.Abstract
		item.AbstractFrom = rec.Source
	}
	if rec.Source == types.SourcePubMed {
		pmid := rec.SourceID
		item.PMID = &pmid
	}
	r.nextID++
	r.items[item.ID] = item
	r.registerKeys(item, rec)
	return item
}

// merge appends the record, marks the matched key, reconciles fields,
// and claims the record's remaining keys for the item.
func (r *Resolver) merge(item *types.CanonicalItem, rec types.NormalizedRecord, matched types.KeyType) {
	item.SourceRecords = append(item.SourceRecords, rec)
	item.IdentityKeys[matched] = true
	reconcile(item, rec)
	r.registerKeys(item, rec)
}

// absorb unions src into dst once a record has proven they describe the
// same work: src's records replay through reconciliation in their merge
// order, every index entry pointing at src is re-pointed at dst in the
// same locked step, and src is removed. The union is itself a merge and
// is never undone.
func (r *Resolver) absorb(dst, src *types.CanonicalItem) {
	for _, rec := range src.SourceRecords {
		if dst.HasSource(rec.Source, rec.SourceID) {
			continue
		}
		dst.SourceRecords = append(dst.SourceRecords, rec)
		reconcile(dst, rec)
	}
	for kt := range src.IdentityKeys {
		dst.IdentityKeys[kt] = true
	}
	dst.Conflicts = append(dst.Conflicts, src.Conflicts...)
	if dst.CitedByCount == nil && src.CitedByCount != nil {
		dst.CitedByCount = src.CitedByCount
		dst.CitedByFetchedAt = src.CitedByFetchedAt
		dst.CitationStale = src.CitationStale
	}

	for _, bucket := range r.index {
		for key, id := range bucket {
			if id == src.ID {
				bucket[key] = dst.ID
			}
		}
	}
	delete(r.items, src.ID)
}

func (r *Resolver) registerKeys(item *types.CanonicalItem, rec types.NormalizedRecord) {
	for _, m := range matchers {
		if key, ok := m.keyOf(rec); ok {
			r.claim(m.key, key, item.ID)
		}
	}
}
