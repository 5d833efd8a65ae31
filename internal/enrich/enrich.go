// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich augments canonical items with external citation
// counts, keyed by DOI, through a staleness-aware cache. Enrichment is
// best-effort: lookup failures degrade to stale or absent counts and
// never block ranking.
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/meshintel/oncopulse/pkg/types"
)

// LookupError reports a transient citation lookup failure. It is never
// fatal to a pipeline run.
type LookupError struct {
	DOI string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("citation lookup for %s: %v", e.DOI, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Cache stores citation entries by normalized DOI. Implementations must
// make Put safe for concurrent use and must keep the newer entry when
// two refreshes race (compare FetchedAt), so a slow lookup can never
// clobber a fresher one.
type Cache interface {
	Get(doi string) (types.CitationEntry, bool, error)
	Put(entry types.CitationEntry) error
}

// MemoryCache is an in-process Cache for tests and cache-less runs.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]types.CitationEntry
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]types.CitationEntry)}
}

// Get returns the entry for doi if present.
func (c *MemoryCache) Get(doi string) (types.CitationEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[doi]
	return e, ok, nil
}

// Put stores the entry unless a newer one is already present.
func (c *MemoryCache) Put(entry types.CitationEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[entry.DOI]; ok && cur.FetchedAt.After(entry.FetchedAt) {
		return nil
	}
	c.entries[entry.DOI] = entry
	return nil
}

// Status classifies one item's enrichment outcome for run accounting.
type Status int

const (
	// StatusNoDOI means the item has no DOI; enrichment is DOI-keyed
	// only, so nothing was looked up.
	StatusNoDOI Status = iota
	// StatusCacheHit means a fresh cached count was used.
	StatusCacheHit
	// StatusFetched means the upstream was queried and the cache
	// refreshed.
	StatusFetched
	// StatusStaleKept means the lookup failed and an expired cached
	// count was kept, flagged stale.
	StatusStaleKept
	// StatusAbsent means the lookup failed with no cached fallback;
	// the count stays absent.
	StatusAbsent
)

// Enricher looks up cited-by counts for resolved items.
type Enricher struct {
	Client *http.Client
	Cache  Cache
	Config types.EnrichConfig

	// Now is the clock used for staleness checks; tests pin it.
	Now func() time.Time
}

// New returns an Enricher over the given cache.
func New(client *http.Client, cache Cache, cfg types.EnrichConfig) *Enricher {
	return &Enricher{Client: client, Cache: cache, Config: cfg, Now: time.Now}
}

// Enrich fills the item's citation fields in place and reports how.
// Items without a DOI are returned untouched. Lookups run under the
// configured timeout and degrade instead of failing the item.
func (e *Enricher) Enrich(ctx context.Context, item *types.CanonicalItem) Status {
	if item.DOI == nil || *item.DOI == "" {
		return StatusNoDOI
	}
	doi := *item.DOI
	now := e.Now()

	cached, haveCached, err := e.Cache.Get(doi)
	if err != nil {
		// A broken cache read is treated like a miss.
		haveCached = false
	}
	if haveCached && now.Sub(cached.FetchedAt) <= e.Config.CacheTTL {
		apply(item, cached, false)
		return StatusCacheHit
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.Config.Timeout)
	defer cancel()

	count, err := e.fetchCitedBy(lookupCtx, doi)
	if err != nil {
		if haveCached {
			apply(item, cached, true)
			return StatusStaleKept
		}
		return StatusAbsent
	}

	entry := types.CitationEntry{DOI: doi, CitedByCount: count, FetchedAt: now}
	if putErr := e.Cache.Put(entry); putErr != nil {
		// The count is still usable for this run.
		_ = putErr
	}
	apply(item, entry, false)
	return StatusFetched
}

// Summary counts enrichment outcomes across one run.
type Summary struct {
	Hits    int
	Fetched int
	Stale   int
	Absent  int
	NoDOI   int
}

// EnrichAll enriches items with bounded concurrency. Lookups for
// distinct items are independent; after resolution no two items share a
// DOI, so cache writes for a key cannot race across items.
func (e *Enricher) EnrichAll(ctx context.Context, items []*types.CanonicalItem, w io.Writer) Summary {
	concurrency := e.Config.Concurrency
	if concurrency <= 0 {
		concurrency = types.DefaultConcurrency
	}

	sem := make(chan struct{}, concurrency)
	results := make(chan Status, len(items))
	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item *types.CanonicalItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results <- e.Enrich(ctx, item)
		}(item)
	}

	wg.Wait()
	close(results)

	var s Summary
	for st := range results {
		switch st {
		case StatusCacheHit:
			s.Hits++
		case StatusFetched:
			s.Fetched++
		case StatusStaleKept:
			s.Stale++
		case StatusAbsent:
			s.Absent++
		case StatusNoDOI:
			s.NoDOI++
		}
	}
	fmt.Fprintf(w, "citations: %d cached, %d fetched, %d stale, %d absent, %d no DOI\n",
		s.Hits, s.Fetched, s.Stale, s.Absent, s.NoDOI)
	return s
}

func apply(item *types.CanonicalItem, entry types.CitationEntry, stale bool) {
	item.CitedByCount = entry.CitedByCount
	t := entry.FetchedAt
	item.CitedByFetchedAt = &t
	item.CitationStale = stale
}
