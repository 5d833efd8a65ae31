// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meshintel/oncopulse/pkg/types"
)

// timeLayout is fixed-width so stored timestamps compare correctly as
// strings in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CitationCache is a persistent citation cache backed by the store's
// citation_cache table. It satisfies the enricher's cache contract:
// Put keeps whichever entry has the newer fetch time.
type CitationCache struct {
	db *sql.DB
}

// CitationCache returns the store's citation cache view.
func (s *Store) CitationCache() *CitationCache {
	return &CitationCache{db: s.db}
}

// Get looks up a cached citation entry by DOI.
func (c *CitationCache) Get(doi string) (types.CitationEntry, bool, error) {
	var (
		entry     types.CitationEntry
		fetchedAt string
	)
	err := c.db.QueryRow(
		`SELECT doi, cited_by_count, fetched_at FROM citation_cache WHERE doi = ?`, doi,
	).Scan(&entry.DOI, &entry.CitedByCount, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CitationEntry{}, false, nil
	}
	if err != nil {
		return types.CitationEntry{}, false, fmt.Errorf("querying citation cache: %w", err)
	}

	entry.FetchedAt, err = time.Parse(timeLayout, fetchedAt)
	if err != nil {
		return types.CitationEntry{}, false, fmt.Errorf("parsing cached fetch time for %s: %w", doi, err)
	}
	return entry, true, nil
}

// Put stores an entry unless a newer one is already present.
func (c *CitationCache) Put(entry types.CitationEntry) error {
	fetchedAt := entry.FetchedAt.UTC().Format(timeLayout)
	_, err := c.db.Exec(
		`INSERT INTO citation_cache (doi, cited_by_count, fetched_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(doi) DO UPDATE SET
			cited_by_count=excluded.cited_by_count,
			fetched_at=excluded.fetched_at
		 WHERE excluded.fetched_at > citation_cache.fetched_at`,
		entry.DOI, entry.CitedByCount, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting citation cache entry: %w", err)
	}
	return nil
}
