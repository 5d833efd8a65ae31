// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists canonical items, the citation cache, and run
// history in a single SQLite database. Reopening the store and loading
// items back recreates the exact resolution state of the previous run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/oncopulse/pkg/types"
)

// Store manages the oncopulse SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.DBPath and creates the
// schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		path = types.DefaultDBPath
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			title_from TEXT NOT NULL,
			abstract TEXT,
			abstract_from TEXT,
			year INTEGER,
			doi TEXT,
			pmid TEXT,
			nct_id TEXT,
			venue TEXT,
			authors TEXT,
			url TEXT,
			trial_phase TEXT,
			trial_status TEXT,
			cited_by_count INTEGER,
			cited_by_fetched_at TEXT,
			citation_stale INTEGER NOT NULL DEFAULT 0,
			identity_keys TEXT NOT NULL,
			conflicts TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_doi ON items(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_items_nct_id ON items(nct_id)`,
		`CREATE TABLE IF NOT EXISTS source_records (
			item_id INTEGER NOT NULL REFERENCES items(id),
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			source_id TEXT NOT NULL,
			record TEXT NOT NULL,
			PRIMARY KEY (item_id, source, source_id)
		)`,
		`CREATE TABLE IF NOT EXISTS citation_cache (
			doi TEXT PRIMARY KEY,
			cited_by_count INTEGER,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			specialty TEXT NOT NULL,
			subcategory TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			summary TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveItems upserts the full canonical item set in one transaction.
// Source records are replaced wholesale per item, and rows for item IDs
// absent from the set are pruned, so a reload sees exactly what the
// resolver held.
func (s *Store) SaveItems(ctx context.Context, items []*types.CanonicalItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	itemStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (id, title, title_from, abstract, abstract_from, year,
			doi, pmid, nct_id, venue, authors, url, trial_phase, trial_status,
			cited_by_count, cited_by_fetched_at, citation_stale, identity_keys, conflicts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, title_from=excluded.title_from,
			abstract=excluded.abstract, abstract_from=excluded.abstract_from,
			year=excluded.year, doi=excluded.doi, pmid=excluded.pmid,
			nct_id=excluded.nct_id, venue=excluded.venue, authors=excluded.authors,
			url=excluded.url, trial_phase=excluded.trial_phase,
			trial_status=excluded.trial_status,
			cited_by_count=excluded.cited_by_count,
			cited_by_fetched_at=excluded.cited_by_fetched_at,
			citation_stale=excluded.citation_stale,
			identity_keys=excluded.identity_keys, conflicts=excluded.conflicts`)
	if err != nil {
		return fmt.Errorf("preparing item upsert: %w", err)
	}
	defer itemStmt.Close()

	recordStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO source_records (item_id, seq, source, source_id, record)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer recordStmt.Close()

	for _, item := range items {
		keysJSON, _ := json.Marshal(item.IdentityKeys)
		conflictsJSON, _ := json.Marshal(item.Conflicts)

		var phase *string
		if item.TrialPhase != nil {
			p := string(*item.TrialPhase)
			phase = &p
		}
		_, err := itemStmt.ExecContext(ctx,
			item.ID, item.Title, string(item.TitleFrom),
			item.Abstract, nullableSource(item.AbstractFrom), item.Year,
			item.DOI, item.PMID, item.NCTID, item.Venue, item.Authors, item.URL,
			phase, item.TrialStatus,
			item.CitedByCount, timePtrString(item.CitedByFetchedAt),
			boolInt(item.CitationStale), string(keysJSON), string(conflictsJSON),
		)
		if err != nil {
			return fmt.Errorf("upserting item %d: %w", item.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM source_records WHERE item_id = ?`, item.ID); err != nil {
			return fmt.Errorf("clearing source records for item %d: %w", item.ID, err)
		}
		// seq preserves merge order across a round trip.
		for i, rec := range item.SourceRecords {
			recJSON, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encoding source record %s/%s: %w", rec.Source, rec.SourceID, err)
			}
			if _, err := recordStmt.ExecContext(ctx,
				item.ID, i, string(rec.Source), rec.SourceID, string(recJSON)); err != nil {
				return fmt.Errorf("inserting source record %s/%s: %w", rec.Source, rec.SourceID, err)
			}
		}
	}

	if err := pruneAbsent(ctx, tx, items); err != nil {
		return err
	}

	return tx.Commit()
}

// pruneAbsent removes item rows no longer in the saved set. Resolution
// can union two previously saved items; the absorbed ID must not come
// back on the next load.
func pruneAbsent(ctx context.Context, tx *sql.Tx, items []*types.CanonicalItem) error {
	placeholders := make([]string, len(items))
	ids := make([]any, len(items))
	for i, item := range items {
		placeholders[i] = "?"
		ids[i] = item.ID
	}

	recDel := `DELETE FROM source_records`
	itemDel := `DELETE FROM items`
	if len(items) > 0 {
		in := " (" + strings.Join(placeholders, ",") + ")"
		recDel += ` WHERE item_id NOT IN` + in
		itemDel += ` WHERE id NOT IN` + in
	}
	if _, err := tx.ExecContext(ctx, recDel, ids...); err != nil {
		return fmt.Errorf("pruning absorbed source records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, itemDel, ids...); err != nil {
		return fmt.Errorf("pruning absorbed items: %w", err)
	}
	return nil
}

// LoadItems reads every canonical item with its source records, ordered
// by ID. The result feeds resolver resumption.
func (s *Store) LoadItems(ctx context.Context) ([]*types.CanonicalItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, title_from, abstract, abstract_from, year,
			doi, pmid, nct_id, venue, authors, url, trial_phase, trial_status,
			cited_by_count, cited_by_fetched_at, citation_stale, identity_keys, conflicts
		 FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []*types.CanonicalItem
	byID := map[int64]*types.CanonicalItem{}

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	recRows, err := s.db.QueryContext(ctx,
		`SELECT item_id, record FROM source_records ORDER BY item_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("querying source records: %w", err)
	}
	defer recRows.Close()

	for recRows.Next() {
		var itemID int64
		var raw string
		if err := recRows.Scan(&itemID, &raw); err != nil {
			return nil, fmt.Errorf("scanning source record: %w", err)
		}
		item, ok := byID[itemID]
		if !ok {
			return nil, fmt.Errorf("source record references missing item %d", itemID)
		}
		var rec types.NormalizedRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decoding source record for item %d: %w", itemID, err)
		}
		item.SourceRecords = append(item.SourceRecords, rec)
	}
	if err := recRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source records: %w", err)
	}

	return items, nil
}

func scanItem(rows *sql.Rows) (*types.CanonicalItem, error) {
	var (
		item          types.CanonicalItem
		titleFrom     string
		abstractFrom  sql.NullString
		phase         sql.NullString
		citedAt       sql.NullString
		stale         int
		keysJSON      string
		conflictsJSON string
	)
	err := rows.Scan(&item.ID, &item.Title, &titleFrom, &item.Abstract, &abstractFrom,
		&item.Year, &item.DOI, &item.PMID, &item.NCTID, &item.Venue, &item.Authors,
		&item.URL, &phase, &item.TrialStatus, &item.CitedByCount, &citedAt,
		&stale, &keysJSON, &conflictsJSON)
	if err != nil {
		return nil, fmt.Errorf("scanning item: %w", err)
	}

	item.TitleFrom = types.Source(titleFrom)
	if abstractFrom.Valid {
		item.AbstractFrom = types.Source(abstractFrom.String)
	}
	if phase.Valid {
		p := types.TrialPhase(phase.String)
		item.TrialPhase = &p
	}
	if citedAt.Valid {
		t, err := time.Parse(timeLayout, citedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing citation timestamp for item %d: %w", item.ID, err)
		}
		item.CitedByFetchedAt = &t
	}
	item.CitationStale = stale != 0

	if err := json.Unmarshal([]byte(keysJSON), &item.IdentityKeys); err != nil {
		return nil, fmt.Errorf("decoding identity keys for item %d: %w", item.ID, err)
	}
	if err := json.Unmarshal([]byte(conflictsJSON), &item.Conflicts); err != nil {
		return nil, fmt.Errorf("decoding conflicts for item %d: %w", item.ID, err)
	}
	return &item, nil
}

func nullableSource(s types.Source) *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

func timePtrString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(timeLayout)
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
