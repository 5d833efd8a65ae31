// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one end-to-end aggregation pass for a
// specialty and subcategory: fetch raw payloads, normalize them,
// resolve record identity, enrich citations, score, rank, and persist.
// Steps degrade independently; a failing source or citation lookup
// narrows the run instead of aborting it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meshintel/oncopulse/internal/enrich"
	"github.com/meshintel/oncopulse/internal/fetch"
	"github.com/meshintel/oncopulse/internal/normalize"
	"github.com/meshintel/oncopulse/internal/packs"
	"github.com/meshintel/oncopulse/internal/rank"
	"github.com/meshintel/oncopulse/internal/resolve"
	"github.com/meshintel/oncopulse/internal/score"
	"github.com/meshintel/oncopulse/pkg/types"
)

// Storage is the persistence surface the pipeline needs. The SQLite
// store satisfies it; a nil Storage means a purely in-memory run.
type Storage interface {
	LoadItems(ctx context.Context) ([]*types.CanonicalItem, error)
	SaveItems(ctx context.Context, items []*types.CanonicalItem) error
	RecordRun(ctx context.Context, summary types.RunSummary) error
}

// Pipeline wires the stages together for repeated runs.
type Pipeline struct {
	Config   types.PipelineConfig
	Fetchers []fetch.Fetcher
	Storage  Storage
	Cache    enrich.Cache
	Client   *http.Client

	// Now anchors timestamps and recency; tests pin it.
	Now func() time.Time
}

// New builds a pipeline with the standard fetcher set and, when
// storage is non-nil, its citation cache.
func New(cfg types.PipelineConfig, storage Storage, cache enrich.Cache, client *http.Client) *Pipeline {
	if client == nil {
		client = &http.Client{Timeout: cfg.Fetch.Timeout}
	}
	if cache == nil {
		cache = enrich.NewMemoryCache()
	}
	return &Pipeline{
		Config:   cfg,
		Fetchers: fetch.Fetchers(client, cfg.Fetch),
		Storage:  storage,
		Cache:    cache,
		Client:   client,
		Now:      time.Now,
	}
}

// Result is the outcome of one run.
type Result struct {
	Ranked  []types.ScoredItem
	Summary types.RunSummary
}

// Run executes one pass for the given specialty and subcategory using
// the rules from the pack directory. Previously persisted items are
// loaded first so re-runs merge instead of duplicating.
func (p *Pipeline) Run(ctx context.Context, specialty, subcategory string, w io.Writer) (Result, error) {
	rules, err := packs.Get(p.Config.Packs.Dir, specialty, subcategory)
	if err != nil {
		return Result{}, fmt.Errorf("loading pack rules: %w", err)
	}

	now := p.Now()
	summary := types.RunSummary{
		Specialty:   rules.Specialty,
		Subcategory: rules.Subcategory,
		StartedAt:   now,
		Status:      "ok",
	}

	resolver, err := p.resumeResolver(ctx)
	if err != nil {
		return Result{}, err
	}

	out, err := fetch.FetchAll(ctx, p.Fetchers, rules, p.Config.Fetch, w)
	if err != nil {
		return Result{}, fmt.Errorf("fetching sources: %w", err)
	}
	summary.Fetched = len(out.Payloads)
	if len(out.SourceErrors) > 0 {
		summary.Status = "partial"
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Normalize and resolve serially; malformed payloads are counted
	// and skipped, never fatal.
	for _, payload := range out.Payloads {
		rec, err := normalize.Normalize(payload.Body, payload.Source, now)
		if err != nil {
			summary.Malformed++
			fmt.Fprintf(w, "skipping malformed %s payload: %v\n", payload.Source, err)
			continue
		}
		if _, created := resolver.Resolve(rec); created {
			summary.Created++
		} else {
			summary.Merged++
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	items := resolver.Items()

	if p.Config.Enrich.Enabled {
		enricher := enrich.New(p.Client, p.Cache, p.Config.Enrich)
		enricher.Now = p.Now
		es := enricher.EnrichAll(ctx, items, w)
		summary.CitationHits = es.Hits
		summary.CitationMisses = es.Fetched + es.Absent
		summary.CitationStale = es.Stale
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	qc := score.QueryContext{
		Specialty:   rules.Specialty,
		Subcategory: rules.Subcategory,
		Rules:       rules,
		Now:         now,
	}
	scored := make([]types.ScoredItem, 0, len(items))
	for _, item := range items {
		scored = append(scored, score.Score(item, qc, p.Config.Scoring))
	}
	rank.Rank(scored)

	summary.FinishedAt = p.Now()

	if p.Storage != nil {
		if err := p.Storage.SaveItems(ctx, items); err != nil {
			return Result{}, fmt.Errorf("persisting items: %w", err)
		}
		if err := p.Storage.RecordRun(ctx, summary); err != nil {
			return Result{}, fmt.Errorf("recording run: %w", err)
		}
	}

	fmt.Fprintf(w, "\nfetched: %d, malformed: %d, created: %d, merged: %d\n",
		summary.Fetched, summary.Malformed, summary.Created, summary.Merged)

	return Result{Ranked: scored, Summary: summary}, nil
}

func (p *Pipeline) resumeResolver(ctx context.Context) (*resolve.Resolver, error) {
	if p.Storage == nil {
		return resolve.New(), nil
	}
	existing, err := p.Storage.LoadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stored items: %w", err)
	}
	resolver, err := resolve.NewFromItems(existing)
	if err != nil {
		return nil, fmt.Errorf("resuming resolution state: %w", err)
	}
	return resolver, nil
}
