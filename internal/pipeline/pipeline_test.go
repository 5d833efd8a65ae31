// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/oncopulse/internal/fetch"
	"github.com/meshintel/oncopulse/internal/packs"
	"github.com/meshintel/oncopulse/pkg/types"
)

const testPackYAML = `specialty: breast
major_journals:
  - N Engl J Med
global_penalty_terms:
  - retraction
subcategories:
  - name: HER2-positive
    pubmed_query: '"breast neoplasms"[MeSH] AND her2'
    trials_query: her2 breast cancer
    include_terms: [trastuzumab, her2]
    exclude_terms: [gastric]
`

func writeTestPack(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "breast.yaml"), []byte(testPackYAML), 0o644))
	return dir
}

type stubFetcher struct {
	name     string
	payloads []fetch.Payload
	err      error
}

func (s *stubFetcher) Name() string { return s.name }
func (s *stubFetcher) Fetch(context.Context, packs.Rules, types.FetchConfig) ([]fetch.Payload, error) {
	return s.payloads, s.err
}

func agnosticPayload(sourceID, title, doi string, year int) fetch.Payload {
	body := fmt.Sprintf(`{"source_id":%q,"title":%q,"year":%d`, sourceID, title, year)
	if doi != "" {
		body += fmt.Sprintf(`,"doi":%q`, doi)
	}
	body += "}"
	return fetch.Payload{Source: types.SourceAgnostic, Body: []byte(body)}
}

func testConfig(packsDir string) types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()
	cfg.Packs.Dir = packsDir
	cfg.Enrich.Enabled = false
	return cfg
}

func testPipeline(cfg types.PipelineConfig, fetchers ...fetch.Fetcher) *Pipeline {
	p := New(cfg, nil, nil, nil)
	p.Fetchers = fetchers
	p.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestRunFetchesResolvesAndRanks(t *testing.T) {
	dir := writeTestPack(t)
	p := testPipeline(testConfig(dir), &stubFetcher{name: "pubmed", payloads: []fetch.Payload{
		agnosticPayload("a1", "Phase III randomized trial of trastuzumab", "10.1/a", 2026),
		agnosticPayload("a2", "Case report of gastric toxicity", "10.1/b", 2019),
		agnosticPayload("a1-dup", "Phase III randomized trial of trastuzumab", "10.1/a", 2026),
	}})

	var buf bytes.Buffer
	res, err := p.Run(context.Background(), "breast", "HER2-positive", &buf)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Summary.Fetched)
	assert.Equal(t, 2, res.Summary.Created)
	assert.Equal(t, 1, res.Summary.Merged, "same DOI merges instead of duplicating")
	assert.Equal(t, "ok", res.Summary.Status)

	require.Len(t, res.Ranked, 2)
	assert.Equal(t, "Phase III randomized trial of trastuzumab", res.Ranked[0].Item.Title)
	assert.Greater(t, res.Ranked[0].Score, res.Ranked[1].Score)
}

func TestRunCountsMalformedAndContinues(t *testing.T) {
	dir := writeTestPack(t)
	p := testPipeline(testConfig(dir), &stubFetcher{name: "pubmed", payloads: []fetch.Payload{
		{Source: types.SourceAgnostic, Body: []byte(`{"title":"no id"}`)},
		agnosticPayload("a1", "Trastuzumab maintenance study", "", 2026),
	}})

	var buf bytes.Buffer
	res, err := p.Run(context.Background(), "breast", "HER2-positive", &buf)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.Malformed)
	assert.Equal(t, 1, res.Summary.Created)
	assert.Contains(t, buf.String(), "skipping malformed")
}

func TestRunMarksPartialOnSourceFailure(t *testing.T) {
	dir := writeTestPack(t)
	p := testPipeline(testConfig(dir),
		&stubFetcher{name: "pubmed", payloads: []fetch.Payload{
			agnosticPayload("a1", "Trastuzumab study", "", 2026),
		}},
		&stubFetcher{name: "ctgov", err: fmt.Errorf("HTTP 503")},
	)

	var buf bytes.Buffer
	res, err := p.Run(context.Background(), "breast", "HER2-positive", &buf)
	require.NoError(t, err)

	assert.Equal(t, "partial", res.Summary.Status)
	assert.Len(t, res.Ranked, 1)
}

func TestRunFailsOnUnknownSubcategory(t *testing.T) {
	dir := writeTestPack(t)
	p := testPipeline(testConfig(dir))

	var buf bytes.Buffer
	_, err := p.Run(context.Background(), "breast", "no-such", &buf)
	assert.Error(t, err)
}

type memoryStorage struct {
	items []*types.CanonicalItem
	runs  []types.RunSummary
}

func (m *memoryStorage) LoadItems(context.Context) ([]*types.CanonicalItem, error) {
	return m.items, nil
}

func (m *memoryStorage) SaveItems(_ context.Context, items []*types.CanonicalItem) error {
	m.items = items
	return nil
}

func (m *memoryStorage) RecordRun(_ context.Context, summary types.RunSummary) error {
	m.runs = append(m.runs, summary)
	return nil
}

func TestRerunMergesIntoPersistedState(t *testing.T) {
	dir := writeTestPack(t)
	storage := &memoryStorage{}

	payloads := []fetch.Payload{
		agnosticPayload("a1", "Phase III randomized trial of trastuzumab", "10.1/a", 2026),
	}

	cfg := testConfig(dir)
	for i := 0; i < 2; i++ {
		p := testPipeline(cfg, &stubFetcher{name: "pubmed", payloads: payloads})
		p.Storage = storage

		var buf bytes.Buffer
		res, err := p.Run(context.Background(), "breast", "HER2-positive", &buf)
		require.NoError(t, err)
		assert.Len(t, res.Ranked, 1, "run %d", i)
	}

	require.Len(t, storage.items, 1, "second run merged into the stored item")
	assert.Len(t, storage.runs, 2)
	assert.Equal(t, 1, storage.runs[1].Merged)
	assert.Equal(t, 0, storage.runs[1].Created)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	dir := writeTestPack(t)
	p := testPipeline(testConfig(dir), &stubFetcher{name: "pubmed", payloads: []fetch.Payload{
		agnosticPayload("a1", "Trastuzumab study", "", 2026),
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := p.Run(ctx, "breast", "HER2-positive", &buf)
	assert.ErrorIs(t, err, context.Canceled)
}
