// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/oncopulse/pkg/types"
)

var testNow = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func testConfig() types.EnrichConfig {
	return types.EnrichConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    2 * time.Second,
			UserAgent:  "oncopulse-test",
			MaxRetries: 1,
		},
		Enabled:     true,
		CacheTTL:    14 * 24 * time.Hour,
		Concurrency: 2,
	}
}

func newTestEnricher(t *testing.T, handler http.HandlerFunc) (*Enricher, *MemoryCache) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := openAlexBase
	openAlexBase = ts.URL
	t.Cleanup(func() { openAlexBase = old })

	cache := NewMemoryCache()
	e := New(ts.Client(), cache, testConfig())
	e.Now = func() time.Time { return testNow }
	return e, cache
}

func itemWithDOI(doi string) *types.CanonicalItem {
	d := doi
	return &types.CanonicalItem{ID: 1, Title: "Trial of Drug A", DOI: &d}
}

func TestEnrichNoDOIIsNoOp(t *testing.T) {
	e, _ := newTestEnricher(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for DOI-less item")
	})

	item := &types.CanonicalItem{ID: 1, Title: "No DOI"}
	st := e.Enrich(context.Background(), item)

	assert.Equal(t, StatusNoDOI, st)
	assert.Nil(t, item.CitedByCount)
	assert.Nil(t, item.CitedByFetchedAt)
}

func TestEnrichFetchesAndCaches(t *testing.T) {
	var calls int32
	e, cache := newTestEnricher(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"cited_by_count": 42}`)
	})

	item := itemWithDOI("10.1/x")
	st := e.Enrich(context.Background(), item)

	require.Equal(t, StatusFetched, st)
	require.NotNil(t, item.CitedByCount)
	assert.Equal(t, 42, *item.CitedByCount)
	assert.False(t, item.CitationStale)

	entry, ok, err := cache.Get("10.1/x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, *entry.CitedByCount)
	assert.Equal(t, testNow, entry.FetchedAt)

	// Second enrichment hits the cache, no new request.
	st = e.Enrich(context.Background(), itemWithDOI("10.1/x"))
	assert.Equal(t, StatusCacheHit, st)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEnrichRefreshesStaleEntry(t *testing.T) {
	e, cache := newTestEnricher(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"cited_by_count": 50}`)
	})

	stale := types.CitationEntry{
		DOI:          "10.1/x",
		CitedByCount: types.IntPtr(40),
		FetchedAt:    testNow.Add(-30 * 24 * time.Hour),
	}
	require.NoError(t, cache.Put(stale))

	item := itemWithDOI("10.1/x")
	st := e.Enrich(context.Background(), item)

	assert.Equal(t, StatusFetched, st)
	assert.Equal(t, 50, *item.CitedByCount)
	assert.False(t, item.CitationStale)
}

func TestEnrichLookupFailureKeepsStaleValue(t *testing.T) {
	e, cache := newTestEnricher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	stale := types.CitationEntry{
		DOI:          "10.1/x",
		CitedByCount: types.IntPtr(40),
		FetchedAt:    testNow.Add(-30 * 24 * time.Hour),
	}
	require.NoError(t, cache.Put(stale))

	item := itemWithDOI("10.1/x")
	st := e.Enrich(context.Background(), item)

	assert.Equal(t, StatusStaleKept, st)
	require.NotNil(t, item.CitedByCount)
	assert.Equal(t, 40, *item.CitedByCount)
	assert.True(t, item.CitationStale)
}

func TestEnrichLookupFailureWithoutCacheLeavesAbsent(t *testing.T) {
	e, _ := newTestEnricher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	item := itemWithDOI("10.1/x")
	st := e.Enrich(context.Background(), item)

	assert.Equal(t, StatusAbsent, st)
	assert.Nil(t, item.CitedByCount)
}

func TestEnrichUnknownDOICachedAsNil(t *testing.T) {
	e, cache := newTestEnricher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	item := itemWithDOI("10.99/unknown")
	st := e.Enrich(context.Background(), item)

	assert.Equal(t, StatusFetched, st)
	assert.Nil(t, item.CitedByCount)

	entry, ok, err := cache.Get("10.99/unknown")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, entry.CitedByCount)
}

func TestMemoryCachePutKeepsNewerEntry(t *testing.T) {
	cache := NewMemoryCache()

	newer := types.CitationEntry{DOI: "10.1/x", CitedByCount: types.IntPtr(50), FetchedAt: testNow}
	older := types.CitationEntry{DOI: "10.1/x", CitedByCount: types.IntPtr(40), FetchedAt: testNow.Add(-time.Hour)}

	require.NoError(t, cache.Put(newer))
	require.NoError(t, cache.Put(older))

	entry, ok, err := cache.Get("10.1/x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 50, *entry.CitedByCount, "a racing older write must not clobber the newer entry")
}

func TestEnrichAllCountsOutcomes(t *testing.T) {
	e, _ := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"cited_by_count": 7}`)
	})

	items := []*types.CanonicalItem{
		itemWithDOI("10.1/a"),
		itemWithDOI("10.1/b"),
		{ID: 3, Title: "No DOI"},
	}

	s := e.EnrichAll(context.Background(), items, io.Discard)

	assert.Equal(t, 2, s.Fetched)
	assert.Equal(t, 1, s.NoDOI)
	for _, item := range items[:2] {
		require.NotNil(t, item.CitedByCount)
		assert.Equal(t, 7, *item.CitedByCount)
	}
}
