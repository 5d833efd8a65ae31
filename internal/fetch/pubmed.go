// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meshintel/oncopulse/internal/httputil"
	"github.com/meshintel/oncopulse/internal/normalize"
	"github.com/meshintel/oncopulse/internal/packs"
	"github.com/meshintel/oncopulse/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedSearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedFetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// efetchBatchSize is the maximum number of PMIDs per efetch call.
const efetchBatchSize = 200

// PubMedFetcher pulls recent papers via NCBI E-utilities: esearch for
// the PMID list, then efetch in batches for the article XML. One
// payload per PubmedArticle element.
type PubMedFetcher struct {
	Client *http.Client

	// Now anchors the publication-date window; the zero value means
	// time.Now().
	Now func() time.Time
}

// Name returns the source identifier.
func (f *PubMedFetcher) Name() string { return string(types.SourcePubMed) }

// Fetch runs esearch then efetch and returns one payload per article.
func (f *PubMedFetcher) Fetch(ctx context.Context, rules packs.Rules, cfg types.FetchConfig) ([]Payload, error) {
	if rules.PubMedQuery == "" {
		return nil, fmt.Errorf("no PubMed query for %s/%s", rules.Specialty, rules.Subcategory)
	}

	ids, err := f.search(ctx, rules.PubMedQuery, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var payloads []Payload
	for start := 0; start < len(ids); start += efetchBatchSize {
		end := start + efetchBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := f.fetchBatch(ctx, ids[start:end], cfg)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, batch...)
	}
	return payloads, nil
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (f *PubMedFetcher) search(ctx context.Context, query string, cfg types.FetchConfig) ([]string, error) {
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	daysBack := cfg.DaysBack
	if daysBack <= 0 {
		daysBack = types.DefaultDaysBack
	}
	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = types.DefaultMaxRecords
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(maxRecords))
	params.Set("datetype", "pdat")
	params.Set("mindate", now.AddDate(0, 0, -daysBack).Format("2006/01/02"))
	params.Set("maxdate", now.Format("2006/01/02"))
	f.identify(params, cfg)

	body, err := f.get(ctx, pubmedSearchBase, params, cfg)
	if err != nil {
		return nil, fmt.Errorf("PubMed search: %w", err)
	}

	var parsed esearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing PubMed search response: %w", err)
	}
	return parsed.ESearchResult.IDList, nil
}

func (f *PubMedFetcher) fetchBatch(ctx context.Context, ids []string, cfg types.FetchConfig) ([]Payload, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")
	f.identify(params, cfg)

	body, err := f.get(ctx, pubmedFetchBase, params, cfg)
	if err != nil {
		return nil, fmt.Errorf("PubMed fetch: %w", err)
	}

	articles, err := normalize.SplitPubMedSet(body)
	if err != nil {
		return nil, fmt.Errorf("splitting PubMed article set: %w", err)
	}

	payloads := make([]Payload, 0, len(articles))
	for _, a := range articles {
		payloads = append(payloads, Payload{Source: types.SourcePubMed, Body: a})
	}
	return payloads, nil
}

// identify adds the tool/email/api_key parameters NCBI asks clients to
// send.
func (f *PubMedFetcher) identify(params url.Values, cfg types.FetchConfig) {
	params.Set("tool", "oncopulse")
	if cfg.NCBIEmail != "" {
		params.Set("email", cfg.NCBIEmail)
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}
}

func (f *PubMedFetcher) get(ctx context.Context, base string, params url.Values, cfg types.FetchConfig) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
