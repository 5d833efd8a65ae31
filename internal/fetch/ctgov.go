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

	"github.com/meshintel/oncopulse/internal/httputil"
	"github.com/meshintel/oncopulse/internal/normalize"
	"github.com/meshintel/oncopulse/internal/packs"
	"github.com/meshintel/oncopulse/pkg/types"
)

// ctgovAPIBase is the ClinicalTrials.gov v2 studies endpoint. Declared
// as a var so tests can substitute an httptest server.
var ctgovAPIBase = "https://clinicaltrials.gov/api/v2/studies"

// ctgovPageSize is the page size requested per API call.
const ctgovPageSize = 100

// CTGovFetcher pulls recently updated trial registrations, newest
// first, following nextPageToken until the record cap is reached.
type CTGovFetcher struct {
	Client *http.Client
}

// Name returns the source identifier.
func (f *CTGovFetcher) Name() string { return string(types.SourceCTGov) }

// Fetch pages through the studies endpoint and returns one payload per
// study.
func (f *CTGovFetcher) Fetch(ctx context.Context, rules packs.Rules, cfg types.FetchConfig) ([]Payload, error) {
	if rules.TrialsQuery == "" {
		return nil, fmt.Errorf("no trials query for %s/%s", rules.Specialty, rules.Subcategory)
	}

	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = types.DefaultMaxRecords
	}

	var payloads []Payload
	pageToken := ""
	for len(payloads) < maxRecords {
		studies, next, err := f.page(ctx, rules.TrialsQuery, pageToken, cfg)
		if err != nil {
			return nil, err
		}
		for _, s := range studies {
			if len(payloads) >= maxRecords {
				break
			}
			payloads = append(payloads, Payload{Source: types.SourceCTGov, Body: s})
		}
		if next == "" {
			break
		}
		pageToken = next
	}
	return payloads, nil
}

func (f *CTGovFetcher) page(ctx context.Context, query, pageToken string, cfg types.FetchConfig) ([][]byte, string, error) {
	params := url.Values{}
	params.Set("query.term", query)
	params.Set("pageSize", strconv.Itoa(ctgovPageSize))
	params.Set("sort", "LastUpdatePostDate:desc")
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ctgovAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, "", fmt.Errorf("ClinicalTrials.gov request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("ClinicalTrials.gov returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading ClinicalTrials.gov response: %w", err)
	}

	studies, err := normalize.SplitStudies(body)
	if err != nil {
		return nil, "", fmt.Errorf("splitting studies response: %w", err)
	}

	var envelope struct {
		NextPageToken string `json:"nextPageToken"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, "", fmt.Errorf("parsing studies envelope: %w", err)
	}
	return studies, envelope.NextPageToken, nil
}
