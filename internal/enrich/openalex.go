// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/meshintel/oncopulse/internal/httputil"
)

// openAlexBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexBase = "https://api.openalex.org/works"

type openAlexWork struct {
	CitedByCount *int `json:"cited_by_count"`
}

// fetchCitedBy queries OpenAlex for the DOI's cited-by count. A 404
// means OpenAlex does not know the DOI; that is a definitive answer
// (nil count), not a lookup failure, and gets cached like any other.
func (e *Enricher) fetchCitedBy(ctx context.Context, doi string) (*int, error) {
	workID := url.PathEscape("https://doi.org/" + doi)
	reqURL := openAlexBase + "/" + workID
	if e.Config.OpenAlexEmail != "" {
		reqURL += "?mailto=" + url.QueryEscape(e.Config.OpenAlexEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &LookupError{DOI: doi, Err: err}
	}
	req.Header.Set("User-Agent", e.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, e.Config.MaxRetries)
	if err != nil {
		return nil, &LookupError{DOI: doi, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &LookupError{DOI: doi, Err: fmt.Errorf("OpenAlex returned HTTP %d", resp.StatusCode)}
	}

	var work openAlexWork
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return nil, &LookupError{DOI: doi, Err: fmt.Errorf("parsing response: %w", err)}
	}
	return work.CitedByCount, nil
}
