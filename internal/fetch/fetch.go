// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch pulls recent raw payloads from the upstream sources:
// PubMed E-utilities for papers and the ClinicalTrials.gov v2 API for
// trial registrations. Fetchers return one opaque payload per record;
// parsing lives in the normalizer, so a source outage or format change
// never corrupts state downstream.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/meshintel/oncopulse/internal/packs"
	"github.com/meshintel/oncopulse/pkg/types"
)

// Payload is one raw record straight off the wire, tagged with the
// source that produced it.
type Payload struct {
	Source types.Source
	Body   []byte
}

// Fetcher pulls raw payloads for one upstream source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, rules packs.Rules, cfg types.FetchConfig) ([]Payload, error)
}

// Output holds the fan-out result and per-source failures.
type Output struct {
	Payloads     []Payload
	SourceErrors []string
}

// Fetchers builds the fetcher set enabled by the config.
func Fetchers(client *http.Client, cfg types.FetchConfig) []Fetcher {
	var out []Fetcher
	if cfg.IncludePapers {
		out = append(out, &PubMedFetcher{Client: client})
	}
	if cfg.IncludeTrials {
		out = append(out, &CTGovFetcher{Client: client})
	}
	return out
}

// FetchAll fans the query out to all fetchers concurrently. A failing
// source is reported and skipped; the run proceeds with whatever the
// healthy sources returned.
func FetchAll(ctx context.Context, fetchers []Fetcher, rules packs.Rules, cfg types.FetchConfig, w io.Writer) (Output, error) {
	if len(fetchers) == 0 {
		return Output{}, fmt.Errorf("no sources enabled")
	}

	type sourceResult struct {
		payloads []Payload
		err      error
		name     string
	}

	ch := make(chan sourceResult, len(fetchers))
	var wg sync.WaitGroup

	for _, f := range fetchers {
		wg.Add(1)
		go func(f Fetcher) {
			defer wg.Done()
			payloads, err := f.Fetch(ctx, rules, cfg)
			ch <- sourceResult{payloads: payloads, err: err, name: f.Name()}
		}(f)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var out Output
	for sr := range ch {
		if sr.err != nil {
			msg := fmt.Sprintf("%s: %v", sr.name, sr.err)
			out.SourceErrors = append(out.SourceErrors, msg)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", sr.name, sr.err)
			continue
		}
		out.Payloads = append(out.Payloads, sr.payloads...)
	}
	return out, nil
}
