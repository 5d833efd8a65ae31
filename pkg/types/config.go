// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 8s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with requests
	// (e.g. "oncopulse/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the retry budget for transient upstream failures
	// (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FetchConfig holds settings for the source fetchers.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DaysBack bounds the fetch window (default 14).
	DaysBack int `json:"days_back" yaml:"days_back"`

	// MaxRecords caps results per source (default 200).
	MaxRecords int `json:"max_records" yaml:"max_records"`

	// NCBIAPIKey raises E-utilities rate limits when set.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`

	// NCBIEmail identifies the tool to NCBI per their usage policy.
	NCBIEmail string `json:"ncbi_email" yaml:"ncbi_email"`

	// IncludeTrials and IncludePapers toggle the two primary sources.
	IncludeTrials bool `json:"include_trials" yaml:"include_trials"`
	IncludePapers bool `json:"include_papers" yaml:"include_papers"`
}

// EnrichConfig holds settings for the citation enricher.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled toggles citation enrichment for a run.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// CacheTTL is the staleness threshold for cached citation counts.
	// Entries older than this are refreshed (default 14 days).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool
	// access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// Concurrency bounds parallel lookups across distinct items
	// (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// ScoringWeights names every tunable scoring weight. Partial override
// maps from config or mode presets replace only the weights they name.
// Penalties are negative.
type ScoringWeights struct {
	Recency     float64 `json:"recency" yaml:"recency"`
	Citations   float64 `json:"citations" yaml:"citations"`
	Subcategory float64 `json:"subcategory" yaml:"subcategory"`
	Specialty   float64 `json:"specialty" yaml:"specialty"`

	PhaseIII           float64 `json:"phase_iii" yaml:"phase_iii"`
	PhaseII            float64 `json:"phase_ii" yaml:"phase_ii"`
	Randomized         float64 `json:"randomized" yaml:"randomized"`
	MetaAnalysis       float64 `json:"meta_analysis" yaml:"meta_analysis"`
	OverallSurvival    float64 `json:"overall_survival" yaml:"overall_survival"`
	ProgressionFree    float64 `json:"progression_free_survival" yaml:"progression_free_survival"`
	SampleSize         float64 `json:"sample_size" yaml:"sample_size"`
	MajorJournal       float64 `json:"major_journal" yaml:"major_journal"`
	IncludeTerm        float64 `json:"include_term" yaml:"include_term"`
	ExcludeTerm        float64 `json:"exclude_term" yaml:"exclude_term"`
	PreclinicalPenalty float64 `json:"preclinical_penalty" yaml:"preclinical_penalty"`
	CaseReportPenalty  float64 `json:"case_report_penalty" yaml:"case_report_penalty"`
	GlobalPenalty      float64 `json:"global_penalty" yaml:"global_penalty"`
}

// ScoringConfig holds the explicit, non-learned scoring configuration.
type ScoringConfig struct {
	Weights ScoringWeights `json:"weights" yaml:"weights"`

	// SourceWeights is the fixed per-source factor, a pure lookup.
	SourceWeights map[Source]float64 `json:"source_weights" yaml:"source_weights"`

	// RecencyHalfLifeYears controls recency decay: an item this many
	// years old contributes half the recency weight (default 2).
	RecencyHalfLifeYears float64 `json:"recency_half_life_years" yaml:"recency_half_life_years"`

	// CitationCap saturates the citation factor so one outlier count
	// cannot dominate (default 250).
	CitationCap int `json:"citation_cap" yaml:"citation_cap"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// DBPath is the SQLite database path (default "oncopulse.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PacksConfig holds specialty pack settings.
type PacksConfig struct {
	// Dir contains one YAML pack file per specialty (default "packs").
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all component configurations for one run.
type PipelineConfig struct {
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Enrich  EnrichConfig  `json:"enrich" yaml:"enrich"`
	Scoring ScoringConfig `json:"scoring" yaml:"scoring"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Packs   PacksConfig   `json:"packs" yaml:"packs"`
}

// Defaults for the tunables kept as explicit configuration constants.
const (
	DefaultHTTPTimeout = 8 * time.Second
	DefaultMaxRetries  = 2
	DefaultDaysBack    = 14
	DefaultMaxRecords  = 200
	DefaultCacheTTL    = 14 * 24 * time.Hour
	DefaultConcurrency = 4
	DefaultRecencyHalf = 2.0
	DefaultCitationCap = 250
	DefaultDBPath      = "oncopulse.db"
	DefaultPacksDir    = "packs"
	DefaultUserAgent   = "oncopulse/0.1"
	DefaultNCBIEmail   = "oncopulse@example.com"
)

// DefaultWeights mirrors the documented baseline ranking behavior.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		Recency:     4,
		Citations:   4,
		Subcategory: 5,
		Specialty:   2,

		PhaseIII:           6,
		PhaseII:            3,
		Randomized:         5,
		MetaAnalysis:       4,
		OverallSurvival:    2,
		ProgressionFree:    2,
		SampleSize:         1,
		MajorJournal:       1,
		IncludeTerm:        1,
		ExcludeTerm:        -1,
		PreclinicalPenalty: -4,
		CaseReportPenalty:  -3,
		GlobalPenalty:      -2,
	}
}

// DefaultSourceWeights is the baseline per-source factor.
func DefaultSourceWeights() map[Source]float64 {
	return map[Source]float64{
		SourcePubMed:   1,
		SourceCTGov:    1,
		SourceAgnostic: 0.5,
	}
}

// DefaultPipelineConfig returns a PipelineConfig with every default
// applied. Callers overlay file and environment settings on top.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    DefaultHTTPTimeout,
				UserAgent:  DefaultUserAgent,
				MaxRetries: DefaultMaxRetries,
			},
			DaysBack:      DefaultDaysBack,
			MaxRecords:    DefaultMaxRecords,
			NCBIEmail:     DefaultNCBIEmail,
			IncludeTrials: true,
			IncludePapers: true,
		},
		Enrich: EnrichConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    DefaultHTTPTimeout,
				UserAgent:  DefaultUserAgent,
				MaxRetries: DefaultMaxRetries,
			},
			Enabled:     true,
			CacheTTL:    DefaultCacheTTL,
			Concurrency: DefaultConcurrency,
		},
		Scoring: ScoringConfig{
			Weights:              DefaultWeights(),
			SourceWeights:        DefaultSourceWeights(),
			RecencyHalfLifeYears: DefaultRecencyHalf,
			CitationCap:          DefaultCitationCap,
		},
		Store: StoreConfig{DBPath: DefaultDBPath},
		Packs: PacksConfig{Dir: DefaultPacksDir},
	}
}
