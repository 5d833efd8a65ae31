// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/meshintel/oncopulse/internal/secrets"
	"github.com/meshintel/oncopulse/pkg/types"
)

// pipelineConfig builds the effective configuration: defaults, then the
// config file and ONCOPULSE_* environment, then secret files for any
// credentials still missing.
func pipelineConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	setDuration(&cfg.Fetch.Timeout, "fetch.timeout")
	setInt(&cfg.Fetch.MaxRetries, "fetch.max_retries")
	setString(&cfg.Fetch.UserAgent, "fetch.user_agent")
	setInt(&cfg.Fetch.DaysBack, "fetch.days_back")
	setInt(&cfg.Fetch.MaxRecords, "fetch.max_records")
	setString(&cfg.Fetch.NCBIAPIKey, "fetch.ncbi_api_key")
	setString(&cfg.Fetch.NCBIEmail, "fetch.ncbi_email")
	setBool(&cfg.Fetch.IncludeTrials, "fetch.include_trials")
	setBool(&cfg.Fetch.IncludePapers, "fetch.include_papers")

	setDuration(&cfg.Enrich.Timeout, "enrich.timeout")
	setInt(&cfg.Enrich.MaxRetries, "enrich.max_retries")
	setBool(&cfg.Enrich.Enabled, "enrich.enabled")
	setDuration(&cfg.Enrich.CacheTTL, "enrich.cache_ttl")
	setString(&cfg.Enrich.OpenAlexEmail, "enrich.openalex_email")
	setInt(&cfg.Enrich.Concurrency, "enrich.concurrency")

	setFloat(&cfg.Scoring.RecencyHalfLifeYears, "scoring.recency_half_life_years")
	setInt(&cfg.Scoring.CitationCap, "scoring.citation_cap")
	overlayWeightsFromConfig(&cfg.Scoring.Weights)

	setString(&cfg.Store.DBPath, "store.db_path")
	setString(&cfg.Packs.Dir, "packs.dir")

	secrets.Apply(&cfg, loadedSecrets)
	return cfg
}

// overlayWeightsFromConfig applies scoring.weights.* keys the user set.
func overlayWeightsFromConfig(w *types.ScoringWeights) {
	setFloat(&w.Recency, "scoring.weights.recency")
	setFloat(&w.Citations, "scoring.weights.citations")
	setFloat(&w.Subcategory, "scoring.weights.subcategory")
	setFloat(&w.Specialty, "scoring.weights.specialty")
	setFloat(&w.PhaseIII, "scoring.weights.phase_iii")
	setFloat(&w.PhaseII, "scoring.weights.phase_ii")
	setFloat(&w.Randomized, "scoring.weights.randomized")
	setFloat(&w.MetaAnalysis, "scoring.weights.meta_analysis")
	setFloat(&w.OverallSurvival, "scoring.weights.overall_survival")
	setFloat(&w.ProgressionFree, "scoring.weights.progression_free_survival")
	setFloat(&w.SampleSize, "scoring.weights.sample_size")
	setFloat(&w.MajorJournal, "scoring.weights.major_journal")
	setFloat(&w.IncludeTerm, "scoring.weights.include_term")
	setFloat(&w.ExcludeTerm, "scoring.weights.exclude_term")
	setFloat(&w.PreclinicalPenalty, "scoring.weights.preclinical_penalty")
	setFloat(&w.CaseReportPenalty, "scoring.weights.case_report_penalty")
	setFloat(&w.GlobalPenalty, "scoring.weights.global_penalty")
}

func setString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setBool(dst *bool, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

func setFloat(dst *float64, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

func setDuration(dst *time.Duration, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetDuration(key)
	}
}
