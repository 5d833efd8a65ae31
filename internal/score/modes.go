// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meshintel/oncopulse/pkg/types"
)

// Built-in reading modes. A mode is a named preset over the fetch
// toggles and scoring weights; "all" applies no emphasis.
const (
	ModeAll        = "all"
	ModeClinician  = "clinician"
	ModeSafety     = "safety-watch"
	ModeTrialRadar = "trial-radar"
	ModeResearcher = "researcher"
	ModeFellow     = "fellow"
)

type modePreset struct {
	includePapers bool
	includeTrials bool
	weights       types.ScoringWeights

	// citationsMultiplier scales the citation weight; zero means
	// unchanged.
	citationsMultiplier float64
}

var modePresets = map[string]modePreset{
	ModeAll: {
		includePapers: true,
		includeTrials: true,
	},
	ModeClinician: {
		includePapers: true,
		includeTrials: true,
		weights: types.ScoringWeights{
			PhaseIII:        10,
			Randomized:      8,
			OverallSurvival: 5,
			ProgressionFree: 4,
			MetaAnalysis:    5,
		},
	},
	ModeSafety: {
		includePapers: true,
		includeTrials: true,
		weights: types.ScoringWeights{
			MetaAnalysis:    6,
			PhaseIII:        6,
			Randomized:      5,
			OverallSurvival: 2,
			ProgressionFree: 2,
		},
	},
	ModeTrialRadar: {
		includePapers: false,
		includeTrials: true,
		weights: types.ScoringWeights{
			PhaseIII:        8,
			PhaseII:         5,
			Randomized:      6,
			OverallSurvival: 3,
			ProgressionFree: 3,
		},
	},
	ModeResearcher: {
		includePapers: true,
		includeTrials: true,
		weights: types.ScoringWeights{
			MetaAnalysis: 5,
			PhaseIII:     6,
			PhaseII:      4,
		},
		citationsMultiplier: 1.5,
	},
	ModeFellow: {
		includePapers: true,
		includeTrials: true,
		weights: types.ScoringWeights{
			PhaseIII:     7,
			Randomized:   6,
			MetaAnalysis: 5,
			SampleSize:   2,
		},
		citationsMultiplier: 1.2,
	},
}

// Modes lists the built-in mode names.
func Modes() []string {
	names := make([]string, 0, len(modePresets))
	for name := range modePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyMode overlays the named mode's preset onto the config. Weight
// fields the mode does not set keep their configured values.
func ApplyMode(cfg *types.PipelineConfig, mode string) error {
	preset, ok := modePresets[strings.ToLower(strings.TrimSpace(mode))]
	if !ok {
		return fmt.Errorf("unknown mode %q: use one of %s", mode, strings.Join(Modes(), ", "))
	}

	cfg.Fetch.IncludePapers = preset.includePapers
	cfg.Fetch.IncludeTrials = preset.includeTrials

	cfg.Scoring.Weights = overlayWeights(cfg.Scoring.Weights, preset.weights)
	if preset.citationsMultiplier > 0 {
		base := cfg.Scoring.Weights.Citations
		if base == 0 {
			base = types.DefaultWeights().Citations
		}
		cfg.Scoring.Weights.Citations = base * preset.citationsMultiplier
	}
	return nil
}

// overlayWeights replaces only the fields the overlay sets.
func overlayWeights(base, overlay types.ScoringWeights) types.ScoringWeights {
	merge := func(b, o float64) float64 {
		if o != 0 {
			return o
		}
		return b
	}
	return types.ScoringWeights{
		Recency:     merge(base.Recency, overlay.Recency),
		Citations:   merge(base.Citations, overlay.Citations),
		Subcategory: merge(base.Subcategory, overlay.Subcategory),
		Specialty:   merge(base.Specialty, overlay.Specialty),

		PhaseIII:           merge(base.PhaseIII, overlay.PhaseIII),
		PhaseII:            merge(base.PhaseII, overlay.PhaseII),
		Randomized:         merge(base.Randomized, overlay.Randomized),
		MetaAnalysis:       merge(base.MetaAnalysis, overlay.MetaAnalysis),
		OverallSurvival:    merge(base.OverallSurvival, overlay.OverallSurvival),
		ProgressionFree:    merge(base.ProgressionFree, overlay.ProgressionFree),
		SampleSize:         merge(base.SampleSize, overlay.SampleSize),
		MajorJournal:       merge(base.MajorJournal, overlay.MajorJournal),
		IncludeTerm:        merge(base.IncludeTerm, overlay.IncludeTerm),
		ExcludeTerm:        merge(base.ExcludeTerm, overlay.ExcludeTerm),
		PreclinicalPenalty: merge(base.PreclinicalPenalty, overlay.PreclinicalPenalty),
		CaseReportPenalty:  merge(base.CaseReportPenalty, overlay.CaseReportPenalty),
		GlobalPenalty:      merge(base.GlobalPenalty, overlay.GlobalPenalty),
	}
}
