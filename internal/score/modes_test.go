// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/oncopulse/pkg/types"
)

func TestApplyModeOverlaysWeights(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	require.NoError(t, ApplyMode(&cfg, "clinician"))

	assert.Equal(t, 10.0, cfg.Scoring.Weights.PhaseIII)
	assert.Equal(t, 8.0, cfg.Scoring.Weights.Randomized)
	// Untouched fields keep their configured values.
	assert.Equal(t, types.DefaultWeights().Recency, cfg.Scoring.Weights.Recency)
	assert.True(t, cfg.Fetch.IncludePapers)
	assert.True(t, cfg.Fetch.IncludeTrials)
}

func TestApplyModeTrialRadarDisablesPapers(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	require.NoError(t, ApplyMode(&cfg, "trial-radar"))
	assert.False(t, cfg.Fetch.IncludePapers)
	assert.True(t, cfg.Fetch.IncludeTrials)
}

func TestApplyModeScalesCitations(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	require.NoError(t, ApplyMode(&cfg, "researcher"))
	assert.InDelta(t, types.DefaultWeights().Citations*1.5, cfg.Scoring.Weights.Citations, 1e-9)
}

func TestApplyModeRejectsUnknown(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	err := ApplyMode(&cfg, "vibes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestModesAreSorted(t *testing.T) {
	modes := Modes()
	require.NotEmpty(t, modes)
	assert.Contains(t, modes, ModeAll)
	assert.Contains(t, modes, ModeClinician)
}
