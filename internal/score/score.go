// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes a transparent relevance score per canonical
// item for a clinician's query context. The score is a weighted sum of
// independently computed, bounded factors; every contribution is
// recorded by name so each point of the total can be explained without
// re-deriving state. Nothing here is learned; all weights come from
// explicit configuration.
package score

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/meshintel/oncopulse/internal/packs"
	"github.com/meshintel/oncopulse/pkg/types"
)

// QueryContext is the clinician's selection for one scoring pass.
type QueryContext struct {
	Specialty   string
	Subcategory string
	Rules       packs.Rules

	// Now anchors the recency factor; the zero value means time.Now().
	Now time.Time
}

func (qc QueryContext) now() time.Time {
	if qc.Now.IsZero() {
		return time.Now()
	}
	return qc.Now
}

// Score computes the item's relevance for the query context. The
// returned breakdown sums exactly to the total: the total is defined as
// that sum. Absent fields are valid inputs with defined contributions
// (absent year scores minimum recency, absent citations score zero),
// never errors.
func Score(item *types.CanonicalItem, qc QueryContext, cfg types.ScoringConfig) types.ScoredItem {
	w := resolveWeights(cfg.Weights)

	var breakdown []types.Contribution
	breakdown = append(breakdown, recencyFactor(item, qc, w, cfg))
	breakdown = append(breakdown, citationFactor(item, w, cfg))
	breakdown = append(breakdown, matchFactor(item, qc, w))
	breakdown = append(breakdown, sourceFactor(item, cfg))
	breakdown = append(breakdown, termSignals(item, qc.Rules, w)...)

	var total float64
	for _, c := range breakdown {
		total += c.Points
	}
	return types.ScoredItem{Item: item, Score: total, Breakdown: breakdown}
}

// recencyFactor decays with the item's age in years:
// weight / (1 + age/halfLife). An absent year contributes zero, the
// factor's minimum; unknown age is never rewarded.
func recencyFactor(item *types.CanonicalItem, qc QueryContext, w types.ScoringWeights, cfg types.ScoringConfig) types.Contribution {
	c := types.Contribution{Factor: "recency"}
	if item.Year == nil {
		return c
	}
	halfLife := cfg.RecencyHalfLifeYears
	if halfLife <= 0 {
		halfLife = types.DefaultRecencyHalf
	}
	age := float64(qc.now().Year() - *item.Year)
	if age < 0 {
		age = 0
	}
	c.Points = w.Recency / (1 + age/halfLife)
	return c
}

// citationFactor saturates via log1p(min(n, cap))/log1p(cap), so the
// contribution is bounded by the citation weight and one outlier count
// cannot dominate the inbox. Absent counts contribute zero.
func citationFactor(item *types.CanonicalItem, w types.ScoringWeights, cfg types.ScoringConfig) types.Contribution {
	c := types.Contribution{Factor: "citations"}
	if item.CitedByCount == nil || *item.CitedByCount <= 0 {
		return c
	}
	cap := cfg.CitationCap
	if cap <= 0 {
		cap = types.DefaultCitationCap
	}
	n := *item.CitedByCount
	if n > cap {
		n = cap
	}
	c.Points = w.Citations * math.Log1p(float64(n)) / math.Log1p(float64(cap))
	return c
}

// matchFactor grades how the item matches the chosen specialty and
// subcategory: a subcategory-level match outranks a specialty-only
// match, and no match scores zero, never negative.
func matchFactor(item *types.CanonicalItem, qc QueryContext, w types.ScoringWeights) types.Contribution {
	blob := itemBlob(item)

	subTerms := append([]string{qc.Rules.Subcategory, qc.Subcategory}, qc.Rules.IncludeTerms...)
	if hasAnyTerm(blob, subTerms) {
		return types.Contribution{Factor: "subcategory_match", Points: w.Subcategory}
	}

	specTerms := append([]string{qc.Rules.Specialty, qc.Specialty}, qc.Rules.GlobalBoostTerms...)
	if hasAnyTerm(blob, specTerms) {
		return types.Contribution{Factor: "specialty_match", Points: w.Specialty}
	}
	return types.Contribution{Factor: "specialty_match"}
}

// sourceFactor is a pure lookup of the fixed per-source weight. Items
// merged from several sources take the highest configured weight among
// them, which keeps the factor independent of merge order.
func sourceFactor(item *types.CanonicalItem, cfg types.ScoringConfig) types.Contribution {
	weights := cfg.SourceWeights
	if len(weights) == 0 {
		weights = types.DefaultSourceWeights()
	}
	c := types.Contribution{Factor: "source_type"}
	seen := map[types.Source]bool{}
	for _, rec := range item.SourceRecords {
		if seen[rec.Source] {
			continue
		}
		seen[rec.Source] = true
		if v := weights[rec.Source]; v > c.Points {
			c.Points = v
		}
	}
	return c
}

// evidence-signal term lists, matched against title+abstract.
var boostTerms = []struct {
	factor string
	terms  []string
}{
	{"phase_iii", []string{"phase iii", "phase 3"}},
	{"randomized", []string{"randomized", "rct"}},
	{"meta_analysis", []string{"meta-analysis", "systematic review"}},
	{"phase_ii", []string{"phase ii", "phase 2"}},
}

var sampleSizePattern = regexp.MustCompile(`\b(?:n\s*=\s*|enrolled\s*=\s*|patients?\s*=\s*)(\d{2,5})\b`)

// termSignals emits the pack-driven evidence boosts and penalties, one
// named contribution per triggered signal.
func termSignals(item *types.CanonicalItem, rules packs.Rules, w types.ScoringWeights) []types.Contribution {
	blob := itemBlob(item)
	var out []types.Contribution

	boostWeight := map[string]float64{
		"phase_iii":     w.PhaseIII,
		"randomized":    w.Randomized,
		"meta_analysis": w.MetaAnalysis,
		"phase_ii":      w.PhaseII,
	}
	for _, b := range boostTerms {
		if hasAnyTerm(blob, b.terms) || phaseMatches(item, b.factor) {
			out = append(out, types.Contribution{Factor: b.factor, Points: boostWeight[b.factor]})
		}
	}

	if hasAnyTerm(blob, []string{"overall survival"}) {
		out = append(out, types.Contribution{Factor: "overall_survival", Points: w.OverallSurvival})
	}
	if hasAnyTerm(blob, []string{"progression-free survival", "progression free survival"}) {
		out = append(out, types.Contribution{Factor: "progression_free_survival", Points: w.ProgressionFree})
	}
	if sampleSizeAtLeast(blob, 200) {
		out = append(out, types.Contribution{Factor: "sample_size", Points: w.SampleSize})
	}

	if item.Venue != nil {
		venue := strings.ToLower(*item.Venue)
		for _, j := range rules.MajorJournals {
			if j != "" && strings.Contains(venue, strings.ToLower(j)) {
				out = append(out, types.Contribution{Factor: "major_journal", Points: w.MajorJournal})
				break
			}
		}
	}

	out = append(out, penaltySignals(blob, rules, w)...)

	for _, term := range rules.IncludeTerms {
		if containsTerm(blob, term) {
			out = append(out, types.Contribution{Factor: "include_term: " + term, Points: w.IncludeTerm})
		}
	}
	for _, term := range rules.ExcludeTerms {
		if containsTerm(blob, term) {
			out = append(out, types.Contribution{Factor: "exclude_term: " + term, Points: w.ExcludeTerm})
		}
	}
	return out
}

func penaltySignals(blob string, rules packs.Rules, w types.ScoringWeights) []types.Contribution {
	var out []types.Contribution
	if hasAnyTerm(blob, []string{"mouse", "murine", "cell line", "in vitro"}) {
		out = append(out, types.Contribution{Factor: "preclinical", Points: w.PreclinicalPenalty})
	}
	if hasAnyTerm(blob, []string{"case report"}) {
		out = append(out, types.Contribution{Factor: "case_report", Points: w.CaseReportPenalty})
	}
	if hasAnyTerm(blob, rules.GlobalPenaltyTerms) {
		out = append(out, types.Contribution{Factor: "global_penalty", Points: w.GlobalPenalty})
	}
	return out
}

// phaseMatches upgrades text-based phase detection with the structured
// registry phase when present.
func phaseMatches(item *types.CanonicalItem, factor string) bool {
	if item.TrialPhase == nil {
		return false
	}
	switch factor {
	case "phase_iii":
		return *item.TrialPhase == types.Phase3
	case "phase_ii":
		return *item.TrialPhase == types.Phase2
	}
	return false
}

func sampleSizeAtLeast(blob string, threshold int) bool {
	for _, m := range sampleSizePattern.FindAllStringSubmatch(blob, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= threshold {
			return true
		}
	}
	return false
}

// itemBlob is the lowercased searchable text of an item.
func itemBlob(item *types.CanonicalItem) string {
	parts := []string{item.Title}
	if item.Abstract != nil {
		parts = append(parts, *item.Abstract)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func hasAnyTerm(blob string, terms []string) bool {
	for _, t := range terms {
		if containsTerm(blob, t) {
			return true
		}
	}
	return false
}

var alnumPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// containsTerm matches single alphanumeric tokens on word boundaries
// and longer phrases by substring, so "os" does not fire inside
// "osimertinib".
func containsTerm(blob, term string) bool {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return false
	}
	if alnumPattern.MatchString(t) {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(t) + `\b`)
		if err != nil {
			return false
		}
		return re.MatchString(blob)
	}
	return strings.Contains(blob, t)
}

// resolveWeights fills zero-valued weights with defaults so partial
// overrides compose. A weight cannot be overridden to exactly zero;
// disable a signal by removing its terms instead.
func resolveWeights(w types.ScoringWeights) types.ScoringWeights {
	d := types.DefaultWeights()
	fill := func(v, def float64) float64 {
		if v == 0 {
			return def
		}
		return v
	}
	return types.ScoringWeights{
		Recency:     fill(w.Recency, d.Recency),
		Citations:   fill(w.Citations, d.Citations),
		Subcategory: fill(w.Subcategory, d.Subcategory),
		Specialty:   fill(w.Specialty, d.Specialty),

		PhaseIII:           fill(w.PhaseIII, d.PhaseIII),
		PhaseII:            fill(w.PhaseII, d.PhaseII),
		Randomized:         fill(w.Randomized, d.Randomized),
		MetaAnalysis:       fill(w.MetaAnalysis, d.MetaAnalysis),
		OverallSurvival:    fill(w.OverallSurvival, d.OverallSurvival),
		ProgressionFree:    fill(w.ProgressionFree, d.ProgressionFree),
		SampleSize:         fill(w.SampleSize, d.SampleSize),
		MajorJournal:       fill(w.MajorJournal, d.MajorJournal),
		IncludeTerm:        fill(w.IncludeTerm, d.IncludeTerm),
		ExcludeTerm:        fill(w.ExcludeTerm, d.ExcludeTerm),
		PreclinicalPenalty: fill(w.PreclinicalPenalty, d.PreclinicalPenalty),
		CaseReportPenalty:  fill(w.CaseReportPenalty, d.CaseReportPenalty),
		GlobalPenalty:      fill(w.GlobalPenalty, d.GlobalPenalty),
	}
}

// ExplainLines renders the breakdown as "+6.0 phase_iii" style audit
// lines.
func ExplainLines(s types.ScoredItem) []string {
	lines := make([]string, 0, len(s.Breakdown))
	for _, c := range s.Breakdown {
		lines = append(lines, fmt.Sprintf("%+.1f %s", c.Points, c.Factor))
	}
	return lines
}
