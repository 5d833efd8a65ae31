// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize builds structured, purely extractive digests of
// canonical items for the inbox view. Every line is lifted from the
// abstract with regular expressions; nothing is generated, numeric
// efficacy claims are withheld rather than paraphrased, and the "why
// it matters" line never uses prescriptive language.
package summarize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/meshintel/oncopulse/pkg/types"
)

const (
	notStated       = "Not stated"
	noKeyFinding    = "Not explicitly stated in provided text"
	noAbstractKey   = "No abstract available"
	noInfoWhy       = "Why it matters: Not enough info in abstract."
	numericWithheld = "Not stated"
)

// bannedPrescriptivePhrases never survive into a digest; the inbox
// reports evidence, it does not advise treatment.
var bannedPrescriptivePhrases = []string{
	"should use",
	"preferred regimen",
	"must use",
	"recommend using",
	"first-line choice",
	"best treatment",
}

var (
	numericPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?%?\b`)
	sentenceSplit  = regexp.MustCompile(`(?:[.!?])\s+`)

	populationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(patients?[^.]{0,180}\.)`),
		regexp.MustCompile(`(?i)(adults?[^.]{0,180}\.)`),
		regexp.MustCompile(`(?i)((?:men|women)[^.]{0,180}\.)`),
		regexp.MustCompile(`(?i)((?:participants|subjects)[^.]{0,180}\.)`),
	}

	comparatorPattern   = regexp.MustCompile(`(?i)([^.]{0,120}(?:compared with|versus|vs\.?)[^.]{0,120}\.)`)
	interventionPattern = regexp.MustCompile(`(?i)(received[^.]{0,140}\.)`)
)

// Summarize renders the digest for one item.
func Summarize(item *types.CanonicalItem) string {
	text := ""
	if item.Abstract != nil {
		text = strings.Join(strings.Fields(*item.Abstract), " ")
	}
	if text == "" {
		return strings.Join([]string{
			"Study type / phase: " + notStated,
			"Population: " + notStated,
			"Intervention vs comparator: " + notStated,
			"Endpoints mentioned: " + notStated,
			"Key finding: " + noAbstractKey,
			noInfoWhy,
		}, "\n")
	}

	study := detectStudyType(text)
	population := extractPopulation(text)
	intervention := extractIntervention(text)
	endpoints := extractEndpoints(text)
	finding := extractKeyFinding(text)
	why := buildWhyItMatters(item, study, endpoints, population, finding, text)

	return strings.Join([]string{
		"Study type / phase: " + study,
		"Population: " + population,
		"Intervention vs comparator: " + intervention,
		"Endpoints mentioned: " + endpoints,
		"Key finding: " + finding,
		why,
	}, "\n")
}

func hasNumeric(text string) bool {
	return numericPattern.MatchString(text)
}

func detectStudyType(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "meta-analysis") || strings.Contains(t, "systematic review"):
		return "Meta-analysis / systematic review"
	case strings.Contains(t, "randomized") || strings.Contains(t, "rct"):
		return "Randomized trial"
	case strings.Contains(t, "phase iii") || strings.Contains(t, "phase 3"):
		return "Phase III trial"
	case strings.Contains(t, "phase ii") || strings.Contains(t, "phase 2"):
		return "Phase II trial"
	}
	return notStated
}

func extractPopulation(text string) string {
	for _, p := range populationPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			candidate := strings.TrimSpace(m[1])
			// Numeric population claims are withheld unless validated
			// upstream.
			if hasNumeric(candidate) {
				return numericWithheld
			}
			return candidate
		}
	}
	return notStated
}

func extractIntervention(text string) string {
	for _, p := range []*regexp.Regexp{comparatorPattern, interventionPattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			candidate := strings.TrimSpace(m[1])
			if hasNumeric(candidate) {
				return numericWithheld
			}
			return candidate
		}
	}
	return notStated
}

func extractEndpoints(text string) string {
	lower := strings.ToLower(text)
	upper := map[string]bool{"os": true, "pfs": true, "orr": true}

	seen := map[string]bool{}
	for _, token := range []string{
		"overall survival", "os", "progression-free survival", "pfs", "orr", "toxicity", "adverse event",
	} {
		if !strings.Contains(lower, token) {
			continue
		}
		label := token
		if upper[token] {
			label = strings.ToUpper(token)
		}
		seen[label] = true
	}
	if len(seen) == 0 {
		return notStated
	}

	endpoints := make([]string, 0, len(seen))
	for label := range seen {
		endpoints = append(endpoints, label)
	}
	sort.Strings(endpoints)
	return strings.Join(endpoints, ", ")
}

var findingCues = []string{
	"significant",
	"improved",
	"reduced",
	"increased",
	"no difference",
	"met primary endpoint",
	"superior",
	"non-inferior",
	"did not meet",
}

func extractKeyFinding(text string) string {
	for _, s := range sentences(text) {
		ls := strings.ToLower(s)
		for _, cue := range findingCues {
			if strings.Contains(ls, cue) {
				if hasNumeric(s) {
					return noKeyFinding
				}
				return s
			}
		}
	}
	return noKeyFinding
}

func sentences(text string) []string {
	var out []string
	rest := strings.TrimSpace(text)
	for len(rest) > 0 {
		loc := sentenceSplit.FindStringIndex(rest)
		if loc == nil {
			out = append(out, strings.TrimSpace(rest))
			break
		}
		out = append(out, strings.TrimSpace(rest[:loc[0]+1]))
		rest = rest[loc[1]:]
	}
	return out
}

func hasSafetySignal(text string) bool {
	t := strings.ToLower(text)
	for _, k := range []string{"toxicity", "adverse event", "adverse events", "pneumonitis", "safety"} {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

func sanitizeWhy(text string) string {
	out := text
	for _, phrase := range bannedPrescriptivePhrases {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
		out = re.ReplaceAllString(out, " ")
	}
	return strings.Join(strings.Fields(out), " ")
}

func buildWhyItMatters(item *types.CanonicalItem, study, endpoints, population, finding, text string) string {
	var signals []string
	if study != notStated {
		signals = append(signals, fmt.Sprintf("Study signal: %s.", strings.ToLower(study)))
	}
	if endpoints != notStated {
		signals = append(signals, fmt.Sprintf("Reported endpoints include %s.", endpoints))
	}
	if population != notStated {
		signals = append(signals, "Population is described in the abstract.")
	}
	if item.TrialStatus != nil && *item.TrialStatus != "" {
		signals = append(signals, fmt.Sprintf("Trial status update: %s.", *item.TrialStatus))
	}
	if hasSafetySignal(text) {
		signals = append(signals, "Safety-related language is present and may affect monitoring context.")
	}
	if finding != noKeyFinding {
		signals = append(signals, "The abstract reports a directional result that may guide evidence tracking.")
	}

	if len(signals) == 0 {
		return noInfoWhy
	}
	if len(signals) > 2 {
		signals = signals[:2]
	}

	why := sanitizeWhy("Why it matters: " + strings.Join(signals, " "))
	if why == "" || strings.EqualFold(why, "Why it matters:") {
		return noInfoWhy
	}
	return why
}
