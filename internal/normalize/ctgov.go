// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/meshintel/oncopulse/pkg/types"
)

// ClinicalTrials.gov v2 study JSON structures, one study per record.
type ctgovStudy struct {
	ProtocolSection struct {
		Identification struct {
			NCTID         string `json:"nctId"`
			BriefTitle    string `json:"briefTitle"`
			OfficialTitle string `json:"officialTitle"`
		} `json:"identificationModule"`
		Status struct {
			OverallStatus  string `json:"overallStatus"`
			LastUpdatePost struct {
				Date string `json:"date"`
			} `json:"lastUpdatePostDateStruct"`
		} `json:"statusModule"`
		Description struct {
			BriefSummary        string `json:"briefSummary"`
			DetailedDescription string `json:"detailedDescription"`
		} `json:"descriptionModule"`
		Design struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		References []struct {
			Citation string `json:"citation"`
			PMID     string `json:"pmid"`
		} `json:"referencesModule"`
	} `json:"protocolSection"`
}

// ctgovEnvelope is the studies list response wrapper.
type ctgovEnvelope struct {
	Studies []json.RawMessage `json:"studies"`
}

// SplitStudies splits a v2 studies response into individual study
// payloads.
func SplitStudies(doc []byte) ([][]byte, error) {
	var env ctgovEnvelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, &MalformedPayloadError{
			Source: types.SourceCTGov, Field: "studies", Reason: err.Error(),
		}
	}
	payloads := make([][]byte, 0, len(env.Studies))
	for _, s := range env.Studies {
		payloads = append(payloads, []byte(s))
	}
	return payloads, nil
}

func normalizeCTGov(payload []byte, fetchedAt time.Time) (types.NormalizedRecord, error) {
	var study ctgovStudy
	if err := json.Unmarshal(payload, &study); err != nil {
		return types.NormalizedRecord{}, &MalformedPayloadError{
			Source: types.SourceCTGov, Field: "study", Reason: err.Error(),
		}
	}

	ps := study.ProtocolSection
	nct := strings.TrimSpace(ps.Identification.NCTID)
	if nct == "" {
		return types.NormalizedRecord{}, &MalformedPayloadError{
			Source: types.SourceCTGov, Field: "source_id", Reason: "missing nctId",
		}
	}
	title := cleanText(ps.Identification.BriefTitle)
	if title == "" {
		title = cleanText(ps.Identification.OfficialTitle)
	}
	if title == "" {
		return types.NormalizedRecord{}, &MalformedPayloadError{
			Source: types.SourceCTGov, Field: "title", Reason: "missing briefTitle and officialTitle",
		}
	}

	var textParts []string
	if s := cleanText(ps.Description.BriefSummary); s != "" {
		textParts = append(textParts, s)
	}
	if s := cleanText(ps.Description.DetailedDescription); s != "" {
		textParts = append(textParts, s)
	}

	rec := types.NormalizedRecord{
		Source:      types.SourceCTGov,
		SourceID:    nct,
		Title:       title,
		Abstract:    optional(strings.Join(textParts, " ")),
		Year:        ctgovYear(ps.Status.LastUpdatePost.Date),
		NCTID:       &nct,
		Venue:       optional("ClinicalTrials.gov"),
		URL:         optional("https://clinicaltrials.gov/study/" + nct),
		TrialPhase:  ctgovPhase(ps.Design.Phases),
		TrialStatus: optional(strings.TrimSpace(ps.Status.OverallStatus)),
		FetchedAt:   fetchedAt,
	}
	return rec, nil
}

// ctgovYear parses the year from a "2024-03-18" registry date.
func ctgovYear(date string) *int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return nil
	}
	n, err := strconv.Atoi(date[:4])
	if err != nil || n < 1900 || n > 2100 {
		return nil
	}
	return &n
}

// ctgovPhase keeps the most advanced listed phase; registries list
// combined designs as ["PHASE2","PHASE3"].
func ctgovPhase(phases []string) *types.TrialPhase {
	order := map[types.TrialPhase]int{
		types.PhaseNA:     0,
		types.PhaseEarly1: 1,
		types.Phase1:      2,
		types.Phase2:      3,
		types.Phase3:      4,
		types.Phase4:      5,
	}
	var best *types.TrialPhase
	for _, p := range phases {
		ph := types.TrialPhase(strings.ToUpper(strings.TrimSpace(p)))
		if _, ok := order[ph]; !ok {
			continue
		}
		if best == nil || order[ph] > order[*best] {
			v := ph
			best = &v
		}
	}
	return best
}
