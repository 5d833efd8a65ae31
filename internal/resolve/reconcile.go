// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"strconv"

	"github.com/meshintel/oncopulse/pkg/types"
)

// sourcePrecedence orders sources for title/abstract reconciliation.
// PubMed curates both, so it outranks registry text.
func sourcePrecedence(s types.Source) int {
	switch s {
	case types.SourcePubMed:
		return 2
	case types.SourceCTGov:
		return 1
	default:
		return 0
	}
}

// reconcile folds a newly merged record's fields into the item. A
// present value never loses to an absent one; conflicting present values
// keep the first-seen value and record a note instead of erroring.
func reconcile(item *types.CanonicalItem, rec types.NormalizedRecord) {
	reconcileTitle(item, rec)
	reconcileAbstract(item, rec)

	// Year is first-seen-wins with an audit note on disagreement.
	if rec.Year != nil {
		switch {
		case item.Year == nil:
			item.Year = rec.Year
		case *item.Year != *rec.Year:
			item.Conflicts = append(item.Conflicts, types.ConflictNote{
				Field:        "year",
				Kept:         strconv.Itoa(*item.Year),
				Rejected:     strconv.Itoa(*rec.Year),
				RejectedFrom: rec.Source,
			})
		}
	}

	// Strong keys: adopt when missing, note when contradicted.
	item.DOI = adoptKey(item, "doi", item.DOI, rec.DOI, rec.Source)
	item.NCTID = adoptKey(item, "nct", item.NCTID, rec.NCTID, rec.Source)
	if rec.Source == types.SourcePubMed {
		pmid := rec.SourceID
		item.PMID = adoptKey(item, "pmid", item.PMID, &pmid, rec.Source)
	}

	// Remaining fields fill in when absent.
	if item.Venue == nil {
		item.Venue = rec.Venue
	}
	if item.Authors == nil {
		item.Authors = rec.Authors
	}
	if item.URL == nil {
		item.URL = rec.URL
	}
	if item.TrialPhase == nil {
		item.TrialPhase = rec.TrialPhase
	}
	if item.TrialStatus == nil {
		item.TrialStatus = rec.TrialStatus
	}
}

// reconcileTitle upgrades the title when the record's source outranks
// the current value's source. Equal-precedence disagreement keeps the
// first-seen title and notes the rejected one.
func reconcileTitle(item *types.CanonicalItem, rec types.NormalizedRecord) {
	newPrec, curPrec := sourcePrecedence(rec.Source), sourcePrecedence(item.TitleFrom)
	switch {
	case newPrec > curPrec:
		if rec.Title != item.Title {
			item.Title = rec.Title
			item.TitleFrom = rec.Source
		}
	case newPrec == curPrec && rec.Title != item.Title:
		item.Conflicts = append(item.Conflicts, types.ConflictNote{
			Field:        "title",
			Kept:         item.Title,
			Rejected:     rec.Title,
			RejectedFrom: rec.Source,
		})
	}
}

func reconcileAbstract(item *types.CanonicalItem, rec types.NormalizedRecord) {
	if rec.Abstract == nil {
		return
	}
	if item.Abstract == nil {
		item.Abstract = rec.Abstract
		item.AbstractFrom = rec.Source
		return
	}
	if sourcePrecedence(rec.Source) > sourcePrecedence(item.AbstractFrom) {
		item.Abstract = rec.Abstract
		item.AbstractFrom = rec.Source
	}
}

// adoptKey fills a missing strong key from the record. A differing
// present value is preserved as a conflict note, never overwritten.
func adoptKey(item *types.CanonicalItem, field string, cur, next *string, from types.Source) *string {
	if next == nil || *next == "" {
		return cur
	}
	if cur == nil {
		return next
	}
	if *cur != *next {
		item.Conflicts = append(item.Conflicts, types.ConflictNote{
			Field:        field,
			Kept:         *cur,
			Rejected:     *next,
			RejectedFrom: from,
		})
	}
	return cur
}
