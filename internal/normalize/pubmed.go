// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/meshintel/oncopulse/pkg/types"
)

// PubMed efetch XML structures, one PubmedArticle per record.
type pubmedArticle struct {
	PMID    string `xml:"MedlineCitation>PMID"`
	Article struct {
		Title    string `xml:"ArticleTitle"`
		Abstract struct {
			Sections []pubmedAbstractSection `xml:"AbstractText"`
		} `xml:"Abstract"`
		Journal struct {
			ISOAbbreviation string `xml:"ISOAbbreviation"`
			Title           string `xml:"Title"`
			PubDate         struct {
				Year        string `xml:"Year"`
				MedlineDate string `xml:"MedlineDate"`
			} `xml:"JournalIssue>PubDate"`
		} `xml:"Journal"`
		ELocationIDs []pubmedELocation `xml:"ELocationID"`
		Authors      []pubmedAuthor    `xml:"AuthorList>Author"`
	} `xml:"MedlineCitation>Article"`
	ArticleIDs []pubmedArticleID `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type pubmedAbstractSection struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",chardata"`
}

type pubmedELocation struct {
	Type  string `xml:"EIdType,attr"`
	Value string `xml:",chardata"`
}

type pubmedArticleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

type pubmedAuthor struct {
	LastName       string `xml:"LastName"`
	Initials       string `xml:"Initials"`
	CollectiveName string `xml:"CollectiveName"`
}

// pubmedSet captures each PubmedArticle of an efetch response as raw XML
// so the per-record contract stays one payload, one record.
type pubmedSet struct {
	Articles []struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"PubmedArticle"`
}

// SplitPubMedSet splits an efetch PubmedArticleSet document into
// individual PubmedArticle payloads.
func SplitPubMedSet(doc []byte) ([][]byte, error) {
	var set pubmedSet
	if err := xml.Unmarshal(doc, &set); err != nil {
		return nil, &MalformedPayloadError{
			Source: types.SourcePubMed, Field: "PubmedArticleSet", Reason: err.Error(),
		}
	}
	payloads := make([][]byte, 0, len(set.Articles))
	for _, a := range set.Articles {
		payload := append([]byte("<PubmedArticle>"), a.Inner...)
		payload = append(payload, []byte("</PubmedArticle>")...)
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

func normalizePubMed(payload []byte, fetchedAt time.Time) (types.NormalizedRecord, error) {
	var art pubmedArticle
	if err := xml.Unmarshal(payload, &art); err != nil {
		return types.NormalizedRecord{}, &MalformedPayloadError{
			Source: types.SourcePubMed, Field: "PubmedArticle", Reason: err.Error(),
		}
	}

	pmid := strings.TrimSpace(art.PMID)
	if pmid == "" {
		return types.NormalizedRecord{}, &MalformedPayloadError{
			Source: types.SourcePubMed, Field: "source_id", Reason: "missing PMID",
		}
	}
	title := cleanText(art.Article.Title)
	if title == "" {
		return types.NormalizedRecord{}, &MalformedPayloadError{
			Source: types.SourcePubMed, Field: "title", Reason: "missing ArticleTitle",
		}
	}

	abstract := pubmedAbstract(art.Article.Abstract.Sections)

	rec := types.NormalizedRecord{
		Source:    types.SourcePubMed,
		SourceID:  pmid,
		Title:     title,
		Abstract:  optional(abstract),
		Year:      pubmedYear(art),
		DOI:       pubmedDOI(art),
		Venue:     optional(pubmedJournal(art)),
		Authors:   optional(pubmedAuthors(art.Article.Authors)),
		URL:       optional("https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"),
		NCTID:     extractNCT(abstract),
		FetchedAt: fetchedAt,
	}
	return rec, nil
}

// pubmedAbstract joins labeled abstract sections as "LABEL: text".
func pubmedAbstract(sections []pubmedAbstractSection) string {
	var parts []string
	for _, sec := range sections {
		text := cleanText(sec.Text)
		if text == "" {
			continue
		}
		if label := strings.TrimSpace(sec.Label); label != "" {
			text = label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// pubmedYear reads PubDate/Year, falling back to the first plausible
// year in MedlineDate ("2023 Nov-Dec").
func pubmedYear(art pubmedArticle) *int {
	if y := strings.TrimSpace(art.Article.Journal.PubDate.Year); y != "" {
		if n, err := strconv.Atoi(y); err == nil {
			return &n
		}
	}
	fields := strings.Fields(art.Article.Journal.PubDate.MedlineDate)
	for _, f := range fields {
		if len(f) == 4 {
			if n, err := strconv.Atoi(f); err == nil && n >= 1900 && n <= 2100 {
				return &n
			}
		}
	}
	return nil
}

// pubmedDOI prefers the ELocationID DOI, then the PubmedData article ID
// list.
func pubmedDOI(art pubmedArticle) *string {
	for _, e := range art.Article.ELocationIDs {
		if strings.EqualFold(e.Type, "doi") {
			if d := DOI(e.Value); d != "" {
				return &d
			}
		}
	}
	for _, id := range art.ArticleIDs {
		if strings.EqualFold(id.Type, "doi") {
			if d := DOI(id.Value); d != "" {
				return &d
			}
		}
	}
	return nil
}

func pubmedJournal(art pubmedArticle) string {
	if iso := strings.TrimSpace(art.Article.Journal.ISOAbbreviation); iso != "" {
		return iso
	}
	return strings.TrimSpace(art.Article.Journal.Title)
}

// pubmedAuthors formats up to eight authors as "Last Initials", matching
// the source ordering.
func pubmedAuthors(authors []pubmedAuthor) string {
	var names []string
	for _, a := range authors {
		if len(names) == 8 {
			break
		}
		if coll := strings.TrimSpace(a.CollectiveName); coll != "" {
			names = append(names, coll)
			continue
		}
		last := strings.TrimSpace(a.LastName)
		if last == "" {
			continue
		}
		names = append(names, strings.TrimSpace(last+" "+strings.TrimSpace(a.Initials)))
	}
	return strings.Join(names, ", ")
}
