// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/meshintel/oncopulse/pkg/types"
)

func TestDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare doi", "10.1056/NEJMoa2034577", "10.1056/nejmoa2034577"},
		{"https resolver", "https://doi.org/10.1056/NEJMoa2034577", "10.1056/nejmoa2034577"},
		{"dx resolver", "http://dx.doi.org/10.1/X", "10.1/x"},
		{"doi scheme", "doi:10.1/x", "10.1/x"},
		{"whitespace", "  10.1/x \n", "10.1/x"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DOI(tt.input)
			if got != tt.want {
				t.Errorf("DOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
			// Idempotence: normalizing a normalized DOI is a no-op.
			if again := DOI(got); again != got {
				t.Errorf("DOI(DOI(%q)) = %q, want %q", tt.input, again, got)
			}
		})
	}
}

func TestTitleNormalization(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"case and punctuation", "Trial of Drug-A: Phase III!", "trial of drug a phase iii"},
		{"whitespace collapse", "  Trial \t of\nDrug A ", "trial of drug a"},
		{"ascii folding", "Naïve Café Trial", "naive cafe trial"},
		{"non-latin stripped", "试验 Trial A", "trial a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.input); got != tt.want {
				t.Errorf("Title(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	y2023 := 2023

	same := Fingerprint("Trial of Drug A", &y2023)
	if got := Fingerprint("trial of drug a!", &y2023); got != same {
		t.Errorf("punctuation variant fingerprint = %q, want %q", got, same)
	}

	if got := Fingerprint("Trial of Drug A", nil); got == same {
		t.Error("unknown-year fingerprint should differ from dated fingerprint")
	}

	// Two undated copies share the unknown bucket.
	if Fingerprint("Trial of Drug A", nil) != Fingerprint("Trial of Drug A", nil) {
		t.Error("unknown-year fingerprints should be equal")
	}
}

const pubmedFixture = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>12345</PMID>
      <Article>
        <Journal>
          <ISOAbbreviation>N Engl J Med</ISOAbbreviation>
          <Title>The New England Journal of Medicine</Title>
          <JournalIssue><PubDate><Year>2023</Year></PubDate></JournalIssue>
        </Journal>
        <ArticleTitle>Trial of Drug A</ArticleTitle>
        <ELocationID EIdType="doi">10.1/X</ELocationID>
        <Abstract>
          <AbstractText Label="BACKGROUND">Registered as NCT00000001.</AbstractText>
          <AbstractText Label="RESULTS">Overall survival improved.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Smith</LastName><Initials>J</Initials></Author>
          <Author><CollectiveName>The Drug A Investigators</CollectiveName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
    <PubmedData><ArticleIdList><ArticleId IdType="pubmed">12345</ArticleId></ArticleIdList></PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>67890</PMID>
      <Article>
        <Journal><JournalIssue><PubDate><MedlineDate>2022 Nov-Dec</MedlineDate></PubDate></JournalIssue></Journal>
        <ArticleTitle>Second Article</ArticleTitle>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestNormalizePubMed(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	payloads, err := SplitPubMedSet([]byte(pubmedFixture))
	if err != nil {
		t.Fatalf("SplitPubMedSet: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("got %d payloads, want 2", len(payloads))
	}

	rec, err := Normalize(payloads[0], types.SourcePubMed, now)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.SourceID != "12345" {
		t.Errorf("SourceID = %q, want 12345", rec.SourceID)
	}
	if rec.Title != "Trial of Drug A" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.DOI == nil || *rec.DOI != "10.1/x" {
		t.Errorf("DOI = %v, want 10.1/x", rec.DOI)
	}
	if rec.Year == nil || *rec.Year != 2023 {
		t.Errorf("Year = %v, want 2023", rec.Year)
	}
	if rec.NCTID == nil || *rec.NCTID != "NCT00000001" {
		t.Errorf("NCTID = %v, want NCT00000001", rec.NCTID)
	}
	if rec.Abstract == nil || *rec.Abstract != "BACKGROUND: Registered as NCT00000001. RESULTS: Overall survival improved." {
		t.Errorf("Abstract = %v", rec.Abstract)
	}
	if rec.Venue == nil || *rec.Venue != "N Engl J Med" {
		t.Errorf("Venue = %v", rec.Venue)
	}
	if rec.Authors == nil || *rec.Authors != "Smith J, The Drug A Investigators" {
		t.Errorf("Authors = %v", rec.Authors)
	}

	// Second record: MedlineDate year fallback, no abstract at all.
	rec2, err := Normalize(payloads[1], types.SourcePubMed, now)
	if err != nil {
		t.Fatalf("Normalize second article: %v", err)
	}
	if rec2.Year == nil || *rec2.Year != 2022 {
		t.Errorf("Year = %v, want 2022", rec2.Year)
	}
	if rec2.Abstract != nil {
		t.Errorf("Abstract = %q, want absent", *rec2.Abstract)
	}
	if rec2.DOI != nil {
		t.Errorf("DOI = %q, want absent", *rec2.DOI)
	}
}

func TestNormalizePubMedMalformed(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name    string
		payload string
	}{
		{"missing PMID", `<PubmedArticle><MedlineCitation><Article><ArticleTitle>T</ArticleTitle></Article></MedlineCitation></PubmedArticle>`},
		{"missing title", `<PubmedArticle><MedlineCitation><PMID>1</PMID><Article></Article></MedlineCitation></PubmedArticle>`},
		{"not XML", `{"studies":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.payload), types.SourcePubMed, now)
			var malformed *MalformedPayloadError
			if !errors.As(err, &malformed) {
				t.Fatalf("err = %v, want MalformedPayloadError", err)
			}
		})
	}
}

const ctgovFixture = `{
  "studies": [
    {
      "protocolSection": {
        "identificationModule": {"nctId": "NCT0001", "briefTitle": "Trial of Drug A"},
        "statusModule": {"overallStatus": "RECRUITING", "lastUpdatePostDateStruct": {"date": "2023-06-01"}},
        "descriptionModule": {"briefSummary": "A study of Drug A."},
        "designModule": {"phases": ["PHASE2", "PHASE3"]}
      }
    },
    {
      "protocolSection": {
        "identificationModule": {"briefTitle": "No registry number"}
      }
    }
  ]
}`

func TestNormalizeCTGov(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	payloads, err := SplitStudies([]byte(ctgovFixture))
	if err != nil {
		t.Fatalf("SplitStudies: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("got %d payloads, want 2", len(payloads))
	}

	rec, err := Normalize(payloads[0], types.SourceCTGov, now)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.SourceID != "NCT0001" {
		t.Errorf("SourceID = %q", rec.SourceID)
	}
	if rec.NCTID == nil || *rec.NCTID != "NCT0001" {
		t.Errorf("NCTID = %v", rec.NCTID)
	}
	if rec.DOI != nil {
		t.Errorf("DOI = %v, want absent", rec.DOI)
	}
	if rec.Year == nil || *rec.Year != 2023 {
		t.Errorf("Year = %v, want 2023", rec.Year)
	}
	if rec.TrialPhase == nil || *rec.TrialPhase != types.Phase3 {
		t.Errorf("TrialPhase = %v, want PHASE3", rec.TrialPhase)
	}
	if rec.TrialStatus == nil || *rec.TrialStatus != "RECRUITING" {
		t.Errorf("TrialStatus = %v", rec.TrialStatus)
	}

	// Missing nctId is a structural failure.
	_, err = Normalize(payloads[1], types.SourceCTGov, now)
	var malformed *MalformedPayloadError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedPayloadError", err)
	}
	if malformed.Field != "source_id" {
		t.Errorf("Field = %q, want source_id", malformed.Field)
	}
}

func TestNormalizeAgnostic(t *testing.T) {
	now := time.Now().UTC()

	payload := `{"source_id": "feed-1", "title": "Feed Item", "doi": "https://doi.org/10.1/F", "abstract": ""}`
	rec, err := Normalize([]byte(payload), types.SourceAgnostic, now)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.DOI == nil || *rec.DOI != "10.1/f" {
		t.Errorf("DOI = %v, want 10.1/f", rec.DOI)
	}
	// An explicitly empty abstract string stays distinguishable from a
	// missing one.
	if rec.Abstract == nil || *rec.Abstract != "" {
		t.Errorf("Abstract = %v, want present empty string", rec.Abstract)
	}

	_, err = Normalize([]byte(`{"title": "no id"}`), types.SourceAgnostic, now)
	var malformed *MalformedPayloadError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedPayloadError", err)
	}
}
