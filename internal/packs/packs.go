// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package packs loads specialty pack files: per-specialty YAML
// documents holding subcategory queries and the term lists the scorer
// consults. One file per specialty, named after its lowercased
// specialty.
package packs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Subcategory is one clinical focus within a specialty.
type Subcategory struct {
	Name         string   `yaml:"name"`
	PubMedQuery  string   `yaml:"pubmed_query"`
	TrialsQuery  string   `yaml:"trials_query"`
	IncludeTerms []string `yaml:"include_terms"`
	ExcludeTerms []string `yaml:"exclude_terms"`
}

// Pack is one specialty pack file.
type Pack struct {
	Specialty          string        `yaml:"specialty"`
	MajorJournals      []string      `yaml:"major_journals"`
	GlobalBoostTerms   []string      `yaml:"global_boost_terms"`
	GlobalPenaltyTerms []string      `yaml:"global_penalty_terms"`
	Subcategories      []Subcategory `yaml:"subcategories"`
}

// Rules is the flattened view for one specialty+subcategory pair, what
// the scorer and fetchers actually consume.
type Rules struct {
	Specialty          string
	Subcategory        string
	PubMedQuery        string
	TrialsQuery        string
	IncludeTerms       []string
	ExcludeTerms       []string
	MajorJournals      []string
	GlobalBoostTerms   []string
	GlobalPenaltyTerms []string
}

func packPath(dir, specialty string) string {
	return filepath.Join(dir, strings.ToLower(strings.TrimSpace(specialty))+".yaml")
}

// LoadFile reads one pack file.
func LoadFile(path string) (Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, fmt.Errorf("reading pack %s: %w", path, err)
	}
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return Pack{}, fmt.Errorf("parsing pack %s: %w", path, err)
	}
	return pack, nil
}

// ListSpecialties returns the specialty names available in dir, sorted.
// A missing directory is an empty catalogue, not an error.
func ListSpecialties(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading packs directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// ListSubcategories returns the subcategory names of one specialty.
func ListSubcategories(dir, specialty string) ([]string, error) {
	pack, err := LoadFile(packPath(dir, specialty))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, s := range pack.Subcategories {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

// Get resolves the rules for a specialty+subcategory pair. Subcategory
// matching is case-insensitive.
func Get(dir, specialty, subcategory string) (Rules, error) {
	pack, err := LoadFile(packPath(dir, specialty))
	if err != nil {
		return Rules{}, err
	}

	for _, sub := range pack.Subcategories {
		if !strings.EqualFold(sub.Name, subcategory) {
			continue
		}
		name := pack.Specialty
		if name == "" {
			name = specialty
		}
		return Rules{
			Specialty:          name,
			Subcategory:        sub.Name,
			PubMedQuery:        sub.PubMedQuery,
			TrialsQuery:        sub.TrialsQuery,
			IncludeTerms:       sub.IncludeTerms,
			ExcludeTerms:       sub.ExcludeTerms,
			MajorJournals:      pack.MajorJournals,
			GlobalBoostTerms:   pack.GlobalBoostTerms,
			GlobalPenaltyTerms: pack.GlobalPenaltyTerms,
		}, nil
	}
	return Rules{}, fmt.Errorf("no subcategory %q in specialty %q", subcategory, specialty)
}
