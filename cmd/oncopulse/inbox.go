// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/oncopulse/internal/packs"
	"github.com/meshintel/oncopulse/internal/rank"
	"github.com/meshintel/oncopulse/internal/score"
	"github.com/meshintel/oncopulse/internal/store"
	"github.com/meshintel/oncopulse/internal/summarize"
	"github.com/meshintel/oncopulse/pkg/types"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Show the ranked inbox from the local database",
	Long: `Inbox re-scores the stored items for the chosen specialty and
subcategory and prints them ranked. Use --hot to order by citation
velocity instead of relevance, --explain to show the named scoring
contributions per item, --summaries for extractive digests, and
--json for machine-readable output. No network calls are made.`,
	RunE: runInbox,
}

func runInbox(cmd *cobra.Command, args []string) error {
	specialty, _ := cmd.Flags().GetString("specialty")
	subcategory, _ := cmd.Flags().GetString("subcategory")
	mode, _ := cmd.Flags().GetString("mode")
	top, _ := cmd.Flags().GetInt("top")

	cfg := pipelineConfig()
	if mode != "" {
		if err := score.ApplyMode(&cfg, mode); err != nil {
			return err
		}
	}

	rules, err := packs.Get(cfg.Packs.Dir, specialty, subcategory)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	items, err := s.LoadItems(context.Background())
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("Inbox is empty. Run \"oncopulse run\" first.")
		return nil
	}

	qc := score.QueryContext{
		Specialty:   rules.Specialty,
		Subcategory: rules.Subcategory,
		Rules:       rules,
		Now:         time.Now(),
	}
	scored := make([]types.ScoredItem, 0, len(items))
	for _, item := range items {
		scored = append(scored, score.Score(item, qc, cfg.Scoring))
	}
	rank.Rank(scored)
	if hot, _ := cmd.Flags().GetBool("hot"); hot {
		now := qc.Now
		sort.SliceStable(scored, func(i, j int) bool {
			hi := score.HotScore(scored[i].Item, now)
			hj := score.HotScore(scored[j].Item, now)
			if hi != hj {
				return hi > hj
			}
			return rank.Less(scored[i], scored[j])
		})
	}
	ranked := rank.Top(scored, top)

	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	explain, _ := cmd.Flags().GetBool("explain")
	summaries, _ := cmd.Flags().GetBool("summaries")
	printInbox(ranked, inboxOptions{Explain: explain, Summaries: summaries})
	return nil
}

type inboxOptions struct {
	Explain   bool
	Summaries bool
}

// printInbox renders ranked items as a table, with optional per-item
// score breakdowns and digests.
func printInbox(ranked []types.ScoredItem, opts inboxOptions) {
	if len(ranked) == 0 {
		fmt.Println("No items to show.")
		return
	}

	fmt.Printf("%-4s  %-6s  %-60s  %-4s  %-6s  %s\n",
		"Rank", "Score", "Title", "Year", "Cites", "Source")
	fmt.Println(strings.Repeat("-", 100))

	for i, r := range ranked {
		title := r.Item.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		year := ""
		if r.Item.Year != nil {
			year = fmt.Sprintf("%d", *r.Item.Year)
		}
		cites := ""
		if r.Item.CitedByCount != nil {
			cites = fmt.Sprintf("%d", *r.Item.CitedByCount)
			if r.Item.CitationStale {
				cites += "*"
			}
		}
		fmt.Printf("%-4d  %-6.1f  %-60s  %-4s  %-6s  %s\n",
			i+1, r.Score, title, year, cites, itemSources(r.Item))

		if opts.Explain {
			for _, line := range score.ExplainLines(r) {
				fmt.Printf("      %s\n", line)
			}
		}
		if opts.Summaries {
			for _, line := range strings.Split(summarize.Summarize(r.Item), "\n") {
				fmt.Printf("      %s\n", line)
			}
		}
	}

	fmt.Printf("\n%d items\n", len(ranked))
}

func itemSources(item *types.CanonicalItem) string {
	var out []string
	seen := map[types.Source]bool{}
	for _, rec := range item.SourceRecords {
		if seen[rec.Source] {
			continue
		}
		seen[rec.Source] = true
		out = append(out, string(rec.Source))
	}
	return strings.Join(out, ",")
}

func init() {
	inboxCmd.Flags().String("specialty", "", "specialty pack (e.g. breast)")
	inboxCmd.Flags().String("subcategory", "", "subcategory within the pack")
	inboxCmd.Flags().String("mode", "", "reading mode preset: all, clinician, safety-watch, trial-radar, researcher, fellow")
	inboxCmd.Flags().Int("top", 20, "number of ranked items to show")
	inboxCmd.Flags().Bool("hot", false, "order by citation velocity instead of relevance")
	inboxCmd.Flags().Bool("explain", false, "show the named scoring contributions per item")
	inboxCmd.Flags().Bool("summaries", false, "show extractive digests per item")
	inboxCmd.Flags().Bool("json", false, "output as JSON")
	inboxCmd.MarkFlagRequired("specialty")
	inboxCmd.MarkFlagRequired("subcategory")

	rootCmd.AddCommand(inboxCmd)
}
