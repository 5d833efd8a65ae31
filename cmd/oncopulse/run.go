// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meshintel/oncopulse/internal/pipeline"
	"github.com/meshintel/oncopulse/internal/rank"
	"github.com/meshintel/oncopulse/internal/score"
	"github.com/meshintel/oncopulse/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one aggregation pass for a specialty and subcategory",
	Long: `Run fetches recent papers and trial registrations for the chosen
specialty pack subcategory, merges records describing the same study,
enriches them with citation counts, scores and ranks them, and persists
everything to the local database. Re-running merges into the existing
state instead of duplicating items.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	specialty, _ := cmd.Flags().GetString("specialty")
	subcategory, _ := cmd.Flags().GetString("subcategory")
	mode, _ := cmd.Flags().GetString("mode")
	noEnrich, _ := cmd.Flags().GetBool("no-enrich")
	top, _ := cmd.Flags().GetInt("top")

	cfg := pipelineConfig()
	if mode != "" {
		if err := score.ApplyMode(&cfg, mode); err != nil {
			return err
		}
	}
	if noEnrich {
		cfg.Enrich.Enabled = false
	}

	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, s, s.CitationCache(), nil)
	res, err := p.Run(ctx, specialty, subcategory, os.Stdout)
	if err != nil {
		return err
	}

	printInbox(rank.Top(res.Ranked, top), inboxOptions{})
	return nil
}

func init() {
	runCmd.Flags().String("specialty", "", "specialty pack to run (e.g. breast)")
	runCmd.Flags().String("subcategory", "", "subcategory within the pack (e.g. HER2-positive)")
	runCmd.Flags().String("mode", "", "reading mode preset: all, clinician, safety-watch, trial-radar, researcher, fellow")
	runCmd.Flags().Bool("no-enrich", false, "skip citation enrichment")
	runCmd.Flags().Int("top", 20, "number of ranked items to print")
	runCmd.MarkFlagRequired("specialty")
	runCmd.MarkFlagRequired("subcategory")

	rootCmd.AddCommand(runCmd)
}
