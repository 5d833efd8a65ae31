// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/oncopulse/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent pipeline runs",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := pipelineConfig()
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.RunHistory(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-20s  %-12s  %-20s  %-8s  %-8s  %-8s  %s\n",
		"Started", "Specialty", "Subcategory", "Status", "Fetched", "Created", "Merged")
	fmt.Println(strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Printf("%-20s  %-12s  %-20s  %-8s  %-8d  %-8d  %d\n",
			r.Summary.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Summary.Specialty, r.Summary.Subcategory, r.Summary.Status,
			r.Summary.Fetched, r.Summary.Created, r.Summary.Merged)
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum runs to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
