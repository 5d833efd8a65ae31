// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meshintel/oncopulse/internal/packs"
)

var specialtiesCmd = &cobra.Command{
	Use:   "specialties",
	Short: "List available specialty packs and their subcategories",
	RunE:  runSpecialties,
}

func runSpecialties(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	names, err := packs.ListSpecialties(cfg.Packs.Dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("No specialty packs found in %s/.\n", cfg.Packs.Dir)
		return nil
	}

	for _, name := range names {
		subs, err := packs.ListSubcategories(cfg.Packs.Dir, name)
		if err != nil {
			return err
		}
		fmt.Println(name)
		for _, sub := range subs {
			fmt.Printf("  %s\n", sub)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(specialtiesCmd)
}
