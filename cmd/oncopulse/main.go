// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the oncopulse CLI, a research
// aggregation inbox for oncology clinicians. Subcommands run the
// aggregation pipeline, render the ranked inbox, and inspect packs and
// run history.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/oncopulse/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the oncopulse CLI.
var rootCmd = &cobra.Command{
	Use:   "oncopulse",
	Short: "Oncology research aggregation inbox",
	Long: `oncopulse aggregates recent oncology evidence into a ranked clinician
inbox. It pulls papers from PubMed and trial registrations from
ClinicalTrials.gov, merges records that describe the same study,
enriches them with citation counts, and ranks them with transparent,
rule-based scoring.

Run "oncopulse run" to execute an aggregation pass for a specialty and
subcategory, then "oncopulse inbox" to view the ranked results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./oncopulse.yaml or ~/.config/oncopulse/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("oncopulse")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "oncopulse"))
		}
	}

	viper.SetEnvPrefix("ONCOPULSE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
