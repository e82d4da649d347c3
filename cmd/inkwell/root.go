package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Content pipeline & quality engine",
	Long: `Inkwell runs LLM-backed content tasks through a staged pipeline:
research, draft, quality-gated refinement, enrichment, and human review.

Core capabilities:
- Selects models per phase by cost and quality preference
- Refines drafts against a scored quality rubric, with a hard retry cap
- Enforces word-count and style constraints
- Tracks every status change in an append-only audit trail
- Captures finished runs as training data`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(holdCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
