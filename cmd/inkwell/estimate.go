package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-press/inkwell/internal/modelsel"
	"github.com/inkwell-press/inkwell/pkg/models"
)

var (
	estimateWords      int
	estimatePreference string
	estimateModels     []string
	estimateAll        bool
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate pipeline cost before creating a task",
	Long: `Estimate the dollar cost of running the pipeline for a target
word count, without creating a task or calling any model.

Examples:
  inkwell estimate --words 1500 --preference premium
  inkwell estimate --words 1500 --model draft=claude-opus-4-1
  inkwell estimate --words 1500 --all`,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().IntVar(&estimateWords, "words", 1200, "Target word count")
	estimateCmd.Flags().StringVar(&estimatePreference, "preference", "balanced", "Model preference: cheap, balanced, or premium")
	estimateCmd.Flags().StringArrayVar(&estimateModels, "model", nil, "Per-phase model override as phase=model (repeatable)")
	estimateCmd.Flags().BoolVar(&estimateAll, "all", false, "Compare all three preferences")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	selector := modelsel.NewSelector()

	if estimateAll {
		for _, pref := range []models.QualityPreference{
			models.PreferenceCheap, models.PreferenceBalanced, models.PreferencePremium,
		} {
			breakdown, err := selector.EstimateForPreference(pref, estimateWords)
			if err != nil {
				return err
			}
			fmt.Printf("%-10s $%.4f\n", pref, breakdown.Total)
		}
		return nil
	}

	overrides, err := parseModelFlags(estimateModels)
	if err != nil {
		return err
	}

	pref := models.QualityPreference(estimatePreference)
	if !pref.Valid() {
		return fmt.Errorf("unknown preference %q", estimatePreference)
	}

	// Resolve the full phase plan, then price it.
	phaseModels := make(map[models.Phase]string, len(models.Phases))
	for _, phase := range models.Phases {
		sel, err := selector.Select(phase, pref, overrides, estimateWords)
		if err != nil {
			return err
		}
		phaseModels[phase] = sel.Model
	}

	breakdown, err := selector.EstimateTaskCost(phaseModels, estimateWords)
	if err != nil {
		return err
	}

	fmt.Printf("Estimated cost for %d words (%s):\n", estimateWords, pref)
	for _, phase := range models.Phases {
		fmt.Printf("  %-8s %-18s $%.4f\n", phase, phaseModels[phase], breakdown.Phases[string(phase)])
	}
	fmt.Printf("  %-27s $%.4f\n", "total", breakdown.Total)
	return nil
}
