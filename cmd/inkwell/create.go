package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-press/inkwell/internal/config"
	"github.com/inkwell-press/inkwell/internal/orchestrator"
	"github.com/inkwell-press/inkwell/pkg/models"
)

var (
	createStyle      string
	createTone       string
	createWords      int
	createTolerance  float64
	createPreference string
	createModels     []string
)

var createCmd = &cobra.Command{
	Use:   "create <topic>",
	Short: "Create a content task without running it",
	Long: `Create a content task in pending state.

The task records the topic, constraints, and the model plan for each
pipeline phase. Run it later with 'inkwell run --task <id>'.

Model overrides use phase=model pairs:
  inkwell create "AI in healthcare" --model draft=claude-opus-4-1 --model assess=gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	addSpecFlags(createCmd, &createStyle, &createTone, &createWords, &createTolerance, &createPreference, &createModels)
}

// addSpecFlags registers the shared task-spec flags on a command.
func addSpecFlags(cmd *cobra.Command, style, tone *string, words *int, tolerance *float64, preference *string, modelFlags *[]string) {
	cmd.Flags().StringVar(style, "style", "", "Writing style (technical, conversational, formal, persuasive)")
	cmd.Flags().StringVar(tone, "tone", "", "Tone of voice")
	cmd.Flags().IntVar(words, "words", 0, "Target word count (0 uses the configured default)")
	cmd.Flags().Float64Var(tolerance, "tolerance", 0, "Word count tolerance percent (0 uses the configured default)")
	cmd.Flags().StringVar(preference, "preference", "", "Model preference: cheap, balanced, or premium")
	cmd.Flags().StringArrayVar(modelFlags, "model", nil, "Per-phase model override as phase=model (repeatable)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, _, err := openProjectStore()
	if err != nil {
		return err
	}
	defer db.Close()

	// Creation never calls a model, so no providers are needed here.
	o, err := buildOfflineOrchestrator(cfg, db)
	if err != nil {
		return err
	}

	spec, err := buildTaskSpec(cfg, args[0], createStyle, createTone, createWords, createTolerance, createPreference, createModels)
	if err != nil {
		return err
	}

	task, err := o.CreateTask(spec)
	if err != nil {
		return err
	}

	fmt.Printf("Created task %s\n", task.ID)
	fmt.Printf("  Topic: %s\n", task.Topic)
	fmt.Printf("  Estimated cost: $%.4f\n", task.TotalCost)
	for _, phase := range models.Phases {
		fmt.Printf("    %-8s %s ($%.4f)\n", phase, task.PhaseModels[string(phase)], task.CostBreakdown[string(phase)])
	}
	return nil
}

// buildTaskSpec merges flags over configured defaults.
func buildTaskSpec(cfg *config.Config, topic, style, tone string, words int, tolerance float64, preference string, modelFlags []string) (orchestrator.TaskSpec, error) {
	if style == "" {
		style = cfg.Defaults.Style
	}
	if tone == "" {
		tone = cfg.Defaults.Tone
	}
	if words == 0 {
		words = cfg.Defaults.TargetWordCount
	}
	if tolerance == 0 {
		tolerance = cfg.Defaults.TolerancePercent
	}
	if preference == "" {
		preference = cfg.Defaults.Preference
	}

	overrides, err := parseModelFlags(modelFlags)
	if err != nil {
		return orchestrator.TaskSpec{}, err
	}

	return orchestrator.TaskSpec{
		Topic:            topic,
		Style:            style,
		Tone:             tone,
		TargetWordCount:  words,
		TolerancePercent: tolerance,
		Preference:       models.QualityPreference(preference),
		PhaseModels:      overrides,
	}, nil
}

// parseModelFlags turns repeated phase=model pairs into an override map.
func parseModelFlags(flags []string) (map[models.Phase]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	overrides := make(map[models.Phase]string, len(flags))
	for _, f := range flags {
		phase, model, ok := strings.Cut(f, "=")
		if !ok || phase == "" || model == "" {
			return nil, fmt.Errorf("invalid --model value %q: want phase=model", f)
		}
		overrides[models.Phase(phase)] = model
	}
	return overrides, nil
}
