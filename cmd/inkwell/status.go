package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-press/inkwell/internal/store"
	"github.com/inkwell-press/inkwell/pkg/models"
)

var (
	statusFilter string
	statusLimit  int
)

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show task state",
	Long: `Display the state of a content task.

With a task id, shows the full task: status, model plan, quality
history, constraint compliance, and enrichment.
Without arguments, lists recent tasks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFilter, "filter", "", "Only list tasks with this status")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "Maximum tasks to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if _, err := os.Stat(store.ProjectDBPath(cwd)); os.IsNotExist(err) {
		fmt.Println("No tasks yet. Run 'inkwell run <topic>' to start.")
		return nil
	}

	db, _, err := openProjectStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		task, err := db.GetTask(args[0])
		if err != nil {
			return err
		}
		displayTask(task)
		return nil
	}

	filter := models.TaskStatus(statusFilter)
	if statusFilter != "" && !filter.Valid() {
		return fmt.Errorf("unknown status %q", statusFilter)
	}
	tasks, err := db.ListTasks(filter, statusLimit)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	for _, t := range tasks {
		fmt.Printf("%s  %-18s  %s\n", t.ID, colorStatus(t.Status), t.Topic)
	}
	return nil
}

func displayTask(t *models.ContentTask) {
	fmt.Printf("Task %s\n", t.ID)
	fmt.Printf("  Topic: %s\n", t.Topic)
	if t.Style != "" {
		fmt.Printf("  Style: %s\n", t.Style)
	}
	if t.Tone != "" {
		fmt.Printf("  Tone: %s\n", t.Tone)
	}
	fmt.Printf("  Status: %s\n", colorStatus(t.Status))
	fmt.Printf("  Created: %s\n", t.CreatedAt.Local().Format(time.RFC822))
	fmt.Printf("  Updated: %s\n", t.UpdatedAt.Local().Format(time.RFC822))
	if t.TargetWordCount > 0 {
		fmt.Printf("  Target: %d words (±%.0f%%)\n", t.TargetWordCount, t.TolerancePercent)
	}

	if len(t.PhaseModels) > 0 {
		fmt.Println("  Models:")
		for _, phase := range models.Phases {
			if m, ok := t.PhaseModels[string(phase)]; ok {
				fmt.Printf("    %-8s %s ($%.4f)\n", phase, m, t.CostBreakdown[string(phase)])
			}
		}
		fmt.Printf("  Estimated cost: $%.4f\n", t.TotalCost)
	}

	if len(t.QualityHistory) > 0 {
		fmt.Println("  Quality history:")
		for _, eval := range t.QualityHistory {
			fmt.Printf("    attempt %d: %.1f (passing: %t)\n", eval.Attempt, eval.OverallScore, eval.Passing)
		}
	}
	if t.NeedsReview {
		fmt.Println("  Needs manual review: quality gate not cleared")
	}

	if t.Compliance != nil {
		c := t.Compliance
		fmt.Printf("  Word count: %d actual / %d target (within tolerance: %t)\n",
			c.WordCountActual, c.WordCountTarget, c.WithinTolerance)
		if c.ViolationMessage != "" {
			fmt.Printf("  Violation: %s\n", c.ViolationMessage)
		}
	}

	if t.SEO != nil {
		fmt.Printf("  SEO description: %s\n", t.SEO.Description)
		if len(t.SEO.Keywords) > 0 {
			fmt.Printf("  Keywords: %v\n", t.SEO.Keywords)
		}
	}
	if t.ImageRef != "" {
		fmt.Printf("  Image: %s\n", t.ImageRef)
	}
}
