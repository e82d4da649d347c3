package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/inkwell-press/inkwell/internal/config"
	"github.com/inkwell-press/inkwell/pkg/models"
)

var (
	runStyle      string
	runTone       string
	runWords      int
	runTolerance  float64
	runPreference string
	runModels     []string
	runTaskID     string
)

var runCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Run a content task through the pipeline",
	Long: `Run the full content pipeline: research, draft, quality-gated
refinement, enrichment, and handoff to review.

With a topic argument, a new task is created and run immediately.
With --task, an existing pending task is run instead.

The draft is refined until it clears the quality gate or the retry cap
is reached. Either way the task ends up awaiting approval; a draft that
never passed is flagged for manual review.

Examples:
  inkwell run "AI in healthcare" --words 1500 --preference premium
  inkwell run --task 6b9f2c31-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	addSpecFlags(runCmd, &runStyle, &runTone, &runWords, &runTolerance, &runPreference, &runModels)
	runCmd.Flags().StringVar(&runTaskID, "task", "", "Run an existing pending task by id")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runTaskID == "" && len(args) == 0 {
		return fmt.Errorf("provide a topic or --task <id>")
	}
	if runTaskID != "" && len(args) > 0 {
		return fmt.Errorf("topic and --task are mutually exclusive")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, projectRoot, err := openProjectStore()
	if err != nil {
		return err
	}
	defer db.Close()

	o, err := buildOrchestrator(cfg, db, projectRoot)
	if err != nil {
		return err
	}

	taskID := runTaskID
	if taskID == "" {
		spec, err := buildTaskSpec(cfg, args[0], runStyle, runTone, runWords, runTolerance, runPreference, runModels)
		if err != nil {
			return err
		}
		task, err := o.CreateTask(spec)
		if err != nil {
			return err
		}
		taskID = task.ID
		fmt.Printf("Created task %s (estimated $%.4f)\n", task.ID, task.TotalCost)
	}

	// Ctrl-C stops the pipeline between stages; partial output is kept.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Running pipeline...")
	task, err := o.Run(ctx, taskID)
	if err != nil {
		return err
	}
	o.WaitForCapture()

	printRunSummary(task)
	return nil
}

func printRunSummary(task *models.ContentTask) {
	fmt.Printf("\nTask %s: %s\n", task.ID, colorStatus(task.Status))

	if n := len(task.QualityHistory); n > 0 {
		final := task.QualityHistory[n-1]
		fmt.Printf("  Attempts: %d\n", n)
		fmt.Printf("  Final score: %.1f (passing: %t)\n", final.OverallScore, final.Passing)
	}
	if task.NeedsReview {
		color.Yellow("  Draft did not clear the quality gate; manual review needed.")
	}
	if task.Compliance != nil && !task.Compliance.WithinTolerance {
		color.Yellow("  Word count outside tolerance: %d actual vs %d target.",
			task.Compliance.WordCountActual, task.Compliance.WordCountTarget)
	}
	if task.SEO != nil {
		fmt.Printf("  SEO description: %s\n", task.SEO.Description)
	}
	if task.ImageRef != "" {
		fmt.Printf("  Image: %s\n", task.ImageRef)
	}
	if task.Status == models.TaskStatusAwaitingApproval {
		fmt.Printf("\nReview with 'inkwell status %s', then approve or reject.\n", task.ID)
	}
}

// colorStatus renders a task status with a terminal color.
func colorStatus(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusPublished, models.TaskStatusApproved:
		return color.GreenString(string(s))
	case models.TaskStatusFailed, models.TaskStatusRejected:
		return color.RedString(string(s))
	case models.TaskStatusAwaitingApproval, models.TaskStatusOnHold:
		return color.YellowString(string(s))
	case models.TaskStatusCancelled:
		return color.HiBlackString(string(s))
	default:
		return string(s)
	}
}
