package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/inkwell-press/inkwell/internal/lifecycle"
	"github.com/inkwell-press/inkwell/pkg/models"
)

var (
	reviewReason   string
	reviewReviewer string
)

var approveCmd = &cobra.Command{
	Use:   "approve <task-id>",
	Short: "Approve a task awaiting review",
	Long: `Approve a content task that is awaiting review.

Approval requires a reason and a reviewer identity; both are recorded
in the audit trail.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeStatus(args[0], models.TaskStatusApproved)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <task-id>",
	Short: "Reject a task awaiting review",
	Long: `Reject a content task that is awaiting review.

Rejection requires a reason and a reviewer identity; both are recorded
in the audit trail. A rejected task can be moved back to in_progress
for another pass.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeStatus(args[0], models.TaskStatusRejected)
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <task-id>",
	Short: "Publish an approved task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeStatus(args[0], models.TaskStatusPublished)
	},
}

var holdCmd = &cobra.Command{
	Use:   "hold <task-id>",
	Short: "Put a task on hold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeStatus(args[0], models.TaskStatusOnHold)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a task permanently",
	Long: `Cancel a content task. Cancellation is terminal: a cancelled
task cannot move to any other status.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeStatus(args[0], models.TaskStatusCancelled)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{approveCmd, rejectCmd, publishCmd, holdCmd, cancelCmd} {
		cmd.Flags().StringVar(&reviewReason, "reason", "", "Reason for the status change")
		cmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "Reviewer identity")
	}
}

// changeStatus requests one validated status transition. Invalid
// requests are reported with every violated rule; the attempt is still
// recorded in the audit trail.
func changeStatus(taskID string, target models.TaskStatus) error {
	db, _, err := openProjectStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var metadata map[string]string
	if reviewReviewer != "" {
		metadata = map[string]string{models.MetadataKeyReviewer: reviewReviewer}
	}

	svc := lifecycle.NewService(db)
	res, err := svc.ChangeStatus(taskID, target, reviewReason, metadata)
	if err != nil {
		return err
	}

	if !res.Succeeded {
		color.Red("Transition %s -> %s rejected:", res.OldStatus, res.NewStatus)
		for _, e := range res.Errors {
			fmt.Printf("  - %s\n", e)
		}
		return fmt.Errorf("invalid transition")
	}

	fmt.Printf("Task %s: %s -> %s\n", taskID, res.OldStatus, colorStatus(res.NewStatus))
	return nil
}

var (
	historyLimit    int
	historyFailures bool
)

var historyCmd = &cobra.Command{
	Use:   "history <task-id>",
	Short: "Show a task's status audit trail",
	Long: `Show the append-only status history of a task, newest first.

Every transition attempt is recorded, including rejected ones. Use
--failures to see only the rejected attempts and why they failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum rows to show (0 shows all)")
	historyCmd.Flags().BoolVar(&historyFailures, "failures", false, "Show only rejected transition attempts")
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, _, err := openProjectStore()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := lifecycle.NewService(db)
	var rows []models.StatusTransition
	if historyFailures {
		rows, err = svc.GetFailures(args[0], historyLimit)
	} else {
		rows, err = svc.GetHistory(args[0], historyLimit)
	}
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Println("No history.")
		return nil
	}

	for _, row := range rows {
		mark := color.GreenString("ok")
		if !row.Succeeded {
			mark = color.RedString("rejected")
		}
		fmt.Printf("%s  %-11s -> %-18s  %-8s  %s\n",
			row.Timestamp.Local().Format("2006-01-02 15:04:05"),
			row.OldStatus, row.NewStatus, mark, row.Reason)
		if errs := row.Metadata[models.MetadataKeyErrors]; errs != "" {
			for _, e := range strings.Split(errs, "; ") {
				fmt.Printf("    - %s\n", e)
			}
		}
		if reviewer := row.Metadata[models.MetadataKeyReviewer]; reviewer != "" {
			fmt.Printf("    reviewer: %s\n", reviewer)
		}
	}
	return nil
}
