package lifecycle

import (
	"testing"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// allStatuses lists every known status for exhaustive table checks.
var allStatuses = []models.TaskStatus{
	models.TaskStatusPending,
	models.TaskStatusInProgress,
	models.TaskStatusAwaitingApproval,
	models.TaskStatusApproved,
	models.TaskStatusRejected,
	models.TaskStatusPublished,
	models.TaskStatusFailed,
	models.TaskStatusOnHold,
	models.TaskStatusCancelled,
}

// fullContext satisfies every context rule so table checks isolate the
// transition table itself.
var fullContext = TransitionContext{
	Reason:     "table check",
	Reviewer:   "reviewer-1",
	HasContent: true,
}

func TestValidate_TableCompleteness(t *testing.T) {
	// Every pair the table allows must validate with a well-formed request.
	for from, targets := range transitions {
		for _, to := range targets {
			result := Validate(from, to, fullContext)
			if !result.Valid {
				t.Errorf("Validate(%s, %s) rejected allowed transition: %v", from, to, result.Errors)
			}
		}
	}
}

func TestValidate_TableSoundness(t *testing.T) {
	// Every pair the table does not allow must be rejected.
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if allowed(from, to) {
				continue
			}
			result := Validate(from, to, fullContext)
			if result.Valid {
				t.Errorf("Validate(%s, %s) accepted a transition outside the table", from, to)
			}
			if len(result.Errors) == 0 {
				t.Errorf("Validate(%s, %s) rejected without errors", from, to)
			}
		}
	}
}

func TestValidate_CancelledIsTerminal(t *testing.T) {
	for _, to := range allStatuses {
		result := Validate(models.TaskStatusCancelled, to, fullContext)
		if result.Valid {
			t.Errorf("cancelled -> %s should be rejected", to)
		}
	}
}

func TestValidate_ContextRules(t *testing.T) {
	tests := []struct {
		name string
		old  models.TaskStatus
		new  models.TaskStatus
		tc   TransitionContext
		want bool
	}{
		{
			"approved requires reason",
			models.TaskStatusAwaitingApproval, models.TaskStatusApproved,
			TransitionContext{Reviewer: "rev-1"}, false,
		},
		{
			"approved requires reviewer",
			models.TaskStatusAwaitingApproval, models.TaskStatusApproved,
			TransitionContext{Reason: "looks good"}, false,
		},
		{
			"approved with reason and reviewer",
			models.TaskStatusAwaitingApproval, models.TaskStatusApproved,
			TransitionContext{Reason: "looks good", Reviewer: "rev-1"}, true,
		},
		{
			"rejected requires reason and reviewer",
			models.TaskStatusAwaitingApproval, models.TaskStatusRejected,
			TransitionContext{}, false,
		},
		{
			"rejected with full context",
			models.TaskStatusAwaitingApproval, models.TaskStatusRejected,
			TransitionContext{Reason: "off topic", Reviewer: "rev-2"}, true,
		},
		{
			"published requires content",
			models.TaskStatusApproved, models.TaskStatusPublished,
			TransitionContext{}, false,
		},
		{
			"published with content",
			models.TaskStatusApproved, models.TaskStatusPublished,
			TransitionContext{HasContent: true}, true,
		},
		{
			"failed needs no context",
			models.TaskStatusInProgress, models.TaskStatusFailed,
			TransitionContext{}, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.old, tt.new, tt.tc)
			if result.Valid != tt.want {
				t.Errorf("Validate(%s, %s) valid = %v, want %v (errors: %v)",
					tt.old, tt.new, result.Valid, tt.want, result.Errors)
			}
		})
	}
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	// Missing reason and missing reviewer should both be reported.
	result := Validate(models.TaskStatusAwaitingApproval, models.TaskStatusApproved, TransitionContext{})
	if result.Valid {
		t.Fatal("expected rejection")
	}
	if len(result.Errors) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(result.Errors), result.Errors)
	}
}

func TestValidate_UnknownStatuses(t *testing.T) {
	result := Validate(models.TaskStatus("archived"), models.TaskStatusPublished, fullContext)
	if result.Valid {
		t.Error("unknown current status should be rejected")
	}

	result = Validate(models.TaskStatusPending, models.TaskStatus("done"), fullContext)
	if result.Valid {
		t.Error("unknown target status should be rejected")
	}
}

func TestAllowedTargets_ReturnsCopy(t *testing.T) {
	targets := AllowedTargets(models.TaskStatusPending)
	if len(targets) != 3 {
		t.Fatalf("got %d targets for pending, want 3", len(targets))
	}
	targets[0] = models.TaskStatusPublished
	if allowed(models.TaskStatusPending, models.TaskStatusPublished) {
		t.Error("mutating the returned slice changed the table")
	}
}
