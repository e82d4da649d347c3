// Package lifecycle enforces the content-task status state machine.
// Every status change in the system is routed through this package so
// that the transition table and its context rules hold everywhere.
package lifecycle

import (
	"fmt"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// transitions maps each status to its allowed targets. Cancelled has no
// entry: it is terminal.
var transitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusPending: {
		models.TaskStatusInProgress, models.TaskStatusFailed, models.TaskStatusCancelled,
	},
	models.TaskStatusInProgress: {
		models.TaskStatusAwaitingApproval, models.TaskStatusFailed,
		models.TaskStatusOnHold, models.TaskStatusCancelled,
	},
	models.TaskStatusAwaitingApproval: {
		models.TaskStatusApproved, models.TaskStatusRejected,
		models.TaskStatusInProgress, models.TaskStatusCancelled,
	},
	models.TaskStatusApproved: {
		models.TaskStatusPublished, models.TaskStatusOnHold, models.TaskStatusCancelled,
	},
	models.TaskStatusPublished: {
		models.TaskStatusOnHold,
	},
	models.TaskStatusFailed: {
		models.TaskStatusPending, models.TaskStatusCancelled,
	},
	models.TaskStatusOnHold: {
		models.TaskStatusInProgress, models.TaskStatusCancelled,
	},
	models.TaskStatusRejected: {
		models.TaskStatusInProgress, models.TaskStatusCancelled,
	},
}

// TransitionContext carries the request context the validator checks in
// addition to the transition table.
type TransitionContext struct {
	// Reason describes why the transition was requested. Required when
	// entering approved or rejected.
	Reason string
	// Reviewer identifies who made the approve/reject decision. Required
	// when entering approved or rejected.
	Reviewer string
	// HasContent is true when the task currently holds non-empty content.
	// Required when entering published.
	HasContent bool
}

// ValidationResult reports the outcome of validating one transition
// request. All rule violations are accumulated, not just the first.
type ValidationResult struct {
	// Valid is true when the transition may proceed.
	Valid bool
	// Errors lists every rule the request violated.
	Errors []string
}

// Validate checks a requested status transition against the transition
// table and the context-aware rules. Pure; it never touches storage.
func Validate(old, new models.TaskStatus, tc TransitionContext) ValidationResult {
	var errs []string

	if !old.Valid() {
		errs = append(errs, fmt.Sprintf("unknown current status %q", old))
	}
	if !new.Valid() {
		errs = append(errs, fmt.Sprintf("unknown target status %q", new))
	}

	if old.Valid() && new.Valid() && !allowed(old, new) {
		errs = append(errs, fmt.Sprintf("invalid transition: %s -> %s", old, new))
	}

	switch new {
	case models.TaskStatusApproved, models.TaskStatusRejected:
		if tc.Reason == "" {
			errs = append(errs, fmt.Sprintf("entering %s requires a reason", new))
		}
		if tc.Reviewer == "" {
			errs = append(errs, fmt.Sprintf("entering %s requires a reviewer", new))
		}
	case models.TaskStatusPublished:
		if !tc.HasContent {
			errs = append(errs, "entering published requires non-empty content")
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// allowed reports whether the transition table permits old -> new.
func allowed(old, new models.TaskStatus) bool {
	for _, target := range transitions[old] {
		if target == new {
			return true
		}
	}
	return false
}

// AllowedTargets returns the statuses reachable from the given status.
// The returned slice is a copy; callers may mutate it freely.
func AllowedTargets(from models.TaskStatus) []models.TaskStatus {
	return append([]models.TaskStatus{}, transitions[from]...)
}
