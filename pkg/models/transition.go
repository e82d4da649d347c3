package models

import "time"

// StatusTransition is one audit row recording a status change attempt,
// successful or rejected. Rows are append-only; they are never updated
// or deleted.
type StatusTransition struct {
	// TaskID is the task whose status was (or was not) changed.
	TaskID string `json:"task_id"`
	// OldStatus is the status before the attempt.
	OldStatus TaskStatus `json:"old_status"`
	// NewStatus is the requested target status.
	NewStatus TaskStatus `json:"new_status"`
	// Succeeded is true when the transition was applied.
	Succeeded bool `json:"succeeded"`
	// Reason describes why the transition was requested.
	Reason string `json:"reason,omitempty"`
	// Metadata holds free-form context, e.g. validation errors under
	// "errors" or the reviewer id under "reviewer".
	Metadata map[string]string `json:"metadata,omitempty"`
	// Timestamp is when the attempt was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// MetadataKeyErrors is the metadata key under which rejected transitions
// record their validation errors, joined by "; ".
const MetadataKeyErrors = "errors"

// MetadataKeyReviewer is the metadata key carrying the reviewer identifier
// for approve/reject transitions.
const MetadataKeyReviewer = "reviewer"
