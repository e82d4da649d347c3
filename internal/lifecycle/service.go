package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-press/inkwell/internal/store"
	"github.com/inkwell-press/inkwell/pkg/models"
)

// maxStatusRetries bounds re-validation after a lost optimistic-write
// race. Each retry re-reads the task, so a competing change usually
// makes the request invalid on the next pass rather than looping.
const maxStatusRetries = 3

// ChangeResult reports the outcome of a status change request.
// Failed validation is an expected outcome here, not an error: the
// caller gets the full error list and the audit trail still grows.
type ChangeResult struct {
	// Succeeded is true when the transition was applied.
	Succeeded bool
	// OldStatus is the status the task held when the request arrived.
	OldStatus models.TaskStatus
	// NewStatus is the requested target status.
	NewStatus models.TaskStatus
	// Errors lists every validation rule the request violated.
	Errors []string
}

// Service validates and persists status transitions, keeping the audit
// trail. All status changes in the system go through here.
type Service struct {
	store store.Store
}

// NewService creates a lifecycle service backed by the given store.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// ChangeStatus validates the requested transition and, when valid,
// persists the new status together with its audit row in a single
// transaction. Invalid requests leave the task untouched but still
// append an audit row carrying the validation errors.
//
// The returned error is non-nil only for storage failures; a rejected
// transition is reported through ChangeResult.
//
// Two concurrent requests against one task cannot both succeed off the
// same status: the store's write is conditional on the status the
// request validated against, and a lost race re-reads and re-validates
// before anything is recorded.
func (s *Service) ChangeStatus(taskID string, newStatus models.TaskStatus, reason string, metadata map[string]string) (ChangeResult, error) {
	for attempt := 0; ; attempt++ {
		result, err := s.changeStatusOnce(taskID, newStatus, reason, metadata)
		if errors.Is(err, store.ErrStaleStatus) && attempt < maxStatusRetries {
			continue
		}
		return result, err
	}
}

func (s *Service) changeStatusOnce(taskID string, newStatus models.TaskStatus, reason string, metadata map[string]string) (ChangeResult, error) {
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("load task %s: %w", taskID, err)
	}

	// Entering failed without a stated reason gets a default so the
	// audit trail never carries an unexplained failure.
	if newStatus == models.TaskStatusFailed && reason == "" {
		reason = "unspecified"
	}

	tc := TransitionContext{
		Reason:     reason,
		Reviewer:   metadata[models.MetadataKeyReviewer],
		HasContent: strings.TrimSpace(task.Content) != "",
	}
	validation := Validate(task.Status, newStatus, tc)

	row := models.StatusTransition{
		TaskID:    taskID,
		OldStatus: task.Status,
		NewStatus: newStatus,
		Succeeded: validation.Valid,
		Reason:    reason,
		Metadata:  cloneMetadata(metadata),
		Timestamp: time.Now(),
	}

	result := ChangeResult{
		Succeeded: validation.Valid,
		OldStatus: task.Status,
		NewStatus: newStatus,
		Errors:    validation.Errors,
	}

	if !validation.Valid {
		if row.Metadata == nil {
			row.Metadata = make(map[string]string)
		}
		row.Metadata[models.MetadataKeyErrors] = strings.Join(validation.Errors, "; ")
		if err := s.store.AppendStatusHistory(row); err != nil {
			return result, fmt.Errorf("record rejected transition: %w", err)
		}
		return result, nil
	}

	if err := s.store.ApplyTransition(taskID, newStatus, row); err != nil {
		return ChangeResult{}, fmt.Errorf("apply transition: %w", err)
	}
	return result, nil
}

// GetHistory returns the task's transition attempts, newest first.
// limit <= 0 returns all rows.
func (s *Service) GetHistory(taskID string, limit int) ([]models.StatusTransition, error) {
	return s.store.QueryStatusHistory(taskID, limit, false)
}

// GetFailures returns only the rejected transition attempts, newest first.
func (s *Service) GetFailures(taskID string, limit int) ([]models.StatusTransition, error) {
	return s.store.QueryStatusHistory(taskID, limit, true)
}

// cloneMetadata copies the caller's metadata so later mutation by either
// side cannot corrupt the audit row.
func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
