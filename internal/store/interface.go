package store

import (
	"io"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// TaskStore handles content-task persistence operations.
type TaskStore interface {
	CreateTask(t *models.ContentTask) error
	GetTask(id string) (*models.ContentTask, error)
	UpdateTask(t *models.ContentTask) error
	// ApplyTransition persists a new status on the task and appends the
	// audit row in one transaction; both succeed or neither does. The
	// write applies only while the task still holds row.OldStatus;
	// otherwise ErrStaleStatus is returned and nothing is recorded.
	ApplyTransition(taskID string, newStatus models.TaskStatus, row models.StatusTransition) error
}

// HistoryStore handles the append-only status audit trail.
type HistoryStore interface {
	// AppendStatusHistory records one transition attempt without touching
	// the task record. Used for rejected transitions.
	AppendStatusHistory(row models.StatusTransition) error
	// QueryStatusHistory returns transition rows for a task, newest first,
	// optionally restricted to rejected attempts. limit <= 0 means all.
	QueryStatusHistory(taskID string, limit int, failuresOnly bool) ([]models.StatusTransition, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for task persistence.
// This lets the orchestrator and lifecycle service work with any backend
// without depending on the concrete SQLite implementation.
type Store interface {
	io.Closer
	Migrator
	TaskStore
	HistoryStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store        = (*DB)(nil)
	_ Migrator     = (*DB)(nil)
	_ TaskStore    = (*DB)(nil)
	_ HistoryStore = (*DB)(nil)
)
