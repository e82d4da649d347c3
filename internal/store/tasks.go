package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// ErrTaskNotFound is returned when no task exists with the requested id.
var ErrTaskNotFound = errors.New("task not found")

// ErrStaleStatus is returned by ApplyTransition when the task's status
// no longer matches the one the transition was validated against:
// another writer got there first.
var ErrStaleStatus = errors.New("task status changed concurrently")

// CreateTask inserts a new content task.
func (db *DB) CreateTask(t *models.ContentTask) error {
	phaseModels, err := marshalJSON(t.PhaseModels)
	if err != nil {
		return fmt.Errorf("marshal phase models: %w", err)
	}
	history, err := marshalJSON(t.QualityHistory)
	if err != nil {
		return fmt.Errorf("marshal quality history: %w", err)
	}
	compliance, err := marshalJSON(t.Compliance)
	if err != nil {
		return fmt.Errorf("marshal compliance: %w", err)
	}
	costs, err := marshalJSON(t.CostBreakdown)
	if err != nil {
		return fmt.Errorf("marshal cost breakdown: %w", err)
	}
	seo, err := marshalJSON(t.SEO)
	if err != nil {
		return fmt.Errorf("marshal seo: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	_, err = db.conn.Exec(`
		INSERT INTO tasks (
			id, topic, style, tone, target_word_count, tolerance_percent,
			status, phase_models, content, quality_history, compliance,
			cost_breakdown, total_cost, image_ref, seo, needs_review,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Topic, t.Style, t.Tone, t.TargetWordCount, t.TolerancePercent,
		string(t.Status), phaseModels, t.Content, history, compliance,
		costs, t.TotalCost, t.ImageRef, seo, boolToInt(t.NeedsReview),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by id. Returns ErrTaskNotFound if absent.
func (db *DB) GetTask(id string) (*models.ContentTask, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(`
		SELECT id, topic, style, tone, target_word_count, tolerance_percent,
			status, phase_models, content, quality_history, compliance,
			cost_breakdown, total_cost, image_ref, seo, needs_review,
			created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	return scanTask(row)
}

// UpdateTask writes all mutable fields of the task except status. Status
// only changes through ApplyTransition so that every change carries an
// audit row.
func (db *DB) UpdateTask(t *models.ContentTask) error {
	phaseModels, err := marshalJSON(t.PhaseModels)
	if err != nil {
		return fmt.Errorf("marshal phase models: %w", err)
	}
	history, err := marshalJSON(t.QualityHistory)
	if err != nil {
		return fmt.Errorf("marshal quality history: %w", err)
	}
	compliance, err := marshalJSON(t.Compliance)
	if err != nil {
		return fmt.Errorf("marshal compliance: %w", err)
	}
	costs, err := marshalJSON(t.CostBreakdown)
	if err != nil {
		return fmt.Errorf("marshal cost breakdown: %w", err)
	}
	seo, err := marshalJSON(t.SEO)
	if err != nil {
		return fmt.Errorf("marshal seo: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.Exec(`
		UPDATE tasks SET
			topic = ?, style = ?, tone = ?, target_word_count = ?,
			tolerance_percent = ?, phase_models = ?, content = ?,
			quality_history = ?, compliance = ?, cost_breakdown = ?,
			total_cost = ?, image_ref = ?, seo = ?, needs_review = ?,
			updated_at = ?
		WHERE id = ?
	`, t.Topic, t.Style, t.Tone, t.TargetWordCount,
		t.TolerancePercent, phaseModels, t.Content,
		history, compliance, costs,
		t.TotalCost, t.ImageRef, seo, boolToInt(t.NeedsReview),
		formatTime(time.Now()), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ApplyTransition persists a new status and its audit row in one
// transaction. The task's status and the history append either both
// commit or both roll back. The update is conditional on the task still
// holding row.OldStatus, so a transition validated against a stale
// snapshot cannot clobber a concurrent writer; such a lost race returns
// ErrStaleStatus and writes nothing.
func (db *DB) ApplyTransition(taskID string, newStatus models.TaskStatus, row models.StatusTransition) error {
	metadata, err := marshalJSON(row.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	return db.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?
		`, string(newStatus), formatTime(time.Now()), taskID, string(row.OldStatus))
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if n == 0 {
			// Distinguish a missing task from a lost race.
			var current string
			err := tx.QueryRow("SELECT status FROM tasks WHERE id = ?", taskID).Scan(&current)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTaskNotFound
			}
			if err != nil {
				return fmt.Errorf("check current status: %w", err)
			}
			return ErrStaleStatus
		}

		_, err = tx.Exec(`
			INSERT INTO status_history (task_id, old_status, new_status, succeeded, reason, metadata, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, row.TaskID, string(row.OldStatus), string(row.NewStatus),
			boolToInt(row.Succeeded), row.Reason, metadata, formatTime(row.Timestamp))
		if err != nil {
			return fmt.Errorf("append status history: %w", err)
		}
		return nil
	})
}

// ListTasks returns tasks newest first, optionally filtered by status.
// limit <= 0 returns all tasks.
func (db *DB) ListTasks(status models.TaskStatus, limit int) ([]*models.ContentTask, error) {
	query := `
		SELECT id, topic, style, tone, target_word_count, tolerance_percent,
			status, phase_models, content, quality_history, compliance,
			cost_breakdown, total_cost, image_ref, seo, needs_review,
			created_at, updated_at
		FROM tasks`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ContentTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row.
func scanTask(row rowScanner) (*models.ContentTask, error) {
	var t models.ContentTask
	var status, createdAt, updatedAt string
	var style, tone, phaseModels, content, history, compliance, costs, imageRef, seo sql.NullString
	var needsReview int

	err := row.Scan(&t.ID, &t.Topic, &style, &tone, &t.TargetWordCount,
		&t.TolerancePercent, &status, &phaseModels, &content, &history,
		&compliance, &costs, &t.TotalCost, &imageRef, &seo, &needsReview,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	t.Status = models.TaskStatus(status)
	t.Style = style.String
	t.Tone = tone.String
	t.Content = content.String
	t.ImageRef = imageRef.String
	t.NeedsReview = needsReview != 0

	if err := unmarshalJSON(phaseModels, &t.PhaseModels); err != nil {
		return nil, fmt.Errorf("unmarshal phase models: %w", err)
	}
	if err := unmarshalJSON(history, &t.QualityHistory); err != nil {
		return nil, fmt.Errorf("unmarshal quality history: %w", err)
	}
	if err := unmarshalJSON(compliance, &t.Compliance); err != nil {
		return nil, fmt.Errorf("unmarshal compliance: %w", err)
	}
	if err := unmarshalJSON(costs, &t.CostBreakdown); err != nil {
		return nil, fmt.Errorf("unmarshal cost breakdown: %w", err)
	}
	if err := unmarshalJSON(seo, &t.SEO); err != nil {
		return nil, fmt.Errorf("unmarshal seo: %w", err)
	}

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &t, nil
}

// marshalJSON serializes a value for a nullable TEXT column.
// Nil maps, slices, and pointers become SQL NULL.
func marshalJSON(v any) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	s := string(data)
	if s == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// unmarshalJSON deserializes a nullable TEXT column into dst.
func unmarshalJSON(src sql.NullString, dst any) error {
	if !src.Valid || src.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(src.String), dst)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
