package store

import (
	"database/sql"
	"fmt"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// AppendStatusHistory records one transition attempt without touching the
// task record. Rejected transitions use this path so that the audit trail
// still grows while the task's status stays put.
func (db *DB) AppendStatusHistory(row models.StatusTransition) error {
	metadata, err := marshalJSON(row.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	_, err = db.conn.Exec(`
		INSERT INTO status_history (task_id, old_status, new_status, succeeded, reason, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, row.TaskID, string(row.OldStatus), string(row.NewStatus),
		boolToInt(row.Succeeded), row.Reason, metadata, formatTime(row.Timestamp))
	if err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

// QueryStatusHistory returns transition rows for a task, newest first.
// When failuresOnly is set, only rejected attempts are returned.
// limit <= 0 returns all rows.
func (db *DB) QueryStatusHistory(taskID string, limit int, failuresOnly bool) ([]models.StatusTransition, error) {
	query := `
		SELECT task_id, old_status, new_status, succeeded, reason, metadata, timestamp
		FROM status_history
		WHERE task_id = ?`
	args := []any{taskID}
	if failuresOnly {
		query += " AND succeeded = 0"
	}
	query += " ORDER BY seq DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var history []models.StatusTransition
	for rows.Next() {
		var tr models.StatusTransition
		var oldStatus, newStatus, timestamp string
		var reason, metadata sql.NullString
		var succeeded int

		if err := rows.Scan(&tr.TaskID, &oldStatus, &newStatus, &succeeded,
			&reason, &metadata, &timestamp); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}

		tr.OldStatus = models.TaskStatus(oldStatus)
		tr.NewStatus = models.TaskStatus(newStatus)
		tr.Succeeded = succeeded != 0
		tr.Reason = reason.String
		if err := unmarshalJSON(metadata, &tr.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		if tr.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}

		history = append(history, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}

	return history, nil
}
