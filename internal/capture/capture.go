// Package capture appends finished-task records to an analytics sink for
// later training-data use. Writes are best-effort: the pipeline fires
// them and moves on, and a failed write never touches task state.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// Record is one appended analytics row.
type Record struct {
	// TaskID identifies the finished task.
	TaskID string `json:"task_id"`
	// Topic is the task's subject.
	Topic string `json:"topic"`
	// PhaseModels maps phase name to the model used.
	PhaseModels map[string]string `json:"phase_models,omitempty"`
	// FinalQuality is the last quality result of the run.
	FinalQuality models.QualityEvaluationResult `json:"final_quality"`
	// Attempts is how many generation attempts the quality loop used.
	Attempts int `json:"attempts"`
	// Passed is whether the final attempt cleared the quality gate.
	Passed bool `json:"passed"`
	// TotalCost is the estimated dollar cost of the run.
	TotalCost float64 `json:"total_cost"`
	// CapturedAt is when the record was written.
	CapturedAt time.Time `json:"captured_at"`
}

// Sink receives finished-task records. Implementations must be safe for
// concurrent use.
type Sink interface {
	Append(rec Record) error
}

// FileSink appends JSON-lines records to a file.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a FileSink writing to the given path, creating
// parent directories as needed.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create capture directory: %w", err)
	}
	return &FileSink{path: path}, nil
}

// DefaultPath returns the project-local capture file path.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".inkwell", "training.jsonl")
}

// Append writes one record as a JSON line. The file is opened per write
// so a crashed process never holds it.
func (s *FileSink) Append(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal capture record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open capture file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append capture record: %w", err)
	}
	return nil
}
