package capture

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inkwell-press/inkwell/pkg/models"
)

func TestFileSink_AppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "training.jsonl")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		rec := Record{
			TaskID:       "task-1",
			Topic:        "AI in healthcare",
			Attempts:     i + 1,
			FinalQuality: models.QualityEvaluationResult{OverallScore: 7.5, Passing: true},
			CapturedAt:   time.Now(),
		}
		if err := sink.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open capture file: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Errorf("line %d is not valid JSON: %v", lines+1, err)
		}
		if rec.TaskID != "task-1" {
			t.Errorf("line %d TaskID = %q", lines+1, rec.TaskID)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("got %d lines, want 3", lines)
	}
}

func TestDefaultPath(t *testing.T) {
	got := DefaultPath("/repo")
	want := filepath.Join("/repo", ".inkwell", "training.jsonl")
	if got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}
}
