package models

import "time"

// TaskStatus represents the current state of a content task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been created but not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the generation pipeline is running.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusAwaitingApproval indicates the draft is ready for human review.
	TaskStatusAwaitingApproval TaskStatus = "awaiting_approval"
	// TaskStatusApproved indicates a reviewer accepted the draft.
	TaskStatusApproved TaskStatus = "approved"
	// TaskStatusRejected indicates a reviewer declined the draft.
	TaskStatusRejected TaskStatus = "rejected"
	// TaskStatusPublished indicates the content went live.
	TaskStatusPublished TaskStatus = "published"
	// TaskStatusFailed indicates the pipeline aborted with an error.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusOnHold indicates work on the task is paused.
	TaskStatusOnHold TaskStatus = "on_hold"
	// TaskStatusCancelled indicates the task was abandoned. Terminal.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusAwaitingApproval,
		TaskStatusApproved, TaskStatusRejected, TaskStatusPublished,
		TaskStatusFailed, TaskStatusOnHold, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true if no outgoing transitions exist from this status.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCancelled
}

// ContentTask represents one content generation request and its state.
type ContentTask struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Topic is the subject the content should cover.
	Topic string `json:"topic"`
	// Style is the requested writing style (e.g. "technical", "conversational").
	Style string `json:"style,omitempty"`
	// Tone is the requested tone of voice (e.g. "formal", "friendly").
	Tone string `json:"tone,omitempty"`
	// TargetWordCount is the desired length of the final content.
	TargetWordCount int `json:"target_word_count"`
	// TolerancePercent is the acceptable deviation from TargetWordCount.
	TolerancePercent float64 `json:"tolerance_percent"`
	// Status is the current lifecycle state. Changed only through the
	// lifecycle service; never mutate directly.
	Status TaskStatus `json:"status"`
	// PhaseModels maps phase name to the model actually used for it.
	PhaseModels map[string]string `json:"phase_models,omitempty"`
	// Content is the current draft text.
	Content string `json:"content,omitempty"`
	// QualityHistory holds one entry per generation or refinement attempt,
	// in attempt order. Append-only.
	QualityHistory []QualityEvaluationResult `json:"quality_history,omitempty"`
	// Compliance is the latest merged constraint-compliance report.
	Compliance *ConstraintCompliance `json:"compliance,omitempty"`
	// CostBreakdown maps phase name to its estimated dollar cost.
	CostBreakdown map[string]float64 `json:"cost_breakdown,omitempty"`
	// TotalCost is the sum of the per-phase estimates.
	TotalCost float64 `json:"total_cost"`
	// ImageRef references an image sourced during enrichment, if any.
	ImageRef string `json:"image_ref,omitempty"`
	// SEO holds generated search metadata, if enrichment succeeded.
	SEO *SEOMetadata `json:"seo,omitempty"`
	// NeedsReview is set when the quality loop exhausted its refinement
	// budget without passing, flagging the task for manual attention.
	NeedsReview bool `json:"needs_review,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the task record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// SEOMetadata holds search metadata generated during enrichment.
type SEOMetadata struct {
	// Title is the SEO page title.
	Title string `json:"title"`
	// Description is the meta description.
	Description string `json:"description"`
	// Keywords are extracted topic keywords.
	Keywords []string `json:"keywords,omitempty"`
}

// BestAttempt returns the index of the best-scoring entry in the quality
// history. Ties go to the earliest attempt, preferring less-mutated content.
// Returns -1 for an empty history.
func (t *ContentTask) BestAttempt() int {
	best := -1
	for i, q := range t.QualityHistory {
		if best == -1 || q.OverallScore > t.QualityHistory[best].OverallScore {
			best = i
		}
	}
	return best
}
