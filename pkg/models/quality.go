package models

import "time"

// DefaultPassThreshold is the overall score a draft must reach to pass
// the quality gate.
const DefaultPassThreshold = 7.0

// QualityDimensions lists the rubric dimensions in scoring order.
var QualityDimensions = []string{
	"clarity",
	"accuracy",
	"completeness",
	"relevance",
	"seo_quality",
	"readability",
	"engagement",
}

// QualityEvaluationResult holds one scoring pass over a draft.
// Immutable once created; one result is appended to the task's quality
// history per generation or refinement attempt.
type QualityEvaluationResult struct {
	// OverallScore is the average of the dimension scores (0-10).
	OverallScore float64 `json:"overall_score"`
	// Passing is true when OverallScore met the configured threshold.
	Passing bool `json:"passing"`
	// Dimensions maps dimension name to its individual score (0-10).
	Dimensions map[string]float64 `json:"dimensions"`
	// Feedback is free-text commentary on the draft.
	Feedback string `json:"feedback,omitempty"`
	// Suggestions are short actionable revision hints, in priority order.
	Suggestions []string `json:"suggestions,omitempty"`
	// Attempt is the 1-indexed generation attempt this result scored.
	Attempt int `json:"attempt"`
	// EvaluatedAt is when the scoring pass ran.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Valid returns true if every dimension score and the overall score are
// within the 0-10 range.
func (q QualityEvaluationResult) Valid() bool {
	if q.OverallScore < 0 || q.OverallScore > 10 {
		return false
	}
	for _, score := range q.Dimensions {
		if score < 0 || score > 10 {
			return false
		}
	}
	return true
}
