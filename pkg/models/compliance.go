package models

// OverallPhase is the phase name used for a merged compliance report.
const OverallPhase = "overall"

// ConstraintCompliance compares generated text against the caller's
// length and style constraints, for one phase or merged across phases.
type ConstraintCompliance struct {
	// PhaseName is the phase this report covers, or OverallPhase for a
	// merged report.
	PhaseName string `json:"phase_name"`
	// WordCountActual is the measured word count of the text.
	WordCountActual int `json:"word_count_actual"`
	// WordCountTarget is the requested word count.
	WordCountTarget int `json:"word_count_target"`
	// WithinTolerance is true when the actual count is within the allowed
	// percentage deviation from the target.
	WithinTolerance bool `json:"within_tolerance"`
	// PercentageDiff is the signed deviation from the target, in percent.
	PercentageDiff float64 `json:"percentage_diff"`
	// StyleScore measures adherence to the requested style (0-1).
	StyleScore float64 `json:"style_score"`
	// ViolationMessage describes the constraint breach, empty when compliant.
	ViolationMessage string `json:"violation_message,omitempty"`
}

// MergeCompliance folds per-phase reports into one task-level report using
// worst-case aggregation: the merged report is within tolerance only when
// every phase is, carries the lowest style score, and the word counts of
// the last phase (the phase producing the final content).
func MergeCompliance(reports []ConstraintCompliance) ConstraintCompliance {
	merged := ConstraintCompliance{PhaseName: OverallPhase, WithinTolerance: true, StyleScore: 1.0}
	if len(reports) == 0 {
		return merged
	}

	last := reports[len(reports)-1]
	merged.WordCountActual = last.WordCountActual
	merged.WordCountTarget = last.WordCountTarget
	merged.PercentageDiff = last.PercentageDiff

	for _, r := range reports {
		if !r.WithinTolerance {
			merged.WithinTolerance = false
			if merged.ViolationMessage == "" {
				merged.ViolationMessage = r.PhaseName + ": " + r.ViolationMessage
			}
		}
		if r.StyleScore < merged.StyleScore {
			merged.StyleScore = r.StyleScore
		}
	}
	return merged
}
