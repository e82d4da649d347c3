// Package constraint validates generated text against the caller's
// length and style targets and produces per-phase compliance reports.
package constraint

import (
	"fmt"
	"math"
	"strings"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// Targets holds the constraints one check runs against.
type Targets struct {
	// WordCount is the requested length. Zero disables the length check.
	WordCount int
	// TolerancePercent is the acceptable deviation from WordCount.
	TolerancePercent float64
	// Style is the requested writing style, used for the style score.
	Style string
}

// Enforcer checks text against targets and can trim overlong drafts.
type Enforcer struct {
	// autoTrim enables trimming drafts that exceed the tolerance band.
	autoTrim bool
}

// NewEnforcer creates an Enforcer. When autoTrim is set, Enforce trims
// overlong text back to the tolerance ceiling at a sentence boundary.
func NewEnforcer(autoTrim bool) *Enforcer {
	return &Enforcer{autoTrim: autoTrim}
}

// Check produces a compliance report for one phase without mutating the
// text.
func (e *Enforcer) Check(phase models.Phase, text string, targets Targets) models.ConstraintCompliance {
	actual := CountWords(text)
	report := models.ConstraintCompliance{
		PhaseName:       string(phase),
		WordCountActual: actual,
		WordCountTarget: targets.WordCount,
		WithinTolerance: true,
		StyleScore:      styleScore(text, targets.Style),
	}

	if targets.WordCount <= 0 {
		return report
	}

	diff := float64(actual-targets.WordCount) / float64(targets.WordCount) * 100
	report.PercentageDiff = round2(diff)

	if math.Abs(diff) > targets.TolerancePercent {
		report.WithinTolerance = false
		direction := "short of"
		if diff > 0 {
			direction = "over"
		}
		report.ViolationMessage = fmt.Sprintf(
			"%d words is %.1f%% %s the %d-word target (tolerance %.0f%%)",
			actual, math.Abs(diff), direction, targets.WordCount, targets.TolerancePercent)
	}

	return report
}

// Enforce checks the text and, when auto-trim is enabled and the draft
// exceeds the tolerance ceiling, returns a trimmed draft plus the report
// for the trimmed text. Undershooting is never padded; only generation
// can add substance.
func (e *Enforcer) Enforce(phase models.Phase, text string, targets Targets) (string, models.ConstraintCompliance) {
	report := e.Check(phase, text, targets)
	if !e.autoTrim || targets.WordCount <= 0 || report.PercentageDiff <= targets.TolerancePercent {
		return text, report
	}

	ceiling := int(float64(targets.WordCount) * (1 + targets.TolerancePercent/100))
	trimmed := trimToWords(text, ceiling)
	return trimmed, e.Check(phase, trimmed, targets)
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// trimToWords cuts text to at most maxWords, preferring to end on a
// sentence boundary within the kept range.
func trimToWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	kept := strings.Join(words[:maxWords], " ")

	// Back up to the last sentence end if one exists reasonably close.
	if idx := strings.LastIndexAny(kept, ".!?"); idx > len(kept)/2 {
		kept = kept[:idx+1]
	}
	return kept
}

// styleMarkers maps a style name to words whose presence suggests the
// draft holds that register.
var styleMarkers = map[string][]string{
	"technical":      {"system", "data", "method", "process", "result", "analysis"},
	"conversational": {"you", "your", "we", "let's", "think", "really"},
	"formal":         {"furthermore", "therefore", "moreover", "consequently", "thus"},
	"persuasive":     {"should", "must", "imagine", "benefit", "opportunity"},
}

// styleScore measures adherence to the requested style (0-1). An unknown
// or empty style scores a neutral 1.0 rather than penalizing the draft
// for a constraint it was never given.
func styleScore(text, style string) float64 {
	markers, ok := styleMarkers[strings.ToLower(style)]
	if !ok || strings.TrimSpace(text) == "" {
		if strings.TrimSpace(text) == "" && style != "" {
			return 0
		}
		return 1.0
	}

	lower := strings.ToLower(text)
	hits := 0
	for _, m := range markers {
		if containsWord(lower, m) {
			hits++
		}
	}
	// Half the markers present counts as full adherence.
	score := float64(hits) / (float64(len(markers)) / 2)
	if score > 1 {
		score = 1
	}
	return round2(score)
}

// containsWord reports whether w appears as a whole word in lower-cased
// text.
func containsWord(lower, w string) bool {
	for _, field := range strings.Fields(lower) {
		if strings.Trim(field, ".,;:!?\"'()[]") == w {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
