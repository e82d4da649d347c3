// Package quality scores generated drafts against a fixed seven-dimension
// rubric and decides whether the refinement loop needs another pass.
package quality

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// Scorer produces per-dimension scores for a draft. Implementations must
// be deterministic for the same input so the quality gate is testable;
// a model-assisted scorer can be injected as long as it honors that.
type Scorer interface {
	Score(text, topic string) map[string]float64
}

// Evaluator applies a Scorer and the pass threshold to a draft.
type Evaluator struct {
	scorer    Scorer
	threshold float64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithScorer replaces the default heuristic scorer.
func WithScorer(s Scorer) Option {
	return func(e *Evaluator) { e.scorer = s }
}

// WithThreshold overrides the pass threshold.
func WithThreshold(t float64) Option {
	return func(e *Evaluator) { e.threshold = t }
}

// NewEvaluator creates an Evaluator with the deterministic heuristic
// scorer and the default threshold.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		scorer:    HeuristicScorer{},
		threshold: models.DefaultPassThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold returns the configured pass threshold.
func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Evaluate scores the text and returns an immutable result. Malformed or
// empty input scores low; it never returns an error.
func (e *Evaluator) Evaluate(text, topic string) models.QualityEvaluationResult {
	dims := e.scorer.Score(text, topic)

	var total float64
	for _, name := range models.QualityDimensions {
		total += clamp(dims[name], 0, 10)
	}
	// Round before the gate so the stored score and the pass verdict
	// agree: a record never reads 7.0 yet fails a 7.0 threshold.
	overall := round1(total / float64(len(models.QualityDimensions)))

	result := models.QualityEvaluationResult{
		OverallScore: overall,
		Passing:      overall >= e.threshold,
		Dimensions:   dims,
		EvaluatedAt:  time.Now(),
	}
	result.Feedback, result.Suggestions = buildFeedback(dims, topic)
	return result
}

// buildFeedback turns the weakest dimensions into actionable guidance.
// Suggestions are ordered worst dimension first; ties break on name so
// the output is stable.
func buildFeedback(dims map[string]float64, topic string) (string, []string) {
	type weak struct {
		name  string
		score float64
	}
	var weaks []weak
	for _, name := range models.QualityDimensions {
		if dims[name] < 7.0 {
			weaks = append(weaks, weak{name, dims[name]})
		}
	}
	if len(weaks) == 0 {
		return "Draft meets the quality bar across all dimensions.", nil
	}

	sort.Slice(weaks, func(i, j int) bool {
		if weaks[i].score != weaks[j].score {
			return weaks[i].score < weaks[j].score
		}
		return weaks[i].name < weaks[j].name
	})

	var names []string
	var suggestions []string
	for _, w := range weaks {
		names = append(names, w.name)
		if hint, ok := dimensionHints[w.name]; ok {
			suggestions = append(suggestions, hint(topic))
		}
	}
	feedback := fmt.Sprintf("Draft falls short on: %s.", strings.Join(names, ", "))
	return feedback, suggestions
}

// dimensionHints maps a weak dimension to a revision suggestion.
var dimensionHints = map[string]func(topic string) string{
	"clarity": func(string) string {
		return "Shorten long sentences and split dense paragraphs"
	},
	"accuracy": func(string) string {
		return "Add concrete facts, figures, or sourced claims"
	},
	"completeness": func(string) string {
		return "Expand thin sections; cover the subject end to end"
	},
	"relevance": func(topic string) string {
		return fmt.Sprintf("Tie the content back to %q throughout", topic)
	},
	"seo_quality": func(topic string) string {
		return fmt.Sprintf("Work %q into the opening and add section headings", topic)
	},
	"readability": func(string) string {
		return "Prefer plain words and vary sentence length"
	},
	"engagement": func(string) string {
		return "Add examples, questions, or direct address to the reader"
	},
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round1 rounds to one decimal place, matching how scores are displayed.
func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
