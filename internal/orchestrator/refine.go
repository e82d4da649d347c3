package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-press/inkwell/internal/constraint"
	"github.com/inkwell-press/inkwell/pkg/models"
)

// loopResult is the outcome of the draft-and-refine quality loop.
type loopResult struct {
	// content is the best draft produced, by score then earliest attempt.
	content string
	// history holds one evaluation per generation attempt, in order.
	history []models.QualityEvaluationResult
	// passed is true when the chosen draft cleared the quality gate.
	passed bool
	// bestScore is the chosen draft's overall score.
	bestScore float64
	// compliance is the constraint report for the chosen draft.
	compliance models.ConstraintCompliance
}

// runQualityLoop drives DRAFT -> EVALUATE -> (REFINE -> EVALUATE)* with
// a hard attempt cap. The loop makes at most MaxRefinements+1 generation
// calls; a timed-out or failed call consumes its attempt slot as a
// zero-score entry. On exhaustion the best-scoring draft is kept and the
// task is flagged for manual review rather than discarded.
func (o *Orchestrator) runQualityLoop(ctx context.Context, task *models.ContentTask, research string) loopResult {
	targets := constraint.Targets{
		WordCount:        task.TargetWordCount,
		TolerancePercent: task.TolerancePercent,
		Style:            task.Style,
	}

	var result loopResult
	var reports []models.ConstraintCompliance
	drafts := make([]string, 0, MaxRefinements+1)
	var feedback string
	var suggestions []string

	for attempt := 1; attempt <= MaxRefinements+1; attempt++ {
		var prompt string
		var phase models.Phase
		if attempt == 1 || len(drafts) == 0 {
			// No prior draft to refine, either because this is the first
			// attempt or every earlier call failed. Draft from scratch.
			phase = models.PhaseDraft
			prompt = buildDraftPrompt(task.Topic, task.Style, task.Tone, task.TargetWordCount, research)
		} else {
			phase = models.PhaseRefine
			prompt = buildRefinePrompt(task.Topic, drafts[len(drafts)-1], feedback, suggestions)
		}
		model := task.PhaseModels[string(phase)]

		text, err := o.generate(ctx, prompt, model)
		if err != nil {
			// The failed call still consumes this attempt's budget slot
			// and is surfaced in the history, not hidden.
			o.logger.Log("task %s: attempt %d generation failed: %v", task.ID, attempt, err)
			result.history = append(result.history, failedAttemptResult(attempt, err))
			feedback = "The previous attempt produced no output."
			suggestions = nil
			if ctx.Err() != nil {
				break
			}
			continue
		}

		text, report := o.enforcer.Enforce(phase, text, targets)
		reports = append(reports, report)
		drafts = append(drafts, text)

		eval := o.evaluator.Evaluate(text, task.Topic)
		eval.Attempt = attempt
		result.history = append(result.history, eval)

		o.logger.Log("task %s: attempt %d scored %.1f (passing=%v)",
			task.ID, attempt, eval.OverallScore, eval.Passing)

		if eval.Passing {
			break
		}
		feedback = eval.Feedback
		suggestions = eval.Suggestions
	}

	// Pick the best attempt that actually produced a draft: highest
	// score, ties to the earliest (least-mutated) attempt.
	bestIdx := -1
	bestDraft := -1
	draftIdx := -1
	for i, eval := range result.history {
		if !hasDraft(eval) {
			continue
		}
		draftIdx++
		if bestIdx == -1 || eval.OverallScore > result.history[bestIdx].OverallScore {
			bestIdx = i
			bestDraft = draftIdx
		}
	}
	if bestIdx >= 0 {
		result.content = drafts[bestDraft]
		result.bestScore = result.history[bestIdx].OverallScore
		result.passed = result.history[bestIdx].Passing
		// The compliance report describes the draft being kept, not the
		// discarded attempts.
		result.compliance = models.MergeCompliance(reports[bestDraft : bestDraft+1])
	} else {
		result.compliance = models.MergeCompliance(nil)
	}
	return result
}

// hasDraft reports whether the attempt produced content, as opposed to
// a failed generation call.
func hasDraft(eval models.QualityEvaluationResult) bool {
	return eval.Dimensions != nil
}

// failedAttemptResult records a generation failure as a zero-score
// history entry so reviewers see exactly what happened.
func failedAttemptResult(attempt int, err error) models.QualityEvaluationResult {
	return models.QualityEvaluationResult{
		OverallScore: 0,
		Passing:      false,
		Feedback:     fmt.Sprintf("generation failed: %v", err),
		Attempt:      attempt,
		EvaluatedAt:  time.Now(),
	}
}
