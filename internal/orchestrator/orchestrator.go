package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-press/inkwell/internal/capture"
	"github.com/inkwell-press/inkwell/internal/constraint"
	"github.com/inkwell-press/inkwell/internal/enrich"
	"github.com/inkwell-press/inkwell/internal/lifecycle"
	"github.com/inkwell-press/inkwell/internal/llm"
	"github.com/inkwell-press/inkwell/internal/modelsel"
	"github.com/inkwell-press/inkwell/internal/quality"
	"github.com/inkwell-press/inkwell/internal/store"
	"github.com/inkwell-press/inkwell/pkg/models"
)

// MaxRefinements is the hard cap on refinement passes after the initial
// draft. The quality loop therefore makes at most MaxRefinements+1
// generation calls per task.
const MaxRefinements = 3

// DefaultGenerationTimeout bounds one generation call. A timed-out call
// consumes one attempt slot; it does not abort the pipeline.
const DefaultGenerationTimeout = 90 * time.Second

// ErrInvalidSpec is returned for malformed task specs, before any
// generation call is made.
var ErrInvalidSpec = errors.New("invalid task spec")

// TaskSpec is a content creation request.
type TaskSpec struct {
	// Topic is the subject to write about. Required.
	Topic string
	// Style is the requested writing style.
	Style string
	// Tone is the requested tone of voice.
	Tone string
	// TargetWordCount is the desired length.
	TargetWordCount int
	// TolerancePercent is the acceptable length deviation.
	TolerancePercent float64
	// Preference drives automatic model selection.
	Preference models.QualityPreference
	// PhaseModels overrides auto-selection for the named phases only.
	PhaseModels map[models.Phase]string
}

// Orchestrator drives the content pipeline: research, draft, the quality
// loop, enrichment, and handoff to human review. All collaborators are
// injected at construction; there is no package-level state.
type Orchestrator struct {
	store      store.Store
	lifecycle  *lifecycle.Service
	selector   *modelsel.Selector
	evaluator  *quality.Evaluator
	enforcer   *constraint.Enforcer
	generator  llm.Generator
	images     enrich.ImageFinder
	seo        enrich.SEOBuilder
	sink       capture.Sink
	logger     *DebugLogger
	genTimeout time.Duration

	// captureWG tracks in-flight fire-and-forget capture writes so
	// tests and shutdown can wait for them.
	captureWG sync.WaitGroup
}

// Config wires an Orchestrator's collaborators.
type Config struct {
	Store     store.Store
	Lifecycle *lifecycle.Service
	Selector  *modelsel.Selector
	Evaluator *quality.Evaluator
	Enforcer  *constraint.Enforcer
	Generator llm.Generator
	Images    enrich.ImageFinder
	SEO       enrich.SEOBuilder
	Sink      capture.Sink
	Logger    *DebugLogger
	// GenerationTimeout bounds each generation call. Zero means
	// DefaultGenerationTimeout.
	GenerationTimeout time.Duration
}

// New creates an Orchestrator from the given configuration.
func New(cfg Config) *Orchestrator {
	timeout := cfg.GenerationTimeout
	if timeout == 0 {
		timeout = DefaultGenerationTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger()
	}
	return &Orchestrator{
		store:      cfg.Store,
		lifecycle:  cfg.Lifecycle,
		selector:   cfg.Selector,
		evaluator:  cfg.Evaluator,
		enforcer:   cfg.Enforcer,
		generator:  cfg.Generator,
		images:     cfg.Images,
		seo:        cfg.SEO,
		sink:       cfg.Sink,
		logger:     logger,
		genTimeout: timeout,
	}
}

// CreateTask validates the spec, prices the pipeline, and persists a new
// task in pending. Malformed specs are rejected here, before any
// generation spend.
func (o *Orchestrator) CreateTask(spec TaskSpec) (*models.ContentTask, error) {
	if strings.TrimSpace(spec.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidSpec)
	}
	if spec.TargetWordCount < 0 {
		return nil, fmt.Errorf("%w: negative target word count", ErrInvalidSpec)
	}
	if spec.Preference == "" {
		spec.Preference = models.PreferenceBalanced
	}
	if !spec.Preference.Valid() {
		return nil, fmt.Errorf("%w: unknown quality preference %q", ErrInvalidSpec, spec.Preference)
	}
	// Unknown model names are caller errors; eligibility problems fall
	// back to auto-selection later instead.
	for phase, model := range spec.PhaseModels {
		if err := o.selector.Validate(phase, model); errors.Is(err, modelsel.ErrUnknownModel) ||
			errors.Is(err, modelsel.ErrUnknownPhase) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
	}

	phaseModels, costs, total := o.planModels(spec)

	now := time.Now()
	task := &models.ContentTask{
		ID:               uuid.NewString(),
		Topic:            spec.Topic,
		Style:            spec.Style,
		Tone:             spec.Tone,
		TargetWordCount:  spec.TargetWordCount,
		TolerancePercent: spec.TolerancePercent,
		Status:           models.TaskStatusPending,
		PhaseModels:      phaseModels,
		CostBreakdown:    costs,
		TotalCost:        total,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := o.store.CreateTask(task); err != nil {
		return nil, fmt.Errorf("persist task: %w", err)
	}

	o.logger.Log("task %s created: topic=%q preference=%s cost=$%.4f",
		task.ID, task.Topic, spec.Preference, total)
	return task, nil
}

// planModels selects a model per phase, falling back to auto-selection
// when an explicit choice is ineligible for its phase.
func (o *Orchestrator) planModels(spec TaskSpec) (map[string]string, map[string]float64, float64) {
	phaseModels := make(map[string]string, len(models.Phases))
	costs := make(map[string]float64, len(models.Phases))
	var total float64

	for _, phase := range models.Phases {
		sel, err := o.selector.Select(phase, spec.Preference, spec.PhaseModels, spec.TargetWordCount)
		if err != nil {
			// Ineligible explicit choice: fall back to auto for this
			// phase rather than aborting.
			o.logger.Log("model selection for %s failed (%v), falling back to auto", phase, err)
			sel, err = o.selector.Select(phase, spec.Preference, nil, spec.TargetWordCount)
			if err != nil {
				continue
			}
		}
		phaseModels[string(phase)] = sel.Model
		costs[string(phase)] = sel.Cost
		total += sel.Cost
	}
	return phaseModels, costs, total
}

// Run executes the full pipeline for a task created by CreateTask. It
// returns the task in its final state. Pipeline-internal failures are
// absorbed into the task record; only storage failures and caller
// errors surface as returned errors.
func (o *Orchestrator) Run(ctx context.Context, taskID string) (*models.ContentTask, error) {
	task, err := o.store.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}

	if res, err := o.lifecycle.ChangeStatus(taskID, models.TaskStatusInProgress, "pipeline started", nil); err != nil {
		return nil, err
	} else if !res.Succeeded {
		return nil, fmt.Errorf("task %s not runnable: %s", taskID, strings.Join(res.Errors, "; "))
	}

	// Stage 1: research. A research failure degrades to an unaided
	// draft; it does not consume refinement budget.
	research := o.runResearch(ctx, task)

	if o.cancelled(ctx, taskID) {
		return o.store.GetTask(taskID)
	}

	// Stages 2-3: draft plus the bounded quality loop.
	loop := o.runQualityLoop(ctx, task, research)
	task.Content = loop.content
	task.QualityHistory = loop.history
	task.NeedsReview = !loop.passed
	task.Compliance = &loop.compliance

	if o.cancelled(ctx, taskID) {
		// Keep partial output for audit before stopping.
		if err := o.store.UpdateTask(task); err != nil {
			o.logger.Log("task %s: persist partial state after cancel: %v", taskID, err)
		}
		return o.store.GetTask(taskID)
	}

	// Stage 4: enrichment. Best-effort, both legs concurrent, both done
	// before persist.
	o.runEnrichment(ctx, task)

	// Stage 5: persist, then hand off to review. The status moves only
	// after the record write succeeds.
	if err := o.store.UpdateTask(task); err != nil {
		o.failTask(taskID, fmt.Sprintf("persist draft: %v", err))
		return nil, fmt.Errorf("persist draft: %w", err)
	}
	res, err := o.lifecycle.ChangeStatus(taskID, models.TaskStatusAwaitingApproval, "draft ready for review", nil)
	if err != nil {
		return nil, err
	}
	if !res.Succeeded {
		// The task was cancelled or put on hold under us; leave it be.
		o.logger.Log("task %s: handoff rejected: %s", taskID, strings.Join(res.Errors, "; "))
		return o.store.GetTask(taskID)
	}

	// Stage 6: training-data capture, fire-and-forget.
	o.captureAsync(task, loop)

	o.logger.Log("task %s: pipeline complete, attempts=%d passed=%v score=%.1f",
		taskID, len(loop.history), loop.passed, loop.bestScore)
	return o.store.GetTask(taskID)
}

// runResearch produces background notes for the draft prompt.
func (o *Orchestrator) runResearch(ctx context.Context, task *models.ContentTask) string {
	model := task.PhaseModels[string(models.PhaseResearch)]
	notes, err := o.generate(ctx, buildResearchPrompt(task.Topic), model)
	if err != nil {
		o.logger.Log("task %s: research failed, drafting unaided: %v", task.ID, err)
		return ""
	}
	return notes
}

// runEnrichment runs image sourcing and SEO metadata concurrently.
// Failures log and leave the field empty.
func (o *Orchestrator) runEnrichment(ctx context.Context, task *models.ContentTask) {
	var wg sync.WaitGroup

	if o.images != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keywords := enrich.ExtractKeywords(task.Content, 3)
			if ref := o.images.FindImage(task.Topic, keywords); ref != "" {
				task.ImageRef = ref
			} else {
				o.logger.Log("task %s: no image found", task.ID)
			}
		}()
	}

	if o.seo != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if meta := o.seo.Build(task.Topic, task.Content); meta != nil {
				task.SEO = meta
			} else {
				o.logger.Log("task %s: seo metadata unavailable", task.ID)
			}
		}()
	}

	wg.Wait()
}

// captureAsync appends the finished run to the analytics sink without
// blocking the pipeline. Failures are logged and dropped.
func (o *Orchestrator) captureAsync(task *models.ContentTask, loop loopResult) {
	if o.sink == nil {
		return
	}

	rec := capture.Record{
		TaskID:      task.ID,
		Topic:       task.Topic,
		PhaseModels: task.PhaseModels,
		Attempts:    len(loop.history),
		Passed:      loop.passed,
		TotalCost:   task.TotalCost,
		CapturedAt:  time.Now(),
	}
	if n := len(loop.history); n > 0 {
		rec.FinalQuality = loop.history[n-1]
	}

	o.captureWG.Add(1)
	go func() {
		defer o.captureWG.Done()
		if err := o.sink.Append(rec); err != nil {
			o.logger.Log("task %s: training capture failed: %v", task.ID, err)
		}
	}()
}

// WaitForCapture blocks until in-flight capture writes finish. Used at
// shutdown and in tests.
func (o *Orchestrator) WaitForCapture() {
	o.captureWG.Wait()
}

// generate runs one bounded generation call.
func (o *Orchestrator) generate(ctx context.Context, prompt, model string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.genTimeout)
	defer cancel()
	return o.generator.Generate(callCtx, prompt, model)
}

// cancelled reports whether the task was moved to cancelled by an
// external actor. Checked between stages, never mid-call.
func (o *Orchestrator) cancelled(ctx context.Context, taskID string) bool {
	if ctx.Err() != nil {
		return true
	}
	task, err := o.store.GetTask(taskID)
	if err != nil {
		return false
	}
	if task.Status == models.TaskStatusCancelled {
		o.logger.Log("task %s: cancellation observed, stopping pipeline", taskID)
		return true
	}
	return false
}

// failTask marks the task failed, keeping other tasks untouched.
func (o *Orchestrator) failTask(taskID, reason string) {
	if _, err := o.lifecycle.ChangeStatus(taskID, models.TaskStatusFailed, reason, nil); err != nil {
		o.logger.Log("task %s: could not mark failed: %v", taskID, err)
	}
}

// GetTask returns the task's current record.
func (o *Orchestrator) GetTask(taskID string) (*models.ContentTask, error) {
	return o.store.GetTask(taskID)
}
