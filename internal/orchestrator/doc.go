// Package orchestrator drives the content generation pipeline.
//
// The orchestrator package provides functionality for:
//   - Task creation: validating specs and pricing the pipeline up front
//   - Pipeline execution: research, drafting, the bounded quality loop,
//     enrichment, and handoff to human review
//   - Training-data capture: best-effort analytics on finished runs
//
// The quality loop evaluates each draft against the seven-dimension
// rubric and refines it with the evaluator's feedback, at most
// MaxRefinements times. A task that exhausts its budget still reaches
// review carrying its best draft and the full quality history; imperfect
// output is surfaced, never discarded.
//
// Example usage:
//
//	orc := orchestrator.New(orchestrator.Config{
//		Store:     db,
//		Lifecycle: lifecycle.NewService(db),
//		Selector:  modelsel.NewSelector(),
//		Evaluator: quality.NewEvaluator(),
//		Enforcer:  constraint.NewEnforcer(true),
//		Generator: router,
//	})
//	task, err := orc.CreateTask(orchestrator.TaskSpec{Topic: "AI in healthcare"})
//	task, err = orc.Run(ctx, task.ID)
package orchestrator
