package main

import (
	"fmt"
	"os"

	"github.com/inkwell-press/inkwell/internal/capture"
	"github.com/inkwell-press/inkwell/internal/config"
	"github.com/inkwell-press/inkwell/internal/constraint"
	"github.com/inkwell-press/inkwell/internal/enrich"
	"github.com/inkwell-press/inkwell/internal/lifecycle"
	"github.com/inkwell-press/inkwell/internal/llm"
	"github.com/inkwell-press/inkwell/internal/modelsel"
	"github.com/inkwell-press/inkwell/internal/orchestrator"
	"github.com/inkwell-press/inkwell/internal/quality"
	"github.com/inkwell-press/inkwell/internal/store"
)

// openProjectStore opens and migrates the project database in the
// current working directory.
func openProjectStore() (*store.DB, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}

	db, err := store.OpenProject(cwd)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("migrate database: %w", err)
	}
	return db, cwd, nil
}

// buildGenerator wires LLM providers from config. The Anthropic provider
// is required; OpenAI is optional and only needed when a gpt- model is
// selected for some phase.
func buildGenerator(cfg *config.Config) (llm.Generator, error) {
	anthropicKey, err := config.GetAnthropicKey(cfg)
	if err != nil && !cfg.Bedrock.Enabled {
		return nil, fmt.Errorf("anthropic provider: %w", err)
	}

	anthropicGen, err := llm.NewAnthropicGenerator(llm.AnthropicConfig{
		APIKey:        anthropicKey,
		UseAWSBedrock: cfg.Bedrock.Enabled,
		AWSRegion:     cfg.Bedrock.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic provider: %w", err)
	}

	var openaiGen llm.Generator
	if key, err := config.GetOpenAIKey(cfg); err == nil {
		gen, err := llm.NewOpenAIGenerator(llm.OpenAIConfig{APIKey: key})
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		openaiGen = gen
	}

	return llm.NewRouter(anthropicGen, openaiGen), nil
}

// buildOfflineOrchestrator assembles the pipeline without LLM
// providers, for commands that never call a model.
func buildOfflineOrchestrator(cfg *config.Config, db *store.DB) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(orchestrator.Config{
		Store:     db,
		Lifecycle: lifecycle.NewService(db),
		Selector:  modelsel.NewSelector(),
		Evaluator: quality.NewEvaluator(),
		Enforcer:  constraint.NewEnforcer(cfg.Pipeline.AutoTrim),
		Generator: llm.NewRouter(nil, nil),
	}), nil
}

// buildOrchestrator assembles the full pipeline over the project store.
func buildOrchestrator(cfg *config.Config, db *store.DB, projectRoot string) (*orchestrator.Orchestrator, error) {
	gen, err := buildGenerator(cfg)
	if err != nil {
		return nil, err
	}

	var sink capture.Sink
	if cfg.Capture.Enabled {
		path := cfg.Capture.Path
		if path == "" {
			path = capture.DefaultPath(projectRoot)
		}
		fileSink, err := capture.NewFileSink(path)
		if err != nil {
			return nil, fmt.Errorf("open capture sink: %w", err)
		}
		sink = fileSink
	}

	evalOpts := []quality.Option{}
	if cfg.Pipeline.PassThreshold > 0 {
		evalOpts = append(evalOpts, quality.WithThreshold(cfg.Pipeline.PassThreshold))
	}

	return orchestrator.New(orchestrator.Config{
		Store:             db,
		Lifecycle:         lifecycle.NewService(db),
		Selector:          modelsel.NewSelector(),
		Evaluator:         quality.NewEvaluator(evalOpts...),
		Enforcer:          constraint.NewEnforcer(cfg.Pipeline.AutoTrim),
		Generator:         gen,
		Images:            enrich.NewStockImageFinder(),
		SEO:               enrich.NewMarkdownSEOBuilder(),
		Sink:              sink,
		Logger:            orchestrator.NewDebugLoggerForProject(projectRoot),
		GenerationTimeout: cfg.Pipeline.GenerationTimeout,
	}), nil
}
