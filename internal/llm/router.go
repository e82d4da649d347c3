package llm

import (
	"context"
	"fmt"
	"strings"
)

// Router dispatches generation calls to the provider owning the model.
// The selector's catalog mixes Anthropic and OpenAI models, so one task
// can span both providers.
type Router struct {
	anthropic Generator
	openai    Generator
}

// NewRouter creates a Router. Either provider may be nil; calls routed
// to a missing provider fail with ErrProvider.
func NewRouter(anthropicGen, openaiGen Generator) *Router {
	return &Router{anthropic: anthropicGen, openai: openaiGen}
}

// Generate implements Generator by model-name dispatch.
func (r *Router) Generate(ctx context.Context, prompt, model string) (string, error) {
	var g Generator
	switch {
	case strings.HasPrefix(model, "gpt-"):
		g = r.openai
	default:
		g = r.anthropic
	}
	if g == nil {
		return "", fmt.Errorf("%w: no provider configured for model %q", ErrProvider, model)
	}
	return g.Generate(ctx, prompt, model)
}
