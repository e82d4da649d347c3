package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGenerator implements Generator using the official openai-go SDK
// (chat completions).
type OpenAIGenerator struct {
	client  openai.Client
	tracker *TokenTracker
}

// OpenAIConfig contains configuration for creating an OpenAIGenerator.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. If empty, uses OPENAI_API_KEY.
	APIKey string
	// BaseURL optionally points at a compatible endpoint.
	BaseURL string
}

// NewOpenAIGenerator creates a Generator backed by the OpenAI SDK.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client:  openai.NewClient(opts...),
		tracker: NewTokenTracker(),
	}, nil
}

// Tracker returns the token tracker for this generator.
func (g *OpenAIGenerator) Tracker() *TokenTracker {
	return g.tracker
}

// Generate implements Generator. Provider failures are wrapped in
// ErrProvider; context deadline errors pass through.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt, model string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrProvider)
	}

	g.tracker.Add(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}
