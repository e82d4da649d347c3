package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// AnthropicGenerator implements Generator against the Anthropic API,
// directly or through AWS Bedrock.
type AnthropicGenerator struct {
	inner     anthropic.Client
	tracker   *TokenTracker
	bedrock   bool
	maxTokens int64
}

// AnthropicConfig contains configuration for creating an
// AnthropicGenerator.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of the
	// direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// MaxTokens caps the response size. Defaults to 8192.
	MaxTokens int64
}

// NewAnthropicGenerator creates a Generator backed by the Anthropic SDK.
func NewAnthropicGenerator(cfg AnthropicConfig) (*AnthropicGenerator, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	return &AnthropicGenerator{
		inner:     anthropic.NewClient(opts...),
		tracker:   NewTokenTracker(),
		bedrock:   cfg.UseAWSBedrock,
		maxTokens: maxTokens,
	}, nil
}

// Tracker returns the token tracker for this generator.
func (g *AnthropicGenerator) Tracker() *TokenTracker {
	return g.tracker
}

// modelAliases maps the catalog's short model names to concrete
// Anthropic model identifiers.
var modelAliases = map[string]anthropic.Model{
	"claude-3-5-haiku": anthropic.ModelClaude3_5Haiku20241022,
	"claude-sonnet-4":  anthropic.ModelClaudeSonnet4_20250514,
	"claude-opus-4-1":  anthropic.ModelClaudeOpus4_1_20250805,
}

// bedrockModels maps standard model names to Bedrock cross-region
// inference profiles.
var bedrockModels = map[anthropic.Model]anthropic.Model{
	anthropic.ModelClaude3_5Haiku20241022: "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	anthropic.ModelClaudeSonnet4_20250514: "us.anthropic.claude-sonnet-4-20250514-v1:0",
	anthropic.ModelClaudeOpus4_1_20250805: "us.anthropic.claude-opus-4-1-20250805-v1:0",
}

// resolveModel translates a catalog model name for the active transport.
func (g *AnthropicGenerator) resolveModel(model string) anthropic.Model {
	resolved, ok := modelAliases[model]
	if !ok {
		resolved = anthropic.Model(model)
	}
	if g.bedrock {
		if b, ok := bedrockModels[resolved]; ok {
			return b
		}
	}
	return resolved
}

// Generate implements Generator. Provider failures are wrapped in
// ErrProvider; context deadline errors pass through for the caller's
// timeout handling.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt, model string) (string, error) {
	resp, err := g.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.resolveModel(model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}

	g.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var out string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			out += variant.Text
		}
	}
	return out, nil
}
