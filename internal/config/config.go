// Package config handles configuration loading and management for Inkwell.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Inkwell.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Bedrock   BedrockConfig   `mapstructure:"bedrock"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Capture   CaptureConfig   `mapstructure:"capture"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// BedrockConfig routes Anthropic calls through AWS Bedrock when enabled.
// Credentials come from the standard AWS environment and config files.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
}

// DefaultsConfig holds default values for new content tasks.
type DefaultsConfig struct {
	Preference       string  `mapstructure:"preference"`
	TargetWordCount  int     `mapstructure:"target_word_count"`
	TolerancePercent float64 `mapstructure:"tolerance_percent"`
	Style            string  `mapstructure:"style"`
	Tone             string  `mapstructure:"tone"`
}

// PipelineConfig holds pipeline execution settings.
type PipelineConfig struct {
	// GenerationTimeout bounds a single model call.
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	// AutoTrim enables trimming of over-length drafts.
	AutoTrim bool `mapstructure:"auto_trim"`
	// PassThreshold is the quality score a draft must reach.
	PassThreshold float64 `mapstructure:"pass_threshold"`
}

// CaptureConfig holds training-data capture settings.
type CaptureConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		// Defaults are static and always unmarshal.
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
//  1. Environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY)
//  2. Project config (.inkwell.yaml in current directory or parent)
//  3. User config (~/.config/inkwell/config.yaml)
//  4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.OpenAI.APIKey = expandEnv(cfg.OpenAI.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.OpenAI.APIKey = expandEnv(cfg.OpenAI.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("openai.api_key", cfg.OpenAI.APIKey)
	v.Set("bedrock.enabled", cfg.Bedrock.Enabled)
	v.Set("bedrock.region", cfg.Bedrock.Region)
	v.Set("defaults.preference", cfg.Defaults.Preference)
	v.Set("defaults.target_word_count", cfg.Defaults.TargetWordCount)
	v.Set("defaults.tolerance_percent", cfg.Defaults.TolerancePercent)
	v.Set("defaults.style", cfg.Defaults.Style)
	v.Set("defaults.tone", cfg.Defaults.Tone)
	v.Set("pipeline.generation_timeout", cfg.Pipeline.GenerationTimeout.String())
	v.Set("pipeline.auto_trim", cfg.Pipeline.AutoTrim)
	v.Set("pipeline.pass_threshold", cfg.Pipeline.PassThreshold)
	v.Set("capture.enabled", cfg.Capture.Enabled)
	v.Set("capture.path", cfg.Capture.Path)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("openai.api_key", "")

	v.SetDefault("bedrock.enabled", false)
	v.SetDefault("bedrock.region", "")

	v.SetDefault("defaults.preference", "balanced")
	v.SetDefault("defaults.target_word_count", 1200)
	v.SetDefault("defaults.tolerance_percent", 10.0)
	v.SetDefault("defaults.style", "")
	v.SetDefault("defaults.tone", "")

	v.SetDefault("pipeline.generation_timeout", "90s")
	v.SetDefault("pipeline.auto_trim", true)
	v.SetDefault("pipeline.pass_threshold", 7.0)

	v.SetDefault("capture.enabled", true)
	v.SetDefault("capture.path", "")
}

// getUserConfigDir returns the XDG config directory for Inkwell.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "inkwell")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "inkwell")
	}
	return filepath.Join(home, ".config", "inkwell")
}

// findProjectConfig searches for .inkwell.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".inkwell.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references, returning empty for unresolved keys.
func expandEnv(s string) string {
	expanded := os.ExpandEnv(s)
	if strings.HasPrefix(expanded, "${") {
		return ""
	}
	return expanded
}
