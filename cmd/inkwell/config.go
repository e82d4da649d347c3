package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-press/inkwell/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Inkwell configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/inkwell/config.yaml
Project-specific overrides can be placed in .inkwell.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("openai.api_key: %s\n", config.MaskAPIKey(cfg.OpenAI.APIKey))
	fmt.Printf("bedrock.enabled: %t\n", cfg.Bedrock.Enabled)
	fmt.Printf("bedrock.region: %s\n", cfg.Bedrock.Region)
	fmt.Printf("defaults.preference: %s\n", cfg.Defaults.Preference)
	fmt.Printf("defaults.target_word_count: %d\n", cfg.Defaults.TargetWordCount)
	fmt.Printf("defaults.tolerance_percent: %.1f\n", cfg.Defaults.TolerancePercent)
	fmt.Printf("defaults.style: %s\n", cfg.Defaults.Style)
	fmt.Printf("defaults.tone: %s\n", cfg.Defaults.Tone)
	fmt.Printf("pipeline.generation_timeout: %s\n", cfg.Pipeline.GenerationTimeout)
	fmt.Printf("pipeline.auto_trim: %t\n", cfg.Pipeline.AutoTrim)
	fmt.Printf("pipeline.pass_threshold: %.1f\n", cfg.Pipeline.PassThreshold)
	fmt.Printf("capture.enabled: %t\n", cfg.Capture.Enabled)
	fmt.Printf("capture.path: %s\n", cfg.Capture.Path)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "openai.api_key":
		return config.MaskAPIKey(cfg.OpenAI.APIKey), nil
	case "bedrock.enabled":
		return strconv.FormatBool(cfg.Bedrock.Enabled), nil
	case "bedrock.region":
		return cfg.Bedrock.Region, nil
	case "defaults.preference":
		return cfg.Defaults.Preference, nil
	case "defaults.target_word_count":
		return strconv.Itoa(cfg.Defaults.TargetWordCount), nil
	case "defaults.tolerance_percent":
		return strconv.FormatFloat(cfg.Defaults.TolerancePercent, 'f', 1, 64), nil
	case "defaults.style":
		return cfg.Defaults.Style, nil
	case "defaults.tone":
		return cfg.Defaults.Tone, nil
	case "pipeline.generation_timeout":
		return cfg.Pipeline.GenerationTimeout.String(), nil
	case "pipeline.auto_trim":
		return strconv.FormatBool(cfg.Pipeline.AutoTrim), nil
	case "pipeline.pass_threshold":
		return strconv.FormatFloat(cfg.Pipeline.PassThreshold, 'f', 1, 64), nil
	case "capture.enabled":
		return strconv.FormatBool(cfg.Capture.Enabled), nil
	case "capture.path":
		return cfg.Capture.Path, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "openai.api_key":
		cfg.OpenAI.APIKey = value
	case "bedrock.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		cfg.Bedrock.Enabled = b
	case "bedrock.region":
		cfg.Bedrock.Region = value
	case "defaults.preference":
		switch value {
		case "cheap", "balanced", "premium":
			cfg.Defaults.Preference = value
		default:
			return fmt.Errorf("invalid preference: %s (use cheap, balanced, or premium)", value)
		}
	case "defaults.target_word_count":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid word count: %s", value)
		}
		cfg.Defaults.TargetWordCount = n
	case "defaults.tolerance_percent":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid tolerance: %s", value)
		}
		cfg.Defaults.TolerancePercent = f
	case "defaults.style":
		cfg.Defaults.Style = value
	case "defaults.tone":
		cfg.Defaults.Tone = value
	case "pipeline.generation_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		cfg.Pipeline.GenerationTimeout = d
	case "pipeline.auto_trim":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		cfg.Pipeline.AutoTrim = b
	case "pipeline.pass_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 10 {
			return fmt.Errorf("invalid threshold: %s (want 0-10)", value)
		}
		cfg.Pipeline.PassThreshold = f
	case "capture.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		cfg.Capture.Enabled = b
	case "capture.path":
		cfg.Capture.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
