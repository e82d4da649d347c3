package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inkwell-press/inkwell/internal/store"
)

var (
	initForce      bool
	initWithConfig bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize an Inkwell project",
	Long: `Initialize a directory for use with Inkwell.

This command sets up everything needed to run content tasks:
  - Creates the .inkwell directory and state database
  - Checks for API keys
  - Optionally writes an example .inkwell.yaml

The directory argument is optional and defaults to the current directory.

Examples:
  inkwell init                 # Initialize current directory
  inkwell init ./blog          # Initialize specific directory
  inkwell init --with-config   # Also write an example .inkwell.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
	initCmd.Flags().BoolVar(&initWithConfig, "with-config", false, "Write an example .inkwell.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing Inkwell in %s...\n\n", absPath)

	inkwellDir := filepath.Join(absPath, ".inkwell")
	if _, err := os.Stat(inkwellDir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	} else {
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	}
	if os.Getenv("OPENAI_API_KEY") == "" {
		printStatus("⚠", "OPENAI_API_KEY not set (only needed for gpt- models)", color.FgYellow)
	} else {
		printStatus("✓", "OPENAI_API_KEY is set", color.FgGreen)
	}

	if err := os.MkdirAll(inkwellDir, 0755); err != nil {
		return fmt.Errorf("creating .inkwell directory: %w", err)
	}

	db, err := store.OpenProject(absPath)
	if err != nil {
		return fmt.Errorf("create state database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}
	printStatus("✓", "State database created", color.FgGreen)

	if initWithConfig {
		if err := writeExampleConfig(absPath); err != nil {
			return err
		}
		printStatus("✓", "Example .inkwell.yaml written", color.FgGreen)
	}

	fmt.Println("\nDone. Create your first task with:")
	fmt.Println("  inkwell run \"<topic>\" --words 1200")
	return nil
}

// writeExampleConfig writes a commented project config template.
func writeExampleConfig(dir string) error {
	path := filepath.Join(dir, ".inkwell.yaml")
	if _, err := os.Stat(path); err == nil && !initForce {
		return nil
	}

	example := map[string]any{
		"defaults": map[string]any{
			"preference":        "balanced",
			"target_word_count": 1200,
			"tolerance_percent": 10.0,
			"style":             "conversational",
			"tone":              "friendly",
		},
		"pipeline": map[string]any{
			"generation_timeout": "90s",
			"auto_trim":          true,
			"pass_threshold":     7.0,
		},
		"capture": map[string]any{
			"enabled": true,
		},
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}

	header := []byte("# Inkwell project configuration.\n# Values here override ~/.config/inkwell/config.yaml.\n")
	if err := os.WriteFile(path, append(header, data...), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// printStatus prints a colored status line.
func printStatus(mark, message string, attr color.Attribute) {
	color.New(attr).Printf("%s ", mark)
	fmt.Println(message)
}
