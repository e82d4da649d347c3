package main

import (
	"testing"
	"time"

	"github.com/inkwell-press/inkwell/internal/config"
	"github.com/inkwell-press/inkwell/pkg/models"
)

func TestParseModelFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		want    map[models.Phase]string
		wantErr bool
	}{
		{
			name:  "empty",
			flags: nil,
			want:  nil,
		},
		{
			name:  "single pair",
			flags: []string{"draft=claude-opus-4-1"},
			want:  map[models.Phase]string{models.PhaseDraft: "claude-opus-4-1"},
		},
		{
			name:  "multiple pairs",
			flags: []string{"draft=claude-opus-4-1", "assess=gpt-4o-mini"},
			want: map[models.Phase]string{
				models.PhaseDraft:  "claude-opus-4-1",
				models.PhaseAssess: "gpt-4o-mini",
			},
		},
		{
			name:    "missing separator",
			flags:   []string{"draft"},
			wantErr: true,
		},
		{
			name:    "empty model",
			flags:   []string{"draft="},
			wantErr: true,
		},
		{
			name:    "empty phase",
			flags:   []string{"=claude-opus-4-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseModelFlags(tt.flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseModelFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseModelFlags() = %v, want %v", got, tt.want)
			}
			for phase, model := range tt.want {
				if got[phase] != model {
					t.Errorf("parseModelFlags()[%s] = %q, want %q", phase, got[phase], model)
				}
			}
		})
	}
}

func TestBuildTaskSpec_FlagsOverrideDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Defaults.Style = "formal"
	cfg.Defaults.TargetWordCount = 800

	spec, err := buildTaskSpec(cfg, "topic", "technical", "", 1500, 0, "premium", nil)
	if err != nil {
		t.Fatalf("buildTaskSpec() error = %v", err)
	}

	if spec.Style != "technical" {
		t.Errorf("style = %q, want flag value", spec.Style)
	}
	if spec.TargetWordCount != 1500 {
		t.Errorf("words = %d, want flag value", spec.TargetWordCount)
	}
	if spec.Preference != models.PreferencePremium {
		t.Errorf("preference = %s, want premium", spec.Preference)
	}
	// Unset flags inherit the configured defaults.
	if spec.TolerancePercent != cfg.Defaults.TolerancePercent {
		t.Errorf("tolerance = %f, want default", spec.TolerancePercent)
	}
}

func TestBuildTaskSpec_DefaultsOnly(t *testing.T) {
	cfg := config.Default()

	spec, err := buildTaskSpec(cfg, "topic", "", "", 0, 0, "", nil)
	if err != nil {
		t.Fatalf("buildTaskSpec() error = %v", err)
	}

	if spec.TargetWordCount != cfg.Defaults.TargetWordCount {
		t.Errorf("words = %d, want default %d", spec.TargetWordCount, cfg.Defaults.TargetWordCount)
	}
	if string(spec.Preference) != cfg.Defaults.Preference {
		t.Errorf("preference = %s, want default %s", spec.Preference, cfg.Defaults.Preference)
	}
}

func TestConfigValueRoundTrip(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "pipeline.generation_timeout", "2m"); err != nil {
		t.Fatalf("setConfigValue() error = %v", err)
	}
	if cfg.Pipeline.GenerationTimeout != 2*time.Minute {
		t.Errorf("timeout = %v, want 2m", cfg.Pipeline.GenerationTimeout)
	}

	got, err := getConfigValue(cfg, "pipeline.generation_timeout")
	if err != nil {
		t.Fatalf("getConfigValue() error = %v", err)
	}
	if got != "2m0s" {
		t.Errorf("getConfigValue() = %q, want 2m0s", got)
	}

	if err := setConfigValue(cfg, "defaults.preference", "luxurious"); err == nil {
		t.Error("expected error for invalid preference")
	}
	if err := setConfigValue(cfg, "no.such.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := getConfigValue(cfg, "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}
