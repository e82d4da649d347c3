package modelsel

import (
	"errors"
	"math"
	"testing"

	"github.com/inkwell-press/inkwell/pkg/models"
)

func TestSelect_AutoSelection(t *testing.T) {
	tests := []struct {
		name  string
		phase models.Phase
		pref  models.QualityPreference
		want  string
	}{
		{"cheap draft", models.PhaseDraft, models.PreferenceCheap, "claude-3-5-haiku"},
		{"balanced draft", models.PhaseDraft, models.PreferenceBalanced, "claude-sonnet-4"},
		{"premium draft", models.PhaseDraft, models.PreferencePremium, "claude-opus-4-1"},
		{"cheap assess", models.PhaseAssess, models.PreferenceCheap, "gpt-4o-mini"},
		{"premium refine", models.PhaseRefine, models.PreferencePremium, "claude-opus-4-1"},
		{"balanced research", models.PhaseResearch, models.PreferenceBalanced, "claude-3-5-haiku"},
	}

	selector := NewSelector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := selector.Select(tt.phase, tt.pref, nil, 1500)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if sel.Model != tt.want {
				t.Errorf("Select(%s, %s) = %s, want %s", tt.phase, tt.pref, sel.Model, tt.want)
			}
			if sel.Cost <= 0 {
				t.Errorf("Select(%s, %s) cost = %f, want > 0", tt.phase, tt.pref, sel.Cost)
			}
		})
	}
}

func TestSelect_ExplicitOverride(t *testing.T) {
	selector := NewSelector()
	overrides := map[models.Phase]string{models.PhaseDraft: "gpt-4o"}

	sel, err := selector.Select(models.PhaseDraft, models.PreferenceCheap, overrides, 1500)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.Model != "gpt-4o" {
		t.Errorf("override ignored: got %s", sel.Model)
	}

	// The override binds only the named phase; others still auto-select.
	sel, err = selector.Select(models.PhaseResearch, models.PreferenceCheap, overrides, 1500)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.Model != "claude-3-5-haiku" {
		t.Errorf("non-overridden phase = %s, want claude-3-5-haiku", sel.Model)
	}
}

func TestSelect_Errors(t *testing.T) {
	selector := NewSelector()

	_, err := selector.Select(models.Phase("outline"), models.PreferenceCheap, nil, 1500)
	if !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("unknown phase error = %v, want ErrUnknownPhase", err)
	}

	_, err = selector.Select(models.PhaseDraft, models.PreferenceCheap,
		map[models.Phase]string{models.PhaseDraft: "gpt-9"}, 1500)
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("unknown model error = %v, want ErrUnknownModel", err)
	}

	// gpt-4o-mini may not carry long-form drafting.
	_, err = selector.Select(models.PhaseDraft, models.PreferenceCheap,
		map[models.Phase]string{models.PhaseDraft: "gpt-4o-mini"}, 1500)
	if !errors.Is(err, ErrIneligibleModel) {
		t.Errorf("ineligible model error = %v, want ErrIneligibleModel", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		phase   models.Phase
		model   string
		wantErr error
	}{
		{"eligible", models.PhaseDraft, "claude-sonnet-4", nil},
		{"mini for assess", models.PhaseAssess, "gpt-4o-mini", nil},
		{"mini for draft", models.PhaseDraft, "gpt-4o-mini", ErrIneligibleModel},
		{"mini for refine", models.PhaseRefine, "gpt-4o-mini", ErrIneligibleModel},
		{"unknown model", models.PhaseDraft, "mystery", ErrUnknownModel},
		{"unknown phase", models.Phase("outline"), "claude-sonnet-4", ErrUnknownPhase},
	}

	selector := NewSelector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := selector.Validate(tt.phase, tt.model)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate(%s, %s) = %v, want %v", tt.phase, tt.model, err, tt.wantErr)
			}
		})
	}
}

func TestEstimateTaskCost_Additivity(t *testing.T) {
	selector := NewSelector()
	phaseModels := map[models.Phase]string{
		models.PhaseResearch: "claude-3-5-haiku",
		models.PhaseDraft:    "claude-sonnet-4",
		models.PhaseAssess:   "gpt-4o-mini",
		models.PhaseRefine:   "claude-sonnet-4",
		models.PhaseFinalize: "claude-3-5-haiku",
	}
	const words = 1500

	breakdown, err := selector.EstimateTaskCost(phaseModels, words)
	if err != nil {
		t.Fatalf("EstimateTaskCost() error = %v", err)
	}

	var sum float64
	for phase, model := range phaseModels {
		sel, err := selector.Select(phase, "", map[models.Phase]string{phase: model}, words)
		if err != nil {
			t.Fatalf("Select(%s) error = %v", phase, err)
		}
		sum += sel.Cost
		if got := breakdown.Phases[string(phase)]; math.Abs(got-sel.Cost) > 1e-12 {
			t.Errorf("phase %s cost = %f, select cost = %f", phase, got, sel.Cost)
		}
	}
	if math.Abs(breakdown.Total-sum) > 1e-12 {
		t.Errorf("Total = %f, sum of phases = %f", breakdown.Total, sum)
	}
}

func TestEstimateTaskCost_RejectsBadMap(t *testing.T) {
	selector := NewSelector()
	_, err := selector.EstimateTaskCost(map[models.Phase]string{
		models.PhaseDraft: "gpt-4o-mini",
	}, 1000)
	if !errors.Is(err, ErrIneligibleModel) {
		t.Errorf("error = %v, want ErrIneligibleModel", err)
	}
}

func TestEstimateForPreference_CoversAllPhases(t *testing.T) {
	selector := NewSelector()
	breakdown, err := selector.EstimateForPreference(models.PreferencePremium, 1500)
	if err != nil {
		t.Fatalf("EstimateForPreference() error = %v", err)
	}
	if len(breakdown.Phases) != len(models.Phases) {
		t.Errorf("got %d phases, want %d", len(breakdown.Phases), len(models.Phases))
	}
	if breakdown.Total <= 0 {
		t.Errorf("Total = %f, want > 0", breakdown.Total)
	}

	// Premium must never be cheaper than cheap for the same task.
	cheap, err := selector.EstimateForPreference(models.PreferenceCheap, 1500)
	if err != nil {
		t.Fatalf("EstimateForPreference(cheap) error = %v", err)
	}
	if breakdown.Total <= cheap.Total {
		t.Errorf("premium total %f should exceed cheap total %f", breakdown.Total, cheap.Total)
	}
}

func TestPhaseCost_ScalesWithWords(t *testing.T) {
	selector := NewSelector()
	small, _ := selector.Select(models.PhaseDraft, models.PreferenceBalanced, nil, 500)
	large, _ := selector.Select(models.PhaseDraft, models.PreferenceBalanced, nil, 2000)
	if large.Cost <= small.Cost {
		t.Errorf("cost should grow with target words: %f vs %f", small.Cost, large.Cost)
	}
	if math.Abs(large.Cost-4*small.Cost) > 1e-9 {
		t.Errorf("cost should scale linearly: 4*%f != %f", small.Cost, large.Cost)
	}
}
