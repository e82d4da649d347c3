// Package modelsel selects generation models per pipeline phase and
// estimates their cost. Selection is driven by a quality preference or
// an explicit per-phase override from the caller.
package modelsel

import (
	"errors"
	"fmt"

	"github.com/inkwell-press/inkwell/pkg/models"
)

// Selection errors. All are caller-recoverable: the orchestrator falls
// back to automatic selection rather than aborting.
var (
	// ErrUnknownPhase is returned for a phase outside the pipeline.
	ErrUnknownPhase = errors.New("unknown phase")
	// ErrUnknownModel is returned for a model not in the catalog.
	ErrUnknownModel = errors.New("unknown model")
	// ErrIneligibleModel is returned when the catalog does not allow the
	// model for the requested phase.
	ErrIneligibleModel = errors.New("model not eligible for phase")
)

// ModelSpec describes one catalog entry.
type ModelSpec struct {
	// ID is the provider model identifier.
	ID string
	// RatePer1K is the estimated dollar cost per 1000 tokens.
	RatePer1K float64
	// Phases lists the phases the model may serve. Empty means all.
	Phases []models.Phase
}

// EligibleFor reports whether the model may serve the given phase.
func (m ModelSpec) EligibleFor(phase models.Phase) bool {
	if len(m.Phases) == 0 {
		return true
	}
	for _, p := range m.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

// catalog is the static model table. Rates are estimates for budgeting,
// not billing records; no live pricing lookups happen.
var catalog = map[string]ModelSpec{
	"claude-3-5-haiku": {ID: "claude-3-5-haiku", RatePer1K: 0.004},
	"claude-sonnet-4":  {ID: "claude-sonnet-4", RatePer1K: 0.018},
	"claude-opus-4-1":  {ID: "claude-opus-4-1", RatePer1K: 0.09},
	"gpt-4o":           {ID: "gpt-4o", RatePer1K: 0.015},
	// gpt-4o-mini is kept for short-output phases only; it is not
	// allowed to carry long-form drafting.
	"gpt-4o-mini": {
		ID:        "gpt-4o-mini",
		RatePer1K: 0.0036,
		Phases:    []models.Phase{models.PhaseResearch, models.PhaseAssess, models.PhaseFinalize},
	},
}

// autoSelection maps quality preference and phase to the model picked
// when the caller does not override.
var autoSelection = map[models.QualityPreference]map[models.Phase]string{
	models.PreferenceCheap: {
		models.PhaseResearch: "claude-3-5-haiku",
		models.PhaseDraft:    "claude-3-5-haiku",
		models.PhaseAssess:   "gpt-4o-mini",
		models.PhaseRefine:   "claude-3-5-haiku",
		models.PhaseFinalize: "gpt-4o-mini",
	},
	models.PreferenceBalanced: {
		models.PhaseResearch: "claude-3-5-haiku",
		models.PhaseDraft:    "claude-sonnet-4",
		models.PhaseAssess:   "gpt-4o-mini",
		models.PhaseRefine:   "claude-sonnet-4",
		models.PhaseFinalize: "claude-3-5-haiku",
	},
	models.PreferencePremium: {
		models.PhaseResearch: "claude-sonnet-4",
		models.PhaseDraft:    "claude-opus-4-1",
		models.PhaseAssess:   "claude-sonnet-4",
		models.PhaseRefine:   "claude-opus-4-1",
		models.PhaseFinalize: "claude-sonnet-4",
	},
}

// phaseOutputShare scales the target word count into the expected output
// volume of each phase. Research notes and metadata are shorter than the
// draft itself.
var phaseOutputShare = map[models.Phase]float64{
	models.PhaseResearch: 0.5,
	models.PhaseDraft:    1.0,
	models.PhaseAssess:   0.3,
	models.PhaseRefine:   1.0,
	models.PhaseFinalize: 0.2,
}

// tokensPerWord approximates the token expansion of English prose.
const tokensPerWord = 4.0 / 3.0

// Selection is one phase's chosen model and its estimated cost.
type Selection struct {
	// Model is the selected model identifier.
	Model string
	// Cost is the estimated dollar cost for the phase.
	Cost float64
}

// CostBreakdown holds the estimated cost of a whole task.
type CostBreakdown struct {
	// Phases maps phase name to its estimated cost.
	Phases map[string]float64
	// Total is the sum of the per-phase estimates.
	Total float64
}

// Selector picks models per phase and prices them.
type Selector struct {
	catalog map[string]ModelSpec
	auto    map[models.QualityPreference]map[models.Phase]string
}

// NewSelector creates a Selector backed by the built-in catalog.
func NewSelector() *Selector {
	return &Selector{catalog: catalog, auto: autoSelection}
}

// Select returns the model and estimated cost for one phase. An explicit
// model in the overrides map wins over automatic selection for that
// phase only; overrides are validated against the catalog.
func (s *Selector) Select(phase models.Phase, pref models.QualityPreference, overrides map[models.Phase]string, targetWords int) (Selection, error) {
	if !phase.Valid() {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}

	if explicit, ok := overrides[phase]; ok {
		if err := s.Validate(phase, explicit); err != nil {
			return Selection{}, err
		}
		return Selection{Model: explicit, Cost: s.phaseCost(phase, explicit, targetWords)}, nil
	}

	table, ok := s.auto[pref]
	if !ok {
		table = s.auto[models.PreferenceBalanced]
	}
	model := table[phase]
	return Selection{Model: model, Cost: s.phaseCost(phase, model, targetWords)}, nil
}

// Validate checks that the model exists and may serve the phase.
func (s *Selector) Validate(phase models.Phase, model string) error {
	if !phase.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}
	spec, ok := s.catalog[model]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	if !spec.EligibleFor(phase) {
		return fmt.Errorf("%w: %s for %s", ErrIneligibleModel, model, phase)
	}
	return nil
}

// EstimateTaskCost sums the per-phase estimates for an explicit phase
// model map. Pure function; no side effects.
func (s *Selector) EstimateTaskCost(phaseModels map[models.Phase]string, targetWords int) (CostBreakdown, error) {
	breakdown := CostBreakdown{Phases: make(map[string]float64, len(phaseModels))}
	for phase, model := range phaseModels {
		if err := s.Validate(phase, model); err != nil {
			return CostBreakdown{}, err
		}
		cost := s.phaseCost(phase, model, targetWords)
		breakdown.Phases[string(phase)] = cost
		breakdown.Total += cost
	}
	return breakdown, nil
}

// EstimateForPreference prices a full pipeline under automatic selection.
func (s *Selector) EstimateForPreference(pref models.QualityPreference, targetWords int) (CostBreakdown, error) {
	breakdown := CostBreakdown{Phases: make(map[string]float64, len(models.Phases))}
	for _, phase := range models.Phases {
		sel, err := s.Select(phase, pref, nil, targetWords)
		if err != nil {
			return CostBreakdown{}, err
		}
		breakdown.Phases[string(phase)] = sel.Cost
		breakdown.Total += sel.Cost
	}
	return breakdown, nil
}

// phaseCost prices one phase: expected tokens for the phase's output
// volume times the model's per-1k rate.
func (s *Selector) phaseCost(phase models.Phase, model string, targetWords int) float64 {
	spec, ok := s.catalog[model]
	if !ok {
		return 0
	}
	words := float64(targetWords) * phaseOutputShare[phase]
	tokens := words * tokensPerWord
	return tokens / 1000.0 * spec.RatePer1K
}

// Models returns the catalog entries, for CLI listing.
func (s *Selector) Models() []ModelSpec {
	specs := make([]ModelSpec, 0, len(s.catalog))
	for _, spec := range s.catalog {
		specs = append(specs, spec)
	}
	return specs
}
