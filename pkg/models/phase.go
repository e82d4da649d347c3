package models

// Phase is a named stage of content generation. Each phase is
// independently assignable a model and carries its own cost estimate.
type Phase string

const (
	// PhaseResearch gathers background material on the topic.
	PhaseResearch Phase = "research"
	// PhaseDraft produces the initial long-form content.
	PhaseDraft Phase = "draft"
	// PhaseAssess scores a draft against the quality rubric.
	PhaseAssess Phase = "assess"
	// PhaseRefine revises a draft using evaluator feedback.
	PhaseRefine Phase = "refine"
	// PhaseFinalize generates enrichment output such as SEO metadata.
	PhaseFinalize Phase = "finalize"
)

// Phases lists all phases in pipeline order.
var Phases = []Phase{PhaseResearch, PhaseDraft, PhaseAssess, PhaseRefine, PhaseFinalize}

// Valid returns true if the phase is a known value.
func (p Phase) Valid() bool {
	switch p {
	case PhaseResearch, PhaseDraft, PhaseAssess, PhaseRefine, PhaseFinalize:
		return true
	default:
		return false
	}
}

// QualityPreference expresses the caller's cost/quality trade-off for
// automatic model selection.
type QualityPreference string

const (
	// PreferenceCheap picks the lowest-cost eligible model per phase.
	PreferenceCheap QualityPreference = "cheap"
	// PreferenceBalanced picks mid-tier models for drafting phases and
	// cheap models elsewhere.
	PreferenceBalanced QualityPreference = "balanced"
	// PreferencePremium picks the strongest eligible model per phase.
	PreferencePremium QualityPreference = "premium"
)

// Valid returns true if the preference is a known value.
func (p QualityPreference) Valid() bool {
	switch p {
	case PreferenceCheap, PreferenceBalanced, PreferencePremium:
		return true
	default:
		return false
	}
}
