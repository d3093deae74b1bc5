package models

import "strings"

// Phase is one of the nine stages of the guided interview.
type Phase string

// Interview phases in their canonical order.
const (
	PhaseOpening          Phase = "OPENING"
	PhaseRapidFireIntro   Phase = "RAPID_FIRE_INTRO"
	PhaseRapidFire        Phase = "RAPID_FIRE"
	PhaseRapidFireDebrief Phase = "RAPID_FIRE_DEBRIEF"
	PhaseDeepDive         Phase = "DEEP_DIVE"
	PhaseScenario         Phase = "SCENARIO"
	PhaseSynthesis        Phase = "SYNTHESIS"
	PhaseRefinement       Phase = "REFINEMENT"
	PhaseComplete         Phase = "COMPLETE"
)

// PhaseInfo carries display metadata for a phase.
type PhaseInfo struct {
	Phase       Phase  `json:"phase"`
	Name        string `json:"name"`
	Label       string `json:"label"` // progress-bar label; intro and rapid fire share one
	Rank        int    `json:"rank"`  // progress-bar rank; not used for transitions
	Description string `json:"description"`
}

var phaseInfos = []PhaseInfo{
	{PhaseOpening, "Opening", "Opening", 0, "Build rapport and understand motivation"},
	{PhaseRapidFireIntro, "Exercise Introduction", "Value Words", 1, "Explain the rapid-fire exercise"},
	{PhaseRapidFire, "Rapid Fire", "Value Words", 1, "Quick gut-check on value words"},
	{PhaseRapidFireDebrief, "Debrief", "Reflection", 2, "Reflect on patterns from rapid-fire"},
	{PhaseDeepDive, "Deep Dive", "Deep Dive", 3, "Explore what values really mean"},
	{PhaseScenario, "Scenario Testing", "Scenario", 4, "Test values under pressure"},
	{PhaseSynthesis, "Synthesis", "Synthesis", 5, "Play back what was heard"},
	{PhaseRefinement, "Refinement", "Refinement", 6, "Incorporate feedback"},
	{PhaseComplete, "Complete", "Complete", 7, "Wrap up and deliver"},
}

// AllPhases returns every phase in canonical order.
func AllPhases() []Phase {
	phases := make([]Phase, len(phaseInfos))
	for i, info := range phaseInfos {
		phases[i] = info.Phase
	}
	return phases
}

// Info returns the display metadata for p. The second return is false for unknown phases.
func (p Phase) Info() (PhaseInfo, bool) {
	for _, info := range phaseInfos {
		if info.Phase == p {
			return info, true
		}
	}
	return PhaseInfo{}, false
}

// Rank returns the progress rank of p, or -1 if p is unknown.
func (p Phase) Rank() int {
	if info, ok := p.Info(); ok {
		return info.Rank
	}
	return -1
}

// Label returns the progress label of p.
func (p Phase) Label() string {
	info, _ := p.Info()
	return info.Label
}

// IsValid reports whether p is one of the nine known phases.
func (p Phase) IsValid() bool {
	_, ok := p.Info()
	return ok
}

// IsTerminal reports whether p is the final phase.
func (p Phase) IsTerminal() bool {
	return p == PhaseComplete
}

func (p Phase) String() string {
	return string(p)
}

// ParsePhase normalizes s to upper case and returns the matching phase.
// Surrounding whitespace is not trimmed.
func ParsePhase(s string) (Phase, bool) {
	p := Phase(strings.ToUpper(s))
	return p, p.IsValid()
}
