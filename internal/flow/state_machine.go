// Package flow implements the values discovery interview: the phase state
// machine, model reply parsing, prompt assembly, the session state reducer and
// the orchestrator that sequences them.
package flow

import (
	"log/slog"

	"github.com/BTreeMap/BrandDiscovery/internal/metrics"
	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// Rapid-fire and deep-dive thresholds used by the completion predicates.
const (
	RapidFireTarget = 15
	DeepDiveTarget  = 2
)

// validTransitions lists the phases reachable in one step, including staying put.
var validTransitions = map[models.Phase][]models.Phase{
	models.PhaseOpening:          {models.PhaseOpening, models.PhaseRapidFireIntro},
	models.PhaseRapidFireIntro:   {models.PhaseRapidFireIntro, models.PhaseRapidFire},
	models.PhaseRapidFire:        {models.PhaseRapidFire, models.PhaseRapidFireDebrief},
	models.PhaseRapidFireDebrief: {models.PhaseRapidFireDebrief, models.PhaseDeepDive},
	models.PhaseDeepDive:         {models.PhaseDeepDive, models.PhaseScenario},
	models.PhaseScenario:         {models.PhaseScenario, models.PhaseSynthesis},
	models.PhaseSynthesis:        {models.PhaseSynthesis, models.PhaseRefinement},
	models.PhaseRefinement:       {models.PhaseRefinement, models.PhaseSynthesis, models.PhaseComplete},
	models.PhaseComplete:         {models.PhaseComplete},
}

// CanTransition reports whether requested is reachable from current in one step.
func CanTransition(current, requested models.Phase) bool {
	for _, p := range validTransitions[current] {
		if p == requested {
			return true
		}
	}
	return false
}

// ValidTransitions returns a copy of the phases reachable from current.
func ValidTransitions(current models.Phase) []models.Phase {
	return append([]models.Phase(nil), validTransitions[current]...)
}

// ValidateTransition returns requested when the move is legal and current
// otherwise. Rejections are logged and counted but never returned as errors.
func ValidateTransition(current, requested models.Phase) models.Phase {
	if CanTransition(current, requested) {
		return requested
	}
	slog.Warn("flow.ValidateTransition: transition rejected", "from", current, "to", requested)
	metrics.RecordRejectedTransition(string(current), string(requested))
	return current
}

// NextPhase returns the forward successor of p in canonical order. COMPLETE
// and unknown phases return themselves.
func NextPhase(p models.Phase) models.Phase {
	phases := models.AllPhases()
	i := phaseIndex(p)
	if i < 0 || i+1 >= len(phases) {
		return p
	}
	return phases[i+1]
}

func phaseIndex(p models.Phase) int {
	for i, candidate := range models.AllPhases() {
		if candidate == p {
			return i
		}
	}
	return -1
}

// IsPhaseComplete reports whether phase counts as done given state. The result
// is advisory and only drives progress displays.
func IsPhaseComplete(phase models.Phase, state models.SessionState) bool {
	switch phase {
	case models.PhaseRapidFire:
		return len(state.RapidFireResponses) >= RapidFireTarget
	case models.PhaseDeepDive:
		return len(state.DeepDiveValuesExplored) >= DeepDiveTarget
	case models.PhaseScenario:
		return state.ScenarioCompleted
	case models.PhaseSynthesis:
		return state.SynthesisDelivered
	case models.PhaseRefinement:
		return state.Phase == models.PhaseComplete
	case models.PhaseComplete:
		return true
	default:
		return phaseIndex(state.Phase) > phaseIndex(phase)
	}
}

// Progress projects state onto every phase for a progress display.
func Progress(state models.SessionState) []models.PhaseProgress {
	phases := models.AllPhases()
	out := make([]models.PhaseProgress, 0, len(phases))
	for _, p := range phases {
		info, _ := p.Info()
		out = append(out, models.PhaseProgress{
			PhaseInfo: info,
			Complete:  IsPhaseComplete(p, state),
			Current:   p == state.Phase,
		})
	}
	return out
}
