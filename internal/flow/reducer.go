package flow

import (
	"strings"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// ApplyStateUpdates folds a validated model reply into state and returns the
// new state. The input is never modified.
//
// Identified values are merged by exact name and never removed. Explored values
// grow as a set. The phase only changes along a legal transition. Scenario and
// synthesis flags are set once and never cleared.
func ApplyStateUpdates(state models.SessionState, resp models.AgentResponse) models.SessionState {
	next := state.Clone()
	updates := resp.StateUpdates

	prior := state.Phase
	phase := prior
	if updates.Phase != "" {
		phase = ValidateTransition(prior, updates.Phase)
	}
	next.Phase = phase

	for _, name := range updates.IdentifiedValues {
		if strings.TrimSpace(name) == "" || next.HasValue(name) {
			continue
		}
		next.IdentifiedValues = append(next.IdentifiedValues, models.IdentifiedValue{Name: name, Quotes: []string{}})
	}

	for _, name := range updates.ValuesToExplore {
		next = MarkValueExplored(next, name)
	}

	for _, insight := range updates.NewInsights {
		if strings.TrimSpace(insight) != "" {
			next.Insights = append(next.Insights, insight)
		}
	}

	if prior == models.PhaseScenario && phase == models.PhaseSynthesis {
		next.ScenarioCompleted = true
	}
	if prior == models.PhaseSynthesis || phase == models.PhaseSynthesis {
		next.SynthesisDelivered = true
	}
	return next
}

// AppendRapidFireResponse records an explicit rapid-fire answer without a
// model round-trip.
func AppendRapidFireResponse(state models.SessionState, word string, answer models.RapidFireAnswer) models.SessionState {
	next := state.Clone()
	next.RapidFireResponses = append(next.RapidFireResponses, models.RapidFireResponse{Word: word, Response: answer})
	next.RapidFireIndex++
	return next
}
