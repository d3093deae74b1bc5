package flow

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

func replyWith(phase models.Phase, updates func(*models.StateUpdates)) models.AgentResponse {
	resp := models.AgentResponse{
		StateUpdates: models.StateUpdates{
			Phase:            phase,
			NewInsights:      []string{},
			IdentifiedValues: []string{},
			ValuesToExplore:  []string{},
		},
	}
	if updates != nil {
		updates(&resp.StateUpdates)
	}
	return resp
}

func TestApplyStateUpdates_MergesValuesByName(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseRapidFireDebrief

	resp := replyWith(models.PhaseRapidFireDebrief, func(u *models.StateUpdates) {
		u.IdentifiedValues = []string{"Trust", "Craft", "Trust", "  "}
	})
	once := ApplyStateUpdates(state, resp)
	twice := ApplyStateUpdates(once, resp)

	want := []models.IdentifiedValue{{Name: "Trust", Quotes: []string{}}, {Name: "Craft", Quotes: []string{}}}
	if diff := cmp.Diff(want, twice.IdentifiedValues); diff != "" {
		t.Errorf("identified values mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyStateUpdates_KeepsDefinitions(t *testing.T) {
	state := models.NewSessionState()
	state.IdentifiedValues = []models.IdentifiedValue{{Name: "Trust", Definition: "Keep promises", Quotes: []string{"always"}}}

	next := ApplyStateUpdates(state, replyWith(models.PhaseOpening, func(u *models.StateUpdates) {
		u.IdentifiedValues = []string{"Trust"}
	}))
	if diff := cmp.Diff(state.IdentifiedValues, next.IdentifiedValues); diff != "" {
		t.Errorf("existing value changed (-want +got):\n%s", diff)
	}
}

func TestApplyStateUpdates_ExploredIsSet(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseDeepDive
	state.DeepDiveValuesExplored = []string{"Trust"}

	next := ApplyStateUpdates(state, replyWith(models.PhaseDeepDive, func(u *models.StateUpdates) {
		u.ValuesToExplore = []string{"Trust", "Joy", "Joy"}
	}))
	if diff := cmp.Diff([]string{"Trust", "Joy"}, next.DeepDiveValuesExplored); diff != "" {
		t.Errorf("explored mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyStateUpdates_InsightsAppend(t *testing.T) {
	state := models.NewSessionState()
	state.Insights = []string{"first"}
	next := ApplyStateUpdates(state, replyWith(models.PhaseOpening, func(u *models.StateUpdates) {
		u.NewInsights = []string{"second", "", "third"}
	}))
	if diff := cmp.Diff([]string{"first", "second", "third"}, next.Insights); diff != "" {
		t.Errorf("insights mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyStateUpdates_PhaseValidation(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseRapidFire

	if got := ApplyStateUpdates(state, replyWith(models.PhaseComplete, nil)).Phase; got != models.PhaseRapidFire {
		t.Errorf("illegal jump produced phase %s", got)
	}
	if got := ApplyStateUpdates(state, replyWith(models.PhaseRapidFireDebrief, nil)).Phase; got != models.PhaseRapidFireDebrief {
		t.Errorf("legal step produced phase %s", got)
	}
	if got := ApplyStateUpdates(state, replyWith("", nil)).Phase; got != models.PhaseRapidFire {
		t.Errorf("empty phase produced %s", got)
	}
}

func TestApplyStateUpdates_FlagsAreMonotonic(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseScenario

	state = ApplyStateUpdates(state, replyWith(models.PhaseSynthesis, nil))
	if !state.ScenarioCompleted || !state.SynthesisDelivered {
		t.Fatalf("SCENARIO->SYNTHESIS flags = %v/%v", state.ScenarioCompleted, state.SynthesisDelivered)
	}

	state = ApplyStateUpdates(state, replyWith(models.PhaseRefinement, nil))
	state = ApplyStateUpdates(state, replyWith(models.PhaseSynthesis, nil))
	state = ApplyStateUpdates(state, replyWith(models.PhaseRefinement, nil))
	state = ApplyStateUpdates(state, replyWith(models.PhaseComplete, nil))
	if state.Phase != models.PhaseComplete {
		t.Fatalf("phase = %s, want COMPLETE", state.Phase)
	}
	if !state.ScenarioCompleted || !state.SynthesisDelivered {
		t.Error("flags were cleared")
	}
}

func TestApplyStateUpdates_RejectedSynthesisLeavesFlags(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseDeepDive
	next := ApplyStateUpdates(state, replyWith(models.PhaseSynthesis, nil))
	if next.SynthesisDelivered || next.ScenarioCompleted {
		t.Error("rejected transition should not set flags")
	}
}

func TestApplyStateUpdates_DoesNotMutateInput(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseRapidFireDebrief
	state.IdentifiedValues = []models.IdentifiedValue{{Name: "Trust", Quotes: []string{}}}
	state.Insights = []string{"a"}
	before := state.Clone()

	ApplyStateUpdates(state, replyWith(models.PhaseDeepDive, func(u *models.StateUpdates) {
		u.IdentifiedValues = []string{"Joy"}
		u.ValuesToExplore = []string{"Trust"}
		u.NewInsights = []string{"b"}
	}))
	if diff := cmp.Diff(before, state); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestAppendRapidFireResponse(t *testing.T) {
	state := models.NewSessionState()
	next := AppendRapidFireResponse(state, "Trust", models.AnswerMaybe)
	if next.RapidFireIndex != 1 || len(next.RapidFireResponses) != 1 {
		t.Fatalf("index=%d responses=%d", next.RapidFireIndex, len(next.RapidFireResponses))
	}
	if len(state.RapidFireResponses) != 0 {
		t.Error("input state was mutated")
	}
}
