package genai

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// MockCall records one call made to a MockClient.
type MockCall struct {
	SystemPrompt string
	UserMessage  string
}

// MockClient is an offline ClientInterface. Queued Responses are returned in
// order; once they run out it replies with a scripted turn for the phase named
// in the prompt, advancing one phase per call.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     []MockCall
}

// NewMockClient creates a MockClient with no queued responses.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{Responses: responses}
}

// GenerateResponse records the call and returns the next canned reply.
func (m *MockClient) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{SystemPrompt: systemPrompt, UserMessage: userMessage})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		next := m.Responses[0]
		m.Responses = m.Responses[1:]
		return next, nil
	}
	return scriptedReply(currentPhaseFromPrompt(userMessage)), nil
}

// CallCount returns how many calls were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func currentPhaseFromPrompt(prompt string) models.Phase {
	const marker = "Current Phase: "
	i := strings.Index(prompt, marker)
	if i < 0 {
		return models.PhaseOpening
	}
	rest := prompt[i+len(marker):]
	if j := strings.IndexByte(rest, '\n'); j >= 0 {
		rest = rest[:j]
	}
	if p, ok := models.ParsePhase(strings.TrimSpace(rest)); ok {
		return p
	}
	return models.PhaseOpening
}

var scriptedLines = map[models.Phase]string{
	models.PhaseOpening:          "Great to meet you. Before we get into it, tell me why you started this company.",
	models.PhaseRapidFireIntro:   "Let's play a quick game. I'll say a word and you tell me yes, no, or maybe. Ready?",
	models.PhaseRapidFire:        "Thanks. Looking back at your answers, which word surprised you most?",
	models.PhaseRapidFireDebrief: "Let's dig into one of those. What does integrity look like on a hard day?",
	models.PhaseDeepDive:         "Here's a scenario. A big client asks you to cut a corner. What do you do?",
	models.PhaseScenario:         "Let me play back what I've heard about the values that guide you.",
	models.PhaseSynthesis:        "Does that feel right, or would you change anything?",
	models.PhaseRefinement:       "Wonderful. Your values summary is ready. Thanks for a great conversation.",
	models.PhaseComplete:         "We're all done here. Your summary is ready whenever you are.",
}

func scriptedReply(current models.Phase) string {
	next := current
	phases := models.AllPhases()
	for i, p := range phases {
		if p == current && i+1 < len(phases) {
			next = phases[i+1]
			break
		}
	}

	resp := models.AgentResponse{
		SpokenResponse: scriptedLines[current],
		InternalNotes:  "scripted reply for " + string(current),
		StateUpdates: models.StateUpdates{
			Phase:            next,
			NewInsights:      []string{},
			IdentifiedValues: []string{},
			ValuesToExplore:  []string{},
		},
	}
	switch current {
	case models.PhaseRapidFire:
		resp.StateUpdates.IdentifiedValues = []string{"Integrity", "Craftsmanship"}
		resp.StateUpdates.NewInsights = []string{"Said yes quickly to words about honesty"}
		resp.UIActions.ShowValueCards = []string{"Integrity", "Craftsmanship"}
	case models.PhaseRapidFireDebrief:
		resp.StateUpdates.ValuesToExplore = []string{"Integrity"}
	case models.PhaseDeepDive:
		resp.StateUpdates.ValuesToExplore = []string{"Craftsmanship"}
	case models.PhaseSynthesis:
		show := true
		resp.UIActions.ShowSummary = &show
	}
	data, _ := json.Marshal(resp)
	return string(data)
}
