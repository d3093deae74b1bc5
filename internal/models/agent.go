package models

// StateUpdates is the part of a model response that may change session state.
type StateUpdates struct {
	Phase            Phase    `json:"phase"`
	NewInsights      []string `json:"newInsights"`
	IdentifiedValues []string `json:"identifiedValues"`
	ValuesToExplore  []string `json:"valuesToExplore"`
}

// UIActions are presentation hints forwarded to the client untouched.
type UIActions struct {
	ShowValueCards []string `json:"showValueCards,omitempty"`
	HighlightValue *string  `json:"highlightValue,omitempty"`
	UpdateProgress *string  `json:"updateProgress,omitempty"`
	ShowSummary    *bool    `json:"showSummary,omitempty"`
}

// AgentResponse is the validated form of one model reply.
type AgentResponse struct {
	SpokenResponse string       `json:"spokenResponse"`
	InternalNotes  string       `json:"internalNotes"`
	StateUpdates   StateUpdates `json:"stateUpdates"`
	UIActions      UIActions    `json:"uiActions"`
}

// FallbackSpokenResponse is spoken whenever a model round-trip fails.
const FallbackSpokenResponse = "I apologize, but I'm having a bit of trouble right now. Could you repeat what you just said?"

// FallbackAgentResponse returns the apology reply that keeps the session at phase.
func FallbackAgentResponse(phase Phase) AgentResponse {
	return AgentResponse{
		SpokenResponse: FallbackSpokenResponse,
		InternalNotes:  "Error occurred, requesting user to repeat",
		StateUpdates: StateUpdates{
			Phase:            phase,
			NewInsights:      []string{},
			IdentifiedValues: []string{},
			ValuesToExplore:  []string{},
		},
		UIActions: UIActions{},
	}
}
