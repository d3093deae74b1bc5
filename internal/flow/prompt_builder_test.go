package flow

import (
	"strings"
	"testing"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

func TestBuildContextMessage_Empty(t *testing.T) {
	got := BuildContextMessage(PromptContext{State: models.NewSessionState()})
	want := "<session_context>\nCurrent Phase: OPENING\n</session_context>\n\n" +
		"<conversation_history>\n(No previous messages - this is the session start)\n</conversation_history>"
	if got != want {
		t.Errorf("BuildContextMessage() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildContextMessage_Full(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseDeepDive
	state = AppendRapidFireResponse(state, "Trust", models.AnswerYes)
	state = AppendRapidFireResponse(state, "Speed", models.AnswerNo)
	state.IdentifiedValues = []models.IdentifiedValue{
		{Name: "Trust", Definition: "Doing what we said", Quotes: []string{}},
		{Name: "Craft", Quotes: []string{}},
	}
	state.DeepDiveValuesExplored = []string{"Trust", "Craft"}

	pc := PromptContext{
		State: state,
		History: []models.ConversationMessage{
			{Role: models.RoleAssistant, Content: "Hello!", Sequence: 1},
			{Role: models.RoleUser, Content: "Hi there", Sequence: 2},
		},
		CompanyName: "Acme",
		UserName:    "Sam",
	}
	got := BuildContextMessage(pc)
	want := strings.Join([]string{
		"<session_context>",
		"Current Phase: DEEP_DIVE",
		"Company Name: Acme",
		"User Name: Sam",
		"",
		"Rapid Fire Responses:",
		"- Trust: yes",
		"- Speed: no",
		"",
		"Identified Values:",
		"- Trust: Doing what we said",
		"- Craft",
		"",
		"Values Already Explored in Deep Dive: Trust, Craft",
		"</session_context>",
		"",
		"<conversation_history>",
		"ASSISTANT: Hello!",
		"USER: Hi there",
		"</conversation_history>",
	}, "\n")
	if got != want {
		t.Errorf("BuildContextMessage() =\n%s\nwant\n%s", got, want)
	}

	if again := BuildContextMessage(pc); again != got {
		t.Error("BuildContextMessage is not deterministic")
	}
}

func TestBuildContextMessage_OmitsEmptySections(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseRapidFire
	got := BuildContextMessage(PromptContext{State: state})
	for _, heading := range []string{"Company Name:", "User Name:", "Rapid Fire Responses:", "Identified Values:", "Values Already Explored"} {
		if strings.Contains(got, heading) {
			t.Errorf("empty context contains %q", heading)
		}
	}
}

func TestBuildUserMessage(t *testing.T) {
	pc := PromptContext{State: models.NewSessionState()}
	got := BuildUserMessage(pc, "We build furniture.")
	if !strings.HasPrefix(got, BuildContextMessage(pc)) {
		t.Error("user message should start with the context block")
	}
	if !strings.HasSuffix(got, "\n\n<current_user_message>\nWe build furniture.\n</current_user_message>") {
		t.Errorf("unexpected user message tail:\n%s", got)
	}
}

func TestBuildInitialMessage(t *testing.T) {
	got := BuildInitialMessage("Acme", "Sam")
	for _, want := range []string{
		"Current Phase: OPENING",
		`The founder's company is called "Acme".`,
		"The founder's name is Sam.",
		noHistoryMarker,
		"<current_user_message>\n" + sessionStartMarker + "\n</current_user_message>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("initial message missing %q:\n%s", want, got)
		}
	}

	bare := BuildInitialMessage("", "")
	if strings.Contains(bare, "company is called") || strings.Contains(bare, "founder's name") {
		t.Errorf("initial message without names should omit them:\n%s", bare)
	}
}
