package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BTreeMap/BrandDiscovery/internal/genai"
	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func reply(phase models.Phase, spoken string) string {
	return `{"spokenResponse":"` + spoken + `","internalNotes":"","stateUpdates":{"phase":"` + string(phase) + `"},"uiActions":{}}`
}

func TestOrchestrator_StartSession(t *testing.T) {
	client := genai.NewMockClient(reply(models.PhaseOpening, "Welcome! Why did you start Acme?"))
	o := NewOrchestrator("s1", client, "system", WithCompanyName("Acme"), WithUserName("Sam"), WithClock(fixedClock()))

	res := o.StartSession(context.Background())
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Response.SpokenResponse != "Welcome! Why did you start Acme?" {
		t.Errorf("spoken = %q", res.Response.SpokenResponse)
	}
	if res.NewState.Phase != models.PhaseOpening {
		t.Errorf("phase = %s, want OPENING", res.NewState.Phase)
	}
	history := o.History()
	if len(history) != 1 || history[0].Role != models.RoleAssistant || history[0].Sequence != 1 {
		t.Fatalf("history = %+v, want one assistant turn", history)
	}
	if len(res.Turns) != 1 {
		t.Errorf("turns = %d, want 1", len(res.Turns))
	}

	call := client.Calls[0]
	if call.SystemPrompt != "system" {
		t.Errorf("system prompt = %q", call.SystemPrompt)
	}
	if !strings.Contains(call.UserMessage, `company is called "Acme"`) {
		t.Errorf("initial prompt missing company:\n%s", call.UserMessage)
	}
}

func TestOrchestrator_ProcessMessageAdvances(t *testing.T) {
	client := genai.NewMockClient(
		reply(models.PhaseOpening, "Hi!"),
		reply(models.PhaseRapidFireIntro, "Let's play a game."),
	)
	o := NewOrchestrator("s1", client, "system", WithClock(fixedClock()))
	o.StartSession(context.Background())

	res := o.ProcessMessage(context.Background(), "I started it to fix furniture waste.")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.NewState.Phase != models.PhaseRapidFireIntro {
		t.Errorf("phase = %s, want RAPID_FIRE_INTRO", res.NewState.Phase)
	}
	if len(res.Turns) != 2 || res.Turns[0].Role != models.RoleUser || res.Turns[1].Role != models.RoleAssistant {
		t.Fatalf("turns = %+v", res.Turns)
	}
	if res.Raw == "" {
		t.Error("raw reply not captured")
	}

	prompt := client.Calls[1].UserMessage
	if !strings.Contains(prompt, "ASSISTANT: Hi!") {
		t.Errorf("prompt missing prior assistant turn:\n%s", prompt)
	}
	if !strings.Contains(prompt, "ASSISTANT: Hi!\nUSER: I started it to fix furniture waste.\n</conversation_history>") {
		t.Errorf("history should end with the current user turn:\n%s", prompt)
	}
	if !strings.Contains(prompt, "<current_user_message>\nI started it to fix furniture waste.\n</current_user_message>") {
		t.Errorf("prompt missing current message:\n%s", prompt)
	}

	seqs := []int{}
	for _, m := range o.History() {
		seqs = append(seqs, m.Sequence)
	}
	if len(seqs) != 3 || seqs[0] != 1 || seqs[1] != 2 || seqs[2] != 3 {
		t.Errorf("sequences = %v, want [1 2 3]", seqs)
	}
}

func TestOrchestrator_ProcessMessageSendsCurrentTurnInHistory(t *testing.T) {
	client := genai.NewMockClient(reply(models.PhaseOpening, "Tell me more."))
	welcome := models.ConversationMessage{Role: models.RoleAssistant, Content: "welcome", Sequence: 1}
	o := NewOrchestrator("s1", client, "system", WithHistory([]models.ConversationMessage{welcome}), WithClock(fixedClock()))

	o.ProcessMessage(context.Background(), "my company makes chairs")

	prompt := client.Calls[0].UserMessage
	want := "<conversation_history>\nASSISTANT: welcome\nUSER: my company makes chairs\n</conversation_history>"
	if !strings.Contains(prompt, want) {
		t.Errorf("prompt missing %q:\n%s", want, prompt)
	}
}

func TestOrchestrator_FirstMessageHasNoSessionStartMarker(t *testing.T) {
	client := genai.NewMockClient(reply(models.PhaseOpening, "Go on."))
	o := NewOrchestrator("s1", client, "system", WithClock(fixedClock()))

	o.ProcessMessage(context.Background(), "hello")

	prompt := client.Calls[0].UserMessage
	if strings.Contains(prompt, noHistoryMarker) {
		t.Errorf("empty-history marker rendered alongside a user turn:\n%s", prompt)
	}
	if !strings.Contains(prompt, "USER: hello\n") {
		t.Errorf("prompt missing user turn:\n%s", prompt)
	}
}

func TestOrchestrator_RejectsIllegalJump(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseRapidFire
	client := genai.NewMockClient(reply(models.PhaseComplete, "All done!"))
	o := NewOrchestrator("s1", client, "system", WithState(state))

	res := o.ProcessMessage(context.Background(), "yes")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.NewState.Phase != models.PhaseRapidFire {
		t.Errorf("phase = %s, want RAPID_FIRE", res.NewState.Phase)
	}
	if res.Response.SpokenResponse != "All done!" {
		t.Errorf("spoken = %q; a rejected transition should still return the reply", res.Response.SpokenResponse)
	}
}

func TestOrchestrator_ModelErrorFallsBack(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseDeepDive
	client := genai.NewMockClient()
	client.Err = errors.New("upstream timeout")
	o := NewOrchestrator("s1", client, "system", WithState(state))

	res := o.ProcessMessage(context.Background(), "It means owning mistakes.")
	if res.Err == nil {
		t.Fatal("expected Err to be set")
	}
	if !strings.Contains(res.Err.Error(), "upstream timeout") {
		t.Errorf("error = %v", res.Err)
	}
	if res.Response.SpokenResponse != models.FallbackSpokenResponse {
		t.Errorf("spoken = %q, want fallback", res.Response.SpokenResponse)
	}
	if res.Response.StateUpdates.Phase != models.PhaseDeepDive || res.NewState.Phase != models.PhaseDeepDive {
		t.Errorf("fallback changed phase to %s", res.NewState.Phase)
	}
	if res.Raw != "" {
		t.Errorf("raw = %q, want empty on fallback", res.Raw)
	}

	history := o.History()
	if len(history) != 1 || history[0].Role != models.RoleUser {
		t.Fatalf("history = %+v, want the user turn only", history)
	}
	if len(res.Turns) != 1 {
		t.Errorf("turns = %d, want 1", len(res.Turns))
	}
}

func TestOrchestrator_UnparseableReplyFallsBack(t *testing.T) {
	for name, raw := range map[string]string{
		"prose":  "Sure, tell me more about that!",
		"schema": `{"spokenResponse":"hi"}`,
	} {
		t.Run(name, func(t *testing.T) {
			o := NewOrchestrator("s1", genai.NewMockClient(raw), "system")
			res := o.ProcessMessage(context.Background(), "hello")
			if res.Err == nil {
				t.Fatal("expected Err to be set")
			}
			if res.Response.SpokenResponse != models.FallbackSpokenResponse {
				t.Errorf("spoken = %q", res.Response.SpokenResponse)
			}
			if res.NewState.Phase != models.PhaseOpening {
				t.Errorf("phase = %s", res.NewState.Phase)
			}
		})
	}
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := NewOrchestrator("s1", genai.NewMockClient(reply(models.PhaseOpening, "hi")), "system")
	res := o.StartSession(ctx)
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
}

func TestOrchestrator_RecordRapidFireResponse(t *testing.T) {
	state := models.NewSessionState()
	state.Phase = models.PhaseRapidFire
	o := NewOrchestrator("s1", genai.NewMockClient(), "system", WithState(state))

	if err := o.RecordRapidFireResponse("Trust", " YES "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := o.State()
	if got.RapidFireIndex != 1 || got.RapidFireResponses[0].Response != models.AnswerYes {
		t.Errorf("state = %+v", got)
	}
	if err := o.RecordRapidFireResponse("Trust", "sometimes"); !errors.Is(err, models.ErrInvalidRapidFireAnswer) {
		t.Errorf("err = %v, want ErrInvalidRapidFireAnswer", err)
	}
	if err := o.RecordRapidFireResponse(" ", "no"); !errors.Is(err, models.ErrEmptyValueWord) {
		t.Errorf("err = %v, want ErrEmptyValueWord", err)
	}
	if o.State().RapidFireIndex != 1 {
		t.Error("invalid answers changed state")
	}
}

func TestOrchestrator_ScriptedInterview(t *testing.T) {
	o := NewOrchestrator("s1", genai.NewMockClient(), "system")
	ctx := context.Background()
	res := o.StartSession(ctx)
	for i := 0; i < 20 && res.NewState.Phase != models.PhaseComplete; i++ {
		res = o.ProcessMessage(ctx, "answer")
		if res.Err != nil {
			t.Fatalf("turn %d: %v", i, res.Err)
		}
	}
	state := o.State()
	if state.Phase != models.PhaseComplete {
		t.Fatalf("phase = %s, want COMPLETE", state.Phase)
	}
	if !state.ScenarioCompleted || !state.SynthesisDelivered {
		t.Error("scenario and synthesis flags should be set")
	}
	if len(state.IdentifiedValues) != 2 || len(state.DeepDiveValuesExplored) != 2 {
		t.Errorf("values=%d explored=%d", len(state.IdentifiedValues), len(state.DeepDiveValuesExplored))
	}
}

func TestOrchestrator_StateIsCopied(t *testing.T) {
	o := NewOrchestrator("s1", genai.NewMockClient(), "system")
	s := o.State()
	s.Insights = append(s.Insights, "leak")
	if len(o.State().Insights) != 0 {
		t.Error("State() exposed internal slices")
	}
}
