package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestMockClient_QueuedResponses(t *testing.T) {
	m := NewMockClient("first", "second")
	ctx := context.Background()

	for _, want := range []string{"first", "second"} {
		got, err := m.GenerateResponse(ctx, "sys", "usr")
		if err != nil || got != want {
			t.Errorf("got %q, %v; want %q", got, err, want)
		}
	}
	if m.CallCount() != 2 {
		t.Errorf("expected 2 calls, got %d", m.CallCount())
	}
}

func TestMockClient_Error(t *testing.T) {
	m := &MockClient{Err: errors.New("down")}
	if _, err := m.GenerateResponse(context.Background(), "s", "u"); err == nil {
		t.Error("expected configured error")
	}
}

func TestMockClient_ScriptedReplyAdvancesPhase(t *testing.T) {
	m := NewMockClient()
	out, err := m.GenerateResponse(context.Background(), "sys", "<session_context>\nCurrent Phase: DEEP_DIVE\n</session_context>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gjson.Valid(out) {
		t.Fatalf("scripted reply is not valid JSON: %s", out)
	}
	if got := gjson.Get(out, "stateUpdates.phase").String(); got != "SCENARIO" {
		t.Errorf("expected next phase SCENARIO, got %q", got)
	}
	if strings.TrimSpace(gjson.Get(out, "spokenResponse").String()) == "" {
		t.Error("expected a spoken response")
	}
}

func TestMockClient_ScriptedReplyDefaultsToOpening(t *testing.T) {
	out, _ := NewMockClient().GenerateResponse(context.Background(), "sys", "no context here")
	if got := gjson.Get(out, "stateUpdates.phase").String(); got != "RAPID_FIRE_INTRO" {
		t.Errorf("expected RAPID_FIRE_INTRO, got %q", got)
	}
}
