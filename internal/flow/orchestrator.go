package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/BrandDiscovery/internal/genai"
	"github.com/BTreeMap/BrandDiscovery/internal/metrics"
	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// Result is the outcome of one orchestrator operation. Response is always
// usable; Err is set when Response is the fallback apology.
type Result struct {
	Response models.AgentResponse
	NewState models.SessionState
	Raw      string                       // model reply text, empty on fallback
	Turns    []models.ConversationMessage // turns appended by this operation
	Err      error
}

// Orchestrator drives one session: assemble prompt, call the model, parse the
// reply and reduce state. It is not safe for concurrent use; callers run at
// most one operation per session at a time.
type Orchestrator struct {
	sessionID    string
	client       genai.ClientInterface
	systemPrompt string
	state        models.SessionState
	history      models.ConversationHistory
	companyName  string
	userName     string
	now          func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithState rehydrates the orchestrator with stored state.
func WithState(state models.SessionState) OrchestratorOption {
	return func(o *Orchestrator) { o.state = state.Clone() }
}

// WithHistory rehydrates the orchestrator with a stored transcript.
func WithHistory(messages []models.ConversationMessage) OrchestratorOption {
	return func(o *Orchestrator) {
		o.history.Messages = append([]models.ConversationMessage(nil), messages...)
	}
}

// WithCompanyName sets the founder's company name.
func WithCompanyName(name string) OrchestratorOption {
	return func(o *Orchestrator) { o.companyName = name }
}

// WithUserName sets the founder's name.
func WithUserName(name string) OrchestratorOption {
	return func(o *Orchestrator) { o.userName = name }
}

// WithClock overrides the time source used to stamp turns.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an orchestrator at OPENING unless WithState is given.
func NewOrchestrator(sessionID string, client genai.ClientInterface, systemPrompt string, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		sessionID:    sessionID,
		client:       client,
		systemPrompt: systemPrompt,
		state:        models.NewSessionState(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns a copy of the current session state.
func (o *Orchestrator) State() models.SessionState {
	return o.state.Clone()
}

// History returns a copy of the transcript.
func (o *Orchestrator) History() []models.ConversationMessage {
	return append([]models.ConversationMessage(nil), o.history.Messages...)
}

// StartSession asks the model for the opening greeting.
func (o *Orchestrator) StartSession(ctx context.Context) Result {
	slog.Debug("Orchestrator.StartSession", "sessionID", o.sessionID, "company", o.companyName)
	prompt := BuildInitialMessage(o.companyName, o.userName)
	return o.roundTrip(ctx, prompt, nil)
}

// ProcessMessage records the user's turn and asks the model for a reply. The
// user turn stays in the transcript even when the model call fails.
func (o *Orchestrator) ProcessMessage(ctx context.Context, userText string) Result {
	slog.Debug("Orchestrator.ProcessMessage", "sessionID", o.sessionID, "phase", o.state.Phase, "length", len(userText))
	userTurn := o.history.Append(models.RoleUser, userText, o.now())
	pc := PromptContext{
		State:       o.state,
		History:     o.history.Messages,
		CompanyName: o.companyName,
		UserName:    o.userName,
	}
	prompt := BuildUserMessage(pc, userText)
	return o.roundTrip(ctx, prompt, []models.ConversationMessage{userTurn})
}

// RecordRapidFireResponse appends an explicit yes/no/maybe answer.
func (o *Orchestrator) RecordRapidFireResponse(word, response string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return models.ErrEmptyValueWord
	}
	answer, err := models.ParseRapidFireAnswer(response)
	if err != nil {
		return err
	}
	o.state = AppendRapidFireResponse(o.state, word, answer)
	slog.Debug("Orchestrator.RecordRapidFireResponse", "sessionID", o.sessionID, "word", word, "answer", answer, "index", o.state.RapidFireIndex)
	return nil
}

func (o *Orchestrator) roundTrip(ctx context.Context, prompt string, turns []models.ConversationMessage) Result {
	raw, err := o.client.GenerateResponse(ctx, o.systemPrompt, prompt)
	if err != nil {
		return o.fallback(fmt.Errorf("model call: %w", err), turns)
	}

	resp, err := ParseAgentResponse(raw)
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			metrics.RecordParseFailure("schema")
		} else {
			metrics.RecordParseFailure("parse")
		}
		return o.fallback(err, turns)
	}

	turns = append(turns, o.history.Append(models.RoleAssistant, resp.SpokenResponse, o.now()))
	prior := o.state.Phase
	o.state = ApplyStateUpdates(o.state, resp)
	if o.state.Phase != prior {
		slog.Info("Orchestrator: phase advanced", "sessionID", o.sessionID, "from", prior, "to", o.state.Phase)
	}

	return Result{Response: resp, NewState: o.State(), Raw: raw, Turns: turns}
}

func (o *Orchestrator) fallback(err error, turns []models.ConversationMessage) Result {
	slog.Error("Orchestrator: returning fallback response", "sessionID", o.sessionID, "phase", o.state.Phase, "error", err)
	metrics.RecordFallback()
	return Result{
		Response: models.FallbackAgentResponse(o.state.Phase),
		NewState: o.State(),
		Turns:    turns,
		Err:      err,
	}
}
