package flow

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/BrandDiscovery/internal/genai"
	"github.com/BTreeMap/BrandDiscovery/internal/metrics"
	"github.com/BTreeMap/BrandDiscovery/internal/models"
	"github.com/BTreeMap/BrandDiscovery/internal/store"
	"github.com/BTreeMap/BrandDiscovery/internal/util"
)

// maxSlugAttempts bounds share slug collision retries.
const maxSlugAttempts = 5

// lockStripes is the number of mutexes shared by all sessions.
const lockStripes = 64

// SessionService runs orchestrator operations against stored sessions. Each
// call rehydrates state from the store, runs one operation and persists the
// deltas. Calls for the same session are serialized.
type SessionService struct {
	store        store.Store
	client       genai.ClientInterface
	systemPrompt string
	baseURL      string
	now          func() time.Time
	newSlug      func() string

	locks [lockStripes]sync.Mutex
}

// ServiceOption configures a SessionService.
type ServiceOption func(*SessionService)

// WithBaseURL sets the public origin used to build share URLs.
func WithBaseURL(baseURL string) ServiceOption {
	return func(s *SessionService) { s.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithServiceClock overrides the time source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *SessionService) { s.now = now }
}

// WithSlugGenerator overrides share slug generation.
func WithSlugGenerator(gen func() string) ServiceOption {
	return func(s *SessionService) { s.newSlug = gen }
}

// NewSessionService creates a SessionService.
func NewSessionService(st store.Store, client genai.ClientInterface, systemPrompt string, opts ...ServiceOption) *SessionService {
	s := &SessionService{
		store:        st,
		client:       client,
		systemPrompt: systemPrompt,
		now:          time.Now,
		newSlug:      util.GenerateShareSlug,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock serializes work on one session. Sessions hashing to the same stripe
// also wait on each other.
func (s *SessionService) lock(sessionID string) func() {
	l := &s.locks[lockStripe(sessionID)]
	l.Lock()
	return l.Unlock
}

func lockStripe(sessionID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return h.Sum32() % lockStripes
}

// Start creates a session and returns the opening greeting.
func (s *SessionService) Start(ctx context.Context, req models.StartSessionRequest) (models.StartSessionResponse, error) {
	now := s.now().UTC()
	rec := models.SessionRecord{
		ID:             util.NewSessionID(),
		Status:         models.SessionStatusActive,
		Phase:          models.PhaseOpening,
		CompanyName:    req.CompanyName,
		UserName:       req.UserName,
		ExploredValues: []string{},
		Insights:       []string{},
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateSession(rec); err != nil {
		return models.StartSessionResponse{}, err
	}
	unlock := s.lock(rec.ID)
	defer unlock()

	orch := NewOrchestrator(rec.ID, s.client, s.systemPrompt,
		WithCompanyName(rec.CompanyName), WithUserName(rec.UserName), WithClock(s.now))
	res := orch.StartSession(ctx)
	if res.Err != nil {
		slog.Warn("SessionService.Start: opening fell back", "sessionID", rec.ID, "error", res.Err)
	}
	if err := s.persist(&rec, models.NewSessionState(), res); err != nil {
		return models.StartSessionResponse{}, err
	}
	metrics.RecordSessionStarted()
	slog.Info("SessionService.Start: session started", "sessionID", rec.ID, "phase", rec.Phase)

	return models.StartSessionResponse{
		Session:        models.SessionSummary{ID: rec.ID, CurrentPhase: rec.Phase, CreatedAt: rec.CreatedAt},
		SpokenResponse: res.Response.SpokenResponse,
		UIActions:      res.Response.UIActions,
	}, nil
}

// SubmitMessage runs one user turn. Model failures produce the fallback reply,
// not an error; errors are returned only for missing or inactive sessions and
// storage failures.
func (s *SessionService) SubmitMessage(ctx context.Context, req models.MessageRequest) (models.MessageResponse, error) {
	unlock := s.lock(req.SessionID)
	defer unlock()

	rec, err := s.activeSession(req.SessionID)
	if err != nil {
		return models.MessageResponse{}, err
	}
	state, history, err := s.rehydrate(rec)
	if err != nil {
		return models.MessageResponse{}, err
	}

	orch := NewOrchestrator(rec.ID, s.client, s.systemPrompt,
		WithState(state), WithHistory(history),
		WithCompanyName(rec.CompanyName), WithUserName(rec.UserName), WithClock(s.now))
	res := orch.ProcessMessage(ctx, req.UserMessage)
	if res.Err != nil {
		slog.Warn("SessionService.SubmitMessage: reply fell back", "sessionID", rec.ID, "error", res.Err)
	}
	if err := s.persist(rec, state, res); err != nil {
		return models.MessageResponse{}, err
	}

	return models.MessageResponse{
		SpokenResponse: res.Response.SpokenResponse,
		InternalNotes:  res.Response.InternalNotes,
		StateUpdates:   res.Response.StateUpdates,
		UIActions:      res.Response.UIActions,
		CurrentPhase:   res.NewState.Phase,
	}, nil
}

// RecordRapidFire stores an explicit rapid-fire answer.
func (s *SessionService) RecordRapidFire(req models.RapidFireRequest) (models.RapidFireRecord, error) {
	unlock := s.lock(req.SessionID)
	defer unlock()

	rec, err := s.activeSession(req.SessionID)
	if err != nil {
		return models.RapidFireRecord{}, err
	}
	state, _, err := s.rehydrate(rec)
	if err != nil {
		return models.RapidFireRecord{}, err
	}
	orch := NewOrchestrator(rec.ID, s.client, s.systemPrompt, WithState(state))
	if err := orch.RecordRapidFireResponse(req.Word, req.Response); err != nil {
		return models.RapidFireRecord{}, err
	}
	next := orch.State()
	last := next.RapidFireResponses[len(next.RapidFireResponses)-1]

	r := models.RapidFireRecord{
		ID:             util.NewRecordID(),
		SessionID:      rec.ID,
		Word:           last.Word,
		Response:       last.Response,
		ResponseTimeMs: req.ResponseTimeMs,
		Sequence:       next.RapidFireIndex,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.AddRapidFireResponse(r); err != nil {
		return models.RapidFireRecord{}, err
	}
	return r, nil
}

// AmendValue edits an identified value. Completed sessions may still be
// amended; completing again refreshes the deliverable.
func (s *SessionService) AmendValue(req models.AmendValueRequest) (models.ValueRecord, error) {
	unlock := s.lock(req.SessionID)
	defer unlock()

	rec, err := s.session(req.SessionID)
	if err != nil {
		return models.ValueRecord{}, err
	}
	state, _, err := s.rehydrate(rec)
	if err != nil {
		return models.ValueRecord{}, err
	}

	ok := state.HasValue(req.ValueName)
	if req.Definition != nil {
		state, ok = UpdateValueDefinition(state, req.ValueName, *req.Definition)
	}
	if req.Quote != "" {
		state, ok = AddValueQuote(state, req.ValueName, req.Quote)
	}
	if !ok {
		return models.ValueRecord{}, models.ErrValueNotFound
	}

	values, err := s.store.ListValues(rec.ID)
	if err != nil {
		return models.ValueRecord{}, err
	}
	var v models.ValueRecord
	for _, candidate := range values {
		if candidate.Name == req.ValueName {
			v = candidate
		}
	}
	for _, iv := range state.IdentifiedValues {
		if iv.Name == req.ValueName {
			v.Definition = iv.Definition
			v.Quotes = iv.Quotes
		}
	}
	if req.InPractice != nil {
		v.InPractice = *req.InPractice
	}
	if req.AntiPattern != nil {
		v.AntiPattern = *req.AntiPattern
	}
	v.UpdatedAt = s.now().UTC()
	if err := s.store.UpsertValue(v); err != nil {
		return models.ValueRecord{}, err
	}
	slog.Debug("SessionService.AmendValue: value updated", "sessionID", rec.ID, "value", v.Name)
	return v, nil
}

// Complete finalizes a session and creates or refreshes its deliverable. The
// share slug is assigned once and kept on repeat completions.
func (s *SessionService) Complete(req models.CompleteRequest) (models.CompleteResponse, error) {
	unlock := s.lock(req.SessionID)
	defer unlock()

	rec, err := s.session(req.SessionID)
	if err != nil {
		return models.CompleteResponse{}, err
	}
	values, err := s.store.ListValues(rec.ID)
	if err != nil {
		return models.CompleteResponse{}, err
	}
	now := s.now().UTC()

	d := models.DeliverableRecord{
		ID:        util.NewRecordID(),
		SessionID: rec.ID,
		Content:   BuildDeliverableContent(rec.CompanyName, values, rec.Insights, rec.StartedAt, now),
		CreatedAt: now,
		UpdatedAt: now,
	}
	existing, err := s.store.GetDeliverableBySession(rec.ID)
	if err != nil {
		return models.CompleteResponse{}, err
	}
	if existing != nil {
		d.ID, d.ShareSlug, d.CreatedAt = existing.ID, existing.ShareSlug, existing.CreatedAt
	} else if d.ShareSlug, err = s.uniqueSlug(); err != nil {
		return models.CompleteResponse{}, err
	}
	if err := s.store.SaveDeliverable(d); err != nil {
		return models.CompleteResponse{}, err
	}
	if err := s.store.MarkValuesFinal(rec.ID); err != nil {
		return models.CompleteResponse{}, err
	}

	firstCompletion := rec.Status != models.SessionStatusCompleted
	rec.Status = models.SessionStatusCompleted
	rec.Phase = models.PhaseComplete
	if rec.CompletedAt == nil {
		rec.CompletedAt = &now
		rec.DurationSeconds = int64(now.Sub(rec.StartedAt).Seconds())
	}
	rec.UpdatedAt = now
	if err := s.store.UpdateSession(*rec); err != nil {
		return models.CompleteResponse{}, err
	}
	if firstCompletion {
		metrics.RecordSessionCompleted()
	}
	slog.Info("SessionService.Complete: deliverable saved", "sessionID", rec.ID, "slug", d.ShareSlug, "values", len(values))

	return models.CompleteResponse{Deliverable: d, ShareURL: s.ShareURL(d.ShareSlug)}, nil
}

// ShareURL returns the public URL of a deliverable.
func (s *SessionService) ShareURL(slug string) string {
	return s.baseURL + "/deliverable/" + slug
}

// GetDeliverable looks up a deliverable by share slug.
func (s *SessionService) GetDeliverable(slug string) (*models.DeliverableRecord, error) {
	d, err := s.store.GetDeliverableBySlug(slug)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, models.ErrDeliverableNotFound
	}
	return d, nil
}

// GetSession returns the stored session with its rehydrated state and progress.
func (s *SessionService) GetSession(id string) (models.SessionView, error) {
	rec, err := s.session(id)
	if err != nil {
		return models.SessionView{}, err
	}
	state, _, err := s.rehydrate(rec)
	if err != nil {
		return models.SessionView{}, err
	}
	return models.SessionView{Session: *rec, State: state, Progress: Progress(state)}, nil
}

func (s *SessionService) session(id string) (*models.SessionRecord, error) {
	rec, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, models.ErrSessionNotFound
	}
	return rec, nil
}

func (s *SessionService) activeSession(id string) (*models.SessionRecord, error) {
	rec, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.SessionStatusActive {
		return nil, models.ErrSessionNotActive
	}
	return rec, nil
}

// rehydrate rebuilds session state and transcript from stored records.
func (s *SessionService) rehydrate(rec *models.SessionRecord) (models.SessionState, []models.ConversationMessage, error) {
	msgs, err := s.store.ListMessages(rec.ID)
	if err != nil {
		return models.SessionState{}, nil, err
	}
	answers, err := s.store.ListRapidFireResponses(rec.ID)
	if err != nil {
		return models.SessionState{}, nil, err
	}
	values, err := s.store.ListValues(rec.ID)
	if err != nil {
		return models.SessionState{}, nil, err
	}

	state := models.NewSessionState()
	state.Phase = rec.Phase
	state.ScenarioCompleted = rec.ScenarioCompleted
	state.SynthesisDelivered = rec.SynthesisDelivered
	state.DeepDiveValuesExplored = append(state.DeepDiveValuesExplored, rec.ExploredValues...)
	state.Insights = append(state.Insights, rec.Insights...)
	for _, a := range answers {
		state.RapidFireResponses = append(state.RapidFireResponses, models.RapidFireResponse{Word: a.Word, Response: a.Response})
	}
	state.RapidFireIndex = len(state.RapidFireResponses)
	for _, v := range values {
		state.IdentifiedValues = append(state.IdentifiedValues, models.IdentifiedValue{
			Name:       v.Name,
			Definition: v.Definition,
			Quotes:     append([]string{}, v.Quotes...),
		})
	}

	history := make([]models.ConversationMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, models.ConversationMessage{Role: m.Role, Content: m.Content, Sequence: m.Sequence, Timestamp: m.CreatedAt})
	}
	return state, history, nil
}

// persist writes the turns and state changes produced by one operation.
func (s *SessionService) persist(rec *models.SessionRecord, before models.SessionState, res Result) error {
	for _, turn := range res.Turns {
		m := models.MessageRecord{
			ID:        util.NewRecordID(),
			SessionID: rec.ID,
			Role:      turn.Role,
			Content:   turn.Content,
			Sequence:  turn.Sequence,
			CreatedAt: turn.Timestamp.UTC(),
		}
		if turn.Role == models.RoleAssistant {
			m.ResponseData = res.Raw
		}
		if err := s.store.AddMessage(m); err != nil {
			return err
		}
	}

	after := res.NewState
	now := s.now().UTC()
	order := len(before.IdentifiedValues)
	for _, v := range after.IdentifiedValues {
		if before.HasValue(v.Name) {
			continue
		}
		order++
		err := s.store.UpsertValue(models.ValueRecord{
			ID:           util.NewRecordID(),
			SessionID:    rec.ID,
			Name:         v.Name,
			Definition:   v.Definition,
			Quotes:       append([]string{}, v.Quotes...),
			DisplayOrder: order,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("failed to persist value %s: %w", v.Name, err)
		}
	}

	rec.Phase = after.Phase
	rec.ScenarioCompleted = after.ScenarioCompleted
	rec.SynthesisDelivered = after.SynthesisDelivered
	rec.ExploredValues = append([]string{}, after.DeepDiveValuesExplored...)
	rec.Insights = append([]string{}, after.Insights...)
	rec.UpdatedAt = now
	return s.store.UpdateSession(*rec)
}

func (s *SessionService) uniqueSlug() (string, error) {
	for i := 0; i < maxSlugAttempts; i++ {
		slug := s.newSlug()
		existing, err := s.store.GetDeliverableBySlug(slug)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return slug, nil
		}
		slog.Warn("SessionService.uniqueSlug: share slug collision, retrying", "slug", slug, "attempt", i+1)
	}
	return "", fmt.Errorf("failed to allocate a unique share slug after %d attempts", maxSlugAttempts)
}
