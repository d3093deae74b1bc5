package store

import (
	"sort"
	"sync"
	"time"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// InMemoryStore keeps everything in process memory.
type InMemoryStore struct {
	mu           sync.RWMutex
	sessions     map[string]models.SessionRecord
	messages     map[string][]models.MessageRecord
	rapidFire    map[string][]models.RapidFireRecord
	values       map[string][]models.ValueRecord
	deliverables map[string]models.DeliverableRecord // by session id
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:     make(map[string]models.SessionRecord),
		messages:     make(map[string][]models.MessageRecord),
		rapidFire:    make(map[string][]models.RapidFireRecord),
		values:       make(map[string][]models.ValueRecord),
		deliverables: make(map[string]models.DeliverableRecord),
	}
}

func (s *InMemoryStore) CreateSession(rec models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.ID] = cloneSession(rec)
	return nil
}

func (s *InMemoryStore) GetSession(id string) (*models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	out := cloneSession(rec)
	return &out, nil
}

func (s *InMemoryStore) UpdateSession(rec models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rec.ID]; !ok {
		return models.ErrSessionNotFound
	}
	s.sessions[rec.ID] = cloneSession(rec)
	return nil
}

func (s *InMemoryStore) AddMessage(m models.MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.SessionID] = append(s.messages[m.SessionID], m)
	return nil
}

func (s *InMemoryStore) ListMessages(sessionID string) ([]models.MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.MessageRecord{}, s.messages[sessionID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *InMemoryStore) AddRapidFireResponse(r models.RapidFireRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rapidFire[r.SessionID] = append(s.rapidFire[r.SessionID], r)
	return nil
}

func (s *InMemoryStore) ListRapidFireResponses(sessionID string) ([]models.RapidFireRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.RapidFireRecord{}, s.rapidFire[sessionID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *InMemoryStore) UpsertValue(v models.ValueRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.Quotes = append([]string{}, v.Quotes...)
	list := s.values[v.SessionID]
	for i := range list {
		if list[i].Name == v.Name {
			v.ID = list[i].ID
			v.CreatedAt = list[i].CreatedAt
			list[i] = v
			return nil
		}
	}
	s.values[v.SessionID] = append(list, v)
	return nil
}

func (s *InMemoryStore) ListValues(sessionID string) ([]models.ValueRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ValueRecord, 0, len(s.values[sessionID]))
	for _, v := range s.values[sessionID] {
		v.Quotes = append([]string{}, v.Quotes...)
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (s *InMemoryStore) MarkValuesFinal(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range s.values[sessionID] {
		s.values[sessionID][i].IsFinal = true
		s.values[sessionID][i].UpdatedAt = now
	}
	return nil
}

func (s *InMemoryStore) SaveDeliverable(d models.DeliverableRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.deliverables[d.SessionID]; ok {
		d.ID = existing.ID
		d.ShareSlug = existing.ShareSlug
		d.CreatedAt = existing.CreatedAt
	}
	s.deliverables[d.SessionID] = d
	return nil
}

func (s *InMemoryStore) GetDeliverableBySession(sessionID string) (*models.DeliverableRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliverables[sessionID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *InMemoryStore) GetDeliverableBySlug(slug string) (*models.DeliverableRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.deliverables {
		if d.ShareSlug == slug {
			out := d
			return &out, nil
		}
	}
	return nil, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

func cloneSession(rec models.SessionRecord) models.SessionRecord {
	rec.ExploredValues = append([]string{}, rec.ExploredValues...)
	rec.Insights = append([]string{}, rec.Insights...)
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		rec.CompletedAt = &t
	}
	return rec
}
