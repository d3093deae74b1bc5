package models

import (
	"strings"
	"time"
)

// RapidFireAnswer is a single yes/no/maybe judgment.
type RapidFireAnswer string

// Rapid-fire answers.
const (
	AnswerYes   RapidFireAnswer = "yes"
	AnswerNo    RapidFireAnswer = "no"
	AnswerMaybe RapidFireAnswer = "maybe"
)

// ParseRapidFireAnswer normalizes s and returns the matching answer.
func ParseRapidFireAnswer(s string) (RapidFireAnswer, error) {
	a := RapidFireAnswer(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case AnswerYes, AnswerNo, AnswerMaybe:
		return a, nil
	default:
		return "", ErrInvalidRapidFireAnswer
	}
}

// RapidFireResponse records the answer given for one value word.
type RapidFireResponse struct {
	Word     string          `json:"word"`
	Response RapidFireAnswer `json:"response"`
}

// IdentifiedValue is a value the persona believes the founder holds.
type IdentifiedValue struct {
	Name       string   `json:"name"`
	Definition string   `json:"definition,omitempty"`
	Quotes     []string `json:"quotes"`
}

// SessionState is the accumulated interview state. It is only ever replaced
// through the reducer in the flow package.
type SessionState struct {
	Phase                  Phase               `json:"phase"`
	RapidFireIndex         int                 `json:"rapid_fire_index"`
	RapidFireResponses     []RapidFireResponse `json:"rapid_fire_responses"`
	DeepDiveValuesExplored []string            `json:"deep_dive_values_explored"`
	IdentifiedValues       []IdentifiedValue   `json:"identified_values"`
	Insights               []string            `json:"insights"`
	ScenarioCompleted      bool                `json:"scenario_completed"`
	SynthesisDelivered     bool                `json:"synthesis_delivered"`
}

// NewSessionState returns the canonical empty state at OPENING.
func NewSessionState() SessionState {
	return SessionState{
		Phase:                  PhaseOpening,
		RapidFireResponses:     []RapidFireResponse{},
		DeepDiveValuesExplored: []string{},
		IdentifiedValues:       []IdentifiedValue{},
		Insights:               []string{},
	}
}

// Clone returns a deep copy so callers never share backing arrays.
func (s SessionState) Clone() SessionState {
	out := s
	out.RapidFireResponses = append([]RapidFireResponse{}, s.RapidFireResponses...)
	out.DeepDiveValuesExplored = append([]string{}, s.DeepDiveValuesExplored...)
	out.Insights = append([]string{}, s.Insights...)
	out.IdentifiedValues = make([]IdentifiedValue, len(s.IdentifiedValues))
	for i, v := range s.IdentifiedValues {
		v.Quotes = append([]string{}, v.Quotes...)
		out.IdentifiedValues[i] = v
	}
	return out
}

// HasValue reports whether a value with exactly this name was identified.
func (s SessionState) HasValue(name string) bool {
	for _, v := range s.IdentifiedValues {
		if v.Name == name {
			return true
		}
	}
	return false
}

// Role identifies the speaker of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one turn of the transcript.
type ConversationMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ConversationHistory is the append-only transcript of a session.
type ConversationHistory struct {
	Messages []ConversationMessage `json:"messages"`
}

// Append adds a turn with the next sequence number and returns it.
func (h *ConversationHistory) Append(role Role, content string, at time.Time) ConversationMessage {
	seq := 1
	if n := len(h.Messages); n > 0 {
		seq = h.Messages[n-1].Sequence + 1
	}
	msg := ConversationMessage{Role: role, Content: content, Sequence: seq, Timestamp: at}
	h.Messages = append(h.Messages, msg)
	return msg
}

// Len returns the number of turns.
func (h *ConversationHistory) Len() int {
	return len(h.Messages)
}

// LastSequence returns the sequence number of the newest turn, or 0.
func (h *ConversationHistory) LastSequence() int {
	if len(h.Messages) == 0 {
		return 0
	}
	return h.Messages[len(h.Messages)-1].Sequence
}
