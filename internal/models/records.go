package models

import "time"

// SessionStatus is the lifecycle status of a stored session.
type SessionStatus string

const (
	// SessionStatusActive accepts messages.
	SessionStatusActive SessionStatus = "active"
	// SessionStatusCompleted has a deliverable and accepts no further messages.
	SessionStatusCompleted SessionStatus = "completed"
	// SessionStatusAbandoned was left before completion.
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// SessionRecord is the stored session row.
type SessionRecord struct {
	ID                 string        `json:"id"`
	Status             SessionStatus `json:"status"`
	Phase              Phase         `json:"current_phase"`
	CompanyName        string        `json:"company_name,omitempty"`
	UserName           string        `json:"user_name,omitempty"`
	ScenarioCompleted  bool          `json:"scenario_completed"`
	SynthesisDelivered bool          `json:"synthesis_delivered"`
	ExploredValues     []string      `json:"explored_values"`
	Insights           []string      `json:"insights"`
	StartedAt          time.Time     `json:"started_at"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
	DurationSeconds    int64         `json:"duration_seconds,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// MessageRecord is one stored conversation turn.
type MessageRecord struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Role         Role      `json:"role"`
	Content      string    `json:"content"`
	ResponseData string    `json:"response_data,omitempty"` // raw AgentResponse JSON for assistant turns
	Sequence     int       `json:"sequence_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// RapidFireRecord is one stored rapid-fire answer.
type RapidFireRecord struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	Word           string          `json:"value_word"`
	Response       RapidFireAnswer `json:"response"`
	ResponseTimeMs *int64          `json:"response_time_ms,omitempty"`
	Sequence       int             `json:"sequence_number"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ValueRecord is the stored form of an identified value.
type ValueRecord struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	Name            string    `json:"value_name"`
	Definition      string    `json:"personalized_definition,omitempty"`
	InPractice      string    `json:"in_practice,omitempty"`
	AntiPattern     string    `json:"anti_pattern,omitempty"`
	Quotes          []string  `json:"user_quotes"`
	ConfidenceScore float64   `json:"confidence_score"`
	IsFinal         bool      `json:"is_final"`
	DisplayOrder    int       `json:"display_order"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DeliverableContent is the shareable summary of a completed session.
type DeliverableContent struct {
	CompanyName    string        `json:"company_name"`
	GeneratedAt    time.Time     `json:"generated_at"`
	Values         []ValueRecord `json:"values"`
	SessionSummary string        `json:"session_summary"`
	KeyInsights    []string      `json:"key_insights,omitempty"`
}

// DeliverableRecord is the stored deliverable, addressed publicly by ShareSlug.
type DeliverableRecord struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	ShareSlug string             `json:"share_slug"`
	Content   DeliverableContent `json:"content"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
