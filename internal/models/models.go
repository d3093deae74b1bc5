// Package models defines the core data structures for BrandDiscovery.
//
// It includes the interview phases, session state, model responses, stored
// records and the HTTP request/response envelopes shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// Validation constants for input validation
const (
	// MaxUserMessageLength defines the maximum allowed length of a submitted message
	MaxUserMessageLength = 4096
	// MaxNameLength defines the maximum allowed length of company and user names
	MaxNameLength = 200
	// MaxValueWordLength defines the maximum allowed length of a rapid-fire word
	MaxValueWordLength = 100
	// MaxValueTextLength defines the maximum allowed length of value definitions and quotes
	MaxValueTextLength = 2000
)

// Error variables for better error handling and testability
var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrSessionNotActive       = errors.New("session is not active")
	ErrDeliverableNotFound    = errors.New("deliverable not found")
	ErrValueNotFound          = errors.New("identified value not found")
	ErrMissingSessionID       = errors.New("session_id is required")
	ErrEmptyMessage           = errors.New("user_message is required")
	ErrMessageTooLong         = errors.New("user_message exceeds maximum length")
	ErrNameTooLong            = errors.New("name exceeds maximum length")
	ErrEmptyValueWord         = errors.New("word is required")
	ErrValueWordTooLong       = errors.New("word exceeds maximum length")
	ErrInvalidRapidFireAnswer = errors.New("response must be one of yes, no, maybe")
	ErrEmptyValueName         = errors.New("value_name is required")
	ErrValueTextTooLong       = errors.New("value text exceeds maximum length")
	ErrNothingToAmend         = errors.New("at least one of definition, in_practice, anti_pattern, quote is required")
)

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusRecorded indicates data was successfully recorded via API.
	APIStatusRecorded APIStatus = "recorded"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}

// RecordedWithResult creates a recorded API response carrying result data.
func RecordedWithResult(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusRecorded).
		WithResult(result).
		Build()
}

// StartSessionRequest is the payload for beginning a session.
type StartSessionRequest struct {
	CompanyName string `json:"company_name,omitempty"`
	UserName    string `json:"user_name,omitempty"`
}

// Validate validates a StartSessionRequest.
func (r *StartSessionRequest) Validate() error {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.UserName = strings.TrimSpace(r.UserName)
	if len(r.CompanyName) > MaxNameLength || len(r.UserName) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// MessageRequest is the payload for submitting a user message.
type MessageRequest struct {
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Validate validates a MessageRequest.
func (r *MessageRequest) Validate() error {
	if r.SessionID == "" {
		return ErrMissingSessionID
	}
	if strings.TrimSpace(r.UserMessage) == "" {
		return ErrEmptyMessage
	}
	if len(r.UserMessage) > MaxUserMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// RapidFireRequest records an explicit yes/no/maybe tap.
type RapidFireRequest struct {
	SessionID      string `json:"session_id"`
	Word           string `json:"word"`
	Response       string `json:"response"`
	ResponseTimeMs *int64 `json:"response_time_ms,omitempty"`
}

// Validate validates a RapidFireRequest and normalizes its answer.
func (r *RapidFireRequest) Validate() error {
	if r.SessionID == "" {
		return ErrMissingSessionID
	}
	r.Word = strings.TrimSpace(r.Word)
	if r.Word == "" {
		return ErrEmptyValueWord
	}
	if len(r.Word) > MaxValueWordLength {
		return ErrValueWordTooLong
	}
	answer, err := ParseRapidFireAnswer(r.Response)
	if err != nil {
		return err
	}
	r.Response = string(answer)
	return nil
}

// AmendValueRequest amends an existing identified value.
type AmendValueRequest struct {
	SessionID   string  `json:"session_id"`
	ValueName   string  `json:"value_name"`
	Definition  *string `json:"definition,omitempty"`
	InPractice  *string `json:"in_practice,omitempty"`
	AntiPattern *string `json:"anti_pattern,omitempty"`
	Quote       string  `json:"quote,omitempty"`
}

// Validate validates an AmendValueRequest.
func (r *AmendValueRequest) Validate() error {
	if r.SessionID == "" {
		return ErrMissingSessionID
	}
	if r.ValueName == "" {
		return ErrEmptyValueName
	}
	if r.Definition == nil && r.InPractice == nil && r.AntiPattern == nil && r.Quote == "" {
		return ErrNothingToAmend
	}
	for _, s := range []*string{r.Definition, r.InPractice, r.AntiPattern, &r.Quote} {
		if s != nil && len(*s) > MaxValueTextLength {
			return ErrValueTextTooLong
		}
	}
	return nil
}

// CompleteRequest is the payload for finalizing a session.
type CompleteRequest struct {
	SessionID string `json:"session_id"`
}

// Validate validates a CompleteRequest.
func (r *CompleteRequest) Validate() error {
	if r.SessionID == "" {
		return ErrMissingSessionID
	}
	return nil
}

// SessionSummary identifies a session in API responses.
type SessionSummary struct {
	ID           string    `json:"id"`
	CurrentPhase Phase     `json:"current_phase"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// StartSessionResponse is returned when a session begins.
type StartSessionResponse struct {
	Session        SessionSummary `json:"session"`
	SpokenResponse string         `json:"spoken_response"`
	UIActions      UIActions      `json:"ui_actions"`
}

// MessageResponse is returned for each submitted message.
type MessageResponse struct {
	SpokenResponse string       `json:"spoken_response"`
	InternalNotes  string       `json:"internal_notes"`
	StateUpdates   StateUpdates `json:"state_updates"`
	UIActions      UIActions    `json:"ui_actions"`
	CurrentPhase   Phase        `json:"current_phase"`
}

// CompleteResponse is returned when a session is finalized.
type CompleteResponse struct {
	Deliverable DeliverableRecord `json:"deliverable"`
	ShareURL    string            `json:"share_url"`
}

// PhaseProgress is the completion view of one phase.
type PhaseProgress struct {
	PhaseInfo
	Complete bool `json:"complete"`
	Current  bool `json:"current"`
}

// SessionView is the read model of a session for progress displays.
type SessionView struct {
	Session  SessionRecord   `json:"session"`
	State    SessionState    `json:"state"`
	Progress []PhaseProgress `json:"progress"`
}
