// Package genai provides language model clients for the interview persona.
//
// Every client implements ClientInterface: a single system prompt plus a single
// user message in, raw reply text out. Parsing the reply is the caller's job.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Provider names a model backend.
type Provider string

// Supported providers.
const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderMock      Provider = "mock"
)

// Defaults used when options leave a field unset.
const (
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 1024
)

var (
	// ErrNoChoicesReturned is returned when the model replies without any choices.
	ErrNoChoicesReturned = errors.New("no choices returned")
	// ErrEmptyResponse is returned when the model reply contains no text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrMissingAPIKey is returned when a remote provider has no credentials.
	ErrMissingAPIKey = errors.New("API key not set")
	// ErrUnknownProvider is returned by New for unsupported providers.
	ErrUnknownProvider = errors.New("unknown provider")
)

// ClientInterface is the one operation the interview needs from a model.
type ClientInterface interface {
	GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Opts holds configuration for model clients.
type Opts struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64
	DebugMode   bool   // write request/response pairs under StateDir/debug
	StateDir    string
}

// Option defines a configuration option for model clients.
type Option func(*Opts)

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Opts) { o.Temperature = t }
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int64) Option {
	return func(o *Opts) { o.MaxTokens = n }
}

// WithDebugMode enables debug logging of every call to StateDir/debug.
func WithDebugMode(enabled bool) Option {
	return func(o *Opts) { o.DebugMode = enabled }
}

// WithStateDir sets the directory used for debug logs.
func WithStateDir(dir string) Option {
	return func(o *Opts) { o.StateDir = dir }
}

func buildOpts(defaultModel string, opts []Option) Opts {
	cfg := Opts{Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return cfg
}

// New builds the client for provider. An empty provider selects OpenAI.
func New(provider Provider, opts ...Option) (ClientInterface, error) {
	switch provider {
	case ProviderOpenAI, "":
		return NewClient(opts...)
	case ProviderAnthropic:
		return NewAnthropicClient(opts...)
	case ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// debugLogger writes one JSON file per model call when enabled.
type debugLogger struct {
	enabled  bool
	stateDir string
}

type debugEntry struct {
	Timestamp time.Time   `json:"timestamp"`
	Method    string      `json:"method"`
	Model     string      `json:"model"`
	Params    interface{} `json:"params"`
	Response  interface{} `json:"response,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func (d debugLogger) log(method, model string, params, response interface{}, callErr error) {
	if !d.enabled || d.stateDir == "" {
		return
	}
	dir := filepath.Join(d.stateDir, "debug")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("genai.debugLogger: failed to create debug dir", "dir", dir, "error", err)
		return
	}
	entry := debugEntry{Timestamp: time.Now().UTC(), Method: method, Model: model, Params: params, Response: response}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		slog.Warn("genai.debugLogger: failed to marshal entry", "error", err)
		return
	}
	name := fmt.Sprintf("%s_%s.json", entry.Timestamp.Format("20060102T150405.000000000"), method)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		slog.Warn("genai.debugLogger: failed to write entry", "file", name, "error", err)
	}
}
