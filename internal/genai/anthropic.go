package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/BTreeMap/BrandDiscovery/internal/metrics"
)

// messageService is the slice of the Anthropic SDK the client uses.
type messageService interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClient sends prompts to the Anthropic Messages API.
type AnthropicClient struct {
	messages    messageService
	model       string
	temperature float64
	maxTokens   int64
	debug       debugLogger
}

// NewAnthropicClient initializes an Anthropic client. An API key is required.
func NewAnthropicClient(opts ...Option) (*AnthropicClient, error) {
	cfg := buildOpts(DefaultAnthropicModel, opts)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	cli := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewAnthropicClient: client created", "model", cfg.Model, "maxTokens", cfg.MaxTokens)
	return &AnthropicClient{
		messages:    &cli.Messages,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		debug:       debugLogger{enabled: cfg.DebugMode, stateDir: cfg.StateDir},
	}, nil
}

// GenerateResponse sends one system prompt and one user message and returns the reply text.
func (c *AnthropicClient) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
	}

	start := time.Now()
	msg, err := c.messages.New(ctx, params)
	text, err := extractMessageText(msg, err)
	metrics.RecordModelCall(string(ProviderAnthropic), time.Since(start), err)
	c.debug.log("GenerateResponse", c.model, params, text, err)
	if err != nil {
		slog.Error("AnthropicClient.GenerateResponse: request failed", "model", c.model, "error", err)
		return "", err
	}
	slog.Debug("AnthropicClient.GenerateResponse: reply received", "model", c.model, "length", len(text))
	return text, nil
}

// extractMessageText joins the text blocks of msg. Non-text blocks are ignored.
func extractMessageText(msg *anthropic.Message, err error) (string, error) {
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	if msg == nil || len(msg.Content) == 0 {
		return "", ErrNoChoicesReturned
	}
	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "")
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
