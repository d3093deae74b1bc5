package genai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/BTreeMap/BrandDiscovery/internal/metrics"
)

// chatService defines minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// completionsAdapter exposes the SDK completions service as a chatService.
type completionsAdapter struct {
	svc *openai.ChatCompletionService
}

func (a completionsAdapter) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := a.svc.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat                chatService
	model               string
	temperature         float64
	maxCompletionTokens int64
	debug               debugLogger
}

// NewClient initializes an OpenAI client. An API key is required.
func NewClient(opts ...Option) (*Client, error) {
	cfg := buildOpts(DefaultOpenAIModel, opts)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewClient: OpenAI client created", "model", cfg.Model, "temperature", cfg.Temperature, "maxTokens", cfg.MaxTokens)
	return &Client{
		chat:                completionsAdapter{svc: &cli.Chat.Completions},
		model:               cfg.Model,
		temperature:         cfg.Temperature,
		maxCompletionTokens: cfg.MaxTokens,
		debug:               debugLogger{enabled: cfg.DebugMode, stateDir: cfg.StateDir},
	}, nil
}

// GenerateResponse sends one system prompt and one user message and returns the reply text.
func (c *Client) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMessage),
		},
		Temperature:         openai.Float(c.temperature),
		MaxCompletionTokens: openai.Int(c.maxCompletionTokens),
	}

	start := time.Now()
	resp, err := c.chat.Create(ctx, params)
	text, err := c.extract(resp, err)
	metrics.RecordModelCall(string(ProviderOpenAI), time.Since(start), err)
	c.debug.log("GenerateResponse", c.model, params, text, err)
	if err != nil {
		slog.Error("Client.GenerateResponse: completion failed", "model", c.model, "error", err)
		return "", err
	}
	slog.Debug("Client.GenerateResponse: completion received", "model", c.model, "length", len(text))
	return text, nil
}

func (c *Client) extract(resp openai.ChatCompletion, err error) (string, error) {
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
