package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   openai.ChatCompletion
	err    error
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	m.params = params
	return m.resp, m.err
}

func TestGenerateResponse_Success(t *testing.T) {
	// Prepare a mock response with one choice
	mockResp := openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Hello World"}},
		},
	}
	svc := &mockChatService{resp: mockResp}
	client := &Client{chat: svc, model: "test-model", temperature: 0.7, maxCompletionTokens: 100}
	out, err := client.GenerateResponse(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
	if len(svc.params.Messages) != 2 {
		t.Errorf("expected system and user messages, got %d", len(svc.params.Messages))
	}
	if string(svc.params.Model) != "test-model" {
		t.Errorf("expected model test-model, got %s", svc.params.Model)
	}
}

func TestGenerateResponse_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}}
	_, err := client.GenerateResponse(context.Background(), "sys", "usr")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestGenerateResponse_NoChoices(t *testing.T) {
	// Empty choices slice
	mockResp := openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}
	client := &Client{chat: &mockChatService{resp: mockResp}}
	_, err := client.GenerateResponse(context.Background(), "sys", "usr")
	if err != ErrNoChoicesReturned {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestGenerateResponse_EmptyContent(t *testing.T) {
	mockResp := openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: ""}}},
	}
	client := &Client{chat: &mockChatService{resp: mockResp}}
	_, err := client.GenerateResponse(context.Background(), "sys", "usr")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestNewClient_NoKey(t *testing.T) {
	_, err := NewClient()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey when API key not provided, got %v", err)
	}
}

func TestNewClient_WithKey(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"), WithModel("gpt-test"), WithMaxTokens(50))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli.model != "gpt-test" || cli.maxCompletionTokens != 50 {
		t.Errorf("options not applied: %+v", cli)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cli.model != DefaultOpenAIModel || cli.temperature != DefaultTemperature || cli.maxCompletionTokens != DefaultMaxTokens {
		t.Errorf("unexpected defaults: %+v", cli)
	}
}

func TestNew_Providers(t *testing.T) {
	if _, err := New(ProviderMock); err != nil {
		t.Errorf("mock provider should not fail: %v", err)
	}
	if c, err := New(ProviderAnthropic, WithAPIKey("k")); err != nil {
		t.Errorf("anthropic provider failed: %v", err)
	} else if _, ok := c.(*AnthropicClient); !ok {
		t.Errorf("expected *AnthropicClient, got %T", c)
	}
	if c, err := New(ProviderOpenAI, WithAPIKey("k")); err != nil {
		t.Errorf("openai provider failed: %v", err)
	} else if _, ok := c.(*Client); !ok {
		t.Errorf("expected *Client, got %T", c)
	}
	if c, err := New("", WithAPIKey("k")); err != nil {
		t.Errorf("default provider failed: %v", err)
	} else if _, ok := c.(*Client); !ok {
		t.Errorf("default provider should be OpenAI, got %T", c)
	}
	if _, err := New("bogus"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}
