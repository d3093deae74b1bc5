package flow

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

//go:embed prompts/system.txt
var defaultSystemPrompt string

// DefaultSystemPrompt returns the built-in persona instructions.
func DefaultSystemPrompt() string {
	return defaultSystemPrompt
}

// LoadSystemPrompt reads the persona instructions from path, or returns the
// built-in prompt when path is empty.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return defaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt file %s: %w", path, err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	slog.Info("flow.LoadSystemPrompt: loaded system prompt", "path", path, "length", len(prompt))
	return prompt, nil
}
