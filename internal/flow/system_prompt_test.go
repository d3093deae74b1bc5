package flow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

func TestDefaultSystemPrompt(t *testing.T) {
	prompt := DefaultSystemPrompt()
	for _, p := range models.AllPhases() {
		if !strings.Contains(prompt, string(p)) {
			t.Errorf("default prompt does not mention phase %s", p)
		}
	}
	for _, field := range []string{"spokenResponse", "internalNotes", "stateUpdates", "uiActions"} {
		if !strings.Contains(prompt, field) {
			t.Errorf("default prompt does not describe %s", field)
		}
	}
}

func TestLoadSystemPrompt(t *testing.T) {
	got, err := LoadSystemPrompt("")
	if err != nil || got != DefaultSystemPrompt() {
		t.Fatalf("LoadSystemPrompt(\"\") = %q, %v", got, err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(path, []byte("  You are a test persona.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = LoadSystemPrompt(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "You are a test persona." {
		t.Errorf("prompt = %q", got)
	}

	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte("\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSystemPrompt(empty); err == nil {
		t.Error("expected error for empty prompt file")
	}
	if _, err := LoadSystemPrompt(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing prompt file")
	}
}
