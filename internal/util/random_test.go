package util

import (
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestGenerateRandomString(t *testing.T) {
	tests := []struct {
		name     string
		alphabet string
		length   int
		want     int
	}{
		{"zero length", "abc", 0, 0},
		{"negative length", "abc", -1, 0},
		{"empty alphabet", "", 8, 0},
		{"small length", "abc", 8, 8},
		{"large length", slugAlphabet, 64, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateRandomString(tt.alphabet, tt.length)
			if len(got) != tt.want {
				t.Errorf("GenerateRandomString() length = %v, want %v", len(got), tt.want)
			}
		})
	}
}

func TestGenerateShareSlug(t *testing.T) {
	got := GenerateShareSlug()
	if !IsShareSlug(got) {
		t.Errorf("GenerateShareSlug() = %q is not a valid slug", got)
	}
}

func TestIsShareSlug(t *testing.T) {
	tests := map[string]bool{
		"abcd1234":  true,
		"ABCD1234":  false,
		"abc":       false,
		"abcd12345": false,
		"abcd-234":  false,
	}
	for in, want := range tests {
		if got := IsShareSlug(in); got != want {
			t.Errorf("IsShareSlug(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestShareSlugUniqueness(t *testing.T) {
	const iterations = 1000
	seen := make(map[string]bool)

	for i := 0; i < iterations; i++ {
		slug := GenerateShareSlug()
		if seen[slug] {
			t.Errorf("GenerateShareSlug() generated duplicate: %v", slug)
		}
		seen[slug] = true
	}
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	if !IsSessionID(id) {
		t.Errorf("NewSessionID() = %q is not a UUID", id)
	}
	if IsSessionID("not-a-uuid") {
		t.Error("IsSessionID accepted garbage")
	}
}

func TestNewRecordIDIsULID(t *testing.T) {
	a := NewRecordID()
	b := NewRecordID()
	if _, err := ulid.ParseStrict(a); err != nil {
		t.Fatalf("NewRecordID() = %q is not a ULID: %v", a, err)
	}
	if a == b {
		t.Error("NewRecordID() returned duplicate ids")
	}
}
