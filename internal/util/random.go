// Package util provides identifier generation and environment parsing helpers
// shared across BrandDiscovery components.
package util

import (
	"crypto/rand"
	mrand "math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ShareSlugLength is the length of public deliverable slugs.
const ShareSlugLength = 8

const slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRandomString returns length characters drawn from alphabet.
// Uses math/rand/v2, which is suitable for non-secret identifiers.
func GenerateRandomString(alphabet string, length int) string {
	if length <= 0 || alphabet == "" {
		return ""
	}
	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		builder.WriteByte(alphabet[mrand.IntN(len(alphabet))])
	}
	return builder.String()
}

// GenerateShareSlug returns an 8 character lowercase alphanumeric slug.
func GenerateShareSlug() string {
	return GenerateRandomString(slugAlphabet, ShareSlugLength)
}

// IsShareSlug reports whether s has the shape of a share slug.
func IsShareSlug(s string) bool {
	if len(s) != ShareSlugLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(slugAlphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

// NewSessionID returns a random UUID for a new session.
func NewSessionID() string {
	return uuid.NewString()
}

// IsSessionID reports whether s parses as a UUID.
func IsSessionID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// NewRecordID returns a time-ordered ULID for messages, answers, values and
// deliverables.
func NewRecordID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
