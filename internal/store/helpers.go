package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// encodeLists marshals string lists stored as JSON text columns.
func encodeLists(a, b []string) (string, string, error) {
	ja, err := json.Marshal(nonNil(a))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode list: %w", err)
	}
	jb, err := json.Marshal(nonNil(b))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(ja), string(jb), nil
}

func decodeList(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("failed to decode list column: %w", err)
	}
	return out, nil
}

// rebindDollar rewrites ? placeholders as $1, $2, ... for PostgreSQL.
// Queries must not contain literal question marks.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
