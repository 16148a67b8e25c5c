package repository

import (
	"database/sql"
	"strings"
	"time"
)

// parseInstant parses a stored instant. Values without a zone are treated as
// UTC on read; the writers always store RFC 3339 UTC.
func parseInstant(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	t, _ := time.Parse("2006-01-02", s)
	return t.UTC()
}

// parseNullableInstant maps NULL/empty to nil and otherwise parses like
// parseInstant.
func parseNullableInstant(s sql.NullString) *time.Time {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil
	}
	t := parseInstant(s.String)
	return &t
}

// instantToString formats an instant for storage.
func instantToString(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// nullableInstantToValue converts a *time.Time to a value suitable for
// SQLite storage. Returns nil (SQL NULL) when the pointer is nil.
func nullableInstantToValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return instantToString(*t)
}

func nullableFloatToValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

// nowRFC3339 returns the current UTC time formatted for storage.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// placeholders builds "?, ?, ?" for IN clauses over n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// idsToArgs widens a string slice for variadic query args.
func idsToArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
