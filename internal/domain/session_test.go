package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestKPTSummary_TruncatesFields(t *testing.T) {
	s := &WorkSession{
		KeepNote:    strings.Repeat("a", 150),
		ProblemNote: "  stuck on the migration  ",
	}

	summary := s.KPTSummary()

	assert.Equal(t, "K: "+strings.Repeat("a", 100)+" | P: stuck on the migration", summary)
}

func TestKPTSummary_TruncatesOnRuneBoundary(t *testing.T) {
	s := &WorkSession{
		KeepNote: strings.Repeat("振", 150),
		TryNote:  "続ける",
	}

	summary := s.KPTSummary()

	assert.True(t, utf8.ValidString(summary), "truncation must not split a rune")
	assert.Equal(t, "K: "+strings.Repeat("振", 100)+" | T: 続ける", summary)
}
