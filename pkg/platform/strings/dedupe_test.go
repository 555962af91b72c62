package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "trims and drops blanks", input: []string{" pdf ", "", "  "}, expected: []string{"pdf"}},
		{name: "keeps first occurrence order", input: []string{"jpg", "pdf", "jpg", "png"}, expected: []string{"jpg", "pdf", "png"}},
		{name: "case sensitive", input: []string{"PDF", "pdf"}, expected: []string{"PDF", "pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Dedupe(tt.input))
		})
	}
}

func TestDedupeLower(t *testing.T) {
	assert.Equal(t, []string{"pdf", "jpg"}, DedupeLower([]string{" PDF", "pdf", "Jpg", "jpg "}))
}

func TestDedupeUpper(t *testing.T) {
	assert.Equal(t, []string{"KEN", "SEN"}, DedupeUpper([]string{"ken", " KEN ", "sen", ""}))
}
