package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

func TestParseKeywordRows(t *testing.T) {
	rows := [][]interface{}{
		{"Category", "Keyword", "Active"},
		{"Economy", "budget bill", "TRUE"},
		{"Economy", "  padded term  ", "true"},
		{"Courts", "due process", "FALSE"},
		{"Courts", "gag order", "yes"}, // anything but TRUE is inactive
		{"Incomplete row"},
		{"Economy", "numeric active flag", 1},
	}

	keywords := parseKeywordRows(rows)
	require.Len(t, keywords, 5)

	assert.Equal(t, domain.Keyword{Category: "Economy", Term: "budget bill", Active: true}, keywords[0])
	assert.Equal(t, "padded term", keywords[1].Term, "cells trimmed")
	assert.True(t, keywords[1].Active, "case-insensitive TRUE")
	assert.False(t, keywords[2].Active)
	assert.False(t, keywords[3].Active)
	assert.False(t, keywords[4].Active)
}

func TestParsePromptRows(t *testing.T) {
	rows := [][]interface{}{
		{"Prompt Name", "Prompt Text", "Active"},
		{"US Article Filter", "Is {headline} about the US?", "TRUE"},
		{"Retired", "old text", "FALSE"},
	}

	prompts := parsePromptRows(rows)
	require.Len(t, prompts, 2)
	assert.Equal(t, domain.Prompt{Name: "US Article Filter", Text: "Is {headline} about the US?", Active: true}, prompts[0])
	assert.False(t, prompts[1].Active)
}

func TestDigestRow(t *testing.T) {
	a := domain.Article{
		Headline:    "Senate passes budget bill",
		Summary:     "The Senate passed the budget bill.",
		URL:         "https://example.com/story",
		Source:      "Example Wire",
		Keyword:     "budget bill",
		Category:    "Economy",
		Published:   time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC),
		RetrievedAt: time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC),
	}

	header := digestHeader()
	row := digestRow(a)
	require.Len(t, row, len(header))

	assert.Equal(t, []interface{}{"Date", "Category", "Keyword", "Headline", "Source", "URL", "Summary", "Extraction Timestamp"}, header)
	assert.Equal(t, []interface{}{
		"2026-08-30", "Economy", "budget bill", "Senate passes budget bill",
		"Example Wire", "https://example.com/story", "The Senate passed the budget bill.",
		"2026-08-31T09:30:00Z",
	}, row)
}

func TestKeywordRows(t *testing.T) {
	rows := keywordRows(map[string][]string{
		"Economy": {"budget bill", "tariffs"},
		"Courts":  {"due process"},
	})

	require.Len(t, rows, 4)
	assert.Equal(t, []interface{}{"Category", "Keyword", "Active"}, rows[0])
	assert.Equal(t, []interface{}{"Courts", "due process", "TRUE"}, rows[1], "categories sorted")
	assert.Equal(t, []interface{}{"Economy", "budget bill", "TRUE"}, rows[2])
	assert.Equal(t, []interface{}{"Economy", "tariffs", "TRUE"}, rows[3])
}

func TestPromptRows(t *testing.T) {
	rows := promptRows(map[string]string{
		"US Article Filter": "filter text",
		"Explainer Script":  "script text",
	})

	require.Len(t, rows, 3)
	assert.Equal(t, []interface{}{"Prompt Name", "Prompt Text", "Active"}, rows[0])
	assert.Equal(t, []interface{}{"Explainer Script", "script text", "TRUE"}, rows[1], "names sorted")
	assert.Equal(t, []interface{}{"US Article Filter", "filter text", "TRUE"}, rows[2])
}

func TestCellCoercion(t *testing.T) {
	assert.Equal(t, "", cellString(nil))
	assert.Equal(t, "42", cellString(42))
	assert.Equal(t, "x", cellString("  x  "))

	assert.True(t, cellBool("TRUE"))
	assert.True(t, cellBool("true"))
	assert.True(t, cellBool(" True "))
	assert.False(t, cellBool("FALSE"))
	assert.False(t, cellBool(""))
	assert.False(t, cellBool(nil))
	assert.False(t, cellBool(1))
}
