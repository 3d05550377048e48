package sheets

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// parseKeywordRows coerces raw Keywords cells into keyword records.
// Expected columns: Category, Keyword, Active. The header row is skipped.
func parseKeywordRows(rows [][]interface{}) []domain.Keyword {
	var keywords []domain.Keyword
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		keywords = append(keywords, domain.Keyword{
			Category: cellString(row[0]),
			Term:     cellString(row[1]),
			Active:   cellBool(row[2]),
		})
	}
	return keywords
}

// parsePromptRows coerces raw Prompts cells into prompt records.
// Expected columns: Prompt Name, Prompt Text, Active.
func parsePromptRows(rows [][]interface{}) []domain.Prompt {
	var prompts []domain.Prompt
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		prompts = append(prompts, domain.Prompt{
			Name:   cellString(row[0]),
			Text:   cellString(row[1]),
			Active: cellBool(row[2]),
		})
	}
	return prompts
}

func digestHeader() []interface{} {
	return []interface{}{"Date", "Category", "Keyword", "Headline", "Source", "URL", "Summary", "Extraction Timestamp"}
}

func digestRow(a domain.Article) []interface{} {
	return []interface{}{
		a.Published.UTC().Format("2006-01-02"),
		a.Category,
		a.Keyword,
		a.Headline,
		a.Source,
		a.URL,
		a.Summary,
		a.RetrievedAt.UTC().Format(time.RFC3339),
	}
}

// keywordRows renders the default keyword mapping as Keywords table cells
func keywordRows(keywords map[string][]string) [][]interface{} {
	rows := [][]interface{}{{"Category", "Keyword", "Active"}}

	categories := make([]string, 0, len(keywords))
	for category := range keywords {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for _, term := range keywords[category] {
			rows = append(rows, []interface{}{category, term, "TRUE"})
		}
	}
	return rows
}

// promptRows renders the default prompt set as Prompts table cells
func promptRows(prompts map[string]string) [][]interface{} {
	rows := [][]interface{}{{"Prompt Name", "Prompt Text", "Active"}}

	names := make([]string, 0, len(prompts))
	for name := range prompts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rows = append(rows, []interface{}{name, prompts[name], "TRUE"})
	}
	return rows
}

func cellString(cell interface{}) string {
	if cell == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", cell))
}

// cellBool coerces "TRUE"/"FALSE" string cells to bool
func cellBool(cell interface{}) bool {
	return strings.EqualFold(cellString(cell), "TRUE")
}
