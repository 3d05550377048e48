package domain

import "time"

// Article represents a single news story collected for one keyword
type Article struct {
	Headline    string
	Summary     string
	URL         string
	Source      string
	Keyword     string
	Category    string
	Published   time.Time
	RetrievedAt time.Time
	ContentHash string
}

// Keyword represents one search term within a category
type Keyword struct {
	Category string
	Term     string
	Active   bool
}

// Prompt represents a named prompt template
type Prompt struct {
	Name   string
	Text   string
	Active bool
}

// DocumentKind identifies one of the two briefing documents produced per run
type DocumentKind string

const (
	// ExplainerScript is the short spoken briefing script
	ExplainerScript DocumentKind = "Explainer Script"
	// OneSheet is the long-form structured briefing
	OneSheet DocumentKind = "One Sheet"
)

// BriefingDocument is a derived text artifact, one per kind per run date
type BriefingDocument struct {
	Kind DocumentKind
	Date string // run date, YYYY-MM-DD
	Body string
}

// Required prompt names, the run aborts if any of them cannot be resolved
const (
	PromptExplainerScript = "Explainer Script"
	PromptOneSheetBriefing = "One Sheet Briefing"
	PromptUSArticleFilter = "US Article Filter"
)

// RequiredPrompts lists prompt names that must be present in the store or fallback
func RequiredPrompts() []string {
	return []string{PromptExplainerScript, PromptOneSheetBriefing, PromptUSArticleFilter}
}
