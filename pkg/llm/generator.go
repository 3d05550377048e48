package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// Generator produces briefing documents from the accepted article set
type Generator struct {
	client    *Client
	templates map[domain.DocumentKind]string
}

// NewGenerator creates a briefing generator with per-kind prompt templates
func NewGenerator(client *Client, templates map[domain.DocumentKind]string) *Generator {
	return &Generator{client: client, templates: templates}
}

// Generate produces one briefing document of the given kind for the run
// date. An empty article set short-circuits to a placeholder body without
// calling the completion service.
func (g *Generator) Generate(ctx context.Context, kind domain.DocumentKind, date string, articles []domain.Article) (domain.BriefingDocument, error) {
	doc := domain.BriefingDocument{Kind: kind, Date: date}

	if len(articles) == 0 {
		doc.Body = fmt.Sprintf("No qualifying articles for %s.", date)
		lgr.Printf("[INFO] no articles for %s, wrote placeholder body", kind)
		return doc, nil
	}

	template, ok := g.templates[kind]
	if !ok {
		return doc, fmt.Errorf("no template for document kind %q", kind)
	}

	prompt := substitute(template, map[string]string{
		"summaries_text": formatSummaries(articles),
	})

	maxTokens := g.client.cfg.ScriptMaxTokens
	if kind == domain.OneSheet {
		maxTokens = g.client.cfg.OneSheetMaxTokens
	}

	response, err := g.client.complete(ctx, prompt, maxTokens, float32(g.client.cfg.Temperature))
	if err != nil {
		return doc, fmt.Errorf("generate %s: %w", kind, err)
	}

	doc.Body = scrubMarkdown(response)
	if doc.Body == "" {
		return doc, fmt.Errorf("generate %s: empty response body", kind)
	}

	lgr.Printf("[INFO] generated %s, %d chars from %d articles", kind, len(doc.Body), len(articles))
	return doc, nil
}

// formatSummaries renders the accepted set as a numbered list for the prompt
func formatSummaries(articles []domain.Article) string {
	var b strings.Builder
	for i, a := range articles {
		summary := a.Summary
		if summary == "" {
			summary = "No summary available"
		}
		fmt.Fprintf(&b, "\n%d. [%s - %s] %s\n   Summary: %s\n", i+1, a.Category, a.Keyword, a.Headline, summary)
	}
	return b.String()
}
