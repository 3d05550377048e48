package llm

import (
	"context"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// Filter classifies articles as in-scope or not with a single completion
// call per article. The prompt template instructs the model to answer with
// exactly YES or NO; anything else is treated as not in scope.
type Filter struct {
	client   *Client
	template string
}

// NewFilter creates an article filter using the given prompt template
func NewFilter(client *Client, template string) *Filter {
	return &Filter{client: client, template: template}
}

// Classify returns true when the article is in scope. Ambiguous responses
// classify as false, fail-closed. An error means the service itself failed
// after retries; the caller decides what to do with the article.
func (f *Filter) Classify(ctx context.Context, article domain.Article) (bool, error) {
	prompt := substitute(f.template, map[string]string{
		"headline": article.Headline,
		"summary":  article.Summary,
		"source":   article.Source,
	})

	response, err := f.client.complete(ctx, prompt, f.client.cfg.FilterMaxTokens, float32(f.client.cfg.FilterTemperature))
	if err != nil {
		return false, err
	}

	switch token := firstToken(response); token {
	case "YES":
		return true, nil
	case "NO":
		return false, nil
	default:
		lgr.Printf("[WARN] unrecognized filter response %q for %q, excluding", response, article.Headline)
		return false, nil
	}
}

// firstToken extracts the first word of a response after stripping markdown
func firstToken(response string) string {
	cleaned := scrubMarkdown(response)
	cleaned = strings.Trim(cleaned, ".,!\"'")
	fields := strings.Fields(strings.ToUpper(cleaned))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,!\"'")
}
