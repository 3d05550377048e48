package scraper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// sanitizer strips all markup from extracted fragments
var sanitizer = bluemonday.StrictPolicy()

// source chips on article pages carry this class chain
const sourceChipSelector = `div.flex.font-bold.bg-light-light.rounded-full span`

// fallback class names the page has used for source attribution over time
var sourceFallbackClasses = []string{
	"source", "publication", "article-source", "publisher", "source-attribution",
	"byline", "source-container", "publisher-name", "source-name", "source-link",
	"primary-source", "article-meta",
}

// parseArticlePage extracts headline, summary and sources from an article page
func parseArticlePage(body []byte) (domain.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Article{}, fmt.Errorf("parse article html: %w", err)
	}

	article := domain.Article{
		Headline: extractHeadline(doc),
		Summary:  extractSummary(doc),
		Source:   extractSources(doc),
	}
	return article, nil
}

func extractHeadline(doc *goquery.Document) string {
	for _, sel := range []string{"h1", ".headline", ".article-title"} {
		if text := cleanText(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractSummary(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		return cleanText(content)
	}
	return ""
}

func extractSources(doc *goquery.Document) string {
	var sources []string
	seen := map[string]struct{}{}
	add := func(text string) {
		text = cleanText(text)
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		sources = append(sources, text)
	}

	// primary: source chips
	doc.Find(sourceChipSelector).Each(func(_ int, s *goquery.Selection) {
		add(s.Text())
	})

	// fallback: legacy class names
	if len(sources) == 0 {
		for _, class := range sourceFallbackClasses {
			doc.Find("." + class).Each(func(_ int, s *goquery.Selection) {
				add(s.Text())
			})
		}
	}

	// last resort: text markers
	if len(sources) == 0 {
		doc.Find("span,div,p").Each(func(_ int, s *goquery.Selection) {
			text := s.Text()
			lower := strings.ToLower(text)
			if strings.Contains(lower, "published by") || strings.Contains(lower, "source:") {
				add(text)
			}
		})
	}

	return strings.Join(sources, ", ")
}

// cleanText sanitizes a fragment to plain text and collapses whitespace
func cleanText(text string) string {
	return strings.Join(strings.Fields(sanitizer.Sanitize(text)), " ")
}
