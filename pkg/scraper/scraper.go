// Package scraper retrieves candidate articles from the ground.news search
// API, one query per active keyword, and parses each matched article page
// into a raw article record.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
	"github.com/hammed103/maya-news-extraction/pkg/ratelimit"
)

// Client queries the content provider and extracts article records
type Client struct {
	httpClient *http.Client
	baseURL    string
	articleURL string
	cutoff     time.Duration
	limiter    *ratelimit.Limiter
	attempts   int
	delay      time.Duration

	now func() time.Time // injectable for tests
}

// Config holds scraper settings
type Config struct {
	BaseURL    string
	ArticleURL string
	Timeout    time.Duration
	CutoffDays int
	Attempts   int
	Delay      time.Duration
}

// New creates a provider client paced by the given limiter
func New(cfg Config, limiter *ratelimit.Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		articleURL: strings.TrimSuffix(cfg.ArticleURL, "/"),
		cutoff:     time.Duration(cfg.CutoffDays) * 24 * time.Hour,
		limiter:    limiter,
		attempts:   cfg.Attempts,
		delay:      cfg.Delay,
		now:        time.Now,
	}
}

// searchResponse is the provider's search API payload
type searchResponse struct {
	SearchResults []searchResult `json:"searchResults"`
}

type searchResult struct {
	Type  string `json:"type"`
	Slug  string `json:"slug"`
	Start string `json:"start"`
}

// Fetch queries the provider for one keyword and returns parsed article
// records tagged with the keyword's category and term. The search call is
// retried up to the configured bound; exhausting retries returns an error
// and no articles. Individual article pages that fail to parse are skipped.
func (c *Client) Fetch(ctx context.Context, keyword domain.Keyword) ([]domain.Article, error) {
	results, err := c.search(ctx, keyword.Term)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword.Term, err)
	}

	cutoff := c.now().Add(-c.cutoff)
	articles := make([]domain.Article, 0, len(results))
	for _, res := range results {
		if res.Type != "event" || res.Slug == "" {
			continue
		}
		started, err := parseEventTime(res.Start)
		if err != nil || started.Before(cutoff) {
			continue
		}

		article, err := c.fetchArticle(ctx, res.Slug)
		if err != nil {
			lgr.Printf("[WARN] skip article %q for keyword %q: %v", res.Slug, keyword.Term, err)
			continue
		}
		article.Keyword = keyword.Term
		article.Category = keyword.Category
		article.Published = started
		article.RetrievedAt = c.now().UTC()
		articles = append(articles, article)
	}

	lgr.Printf("[INFO] keyword %q (%s): %d candidates", keyword.Term, keyword.Category, len(articles))
	return articles, nil
}

// search posts the keyword to the provider's search endpoint with bounded retries
func (c *Client) search(ctx context.Context, term string) ([]searchResult, error) {
	var results []searchResult

	retrier := repeater.NewBackoff(c.attempts, c.delay)
	err := retrier.Do(ctx, func() error {
		if err := c.limiter.Acquire(ctx, ratelimit.ChannelProvider); err != nil {
			return err
		}

		body, err := json.Marshal(map[string]string{"url": term})
		if err != nil {
			return fmt.Errorf("marshal search request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/public/search/url", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create search request: %w", err)
		}
		addBrowserHeaders(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.limiter.Failure(ratelimit.ChannelProvider)
			return fmt.Errorf("search request: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck // read-only body

		if resp.StatusCode != http.StatusOK {
			c.limiter.Failure(ratelimit.ChannelProvider)
			return fmt.Errorf("search returned status %d", resp.StatusCode)
		}

		var payload searchResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			c.limiter.Failure(ratelimit.ChannelProvider)
			return fmt.Errorf("decode search response: %w", err)
		}

		c.limiter.Success(ratelimit.ChannelProvider)
		results = payload.SearchResults
		return nil
	})

	return results, err
}

// fetchArticle retrieves and parses one article page by slug
func (c *Client) fetchArticle(ctx context.Context, slug string) (domain.Article, error) {
	if err := c.limiter.Acquire(ctx, ratelimit.ChannelProvider); err != nil {
		return domain.Article{}, err
	}

	pageURL := c.articleURL + "/article/" + slug
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL+"?_rsc=19oxi", http.NoBody)
	if err != nil {
		return domain.Article{}, fmt.Errorf("create article request: %w", err)
	}
	addBrowserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.limiter.Failure(ratelimit.ChannelProvider)
		return domain.Article{}, fmt.Errorf("fetch article page: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		c.limiter.Failure(ratelimit.ChannelProvider)
		return domain.Article{}, fmt.Errorf("article page returned status %d", resp.StatusCode)
	}
	c.limiter.Success(ratelimit.ChannelProvider)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Article{}, fmt.Errorf("read article page: %w", err)
	}

	article, err := parseArticlePage(body)
	if err != nil {
		return domain.Article{}, err
	}
	article.URL = pageURL
	return article, nil
}

func parseEventTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty event time")
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// some events carry no zone suffix
		ts, err = time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(value, "Z"))
		if err != nil {
			return time.Time{}, fmt.Errorf("parse event time %q: %w", value, err)
		}
		ts = ts.UTC()
	}
	return ts, nil
}
