// Package dedup removes duplicate and malformed articles within a run.
// Two keys identify a duplicate: the normalized URL and a content hash of
// the headline+summary. Matching either one of a previously accepted
// article rejects the candidate.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// placeholder headlines some provider pages fall back to
var placeholderHeadlines = map[string]struct{}{
	"unknown":     {},
	"untitled":    {},
	"no title":    {},
	"(no title)":  {},
	"no headline": {},
}

// Deduplicator keeps the accepted-set keys for one run. Accept is
// serialized internally so concurrent filter workers cannot both pass
// the same duplicate.
type Deduplicator struct {
	mu            sync.Mutex
	urls          map[string]struct{}
	hashes        map[string]struct{}
	minSummaryLen int
}

// New creates a deduplicator, minSummaryLen rejects thin summaries
func New(minSummaryLen int) *Deduplicator {
	return &Deduplicator{
		urls:          map[string]struct{}{},
		hashes:        map[string]struct{}{},
		minSummaryLen: minSummaryLen,
	}
}

// Seed preloads keys from prior runs for historical deduplication
func (d *Deduplicator) Seed(urls, hashes []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range urls {
		d.urls[u] = struct{}{}
	}
	for _, h := range hashes {
		d.hashes[h] = struct{}{}
	}
}

// Accept validates the article and tests it against the accepted set.
// It fills in article.ContentHash and returns false with a reason when
// the article is malformed or duplicates an earlier acceptance.
func (d *Deduplicator) Accept(article *domain.Article) (ok bool, reason string) {
	if err := validate(article, d.minSummaryLen); err != nil {
		return false, err.Error()
	}

	normURL, err := NormalizeURL(article.URL)
	if err != nil {
		return false, fmt.Sprintf("invalid url: %v", err)
	}
	hash := ContentHash(article.Headline, article.Summary)
	article.ContentHash = hash

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, dup := d.urls[normURL]; dup {
		return false, "duplicate url"
	}
	if _, dup := d.hashes[hash]; dup {
		return false, "duplicate content"
	}

	d.urls[normURL] = struct{}{}
	d.hashes[hash] = struct{}{}
	return true, ""
}

// Size reports the number of accepted articles so far
func (d *Deduplicator) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.hashes)
}

func validate(article *domain.Article, minSummaryLen int) error {
	headline := strings.ToLower(strings.TrimSpace(article.Headline))
	if headline == "" {
		return fmt.Errorf("empty headline")
	}
	if _, placeholder := placeholderHeadlines[headline]; placeholder {
		return fmt.Errorf("placeholder headline %q", article.Headline)
	}
	if len(strings.TrimSpace(article.Summary)) < minSummaryLen {
		return fmt.Errorf("summary shorter than %d characters", minSummaryLen)
	}
	return nil
}

// NormalizeURL reduces a URL to scheme+host+path, lower-cased, with the
// trailing slash stripped and query/fragment discarded
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}

	normalized := strings.ToLower(u.Scheme + "://" + u.Host + u.Path)
	normalized = strings.TrimSuffix(normalized, "/")
	return normalized, nil
}

// ContentHash computes a deterministic digest of the normalized
// headline and summary, independent of the article URL
func ContentHash(headline, summary string) string {
	normalized := strings.ToLower(strings.TrimSpace(headline)) + "\n" + strings.ToLower(strings.TrimSpace(summary))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
