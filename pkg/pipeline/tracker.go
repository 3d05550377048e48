package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrorKind buckets failures for the end-of-run summary
type ErrorKind string

const (
	// ErrProvider covers content provider and completion service failures
	ErrProvider ErrorKind = "provider"
	// ErrValidation covers malformed articles dropped by the deduplicator
	ErrValidation ErrorKind = "validation"
	// ErrStoreWrite covers spreadsheet and archive write failures
	ErrStoreWrite ErrorKind = "store"
)

// Tracker records failure counts and failing keywords. It only observes,
// it never alters control flow.
type Tracker struct {
	mu       sync.Mutex
	counts   map[ErrorKind]int
	keywords map[string]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{counts: map[ErrorKind]int{}, keywords: map[string]struct{}{}}
}

// Record counts one failure; keyword may be empty for non-keyword units
func (t *Tracker) Record(kind ErrorKind, keyword string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[kind]++
	if keyword != "" {
		t.keywords[keyword] = struct{}{}
	}
}

// Count returns the number of recorded failures of one kind
func (t *Tracker) Count(kind ErrorKind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[kind]
}

// FailedKeywords returns the sorted list of keywords with recorded failures
func (t *Tracker) FailedKeywords() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keywords := make([]string, 0, len(t.keywords))
	for kw := range t.keywords {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords
}

// Summary renders a one-line report for the run log
func (t *Tracker) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.counts) == 0 {
		return "no failures"
	}

	kinds := make([]string, 0, len(t.counts))
	for kind := range t.counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds)+1)
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, t.counts[ErrorKind(kind)]))
	}
	if len(t.keywords) > 0 {
		keywords := make([]string, 0, len(t.keywords))
		for kw := range t.keywords {
			keywords = append(keywords, kw)
		}
		sort.Strings(keywords)
		parts = append(parts, "keywords: "+strings.Join(keywords, ", "))
	}
	return strings.Join(parts, ", ")
}
