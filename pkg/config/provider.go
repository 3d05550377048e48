package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// Source indicates where a configuration snapshot came from
type Source string

const (
	// SourceStore means the snapshot was loaded from the spreadsheet
	SourceStore Source = "store"
	// SourceFallback means the built-in defaults are in use
	SourceFallback Source = "fallback"
)

// Snapshot is one cached view of the active keywords and prompts
type Snapshot struct {
	Keywords map[string][]string // category -> active terms
	Prompts  map[string]string   // name -> active template text
	Source   Source
	LoadedAt time.Time
}

// StoreReader reads keyword and prompt records from the structured store
type StoreReader interface {
	ReadKeywords(ctx context.Context) ([]domain.Keyword, error)
	ReadPrompts(ctx context.Context) ([]domain.Prompt, error)
}

// Provider supplies active keywords and prompts with time-bounded caching.
// A load failure degrades to the built-in fallback data instead of failing
// the caller; a required prompt missing from both the store and the fallback
// is reported as an error from Validate.
type Provider struct {
	store StoreReader
	ttl   time.Duration

	fallbackKeywords map[string][]string
	fallbackPrompts  map[string]string

	mu   sync.Mutex
	snap *Snapshot

	now func() time.Time // injectable for tests
}

// NewProvider creates a configuration provider backed by the given store
func NewProvider(store StoreReader, ttl time.Duration) *Provider {
	return &Provider{
		store:            store,
		ttl:              ttl,
		fallbackKeywords: FallbackKeywords(),
		fallbackPrompts:  FallbackPrompts(),
		now:              time.Now,
	}
}

// Snapshot returns the current snapshot, reloading from the store if the
// cached one expired. Never fails on store errors, those fall back.
func (p *Provider) Snapshot(ctx context.Context) *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.snap != nil && p.now().Sub(p.snap.LoadedAt) < p.ttl {
		return p.snap
	}

	p.snap = p.load(ctx)
	return p.snap
}

// Keywords returns the active category -> terms mapping
func (p *Provider) Keywords(ctx context.Context) map[string][]string {
	return p.Snapshot(ctx).Keywords
}

// Prompt returns the named prompt template text
func (p *Provider) Prompt(ctx context.Context, name string) (string, error) {
	snap := p.Snapshot(ctx)
	text, ok := snap.Prompts[name]
	if !ok || text == "" {
		return "", fmt.Errorf("prompt %q not found", name)
	}
	return text, nil
}

// Invalidate drops the cached snapshot, forcing a reload on the next call
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = nil
}

// Validate ensures all required prompts resolve from the store or the
// fallback. Called before any provider or LLM traffic, a failure here is
// fatal for the run.
func (p *Provider) Validate(ctx context.Context) error {
	snap := p.Snapshot(ctx)
	for _, name := range domain.RequiredPrompts() {
		if text, ok := snap.Prompts[name]; !ok || text == "" {
			return fmt.Errorf("required prompt %q missing from %s configuration", name, snap.Source)
		}
	}
	if len(snap.Keywords) == 0 {
		return fmt.Errorf("no active keywords in %s configuration", snap.Source)
	}
	return nil
}

// load reads both tables from the store, degrading to fallback data on any error
func (p *Provider) load(ctx context.Context) *Snapshot {
	keywords, kwErr := p.loadKeywords(ctx)
	prompts, prErr := p.loadPrompts(ctx)

	source := SourceStore
	if kwErr != nil {
		lgr.Printf("[WARN] keywords unavailable from store, using fallback: %v", kwErr)
		keywords = p.fallbackKeywords
		source = SourceFallback
	}
	if prErr != nil {
		lgr.Printf("[WARN] prompts unavailable from store, using fallback: %v", prErr)
		prompts = p.fallbackPrompts
		source = SourceFallback
	}

	// a prompt missing from the store individually still resolves from the
	// fallback set, only names absent from both are left out
	for name, text := range p.fallbackPrompts {
		if _, ok := prompts[name]; !ok {
			lgr.Printf("[WARN] prompt %q missing from store, using fallback text", name)
			prompts[name] = text
		}
	}

	lgr.Printf("[INFO] configuration loaded from %s, %d categories, %d prompts",
		source, len(keywords), len(prompts))

	return &Snapshot{Keywords: keywords, Prompts: prompts, Source: source, LoadedAt: p.now()}
}

func (p *Provider) loadKeywords(ctx context.Context) (map[string][]string, error) {
	records, err := p.store.ReadKeywords(ctx)
	if err != nil {
		return nil, err
	}

	keywords := map[string][]string{}
	for _, kw := range records {
		if !kw.Active || kw.Category == "" || kw.Term == "" {
			continue
		}
		keywords[kw.Category] = append(keywords[kw.Category], kw.Term)
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no active keyword records")
	}
	return keywords, nil
}

func (p *Provider) loadPrompts(ctx context.Context) (map[string]string, error) {
	records, err := p.store.ReadPrompts(ctx)
	if err != nil {
		return nil, err
	}

	prompts := map[string]string{}
	for _, pr := range records {
		if !pr.Active || pr.Name == "" || pr.Text == "" {
			continue
		}
		prompts[pr.Name] = pr.Text
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("no active prompt records")
	}
	return prompts, nil
}
