// Package pipeline orchestrates one run: load configuration, retrieve
// candidates per keyword, filter and deduplicate them, persist the accepted
// set, and generate the two briefing documents. Per-keyword and per-article
// failures are absorbed and tracked, only invalid configuration aborts a run.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// ConfigProvider supplies active keywords and prompt templates
type ConfigProvider interface {
	Validate(ctx context.Context) error
	Keywords(ctx context.Context) map[string][]string
}

// Retriever fetches candidate articles for one keyword
type Retriever interface {
	Fetch(ctx context.Context, keyword domain.Keyword) ([]domain.Article, error)
}

// Classifier decides whether an article is in scope
type Classifier interface {
	Classify(ctx context.Context, article domain.Article) (bool, error)
}

// Deduplicator tests an article against the run's accepted set
type Deduplicator interface {
	Accept(article *domain.Article) (ok bool, reason string)
}

// Generator produces briefing documents from the accepted set
type Generator interface {
	Generate(ctx context.Context, kind domain.DocumentKind, date string, articles []domain.Article) (domain.BriefingDocument, error)
}

// Store persists run outputs to the structured store
type Store interface {
	WriteArticles(ctx context.Context, date string, articles []domain.Article) error
	WriteDocument(ctx context.Context, doc domain.BriefingDocument) error
}

// Archive persists run outputs to the local database
type Archive interface {
	SaveArticles(ctx context.Context, date string, articles []domain.Article) error
	SaveDocument(ctx context.Context, doc domain.BriefingDocument) error
	DedupKeys(ctx context.Context, beforeDate string) (urls, hashes []string, err error)
}

// Exporter writes local flat-file copies
type Exporter interface {
	WriteArticlesCSV(date string, articles []domain.Article) (string, error)
	WriteDocument(doc domain.BriefingDocument) (string, error)
}

// Seeder preloads dedup keys for historical deduplication
type Seeder interface {
	Seed(urls, hashes []string)
}

// Pipeline wires the run stages together
type Pipeline struct {
	provider  ConfigProvider
	retriever Retriever
	filter    Classifier
	dedup     Deduplicator
	generator Generator
	store     Store
	archive   Archive
	exporter  Exporter
	tracker   *Tracker

	maxWorkers int
	historical bool
	dryRun     bool
}

// Config holds pipeline dependencies and run options
type Config struct {
	Provider   ConfigProvider
	Retriever  Retriever
	Filter     Classifier
	Dedup      Deduplicator
	Generator  Generator
	Store      Store
	Archive    Archive
	Exporter   Exporter
	Tracker    *Tracker
	MaxWorkers int
	Historical bool
	DryRun     bool
}

// New creates a pipeline from the provided configuration
func New(cfg Config) *Pipeline {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Pipeline{
		provider:   cfg.Provider,
		retriever:  cfg.Retriever,
		filter:     cfg.Filter,
		dedup:      cfg.Dedup,
		generator:  cfg.Generator,
		store:      cfg.Store,
		archive:    cfg.Archive,
		exporter:   cfg.Exporter,
		tracker:    tracker,
		maxWorkers: maxWorkers,
		historical: cfg.Historical,
		dryRun:     cfg.DryRun,
	}
}

// Result summarizes one completed run
type Result struct {
	Date      string
	Accepted  []domain.Article
	Documents []domain.BriefingDocument
	Tracker   *Tracker
}

// Run executes one full pipeline pass for the given date. It returns an
// error only for fatal configuration problems detected before any provider
// traffic; everything after that point is absorbed and reported in Result.
func (p *Pipeline) Run(ctx context.Context, date string) (*Result, error) {
	// configuration must be complete before any network call
	if err := p.provider.Validate(ctx); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}

	if p.historical {
		p.seedHistorical(ctx, date)
	}

	keywords := flattenKeywords(p.provider.Keywords(ctx))
	lgr.Printf("[INFO] run %s starting with %d keywords", date, len(keywords))

	accepted := p.collect(ctx, keywords)
	lgr.Printf("[INFO] run %s accepted %d articles", date, len(accepted))

	p.persistArticles(ctx, date, accepted)
	documents := p.generateDocuments(ctx, date, accepted)

	lgr.Printf("[INFO] run %s finished: %d articles, %d documents, %s",
		date, len(accepted), len(documents), p.tracker.Summary())

	return &Result{Date: date, Accepted: accepted, Documents: documents, Tracker: p.tracker}, nil
}

// collect retrieves, filters and deduplicates articles for all keywords.
// Retrieval runs sequentially (paced by the limiter inside the retriever)
// while classification of already-fetched candidates overlaps in a bounded
// worker pool. Dedup acceptance is serialized inside the deduplicator.
func (p *Pipeline) collect(ctx context.Context, keywords []domain.Keyword) []domain.Article {
	candidates := make(chan domain.Article)

	// producer: one provider query per keyword
	go func() {
		defer close(candidates)
		for _, kw := range keywords {
			articles, err := p.retriever.Fetch(ctx, kw)
			if err != nil {
				lgr.Printf("[WARN] keyword %q failed: %v", kw.Term, err)
				p.tracker.Record(ErrProvider, kw.Term)
				continue
			}
			for _, a := range articles {
				select {
				case candidates <- a:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var mu sync.Mutex
	var accepted []domain.Article

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)
	for article := range candidates {
		g.Go(func() error {
			inScope, err := p.filter.Classify(gctx, article)
			if err != nil {
				lgr.Printf("[WARN] filter failed for %q, dropping: %v", article.Headline, err)
				p.tracker.Record(ErrProvider, article.Keyword)
				return nil
			}
			if !inScope {
				lgr.Printf("[DEBUG] out of scope: %q", article.Headline)
				return nil
			}

			if ok, reason := p.dedup.Accept(&article); !ok {
				if reason != "duplicate url" && reason != "duplicate content" {
					p.tracker.Record(ErrValidation, article.Keyword)
				}
				lgr.Printf("[DEBUG] rejected %q: %s", article.Headline, reason)
				return nil
			}

			mu.Lock()
			accepted = append(accepted, article)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		lgr.Printf("[ERROR] filter workers: %v", err)
	}

	// worker completion order is nondeterministic, keep output stable
	sort.Slice(accepted, func(i, j int) bool {
		if accepted[i].Category != accepted[j].Category {
			return accepted[i].Category < accepted[j].Category
		}
		if accepted[i].Keyword != accepted[j].Keyword {
			return accepted[i].Keyword < accepted[j].Keyword
		}
		return accepted[i].Headline < accepted[j].Headline
	})
	return accepted
}

// persistArticles writes the accepted set to the export file, the archive
// and the store. Failures are recorded, never escalated.
func (p *Pipeline) persistArticles(ctx context.Context, date string, accepted []domain.Article) {
	if _, err := p.exporter.WriteArticlesCSV(date, accepted); err != nil {
		lgr.Printf("[ERROR] csv export failed: %v", err)
		p.tracker.Record(ErrStoreWrite, "")
	}

	if err := p.archive.SaveArticles(ctx, date, accepted); err != nil {
		lgr.Printf("[ERROR] archive write failed: %v", err)
		p.tracker.Record(ErrStoreWrite, "")
	}

	if p.dryRun {
		lgr.Printf("[INFO] dry-run, skipping store write of %d articles", len(accepted))
		return
	}
	if err := p.store.WriteArticles(ctx, date, accepted); err != nil {
		lgr.Printf("[ERROR] store write failed, local exports remain: %v", err)
		p.tracker.Record(ErrStoreWrite, "")
	}
}

// generateDocuments produces and persists both briefing kinds. A failed
// kind is skipped, the other kind still goes out.
func (p *Pipeline) generateDocuments(ctx context.Context, date string, accepted []domain.Article) []domain.BriefingDocument {
	var documents []domain.BriefingDocument

	for _, kind := range []domain.DocumentKind{domain.ExplainerScript, domain.OneSheet} {
		doc, err := p.generator.Generate(ctx, kind, date, accepted)
		if err != nil {
			lgr.Printf("[ERROR] %s generation failed, skipping: %v", kind, err)
			p.tracker.Record(ErrProvider, "")
			continue
		}
		documents = append(documents, doc)

		if _, err := p.exporter.WriteDocument(doc); err != nil {
			lgr.Printf("[ERROR] %s export failed: %v", kind, err)
			p.tracker.Record(ErrStoreWrite, "")
		}
		if err := p.archive.SaveDocument(ctx, doc); err != nil {
			lgr.Printf("[ERROR] %s archive write failed: %v", kind, err)
			p.tracker.Record(ErrStoreWrite, "")
		}
		if p.dryRun {
			continue
		}
		if err := p.store.WriteDocument(ctx, doc); err != nil {
			lgr.Printf("[ERROR] %s store write failed, local export remains: %v", kind, err)
			p.tracker.Record(ErrStoreWrite, "")
		}
	}

	return documents
}

// seedHistorical preloads dedup keys recorded by earlier runs
func (p *Pipeline) seedHistorical(ctx context.Context, date string) {
	seeder, ok := p.dedup.(Seeder)
	if !ok {
		return
	}
	urls, hashes, err := p.archive.DedupKeys(ctx, date)
	if err != nil {
		lgr.Printf("[WARN] historical dedup keys unavailable: %v", err)
		return
	}
	seeder.Seed(urls, hashes)
	lgr.Printf("[INFO] seeded %d historical dedup keys", len(hashes))
}

// flattenKeywords converts the category mapping into a stable keyword list
func flattenKeywords(mapping map[string][]string) []domain.Keyword {
	categories := make([]string, 0, len(mapping))
	for category := range mapping {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var keywords []domain.Keyword
	for _, category := range categories {
		for _, term := range mapping[category] {
			keywords = append(keywords, domain.Keyword{Category: category, Term: term, Active: true})
		}
	}
	return keywords
}
