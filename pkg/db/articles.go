package db

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/hammed103/maya-news-extraction/pkg/dedup"
	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// ArticleRow is the archive representation of an accepted article
type ArticleRow struct {
	ID          int64     `db:"id"`
	RunDate     string    `db:"run_date"`
	Category    string    `db:"category"`
	Keyword     string    `db:"keyword"`
	Headline    string    `db:"headline"`
	Source      string    `db:"source"`
	URL         string    `db:"url"`
	NormURL     string    `db:"norm_url"`
	Summary     string    `db:"summary"`
	ContentHash string    `db:"content_hash"`
	Published   string    `db:"published"`
	RetrievedAt time.Time `db:"retrieved_at"`
}

// DocumentRow is the archive representation of a briefing document
type DocumentRow struct {
	ID        int64     `db:"id"`
	Kind      string    `db:"kind"`
	RunDate   string    `db:"run_date"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

// SaveArticles replaces the archived article set for the run date.
// The delete+insert runs in one transaction so a re-run of the same date
// is idempotent.
func (db *DB) SaveArticles(ctx context.Context, date string, articles []domain.Article) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		err := db.InTransaction(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE run_date = ?`, date); err != nil {
				return fmt.Errorf("clear run date %s: %w", date, err)
			}

			query := `
				INSERT INTO articles (run_date, category, keyword, headline, source, url, norm_url,
				                      summary, content_hash, published, retrieved_at)
				VALUES (:run_date, :category, :keyword, :headline, :source, :url, :norm_url,
				        :summary, :content_hash, :published, :retrieved_at)
			`
			for _, a := range articles {
				normURL, err := dedup.NormalizeURL(a.URL)
				if err != nil {
					return fmt.Errorf("normalize url %q: %w", a.URL, err)
				}
				row := ArticleRow{
					RunDate:     date,
					Category:    a.Category,
					Keyword:     a.Keyword,
					Headline:    a.Headline,
					Source:      a.Source,
					URL:         a.URL,
					NormURL:     normURL,
					Summary:     a.Summary,
					ContentHash: a.ContentHash,
					Published:   a.Published.UTC().Format("2006-01-02"),
					RetrievedAt: a.RetrievedAt,
				}
				if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
					return fmt.Errorf("insert article: %w", err)
				}
			}
			return nil
		})
		if err != nil && !isLockError(err) {
			return &criticalError{err: err}
		}
		return err
	})
}

// SaveDocument upserts a briefing document keyed by kind and run date
func (db *DB) SaveDocument(ctx context.Context, doc domain.BriefingDocument) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		query := `
			INSERT INTO documents (kind, run_date, body)
			VALUES (?, ?, ?)
			ON CONFLICT(kind, run_date) DO UPDATE SET body = excluded.body
		`
		_, err := db.conn.ExecContext(ctx, query, string(doc.Kind), doc.Date, doc.Body)
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("save document: %w", err)}
		}
		return nil
	})
}

// GetArticles returns the archived articles for one run date
func (db *DB) GetArticles(ctx context.Context, date string) ([]ArticleRow, error) {
	var rows []ArticleRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT * FROM articles WHERE run_date = ? ORDER BY category, keyword, id`, date)
	if err != nil {
		return nil, fmt.Errorf("get articles for %s: %w", date, err)
	}
	return rows, nil
}

// GetDocument returns the archived document for one kind and run date
func (db *DB) GetDocument(ctx context.Context, kind domain.DocumentKind, date string) (*DocumentRow, error) {
	var row DocumentRow
	err := db.conn.GetContext(ctx, &row,
		`SELECT * FROM documents WHERE kind = ? AND run_date = ?`, string(kind), date)
	if err != nil {
		return nil, fmt.Errorf("get document %s for %s: %w", kind, date, err)
	}
	return &row, nil
}

// DedupKeys returns normalized URLs and content hashes accepted before the
// given run date, used to seed historical deduplication
func (db *DB) DedupKeys(ctx context.Context, beforeDate string) (urls, hashes []string, err error) {
	type keyRow struct {
		NormURL     string `db:"norm_url"`
		ContentHash string `db:"content_hash"`
	}
	var rows []keyRow
	err = db.conn.SelectContext(ctx, &rows,
		`SELECT DISTINCT norm_url, content_hash FROM articles WHERE run_date < ?`, beforeDate)
	if err != nil {
		return nil, nil, fmt.Errorf("load dedup keys: %w", err)
	}

	for _, row := range rows {
		urls = append(urls, row.NormURL)
		hashes = append(hashes, row.ContentHash)
	}
	return urls, hashes, nil
}

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string {
	return e.err.Error()
}
