// Package sheets is the structured store client. The spreadsheet holds the
// Keywords and Prompts configuration tables, one dated digest table per run,
// and one table per briefing document kind.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
	"github.com/hammed103/maya-news-extraction/pkg/ratelimit"
)

// table names within the spreadsheet
const (
	keywordsTable = "Keywords"
	promptsTable  = "Prompts"
	digestPrefix  = "Daily Digest "
)

// Store reads configuration tables and writes run outputs to a spreadsheet
type Store struct {
	srv           *sheets.Service
	spreadsheetID string
	limiter       *ratelimit.Limiter
	attempts      int
	delay         time.Duration
}

// Config holds store settings
type Config struct {
	SpreadsheetID string
	Credentials   string // service account credentials JSON
	Attempts      int
	Delay         time.Duration
}

// New creates a sheets store from service account credentials. Malformed
// credentials are rejected here, before any network activity.
func New(ctx context.Context, cfg Config, limiter *ratelimit.Limiter) (*Store, error) {
	if !json.Valid([]byte(cfg.Credentials)) {
		return nil, fmt.Errorf("store credentials are not valid JSON")
	}

	srv, err := sheets.NewService(ctx,
		option.WithCredentialsJSON([]byte(cfg.Credentials)),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Store{
		srv:           srv,
		spreadsheetID: cfg.SpreadsheetID,
		limiter:       limiter,
		attempts:      cfg.Attempts,
		delay:         cfg.Delay,
	}, nil
}

// ReadKeywords loads all rows from the Keywords table
func (s *Store) ReadKeywords(ctx context.Context) ([]domain.Keyword, error) {
	rows, err := s.readTable(ctx, keywordsTable+"!A:C")
	if err != nil {
		return nil, fmt.Errorf("read keywords table: %w", err)
	}
	return parseKeywordRows(rows), nil
}

// ReadPrompts loads all rows from the Prompts table
func (s *Store) ReadPrompts(ctx context.Context) ([]domain.Prompt, error) {
	rows, err := s.readTable(ctx, promptsTable+"!A:C")
	if err != nil {
		return nil, fmt.Errorf("read prompts table: %w", err)
	}
	return parsePromptRows(rows), nil
}

// WriteArticles replaces the dated digest table with the run's accepted
// articles. The whole table is rewritten in one batched call so re-running
// a date is idempotent.
func (s *Store) WriteArticles(ctx context.Context, date string, articles []domain.Article) error {
	table := digestPrefix + date
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	values := [][]interface{}{digestHeader()}
	for _, a := range articles {
		values = append(values, digestRow(a))
	}

	if err := s.clearTable(ctx, table); err != nil {
		return err
	}
	if err := s.updateRange(ctx, fmt.Sprintf("'%s'!A1", table), values); err != nil {
		return fmt.Errorf("write digest table: %w", err)
	}

	lgr.Printf("[INFO] wrote %d article rows to %q", len(articles), table)
	return nil
}

// WriteDocument writes a briefing document to its kind's table, replacing
// any existing entry for the same date
func (s *Store) WriteDocument(ctx context.Context, doc domain.BriefingDocument) error {
	table := string(doc.Kind)
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	rows, err := s.readTable(ctx, fmt.Sprintf("'%s'!A:A", table))
	if err != nil {
		return fmt.Errorf("read document table: %w", err)
	}

	values := [][]interface{}{{doc.Date, doc.Body}}
	if len(rows) == 0 {
		// fresh table, write header first
		values = [][]interface{}{{"Date", table}, {doc.Date, doc.Body}}
		if err := s.updateRange(ctx, fmt.Sprintf("'%s'!A1", table), values); err != nil {
			return fmt.Errorf("write document table: %w", err)
		}
		lgr.Printf("[INFO] created %q and wrote document for %s", table, doc.Date)
		return nil
	}

	// replace the existing row for this date, or append a new one
	row := len(rows) + 1
	for i, existing := range rows {
		if len(existing) > 0 && cellString(existing[0]) == doc.Date {
			row = i + 1 // 1-based
			break
		}
	}
	if err := s.updateRange(ctx, fmt.Sprintf("'%s'!A%d", table, row), values); err != nil {
		return fmt.Errorf("write document row: %w", err)
	}

	lgr.Printf("[INFO] wrote %s for %s at row %d", doc.Kind, doc.Date, row)
	return nil
}

// Provision writes the default Keywords and Prompts tables into the
// spreadsheet, overwriting existing content
func (s *Store) Provision(ctx context.Context, keywords map[string][]string, prompts map[string]string) error {
	if err := s.ensureTable(ctx, keywordsTable); err != nil {
		return err
	}
	if err := s.clearTable(ctx, keywordsTable); err != nil {
		return err
	}
	if err := s.updateRange(ctx, keywordsTable+"!A1", keywordRows(keywords)); err != nil {
		return fmt.Errorf("provision keywords: %w", err)
	}

	if err := s.ensureTable(ctx, promptsTable); err != nil {
		return err
	}
	if err := s.clearTable(ctx, promptsTable); err != nil {
		return err
	}
	if err := s.updateRange(ctx, promptsTable+"!A1", promptRows(prompts)); err != nil {
		return fmt.Errorf("provision prompts: %w", err)
	}

	lgr.Printf("[INFO] provisioned %s and %s tables", keywordsTable, promptsTable)
	return nil
}

// readTable fetches raw cell values for a range
func (s *Store) readTable(ctx context.Context, readRange string) ([][]interface{}, error) {
	var values [][]interface{}
	err := s.withRetry(ctx, func() error {
		resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
		if err != nil {
			return err
		}
		values = resp.Values
		return nil
	})
	return values, err
}

// ensureTable adds the named sheet to the spreadsheet if absent
func (s *Store) ensureTable(ctx context.Context, name string) error {
	return s.withRetry(ctx, func() error {
		meta, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("get spreadsheet: %w", err)
		}
		for _, sheet := range meta.Sheets {
			if sheet.Properties.Title == name {
				return nil
			}
		}

		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}},
			}},
		}
		if _, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add sheet %q: %w", name, err)
		}
		lgr.Printf("[INFO] created table %q", name)
		return nil
	})
}

func (s *Store) clearTable(ctx context.Context, name string) error {
	return s.withRetry(ctx, func() error {
		_, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, fmt.Sprintf("'%s'!A:Z", name),
			&sheets.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("clear table %q: %w", name, err)
		}
		return nil
	})
}

func (s *Store) updateRange(ctx context.Context, writeRange string, values [][]interface{}) error {
	return s.withRetry(ctx, func() error {
		_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, writeRange,
			&sheets.ValueRange{Values: values}).ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
}

// withRetry paces the call on the store channel and retries transient failures
func (s *Store) withRetry(ctx context.Context, op func() error) error {
	retrier := repeater.NewBackoff(s.attempts, s.delay)
	return retrier.Do(ctx, func() error {
		if err := s.limiter.Acquire(ctx, ratelimit.ChannelStore); err != nil {
			return err
		}
		if err := op(); err != nil {
			s.limiter.Failure(ratelimit.ChannelStore)
			return err
		}
		s.limiter.Success(ratelimit.ChannelStore)
		return nil
	})
}
