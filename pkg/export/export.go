// Package export writes the local flat-file fallback copies: a CSV of the
// run's accepted articles and a plain-text file per briefing document.
// These are written unconditionally, independent of store availability.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// Exporter writes run outputs under a single export directory
type Exporter struct {
	dir string
}

// New creates an exporter, creating the directory if needed
func New(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir %q: %w", dir, err)
	}
	return &Exporter{dir: dir}, nil
}

// WriteArticlesCSV writes the accepted article set as a dated CSV file,
// overwriting any previous export for the same date
func (e *Exporter) WriteArticlesCSV(date string, articles []domain.Article) (string, error) {
	path := filepath.Join(e.dir, fmt.Sprintf("daily_digest_%s.csv", date))

	f, err := os.Create(path) //nolint:gosec // path built from run date under the export dir
	if err != nil {
		return "", fmt.Errorf("create csv export: %w", err)
	}
	defer f.Close() //nolint:errcheck // error checked on explicit close below

	w := csv.NewWriter(f)
	header := []string{"Date", "Category", "Keyword", "Headline", "Source", "URL", "Summary", "Extraction Timestamp"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, a := range articles {
		record := []string{
			a.Published.UTC().Format("2006-01-02"),
			a.Category,
			a.Keyword,
			a.Headline,
			a.Source,
			a.URL,
			a.Summary,
			a.RetrievedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close csv export: %w", err)
	}

	lgr.Printf("[INFO] exported %d articles to %s", len(articles), path)
	return path, nil
}

// WriteDocument writes a briefing document body as a dated text file
func (e *Exporter) WriteDocument(doc domain.BriefingDocument) (string, error) {
	name := strings.ToLower(strings.ReplaceAll(string(doc.Kind), " ", "_"))
	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.txt", name, doc.Date))

	if err := os.WriteFile(path, []byte(doc.Body+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write document export: %w", err)
	}

	lgr.Printf("[INFO] exported %s to %s", doc.Kind, path)
	return path, nil
}

// LogFile returns the path of the run log inside the export directory
func (e *Exporter) LogFile(date string) string {
	return filepath.Join(e.dir, fmt.Sprintf("run_%s.log", date))
}
