package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?cache=shared&mode=rwc"
	database, err := New(Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, database.Close()) })
	return database
}

func archiveArticle(i int, date string) domain.Article {
	published, _ := time.Parse("2006-01-02", date)
	return domain.Article{
		Headline:    fmt.Sprintf("Headline %d", i),
		Summary:     fmt.Sprintf("Summary %d with enough detail to matter.", i),
		URL:         fmt.Sprintf("https://example.com/story/%d", i),
		Source:      "Example Wire",
		Keyword:     "budget bill",
		Category:    "Economy",
		ContentHash: fmt.Sprintf("hash-%d-%s", i, date),
		Published:   published,
		RetrievedAt: published.Add(12 * time.Hour),
	}
}

func TestDB_SaveAndGetArticles(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	articles := []domain.Article{archiveArticle(1, "2026-08-31"), archiveArticle(2, "2026-08-31")}
	require.NoError(t, database.SaveArticles(ctx, "2026-08-31", articles))

	rows, err := database.GetArticles(ctx, "2026-08-31")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Headline 1", rows[0].Headline)
	assert.Equal(t, "https://example.com/story/1", rows[0].URL)
	assert.Equal(t, "https://example.com/story/1", rows[0].NormURL)
	assert.Equal(t, "hash-1-2026-08-31", rows[0].ContentHash)
	assert.Equal(t, "2026-08-31", rows[0].RunDate)
	assert.Equal(t, "2026-08-31", rows[0].Published)

	// other dates stay empty
	empty, err := database.GetArticles(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDB_SaveArticlesIdempotent(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	first := []domain.Article{archiveArticle(1, "2026-08-31"), archiveArticle(2, "2026-08-31")}
	require.NoError(t, database.SaveArticles(ctx, "2026-08-31", first))

	// re-run of the same date replaces, not appends
	second := []domain.Article{archiveArticle(3, "2026-08-31")}
	require.NoError(t, database.SaveArticles(ctx, "2026-08-31", second))

	rows, err := database.GetArticles(ctx, "2026-08-31")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Headline 3", rows[0].Headline)
}

func TestDB_SaveArticlesBadURL(t *testing.T) {
	database := setupTestDB(t)

	bad := archiveArticle(1, "2026-08-31")
	bad.URL = "::not a url"
	err := database.SaveArticles(context.Background(), "2026-08-31", []domain.Article{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "normalize url")
}

func TestDB_SaveDocumentUpsert(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	doc := domain.BriefingDocument{Kind: domain.ExplainerScript, Date: "2026-08-31", Body: "first body"}
	require.NoError(t, database.SaveDocument(ctx, doc))

	doc.Body = "revised body"
	require.NoError(t, database.SaveDocument(ctx, doc))

	got, err := database.GetDocument(ctx, domain.ExplainerScript, "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, "revised body", got.Body)
	assert.Equal(t, string(domain.ExplainerScript), got.Kind)

	// a second kind on the same date is a separate row
	other := domain.BriefingDocument{Kind: domain.OneSheet, Date: "2026-08-31", Body: "one sheet body"}
	require.NoError(t, database.SaveDocument(ctx, other))

	gotOther, err := database.GetDocument(ctx, domain.OneSheet, "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, "one sheet body", gotOther.Body)
}

func TestDB_GetDocumentMissing(t *testing.T) {
	database := setupTestDB(t)
	_, err := database.GetDocument(context.Background(), domain.OneSheet, "2026-01-01")
	assert.Error(t, err)
}

func TestDB_DedupKeys(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.SaveArticles(ctx, "2026-08-29", []domain.Article{archiveArticle(1, "2026-08-29")}))
	require.NoError(t, database.SaveArticles(ctx, "2026-08-30", []domain.Article{archiveArticle(2, "2026-08-30")}))
	require.NoError(t, database.SaveArticles(ctx, "2026-08-31", []domain.Article{archiveArticle(3, "2026-08-31")}))

	urls, hashes, err := database.DedupKeys(ctx, "2026-08-31")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"https://example.com/story/1", "https://example.com/story/2"}, urls)
	assert.ElementsMatch(t, []string{"hash-1-2026-08-29", "hash-2-2026-08-30"}, hashes)
}

func TestDB_DedupKeysEmpty(t *testing.T) {
	database := setupTestDB(t)
	urls, hashes, err := database.DedupKeys(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, urls)
	assert.Empty(t, hashes)
}

func TestIsLockError(t *testing.T) {
	assert.False(t, isLockError(nil))
	assert.False(t, isLockError(fmt.Errorf("some error")))
	assert.True(t, isLockError(fmt.Errorf("SQLITE_BUSY: database is busy")))
	assert.True(t, isLockError(fmt.Errorf("database is locked")))
	assert.True(t, isLockError(fmt.Errorf("database table is locked")))
}
