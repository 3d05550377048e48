package config

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammed103/maya-news-extraction/pkg/domain"
)

// fakeStore is a scripted StoreReader counting calls
type fakeStore struct {
	keywords []domain.Keyword
	prompts  []domain.Prompt
	err      error

	keywordCalls int
	promptCalls  int
}

func (f *fakeStore) ReadKeywords(_ context.Context) ([]domain.Keyword, error) {
	f.keywordCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.keywords, nil
}

func (f *fakeStore) ReadPrompts(_ context.Context) ([]domain.Prompt, error) {
	f.promptCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.prompts, nil
}

func storeData() ([]domain.Keyword, []domain.Prompt) {
	keywords := []domain.Keyword{
		{Category: "Economy", Term: "budget bill", Active: true},
		{Category: "Economy", Term: "old term", Active: false},
		{Category: "Courts", Term: "due process", Active: true},
	}
	prompts := []domain.Prompt{
		{Name: "Explainer Script", Text: "script {summaries_text}", Active: true},
		{Name: "One Sheet Briefing", Text: "one sheet {summaries_text}", Active: true},
		{Name: "US Article Filter", Text: "filter {headline}", Active: true},
		{Name: "Retired Prompt", Text: "old", Active: false},
	}
	return keywords, prompts
}

func TestProvider_ActiveOnly(t *testing.T) {
	store := &fakeStore{}
	store.keywords, store.prompts = storeData()

	p := NewProvider(store, 5*time.Minute)
	snap := p.Snapshot(context.Background())

	assert.Equal(t, SourceStore, snap.Source)
	assert.Equal(t, map[string][]string{
		"Economy": {"budget bill"},
		"Courts":  {"due process"},
	}, snap.Keywords)
	assert.NotContains(t, snap.Prompts, "Retired Prompt")

	text, err := p.Prompt(context.Background(), "US Article Filter")
	require.NoError(t, err)
	assert.Equal(t, "filter {headline}", text)
}

func TestProvider_CacheWithinTTL(t *testing.T) {
	store := &fakeStore{}
	store.keywords, store.prompts = storeData()

	p := NewProvider(store, 5*time.Minute)
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	first := p.Keywords(context.Background())
	second := p.Keywords(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.keywordCalls, "second call served from cache")
	assert.Equal(t, 1, store.promptCalls)
}

func TestProvider_ReloadAfterTTL(t *testing.T) {
	store := &fakeStore{}
	store.keywords, store.prompts = storeData()

	p := NewProvider(store, 5*time.Minute)
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.Keywords(context.Background())
	require.Equal(t, 1, store.keywordCalls)

	now = now.Add(5*time.Minute + time.Second)
	p.Keywords(context.Background())
	assert.Equal(t, 2, store.keywordCalls, "expired snapshot triggers exactly one reload")
}

func TestProvider_Invalidate(t *testing.T) {
	store := &fakeStore{}
	store.keywords, store.prompts = storeData()

	p := NewProvider(store, time.Hour)
	p.Keywords(context.Background())
	p.Invalidate()
	p.Keywords(context.Background())

	assert.Equal(t, 2, store.keywordCalls)
}

func TestProvider_FallbackOnStoreError(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("store unreachable")}

	p := NewProvider(store, 5*time.Minute)
	snap := p.Snapshot(context.Background())

	assert.Equal(t, SourceFallback, snap.Source)
	assert.Equal(t, FallbackKeywords(), snap.Keywords)
	require.NoError(t, p.Validate(context.Background()), "fallback satisfies required prompts")
}

func TestProvider_PromptMergesFallback(t *testing.T) {
	// store reachable but missing one required prompt, the fallback text fills it
	store := &fakeStore{}
	store.keywords, store.prompts = storeData()
	store.prompts = store.prompts[:2] // drop "US Article Filter"

	p := NewProvider(store, 5*time.Minute)
	text, err := p.Prompt(context.Background(), domain.PromptUSArticleFilter)
	require.NoError(t, err)
	assert.Equal(t, FallbackPrompts()[domain.PromptUSArticleFilter], text)
}

func TestProvider_ValidateMissingEverywhere(t *testing.T) {
	// required prompt absent from both the store and the fallback is fatal
	store := &fakeStore{}
	store.keywords, store.prompts = storeData()
	store.prompts = store.prompts[:2] // drop "US Article Filter"

	p := NewProvider(store, 5*time.Minute)
	delete(p.fallbackPrompts, domain.PromptUSArticleFilter)

	err := p.Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "US Article Filter")
}

func TestProvider_UnknownPrompt(t *testing.T) {
	store := &fakeStore{}
	store.keywords, store.prompts = storeData()

	p := NewProvider(store, 5*time.Minute)
	_, err := p.Prompt(context.Background(), "No Such Prompt")
	assert.Error(t, err)
}
