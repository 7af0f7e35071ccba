package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

type stubFetcher struct {
	recalls []*storage.Recall
	err     error
	days    int
	limit   int
}

func (f *stubFetcher) FetchRecent(_ context.Context, days, limit int) ([]*storage.Recall, error) {
	f.days, f.limit = days, limit
	return f.recalls, f.err
}

type memoryRecalls struct {
	byNumber map[string]*storage.Recall
	failOn   string
}

func (m *memoryRecalls) Upsert(_ context.Context, r *storage.Recall) (bool, error) {
	if r.RecallNumber == m.failOn {
		return false, errors.New("constraint failed")
	}
	_, exists := m.byNumber[r.RecallNumber]
	m.byNumber[r.RecallNumber] = r
	return !exists, nil
}

func TestRecallPipeline_Run(t *testing.T) {
	store := &memoryRecalls{byNumber: map[string]*storage.Recall{"F-2": {RecallNumber: "F-2"}}, failOn: "F-3"}
	fetcher := &stubFetcher{recalls: []*storage.Recall{
		{RecallNumber: "F-1"}, {RecallNumber: "F-2"}, {RecallNumber: "F-3"}, {RecallNumber: "F-4"},
	}}

	var progress []string
	p := NewRecallPipeline(observability.Nop(), fetcher, store)
	res, err := p.Run(context.Background(), Options{Days: 30, Limit: 50, OnProgress: func(done, total int) {
		progress = append(progress, fmt.Sprintf("%d/%d", done, total))
	}})
	require.NoError(t, err)

	assert.Equal(t, 30, fetcher.days)
	assert.Equal(t, 50, fetcher.limit)
	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "F-3")
	assert.Equal(t, []string{"1/4", "2/4", "3/4", "4/4"}, progress)
	assert.False(t, res.CompletedAt.Before(res.StartedAt))
}

func TestRecallPipeline_Defaults(t *testing.T) {
	fetcher := &stubFetcher{}
	p := NewRecallPipeline(observability.Nop(), fetcher, &memoryRecalls{byNumber: map[string]*storage.Recall{}})
	res, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 90, fetcher.days)
	assert.Equal(t, 100, fetcher.limit)
	assert.Zero(t, res.Fetched)
}

func TestRecallPipeline_FetchError(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("openFDA down")}
	p := NewRecallPipeline(observability.Nop(), fetcher, &memoryRecalls{byNumber: map[string]*storage.Recall{}})
	res, err := p.Run(context.Background(), Options{})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.Errors, 1)
}

func TestRecallPipeline_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.DialectSQLite, ":memory:", storage.PoolConfig{})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, storage.EnsureSchema(ctx, db, storage.DialectSQLite))
	repo := storage.NewRecallRepository(db, storage.DialectSQLite)

	fetcher := &stubFetcher{recalls: []*storage.Recall{{RecallNumber: "F-10", ProductDescription: "Oysters"}}}
	p := NewRecallPipeline(observability.Nop(), fetcher, repo)

	first, err := p.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	fetcher.recalls = []*storage.Recall{{RecallNumber: "F-10", ProductDescription: "Raw oysters"}}
	second, err := p.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Updated)

	got, err := repo.GetByNumber(ctx, "F-10")
	require.NoError(t, err)
	assert.Equal(t, "Raw oysters", got.ProductDescription)
}

type memoryAdvisories struct{ items []*storage.Advisory }

func (m *memoryAdvisories) Create(_ context.Context, a *storage.Advisory) error {
	if a.FishSpecies == "" {
		return errors.New("fish species is required")
	}
	m.items = append(m.items, a)
	return nil
}

func TestLoadAdvisories(t *testing.T) {
	input := `[
		{"state_code":"MN","state_name":"Minnesota","fish_species":"Walleye","advisory_level":"Limit"},
		{"state_code":"MN","state_name":"Minnesota","fish_species":""}
	]`
	store := &memoryAdvisories{}
	res, err := LoadAdvisories(context.Background(), observability.Nop(), strings.NewReader(input), store)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, store.items, 1)
	assert.Equal(t, "Walleye", store.items[0].FishSpecies)

	_, err = LoadAdvisories(context.Background(), observability.Nop(), strings.NewReader("{"), store)
	assert.Error(t, err)
}
