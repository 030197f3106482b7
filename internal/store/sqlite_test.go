package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointfindr/points-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testSearchQuery() model.Query {
	return model.Query{
		Origins:      []string{"JFK"},
		Destinations: []string{"LHR"},
		StartDate:    "2026-10-01",
		EndDate:      "2026-10-03",
		Filters:      model.Filters{Programs: []string{"Delta"}},
	}
}

func testResult() *model.Result {
	deal := model.Deal{
		Date:    "2026-10-01",
		Program: "Delta",
		Route:   model.Route{Origin: "JFK", Destination: "LHR"},
		Cabins: map[model.Cabin]*model.CabinOffer{
			model.CabinBusiness: {Points: 62500, Seats: 2, Direct: true},
		},
		Source: "multiple",
	}
	r := &model.Result{AllDeals: []model.Deal{deal}}
	r.CheapestDeal = r.Cheapest()
	return r
}

// --- Search history ---

func TestSQLite_SearchLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSearch(ctx, testSearchQuery())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, SearchStatusRunning, created.Status)

	require.NoError(t, st.CompleteSearch(ctx, created.ID, testResult()))

	got, err := st.GetSearch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, SearchStatusComplete, got.Status)
	assert.Equal(t, 1, got.DealCount)
	require.NotNil(t, got.Result)
	require.Len(t, got.Result.AllDeals, 1)
	assert.Equal(t, "Delta", got.Result.AllDeals[0].Program)
	assert.Equal(t, 62500, got.Result.AllDeals[0].Offer(model.CabinBusiness).Points)
}

func TestSQLite_FailSearch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSearch(ctx, testSearchQuery())
	require.NoError(t, err)

	require.NoError(t, st.FailSearch(ctx, created.ID, context.DeadlineExceeded))

	got, err := st.GetSearch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, SearchStatusFailed, got.Status)
	assert.Nil(t, got.Result)
}

func TestSQLite_CompleteUnknownSearch(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.CompleteSearch(context.Background(), "missing", testResult())
	assert.Error(t, err)
}

func TestSQLite_GetUnknownSearch(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetSearch(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSQLite_ListSearches(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for range 3 {
		_, err := st.CreateSearch(ctx, testSearchQuery())
		require.NoError(t, err)
	}

	searches, err := st.ListSearches(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, searches, 2)

	all, err := st.ListSearches(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// --- Quote cache ---

func TestSQLite_QuoteCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.SetCachedQuote(ctx, "JFK:LHR:2026-10-01:business", []byte(`[{"price":900}]`), time.Hour)
	require.NoError(t, err)

	data, err := st.GetCachedQuote(ctx, "JFK:LHR:2026-10-01:business")
	require.NoError(t, err)
	assert.Equal(t, `[{"price":900}]`, string(data))
}

func TestSQLite_QuoteCache_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	data, err := st.GetCachedQuote(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSQLite_QuoteCache_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.SetCachedQuote(ctx, "stale", []byte(`[]`), -time.Hour)
	require.NoError(t, err)

	data, err := st.GetCachedQuote(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSQLite_QuoteCache_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedQuote(ctx, "k", []byte(`old`), time.Hour))
	require.NoError(t, st.SetCachedQuote(ctx, "k", []byte(`new`), time.Hour))

	data, err := st.GetCachedQuote(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestSQLite_DeleteExpiredQuotes(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedQuote(ctx, "stale", []byte(`[]`), -time.Hour))
	require.NoError(t, st.SetCachedQuote(ctx, "fresh", []byte(`[]`), time.Hour))

	n, err := st.DeleteExpiredQuotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := st.GetCachedQuote(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, data)
}
