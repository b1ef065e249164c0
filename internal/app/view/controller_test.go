package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/domain"
)

func strPtr(s string) *string { return &s }

func fixture() *domain.AggregationResult {
	return &domain.AggregationResult{
		Items: []*domain.ContentItem{
			{ID: "1", Kind: domain.KindMovie, Title: "A"},
			{ID: "3", Kind: domain.KindMovie, Title: "Heat", Description: strPtr("cat and mouse")},
			{ID: "2", Kind: domain.KindSeries, Title: "B"},
		},
		FetchedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ids(items []*domain.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func staticFetcher(r *domain.AggregationResult, err error) Fetcher {
	return FetcherFunc(func(context.Context) (*domain.AggregationResult, error) {
		return r, err
	})
}

func TestController_InitialState(t *testing.T) {
	c := NewController(zap.NewNop())
	snap := c.Snapshot()

	assert.Equal(t, domain.DefaultViewState(), snap.State)
	assert.NotNil(t, snap.Items)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
}

func TestController_SettersRecompute(t *testing.T) {
	c := NewController(zap.NewNop())
	_, err := c.Refresh(context.Background(), staticFetcher(fixture(), nil))
	require.NoError(t, err)

	snap := c.SetSearchTerm("a")
	assert.Equal(t, []string{"1", "3"}, ids(snap.Items))

	snap = c.SetSearchTerm("MOUSE")
	assert.Equal(t, []string{"3"}, ids(snap.Items))

	snap = c.SetActiveKind(domain.KindSeries)
	assert.Empty(t, snap.Items)

	snap = c.SetSearchTerm("")
	assert.Equal(t, []string{"2"}, ids(snap.Items))

	snap = c.SetLayout(domain.LayoutList)
	assert.Equal(t, domain.LayoutList, snap.State.Layout)
	assert.Equal(t, []string{"2"}, ids(snap.Items), "layout never changes the items")
}

func TestController_InvalidValuesKeepState(t *testing.T) {
	c := NewController(zap.NewNop())

	snap := c.SetActiveKind("podcast")
	assert.Equal(t, domain.KindMovie, snap.State.ActiveKind)

	snap = c.SetLayout("carousel")
	assert.Equal(t, domain.LayoutGrid, snap.State.Layout)
}

func TestController_Apply(t *testing.T) {
	c := NewController(zap.NewNop())
	_, err := c.Refresh(context.Background(), staticFetcher(fixture(), nil))
	require.NoError(t, err)

	snap := c.Apply(domain.ViewState{ActiveKind: domain.KindSeries, SearchTerm: "b", Layout: "bogus"})
	assert.Equal(t, domain.ViewState{ActiveKind: domain.KindSeries, SearchTerm: "b", Layout: domain.LayoutGrid}, snap.State)
	assert.Equal(t, []string{"2"}, ids(snap.Items))
}

func TestController_LoadingFlag(t *testing.T) {
	c := NewController(zap.NewNop())

	ticket := c.BeginFetch()
	snap := c.Snapshot()
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Items, "loading and empty are distinguished by the flag")

	require.True(t, c.Commit(ticket, fixture(), nil))
	snap = c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, []string{"1", "3"}, ids(snap.Items))
	assert.Equal(t, 2, snap.Counts[domain.KindMovie])
}

func TestController_StaleCommitDiscarded(t *testing.T) {
	c := NewController(zap.NewNop())

	first := c.BeginFetch()
	second := c.BeginFetch()

	assert.True(t, c.Commit(second, fixture(), nil))
	assert.False(t, c.Commit(first, &domain.AggregationResult{}, nil))

	assert.Equal(t, []string{"1", "3"}, ids(c.Snapshot().Items))
}

func TestController_CloseDiscardsOutstanding(t *testing.T) {
	c := NewController(zap.NewNop())

	ticket := c.BeginFetch()
	c.Close()

	assert.False(t, c.Commit(ticket, fixture(), nil))
	assert.Empty(t, c.Snapshot().Items)
	assert.True(t, c.Closed())

	_, err := c.Refresh(context.Background(), staticFetcher(fixture(), nil))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestController_CloseCancelsRefresh(t *testing.T) {
	c := NewController(zap.NewNop())
	started := make(chan struct{})

	blocking := FetcherFunc(func(ctx context.Context) (*domain.AggregationResult, error) {
		close(started)
		<-ctx.Done()
		return fixture(), nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background(), blocking)
		done <- err
	}()

	<-started
	c.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(time.Second):
		t.Fatal("refresh did not return after close")
	}
	assert.Empty(t, c.Snapshot().Items, "late result is never applied")
}

func TestController_NewerRefreshSupersedes(t *testing.T) {
	c := NewController(zap.NewNop())
	started := make(chan struct{})
	release := make(chan struct{})

	slow := FetcherFunc(func(ctx context.Context) (*domain.AggregationResult, error) {
		close(started)
		<-release
		return &domain.AggregationResult{Items: []*domain.ContentItem{{ID: "old", Kind: domain.KindMovie, Title: "Old"}}}, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background(), slow)
		done <- err
	}()
	<-started

	_, err := c.Refresh(context.Background(), staticFetcher(fixture(), nil))
	require.NoError(t, err)

	close(release)
	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, []string{"1", "3"}, ids(c.Snapshot().Items))
}

func TestController_TotalFailureIsExplicit(t *testing.T) {
	c := NewController(zap.NewNop())
	_, err := c.Refresh(context.Background(), staticFetcher(fixture(), nil))
	require.NoError(t, err)

	unavailable := &domain.CatalogUnavailableError{}
	snap, err := c.Refresh(context.Background(), staticFetcher(nil, unavailable))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCatalogUnavailable))

	assert.Empty(t, snap.Items)
	assert.ErrorIs(t, snap.Err, domain.ErrCatalogUnavailable)
	assert.False(t, snap.Loading)
}

func TestController_PartialFailuresSurface(t *testing.T) {
	result := fixture()
	result.PartialFailures = []domain.SourceFailure{{Source: domain.CollectionTVShows, Kind: domain.KindSeries}}
	result.Dropped = 2

	c := NewController(zap.NewNop())
	snap, err := c.Refresh(context.Background(), staticFetcher(result, nil))
	require.NoError(t, err)

	require.Len(t, snap.PartialFailures, 1)
	assert.Equal(t, 2, snap.Dropped)
	assert.Equal(t, result.FetchedAt, snap.FetchedAt)
	assert.False(t, snap.ActiveKindFailed)

	snap = c.SetActiveKind(domain.KindSeries)
	assert.True(t, snap.ActiveKindFailed)
	assert.Empty(t, snap.Items)

	snap = c.SetActiveKind(domain.KindMovie)
	assert.False(t, snap.ActiveKindFailed)
}
