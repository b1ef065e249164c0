package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/infra/memory"
)

func newWatchlist(g *memory.Gateway) *WatchlistService {
	return NewWatchlistService(g, newCatalog(g, CatalogConfig{}), zap.NewNop())
}

// recordingGateway records the collections read through it.
type recordingGateway struct {
	*memory.Gateway

	mu    sync.Mutex
	reads []string
}

func (r *recordingGateway) Read(ctx context.Context, collection string, q domain.Query) ([]domain.RawRecord, error) {
	r.record(collection)
	return r.Gateway.Read(ctx, collection, q)
}

func (r *recordingGateway) ReadWithJoin(ctx context.Context, collection string, filter domain.Filter, joins ...string) ([]domain.RawRecord, error) {
	r.record(collection)
	for _, j := range joins {
		r.record(collection + "->" + j)
	}
	return r.Gateway.ReadWithJoin(ctx, collection, filter, joins...)
}

func (r *recordingGateway) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads = append(r.reads, s)
}

func TestWatchlistService_Resolve(t *testing.T) {
	g := seedCatalog()
	g.Seed(domain.CollectionWatchlists,
		domain.RawRecord{"id": "w1", "user_id": "u1", "tv_show_id": "s1"},
		domain.RawRecord{"id": "w2", "user_id": "u1", "movie_id": "gone"},
		domain.RawRecord{"id": "w3", "user_id": "u1", "movie_id": "m1"},
		domain.RawRecord{"id": "w4", "user_id": "u2", "movie_id": "m2"},
		domain.RawRecord{"id": "w5", "user_id": "u1"},
	)
	svc := newWatchlist(g)

	resolved, err := svc.Resolve(domain.WithUserID(context.Background(), "u1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"s1", "m1"}, itemIDs(resolved.Items), "entry order is kept")
	assert.Equal(t, 1, resolved.Dangling)
	assert.Empty(t, resolved.PartialFailures)
}

func TestWatchlistService_Resolve_PartialCatalog(t *testing.T) {
	g := seedCatalog()
	g.Seed(domain.CollectionWatchlists,
		domain.RawRecord{"id": "w1", "user_id": "u1", "movie_id": "m1"},
		domain.RawRecord{"id": "w2", "user_id": "u1", "tv_show_id": "s2"},
	)
	g.FailCollection(domain.CollectionMovies, errors.New("down"))
	svc := newWatchlist(g)

	resolved, err := svc.Resolve(domain.WithUserID(context.Background(), "u1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"s2"}, itemIDs(resolved.Items))
	assert.Equal(t, 1, resolved.Dangling)
	require.Len(t, resolved.PartialFailures, 1)
	assert.Equal(t, domain.KindMovie, resolved.PartialFailures[0].Kind)
}

func TestWatchlistService_RequiresUser(t *testing.T) {
	svc := newWatchlist(seedCatalog())
	ctx := context.Background()

	_, err := svc.Resolve(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Entries(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Add(ctx, domain.ContentRef{Kind: domain.KindMovie, ContentID: "m1"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestWatchlistService_Add(t *testing.T) {
	g := seedCatalog()
	svc := newWatchlist(g)
	ctx := domain.WithUserID(context.Background(), "u1")
	ref := domain.ContentRef{Kind: domain.KindSeries, ContentID: "s1"}

	entry, err := svc.Add(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, entry.Ref)
	assert.Equal(t, "u1", entry.UserID)
	assert.NotEmpty(t, entry.ID)

	again, err := svc.Add(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, again.ID, "adding twice keeps one entry")
	assert.Equal(t, 1, g.Len(domain.CollectionWatchlists))

	_, err = svc.Add(ctx, domain.ContentRef{Kind: domain.KindMovie, ContentID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrDanglingReference)
	assert.Equal(t, 1, g.Len(domain.CollectionWatchlists), "nothing stored for a missing target")
}

func TestWatchlistService_EntriesReadsOnlyWatchlists(t *testing.T) {
	g := &recordingGateway{Gateway: seedCatalog()}
	g.Seed(domain.CollectionWatchlists,
		domain.RawRecord{"id": "w1", "user_id": "u1", "movie_id": "m1", "created_at": "2024-02-01T00:00:00Z"},
		domain.RawRecord{"id": "w2", "user_id": "u1", "tv_show_id": "s1", "created_at": "2024-01-01T00:00:00Z"},
	)
	svc := NewWatchlistService(g, NewCatalogService(g, CatalogConfig{}, zap.NewNop()), zap.NewNop())

	entries, err := svc.Entries(domain.WithUserID(context.Background(), "u1"))
	require.NoError(t, err)

	assert.Equal(t, []string{domain.CollectionWatchlists}, g.reads)
	require.Len(t, entries, 2)
	assert.Equal(t, "w2", entries[0].ID, "oldest entry first")
	assert.Equal(t, "w1", entries[1].ID)
}
