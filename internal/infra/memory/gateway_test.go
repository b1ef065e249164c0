package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinepulse-catalog/internal/domain"
)

func seeded() *Gateway {
	g := NewGateway()
	g.Seed(domain.CollectionMovies,
		domain.RawRecord{"id": "1", "title": "Old", "created_at": "2023-01-01T00:00:00Z", "created_by": "u1"},
		domain.RawRecord{"id": "2", "title": "New", "created_at": "2024-06-01T00:00:00Z"},
		domain.RawRecord{"id": "3", "title": "Mid", "created_at": "2024-01-01T00:00:00Z", "created_by": "u1"},
	)
	g.Seed(domain.CollectionTVShows,
		domain.RawRecord{"id": "10", "title": "Show", "created_at": "2024-02-01T00:00:00Z"},
	)
	return g
}

func ids(rows []domain.RawRecord) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r["id"].(string))
	}
	return out
}

func TestGateway_ReadOrdersAndLimits(t *testing.T) {
	g := seeded()

	rows, err := g.Read(context.Background(), domain.CollectionMovies, domain.RecentFirst(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "1"}, ids(rows))

	rows, err = g.Read(context.Background(), domain.CollectionMovies, domain.RecentFirst(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(rows))
}

func TestGateway_ReadFilter(t *testing.T) {
	g := seeded()

	q := domain.RecentFirst(0)
	q.Filter = domain.Filter{"created_by": "u1"}

	rows, err := g.Read(context.Background(), domain.CollectionMovies, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, ids(rows))
}

func TestGateway_ReadReturnsCopies(t *testing.T) {
	g := seeded()

	rows, err := g.Read(context.Background(), domain.CollectionTVShows, domain.Query{})
	require.NoError(t, err)
	rows[0]["title"] = "changed"

	rows, err = g.Read(context.Background(), domain.CollectionTVShows, domain.Query{})
	require.NoError(t, err)
	assert.Equal(t, "Show", rows[0]["title"])
}

func TestGateway_InsertAssignsStoreFields(t *testing.T) {
	g := NewGateway()
	g.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	row, err := g.Insert(context.Background(), domain.CollectionMovies, domain.RawRecord{"title": "Upload"})
	require.NoError(t, err)

	assert.NotEmpty(t, row["id"])
	assert.Equal(t, "2025-03-01T12:00:00Z", row["created_at"])
	assert.Equal(t, 1, g.Len(domain.CollectionMovies))
}

func TestGateway_ReadWithJoin(t *testing.T) {
	g := seeded()
	g.Seed(domain.CollectionWatchlists,
		domain.RawRecord{"id": "w1", "user_id": "u1", "movie_id": "2"},
		domain.RawRecord{"id": "w2", "user_id": "u1", "tv_show_id": "10"},
		domain.RawRecord{"id": "w3", "user_id": "u1", "movie_id": "404"},
		domain.RawRecord{"id": "w4", "user_id": "u2", "movie_id": "1"},
	)

	rows, err := g.ReadWithJoin(context.Background(),
		domain.CollectionWatchlists,
		domain.Filter{"user_id": "u1"},
		domain.CollectionMovies, domain.CollectionTVShows,
	)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "New", rows[0][domain.CollectionMovies].(domain.RawRecord)["title"])
	assert.Nil(t, rows[0][domain.CollectionTVShows])
	assert.Equal(t, "Show", rows[1][domain.CollectionTVShows].(domain.RawRecord)["title"])
	assert.Nil(t, rows[2][domain.CollectionMovies], "unresolved reference joins to nil")
}

func TestGateway_FailCollection(t *testing.T) {
	g := seeded()
	boom := errors.New("connection refused")
	g.FailCollection(domain.CollectionMovies, boom)

	_, err := g.Read(context.Background(), domain.CollectionMovies, domain.Query{})
	assert.ErrorIs(t, err, boom)

	_, err = g.Read(context.Background(), domain.CollectionTVShows, domain.Query{})
	assert.NoError(t, err)

	g.FailCollection(domain.CollectionMovies, nil)
	_, err = g.Read(context.Background(), domain.CollectionMovies, domain.Query{})
	assert.NoError(t, err)
}

func TestGateway_DelayHonorsDeadline(t *testing.T) {
	g := seeded()
	g.DelayCollection(domain.CollectionMovies, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Read(ctx, domain.CollectionMovies, domain.Query{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
