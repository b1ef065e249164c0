package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/infra/postgres/migrations"
	"cinepulse-catalog/internal/normalize"
)

// setupTestDB starts a PostgreSQL container and applies the migrations.
// Docker must be running; skip with go test -short.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := postgresContainer.Run(ctx,
		"postgres:16-alpine",
		postgresContainer.WithDatabase("testdb"),
		postgresContainer.WithUsername("testuser"),
		postgresContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start PostgreSQL container (is Docker running? use -short to skip): %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := NewConnection(ctx, Config{DSN: dsn, MaxOpenConns: 5, MaxIdleConns: 2, MaxLifetime: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, migrations.Run(db))

	return db
}

func insert(t *testing.T, g *Gateway, collection string, raw domain.RawRecord) domain.RawRecord {
	t.Helper()

	row, err := g.Insert(context.Background(), collection, raw)
	require.NoError(t, err)

	return row
}

func TestGateway_InsertAndRead(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	g := NewGateway(setupTestDB(t), zap.NewNop())
	ctx := context.Background()

	rating := 7.5
	created := insert(t, g, domain.CollectionMovies, normalize.DraftRecord(domain.UploadDraft{
		Kind:        domain.KindMovie,
		Title:       "Arrival",
		Description: "Heptapods",
		Genres:      []string{"Drama", "Sci-Fi"},
		ReleaseYear: 2016,
		Rating:      &rating,
		PosterURL:   "placeholder-poster-url-1",
	}, "u1"))

	assert.NotEmpty(t, created[normalize.FieldID])
	assert.NotZero(t, created[normalize.FieldCreatedAt])

	item, err := normalize.Content(created, domain.KindMovie)
	require.NoError(t, err)
	assert.Equal(t, "Arrival", item.Title)
	assert.Equal(t, []string{"Drama", "Sci-Fi"}, item.Genres)
	assert.Equal(t, 2016, item.ReleaseYear)
	assert.InDelta(t, 7.5, *item.Rating, 0.001)
	require.NotNil(t, item.OwnerID)
	assert.Equal(t, "u1", *item.OwnerID)
	assert.Nil(t, item.MediaURL)

	rows, err := g.Read(ctx, domain.CollectionMovies, domain.Query{
		Filter: domain.Filter{normalize.FieldID: item.ID},
		Limit:  1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Heptapods", rows[0][normalize.FieldDescription])
}

func TestGateway_RecentFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	g := NewGateway(setupTestDB(t), zap.NewNop())

	for _, title := range []string{"First", "Second", "Third"} {
		insert(t, g, domain.CollectionTVShows, domain.RawRecord{normalize.FieldTitle: title, normalize.FieldSeasons: 1})
		time.Sleep(5 * time.Millisecond)
	}

	rows, err := g.Read(context.Background(), domain.CollectionTVShows, domain.RecentFirst(2))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Third", rows[0][normalize.FieldTitle])
	assert.Equal(t, "Second", rows[1][normalize.FieldTitle])
	assert.Equal(t, 1, rows[0][normalize.FieldSeasons])
}

func TestGateway_MalformedIDMatchesNothing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	g := NewGateway(setupTestDB(t), zap.NewNop())

	rows, err := g.Read(context.Background(), domain.CollectionMovies, domain.Query{
		Filter: domain.Filter{normalize.FieldID: "not-a-uuid"},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGateway_ReadWithJoin(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	g := NewGateway(db, zap.NewNop())
	ctx := context.Background()

	movie := insert(t, g, domain.CollectionMovies, domain.RawRecord{normalize.FieldTitle: "Heat"})
	show := insert(t, g, domain.CollectionTVShows, domain.RawRecord{normalize.FieldTitle: "Dark"})
	movieRef := domain.ContentRef{Kind: domain.KindMovie, ContentID: movie[normalize.FieldID].(string)}
	showRef := domain.ContentRef{Kind: domain.KindSeries, ContentID: show[normalize.FieldID].(string)}

	insert(t, g, domain.CollectionWatchlists, normalize.WatchlistRecord("u1", showRef))
	insert(t, g, domain.CollectionWatchlists, normalize.WatchlistRecord("u1", movieRef))
	insert(t, g, domain.CollectionWatchlists, normalize.WatchlistRecord("u2", movieRef))

	require.NoError(t, db.Exec("DELETE FROM tv_shows").Error)

	rows, err := g.ReadWithJoin(ctx, domain.CollectionWatchlists,
		domain.Filter{normalize.FieldUserID: "u1"},
		domain.CollectionMovies, domain.CollectionTVShows,
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Nil(t, rows[0][domain.CollectionTVShows], "deleted show no longer joins")
	joined, ok := rows[1][domain.CollectionMovies].(domain.RawRecord)
	require.True(t, ok)
	assert.Equal(t, "Heat", joined[normalize.FieldTitle])

	entry, err := normalize.WatchlistEntry(rows[0])
	require.NoError(t, err)
	assert.Equal(t, showRef, entry.Ref)
}

func TestGateway_DuplicateWatchlistRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	g := NewGateway(setupTestDB(t), zap.NewNop())
	movie := insert(t, g, domain.CollectionMovies, domain.RawRecord{normalize.FieldTitle: "Heat"})
	ref := domain.ContentRef{Kind: domain.KindMovie, ContentID: movie[normalize.FieldID].(string)}

	insert(t, g, domain.CollectionWatchlists, normalize.WatchlistRecord("u1", ref))
	_, err := g.Insert(context.Background(), domain.CollectionWatchlists, normalize.WatchlistRecord("u1", ref))
	assert.Error(t, err)
}

func TestGateway_UnknownCollection(t *testing.T) {
	g := NewGateway(nil, zap.NewNop())

	_, err := g.Insert(context.Background(), "podcasts", domain.RawRecord{})
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestModels_RecordOmitsUnknownFields(t *testing.T) {
	seasons := 2
	m := &TVShowModel{ID: "s1", Title: "Dark", Seasons: &seasons, CreatedAt: time.Unix(0, 0).UTC()}

	raw := m.Record()
	assert.Equal(t, 2, raw[normalize.FieldSeasons])
	assert.NotContains(t, raw, normalize.FieldRating)
	assert.NotContains(t, raw, normalize.FieldDescription)

	var back TVShowModel
	back.Fill(raw)
	assert.Equal(t, "Dark", back.Title)
	assert.Equal(t, &seasons, back.Seasons)
	assert.NotNil(t, back.Genre)
	assert.Nil(t, back.Rating)
}
