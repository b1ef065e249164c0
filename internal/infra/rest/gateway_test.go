package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/normalize"
)

const (
	testBaseURL   = "https://data.example.com"
	moviesURL     = testBaseURL + BasePath + "/movies"
	tvShowsURL    = testBaseURL + BasePath + "/tv_shows"
	watchlistsURL = testBaseURL + BasePath + "/watchlists"
)

func newTestGateway() *Gateway {
	cfg := ClientConfig{
		BaseURL: testBaseURL,
		APIKey:  "anon-key",
		Timeout: 5 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 2,
			WaitTime:    10 * time.Millisecond,
			MaxWaitTime: 50 * time.Millisecond,
		},
		CB: CBConfig{
			MaxRequests:  1,
			Interval:     60 * time.Second,
			Timeout:      15 * time.Second,
			FailureRatio: 0.6,
		},
	}
	g := NewGateway(cfg, zap.NewNop())

	httpmock.ActivateNonDefault(g.client.GetClient())

	return g
}

// capture responds with body and records the last request.
func capture(status int, body any, last **http.Request) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		*last = req
		return httpmock.NewJsonResponse(status, body)
	}
}

func TestGateway_Read(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	var req *http.Request
	httpmock.RegisterResponder("GET", moviesURL, capture(200, []map[string]any{
		{"id": "m2", "title": "Newer", "genre": []string{"Drama"}, "rating": 8.1, "created_at": "2024-06-01T00:00:00Z"},
		{"id": "m1", "title": "Older", "genre": []string{}, "created_at": "2024-01-01T00:00:00Z"},
	}, &req))

	q := domain.RecentFirst(10)
	q.Filter = domain.Filter{"created_by": "u1"}
	rows, err := g.Read(context.Background(), domain.CollectionMovies, q)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	params := req.URL.Query()
	assert.Equal(t, "*", params.Get("select"))
	assert.Equal(t, "created_at.desc", params.Get("order"))
	assert.Equal(t, "10", params.Get("limit"))
	assert.Equal(t, "eq.u1", params.Get("created_by"))
	assert.Equal(t, "anon-key", req.Header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", req.Header.Get("Authorization"))

	item, err := normalize.Content(rows[0], domain.KindMovie)
	require.NoError(t, err)
	assert.Equal(t, "Newer", item.Title)
	assert.InDelta(t, 8.1, *item.Rating, 0.001)
	assert.Equal(t, 2024, item.CreatedAt.Year())
}

func TestGateway_ReadEmpty(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	httpmock.RegisterResponder("GET", moviesURL, httpmock.NewStringResponder(200, "[]"))

	rows, err := g.Read(context.Background(), domain.CollectionMovies, domain.Query{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestGateway_ReadWithJoin(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	var req *http.Request
	httpmock.RegisterResponder("GET", watchlistsURL, capture(200, []map[string]any{
		{"id": "w1", "user_id": "u1", "movie_id": "m1", "tv_show_id": nil,
			"movies": map[string]any{"id": "m1", "title": "Heat"}, "tv_shows": nil},
		{"id": "w2", "user_id": "u1", "movie_id": "gone", "tv_show_id": nil,
			"movies": nil, "tv_shows": nil},
	}, &req))

	rows, err := g.ReadWithJoin(context.Background(),
		domain.CollectionWatchlists,
		domain.Filter{"user_id": "u1"},
		domain.CollectionMovies, domain.CollectionTVShows,
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "*,movies(*),tv_shows(*)", req.URL.Query().Get("select"))
	assert.Equal(t, "eq.u1", req.URL.Query().Get("user_id"))

	movie, ok := rows[0][domain.CollectionMovies].(domain.RawRecord)
	require.True(t, ok)
	assert.Equal(t, "Heat", movie["title"])
	assert.Nil(t, rows[0][domain.CollectionTVShows])
	assert.Nil(t, rows[1][domain.CollectionMovies])
}

func TestGateway_Insert(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	var sent domain.RawRecord
	httpmock.RegisterResponder("POST", moviesURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "return=representation", req.Header.Get("Prefer"))
		if err := json.NewDecoder(req.Body).Decode(&sent); err != nil {
			return httpmock.NewStringResponse(400, ""), nil
		}
		stored := domain.RawRecord{"id": "new-id", "created_at": "2025-03-01T12:00:00Z"}
		for k, v := range sent {
			stored[k] = v
		}
		return httpmock.NewJsonResponse(201, []domain.RawRecord{stored})
	})

	row, err := g.Insert(context.Background(), domain.CollectionMovies, domain.RawRecord{"title": "Upload", "genre": []string{}})
	require.NoError(t, err)

	assert.Equal(t, "Upload", sent["title"])
	assert.Equal(t, "new-id", row["id"])
	assert.Equal(t, "2025-03-01T12:00:00Z", row["created_at"])
}

func TestGateway_InsertEmptyRepresentation(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	httpmock.RegisterResponder("POST", moviesURL, httpmock.NewStringResponder(201, "[]"))

	_, err := g.Insert(context.Background(), domain.CollectionMovies, domain.RawRecord{"title": "x"})
	assert.Error(t, err)
}

func TestGateway_ClientErrorIsNotRetried(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	httpmock.RegisterResponder("GET", moviesURL,
		httpmock.NewJsonResponderOrPanic(400, map[string]string{"code": "PGRST100", "message": "bad filter"}))

	_, err := g.Read(context.Background(), domain.CollectionMovies, domain.Query{})
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.StatusCode)
	assert.Equal(t, "bad filter", se.Message)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Equal(t, gobreaker.StateClosed, g.breaker(domain.CollectionMovies).State())
}

func TestGateway_ServerErrorIsRetried(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	httpmock.RegisterResponder("GET", moviesURL, httpmock.NewStringResponder(503, ""))

	_, err := g.Read(context.Background(), domain.CollectionMovies, domain.Query{})
	require.Error(t, err)
	assert.Equal(t, 3, httpmock.GetTotalCallCount(), "first attempt plus two retries")
}

func TestGateway_CircuitBreakerOpens(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	httpmock.RegisterResponder("GET", moviesURL, httpmock.NewErrorResponder(&url.Error{Op: "Get", URL: moviesURL, Err: context.DeadlineExceeded}))

	for i := 0; i < 3; i++ {
		_, _ = g.Read(context.Background(), domain.CollectionMovies, domain.Query{})
	}
	assert.Equal(t, gobreaker.StateOpen, g.breaker(domain.CollectionMovies).State())

	calls := httpmock.GetTotalCallCount()
	_, err := g.Read(context.Background(), domain.CollectionMovies, domain.Query{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, calls, httpmock.GetTotalCallCount(), "open breaker makes no request")
}

func TestGateway_BreakerIsPerCollection(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	httpmock.RegisterResponder("GET", moviesURL, httpmock.NewStringResponder(500, ""))
	httpmock.RegisterResponder("GET", tvShowsURL, httpmock.NewJsonResponderOrPanic(200, []map[string]any{
		{"id": "s1", "title": "Show", "seasons": 2},
	}))

	for i := 0; i < 3; i++ {
		_, _ = g.Read(context.Background(), domain.CollectionMovies, domain.Query{})
		_, err := g.Read(context.Background(), domain.CollectionTVShows, domain.Query{})
		require.NoError(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, g.breaker(domain.CollectionMovies).State())

	rows, err := g.Read(context.Background(), domain.CollectionTVShows, domain.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, gobreaker.StateClosed, g.breaker(domain.CollectionTVShows).State())

	_, err = g.Read(context.Background(), domain.CollectionMovies, domain.Query{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestGateway_HealthCheck(t *testing.T) {
	defer httpmock.DeactivateAndReset()
	g := newTestGateway()

	httpmock.RegisterResponder("GET", testBaseURL+BasePath+"/", httpmock.NewStringResponder(200, "{}"))
	assert.NoError(t, g.HealthCheck(context.Background()))

	httpmock.RegisterResponder("GET", testBaseURL+BasePath+"/", httpmock.NewStringResponder(401, ""))
	assert.Error(t, g.HealthCheck(context.Background()))
}
