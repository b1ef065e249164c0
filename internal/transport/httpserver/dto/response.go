package dto

import (
	"errors"
	"time"

	"cinepulse-catalog/internal/app/service"
	"cinepulse-catalog/internal/app/session"
	"cinepulse-catalog/internal/app/view"
	"cinepulse-catalog/internal/domain"
)

// ContentResponse represents a single catalog item in the response.
type ContentResponse struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres"`
	ReleaseYear int      `json:"release_year,omitempty"`

	DurationMinutes *int `json:"duration_minutes,omitempty"`
	SeasonCount     *int `json:"season_count,omitempty"`

	Rating    *float64 `json:"rating,omitempty"`
	PosterURL *string  `json:"poster_url,omitempty"`
	MediaURL  *string  `json:"media_url,omitempty"`

	OwnerID   *string `json:"owner_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// FromContentItem converts domain.ContentItem to ContentResponse.
func FromContentItem(c *domain.ContentItem) ContentResponse {
	genres := c.Genres
	if genres == nil {
		genres = []string{}
	}

	resp := ContentResponse{
		ID:          c.ID,
		Kind:        string(c.Kind),
		Title:       c.Title,
		Description: c.DescriptionText(),
		Genres:      genres,
		ReleaseYear: c.ReleaseYear,
		Rating:      c.Rating,
		PosterURL:   c.PosterURL,
		MediaURL:    c.MediaURL,
		OwnerID:     c.OwnerID,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
	if d, ok := c.Runtime(); ok {
		resp.DurationMinutes = &d
	}
	if s, ok := c.Seasons(); ok {
		resp.SeasonCount = &s
	}

	return resp
}

// FromContentItems converts a list of items, never returning nil.
func FromContentItems(items []*domain.ContentItem) []ContentResponse {
	out := make([]ContentResponse, len(items))
	for i, c := range items {
		out[i] = FromContentItem(c)
	}
	return out
}

// SourceFailureResponse describes one failed catalog source.
type SourceFailureResponse struct {
	Source  string `json:"source"`
	Kind    string `json:"kind"`
	Timeout bool   `json:"timeout,omitempty"`
	Error   string `json:"error"`
}

// FromSourceFailures converts domain.SourceFailure values.
func FromSourceFailures(failures []domain.SourceFailure) []SourceFailureResponse {
	if len(failures) == 0 {
		return nil
	}

	out := make([]SourceFailureResponse, len(failures))
	for i, f := range failures {
		out[i] = SourceFailureResponse{
			Source:  f.Source,
			Kind:    string(f.Kind),
			Timeout: isTimeout(f.Err),
			Error:   errorText(f.Err),
		}
	}
	return out
}

// CatalogResponse represents an aggregated catalog.
type CatalogResponse struct {
	Contents        []ContentResponse       `json:"contents"`
	Counts          map[string]int          `json:"counts"`
	Partial         bool                    `json:"partial"`
	PartialFailures []SourceFailureResponse `json:"partial_failures,omitempty"`
	Dropped         int                     `json:"dropped"`
	FetchedAt       string                  `json:"fetched_at"`
}

// FromAggregationResult converts domain.AggregationResult to CatalogResponse.
func FromAggregationResult(r *domain.AggregationResult) CatalogResponse {
	return CatalogResponse{
		Contents:        FromContentItems(r.Items),
		Counts:          countsOf(r.Counts()),
		Partial:         r.IsPartial(),
		PartialFailures: FromSourceFailures(r.PartialFailures),
		Dropped:         r.Dropped,
		FetchedAt:       r.FetchedAt.Format(time.RFC3339),
	}
}

// ViewStateResponse represents a view state.
type ViewStateResponse struct {
	Kind       string `json:"kind"`
	SearchTerm string `json:"search_term"`
	Layout     string `json:"layout"`
}

// FromViewState converts domain.ViewState to ViewStateResponse.
func FromViewState(s domain.ViewState) ViewStateResponse {
	return ViewStateResponse{
		Kind:       string(s.ActiveKind),
		SearchTerm: s.SearchTerm,
		Layout:     string(s.Layout),
	}
}

// ViewResponse represents a derived browse view.
type ViewResponse struct {
	State            ViewStateResponse       `json:"state"`
	Contents         []ContentResponse       `json:"contents"`
	Counts           map[string]int          `json:"counts"`
	Loading          bool                    `json:"loading"`
	Error            string                  `json:"error,omitempty"`
	PartialFailures  []SourceFailureResponse `json:"partial_failures,omitempty"`
	ActiveKindFailed bool                    `json:"active_kind_failed"`
	Dropped          int                     `json:"dropped"`
	FetchedAt        string                  `json:"fetched_at,omitempty"`
}

// FromSnapshot converts view.Snapshot to ViewResponse.
func FromSnapshot(s view.Snapshot) ViewResponse {
	resp := ViewResponse{
		State:            FromViewState(s.State),
		Contents:         FromContentItems(s.Items),
		Counts:           countsOf(s.Counts),
		Loading:          s.Loading,
		PartialFailures:  FromSourceFailures(s.PartialFailures),
		ActiveKindFailed: s.ActiveKindFailed,
		Dropped:          s.Dropped,
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	if !s.FetchedAt.IsZero() {
		resp.FetchedAt = s.FetchedAt.Format(time.RFC3339)
	}

	return resp
}

// SessionResponse represents a browse session and its current view.
type SessionResponse struct {
	ID        string       `json:"id"`
	CreatedAt string       `json:"created_at"`
	View      ViewResponse `json:"view"`
}

// FromSession converts a session and its snapshot to SessionResponse.
func FromSession(s *session.Session, snap view.Snapshot) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		View:      FromSnapshot(snap),
	}
}

// WatchlistResponse represents the resolved watchlist.
type WatchlistResponse struct {
	Contents        []ContentResponse       `json:"contents"`
	Dangling        int                     `json:"dangling"`
	PartialFailures []SourceFailureResponse `json:"partial_failures,omitempty"`
}

// FromResolvedWatchlist converts service.ResolvedWatchlist to WatchlistResponse.
func FromResolvedWatchlist(w *service.ResolvedWatchlist) WatchlistResponse {
	return WatchlistResponse{
		Contents:        FromContentItems(w.Items),
		Dangling:        w.Dangling,
		PartialFailures: FromSourceFailures(w.PartialFailures),
	}
}

// WatchlistEntryResponse represents a saved watchlist entry.
type WatchlistEntryResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	ContentID string `json:"content_id"`
}

// FromWatchlistEntry converts domain.WatchlistEntry to WatchlistEntryResponse.
func FromWatchlistEntry(e domain.WatchlistEntry) WatchlistEntryResponse {
	return WatchlistEntryResponse{
		ID:        e.ID,
		Kind:      string(e.Ref.Kind),
		ContentID: e.Ref.ContentID,
	}
}

// StatsResponse represents the user dashboard stats.
type StatsResponse struct {
	Uploads        int            `json:"uploads"`
	UploadsByKind  map[string]int `json:"uploads_by_kind"`
	WatchlistCount int            `json:"watchlist_count"`
}

// FromUserStats converts service.UserStats to StatsResponse.
func FromUserStats(s *service.UserStats) StatsResponse {
	return StatsResponse{
		Uploads:        s.Uploads,
		UploadsByKind:  countsOf(s.UploadsByKind),
		WatchlistCount: s.WatchlistCount,
	}
}

// RefreshResponse represents the outcome of a refresh of every session.
type RefreshResponse struct {
	Sessions int    `json:"sessions"`
	Error    string `json:"error,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func countsOf(counts map[domain.ContentKind]int) map[string]int {
	out := make(map[string]int, len(domain.Kinds()))
	for _, k := range domain.Kinds() {
		out[string(k)] = counts[k]
	}
	return out
}

func isTimeout(err error) bool {
	var sfe *domain.SourceFetchError
	if errors.As(err, &sfe) {
		return sfe.Timeout
	}
	return errors.Is(err, domain.ErrTimeout)
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
