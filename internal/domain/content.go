// Package domain contains the core catalog entities and the pure view logic.
// This package has no external dependencies (only stdlib).
package domain

import (
	"strings"
	"time"
)

// ContentKind discriminates the two record shapes of the catalog.
type ContentKind string

const (
	KindMovie  ContentKind = "movie"
	KindSeries ContentKind = "series"
)

// Collection names used by the remote data service.
const (
	CollectionMovies     = "movies"
	CollectionTVShows    = "tv_shows"
	CollectionWatchlists = "watchlists"
)

// Release year bounds. The upper bound is relative to the current year.
const (
	MinReleaseYear = 1900
	MaxRating      = 10.0
)

// Kinds lists the catalog kinds in merge order: movies first, then series.
func Kinds() []ContentKind {
	return []ContentKind{KindMovie, KindSeries}
}

// Valid reports whether k is a known kind.
func (k ContentKind) Valid() bool {
	return k == KindMovie || k == KindSeries
}

// Collection returns the remote collection that stores items of this kind.
func (k ContentKind) Collection() string {
	if k == KindSeries {
		return CollectionTVShows
	}

	return CollectionMovies
}

// ParseContentKind accepts kind names and their collection aliases.
func ParseContentKind(s string) (ContentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return KindMovie, true
	case "series", "tv", "tv_show", "tv_shows", "show", "shows":
		return KindSeries, true
	default:
		return "", false
	}
}

// ContentItem is the normalized catalog entry for both movies and series.
// Optional fields are nil when the source record did not carry them.
type ContentItem struct {
	ID          string      `json:"id"`
	Kind        ContentKind `json:"kind"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	Genres      []string    `json:"genres"`
	ReleaseYear int         `json:"release_year,omitempty"` // 0 when unknown

	// Kind specific
	DurationMinutes *int `json:"duration_minutes,omitempty"` // movies
	SeasonCount     *int `json:"season_count,omitempty"`     // series

	Rating    *float64 `json:"rating,omitempty"`
	PosterURL *string  `json:"poster_url,omitempty"`
	MediaURL  *string  `json:"media_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	OwnerID   *string   `json:"owner_id,omitempty"` // nil for seed content
}

// IsMovie returns true if the item is a movie.
func (c *ContentItem) IsMovie() bool {
	return c.Kind == KindMovie
}

// IsSeries returns true if the item is a series.
func (c *ContentItem) IsSeries() bool {
	return c.Kind == KindSeries
}

// Ref returns the relational reference that points at this item.
func (c *ContentItem) Ref() ContentRef {
	return ContentRef{Kind: c.Kind, ContentID: c.ID}
}

// Runtime returns the duration in minutes. Series never report a runtime.
func (c *ContentItem) Runtime() (int, bool) {
	if !c.IsMovie() || c.DurationMinutes == nil {
		return 0, false
	}
	return *c.DurationMinutes, true
}

// Seasons returns the season count. Movies never report seasons.
func (c *ContentItem) Seasons() (int, bool) {
	if !c.IsSeries() || c.SeasonCount == nil {
		return 0, false
	}
	return *c.SeasonCount, true
}

// DescriptionText returns the description, or "" when absent.
func (c *ContentItem) DescriptionText() string {
	if c.Description == nil {
		return ""
	}
	return *c.Description
}

// PlausibleReleaseYear reports whether year falls inside 1900..now+1.
func PlausibleReleaseYear(year int, now time.Time) bool {
	return year >= MinReleaseYear && year <= now.Year()+1
}

// PlausibleRating reports whether r is inside [0,10].
func PlausibleRating(r float64) bool {
	return r >= 0 && r <= MaxRating
}
