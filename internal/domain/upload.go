package domain

import (
	"fmt"
	"strings"
	"time"
)

// UploadDraft is the user supplied data for a new catalog item.
// Poster and media URLs are opaque and may be placeholder tokens.
type UploadDraft struct {
	Kind            ContentKind
	Title           string
	Description     string
	Genres          []string
	ReleaseYear     int // 0 defaults to the current year
	DurationMinutes *int
	SeasonCount     *int
	Rating          *float64
	PosterURL       string
	MediaURL        string
}

// Validate checks the draft without any remote call. It trims the title and
// fills the kind and release year defaults.
func (d *UploadDraft) Validate(now time.Time) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}

	if d.Kind == "" {
		d.Kind = KindMovie
	}
	if !d.Kind.Valid() {
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", d.Kind)}
	}

	if d.ReleaseYear == 0 {
		d.ReleaseYear = now.Year()
	}
	if !PlausibleReleaseYear(d.ReleaseYear, now) {
		return &ValidationError{
			Field:   "release_year",
			Message: fmt.Sprintf("release year must be between %d and %d", MinReleaseYear, now.Year()+1),
		}
	}

	if d.DurationMinutes != nil && *d.DurationMinutes <= 0 {
		return &ValidationError{Field: "duration_minutes", Message: "duration must be positive"}
	}
	if d.SeasonCount != nil && *d.SeasonCount <= 0 {
		return &ValidationError{Field: "season_count", Message: "season count must be positive"}
	}
	if d.Rating != nil && !PlausibleRating(*d.Rating) {
		return &ValidationError{Field: "rating", Message: "rating must be between 0 and 10"}
	}

	return nil
}

// ParseGenres splits a comma separated genre list, dropping empty tags.
func ParseGenres(s string) []string {
	genres := make([]string, 0)
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}
