package domain

import (
	"testing"
	"time"
)

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestContentKind_Collection(t *testing.T) {
	if got := KindMovie.Collection(); got != CollectionMovies {
		t.Errorf("movie collection = %q, want %q", got, CollectionMovies)
	}
	if got := KindSeries.Collection(); got != CollectionTVShows {
		t.Errorf("series collection = %q, want %q", got, CollectionTVShows)
	}
}

func TestParseContentKind(t *testing.T) {
	tests := []struct {
		in   string
		want ContentKind
		ok   bool
	}{
		{"movie", KindMovie, true},
		{" Movies ", KindMovie, true},
		{"series", KindSeries, true},
		{"tv_shows", KindSeries, true},
		{"TV", KindSeries, true},
		{"podcast", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseContentKind(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseContentKind(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestContentItem_KindSpecificFields(t *testing.T) {
	movie := &ContentItem{Kind: KindMovie, DurationMinutes: intPtr(120), SeasonCount: intPtr(2)}
	series := &ContentItem{Kind: KindSeries, DurationMinutes: intPtr(45), SeasonCount: intPtr(4)}

	if d, ok := movie.Runtime(); !ok || d != 120 {
		t.Errorf("movie Runtime() = %d, %v; want 120, true", d, ok)
	}
	if _, ok := movie.Seasons(); ok {
		t.Error("expected movie to report no seasons")
	}
	if s, ok := series.Seasons(); !ok || s != 4 {
		t.Errorf("series Seasons() = %d, %v; want 4, true", s, ok)
	}
	if _, ok := series.Runtime(); ok {
		t.Error("expected series to report no runtime")
	}
	if _, ok := (&ContentItem{Kind: KindMovie}).Runtime(); ok {
		t.Error("expected unknown runtime when duration is absent")
	}
}

func TestPlausibleReleaseYear(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		year int
		want bool
	}{
		{1899, false},
		{1900, true},
		{2026, true},
		{2027, true},
		{2028, false},
	}
	for _, tt := range tests {
		if got := PlausibleReleaseYear(tt.year, now); got != tt.want {
			t.Errorf("PlausibleReleaseYear(%d) = %v, want %v", tt.year, got, tt.want)
		}
	}
}
