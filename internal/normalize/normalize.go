// Package normalize maps raw records of the remote data service onto the
// domain types and back.
package normalize

import (
	"strings"
	"time"

	"github.com/jinzhu/inflection"
	"github.com/spf13/cast"

	"cinepulse-catalog/internal/domain"
)

// Raw record column names.
const (
	FieldID              = "id"
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldGenre           = "genre"
	FieldGenres          = "genres"
	FieldReleaseYear     = "release_year"
	FieldDurationMinutes = "duration_minutes"
	FieldSeasons         = "seasons"
	FieldRating          = "rating"
	FieldPosterURL       = "poster_url"
	FieldVideoURL        = "video_url"
	FieldCreatedAt       = "created_at"
	FieldCreatedBy       = "created_by"

	FieldUserID   = "user_id"
	FieldMovieID  = "movie_id"
	FieldTVShowID = "tv_show_id"
)

// Content converts one raw record of the given kind. Missing optional fields
// become their unknown value; a missing id or title is a
// *domain.MalformedRecordError.
func Content(raw domain.RawRecord, kind domain.ContentKind) (*domain.ContentItem, error) {
	id := text(raw, FieldID)
	if id == "" {
		return nil, &domain.MalformedRecordError{Kind: kind, Field: FieldID}
	}

	title := text(raw, FieldTitle)
	if strings.TrimSpace(title) == "" {
		return nil, &domain.MalformedRecordError{Kind: kind, Field: FieldTitle, RecordID: id}
	}

	item := &domain.ContentItem{
		ID:          id,
		Kind:        kind,
		Title:       title,
		Description: optText(raw, FieldDescription),
		Genres:      genres(raw),
		PosterURL:   optText(raw, FieldPosterURL),
		MediaURL:    optText(raw, FieldVideoURL),
		OwnerID:     optText(raw, FieldCreatedBy),
	}

	if year, ok := integer(raw, FieldReleaseYear); ok && year > 0 {
		item.ReleaseYear = year
	}
	if d, ok := integer(raw, FieldDurationMinutes); ok && d > 0 {
		item.DurationMinutes = &d
	}
	if s, ok := integer(raw, FieldSeasons); ok && s > 0 {
		item.SeasonCount = &s
	}
	if r, ok := number(raw, FieldRating); ok && domain.PlausibleRating(r) {
		item.Rating = &r
	}
	if v, ok := raw[FieldCreatedAt]; ok && v != nil {
		if t, err := cast.ToTimeE(v); err == nil {
			item.CreatedAt = t.UTC()
		}
	}

	return item, nil
}

// Batch converts every record of a collection, excluding malformed ones.
// The returned errors describe the excluded records in input order.
func Batch(records []domain.RawRecord, kind domain.ContentKind) ([]*domain.ContentItem, []error) {
	items := make([]*domain.ContentItem, 0, len(records))
	var malformed []error

	for _, raw := range records {
		item, err := Content(raw, kind)
		if err != nil {
			malformed = append(malformed, err)
			continue
		}
		items = append(items, item)
	}

	return items, malformed
}

// Record re-serializes an item to the raw shape. Only fields that are known
// are written, so Content(Record(item)) reproduces item.
func Record(item *domain.ContentItem) domain.RawRecord {
	raw := domain.RawRecord{
		FieldID:    item.ID,
		FieldTitle: item.Title,
		FieldGenre: append([]string{}, item.Genres...),
	}

	if item.Description != nil {
		raw[FieldDescription] = *item.Description
	}
	if item.ReleaseYear > 0 {
		raw[FieldReleaseYear] = item.ReleaseYear
	}
	if item.DurationMinutes != nil {
		raw[FieldDurationMinutes] = *item.DurationMinutes
	}
	if item.SeasonCount != nil {
		raw[FieldSeasons] = *item.SeasonCount
	}
	if item.Rating != nil {
		raw[FieldRating] = *item.Rating
	}
	if item.PosterURL != nil {
		raw[FieldPosterURL] = *item.PosterURL
	}
	if item.MediaURL != nil {
		raw[FieldVideoURL] = *item.MediaURL
	}
	if !item.CreatedAt.IsZero() {
		raw[FieldCreatedAt] = item.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if item.OwnerID != nil {
		raw[FieldCreatedBy] = *item.OwnerID
	}

	return raw
}

// DraftRecord builds the insert payload for a validated draft. Store assigned
// fields (id, created_at) are left out. ownerID may be empty.
func DraftRecord(d domain.UploadDraft, ownerID string) domain.RawRecord {
	tags := d.Genres
	if tags == nil {
		tags = []string{}
	}

	raw := domain.RawRecord{
		FieldTitle:       d.Title,
		FieldDescription: d.Description,
		FieldGenre:       tags,
		FieldReleaseYear: d.ReleaseYear,
	}

	if d.Rating != nil {
		raw[FieldRating] = *d.Rating
	}
	if d.Kind == domain.KindSeries && d.SeasonCount != nil {
		raw[FieldSeasons] = *d.SeasonCount
	}
	if d.Kind != domain.KindSeries && d.DurationMinutes != nil {
		raw[FieldDurationMinutes] = *d.DurationMinutes
	}
	setText(raw, FieldPosterURL, d.PosterURL)
	setText(raw, FieldVideoURL, d.MediaURL)
	setText(raw, FieldCreatedBy, ownerID)

	return raw
}

// WatchlistEntry converts a watchlist row. A row referencing neither a movie
// nor a tv show is malformed.
func WatchlistEntry(raw domain.RawRecord) (domain.WatchlistEntry, error) {
	entry := domain.WatchlistEntry{
		ID:     text(raw, FieldID),
		UserID: text(raw, FieldUserID),
	}

	switch {
	case text(raw, FieldMovieID) != "":
		entry.Ref = domain.ContentRef{Kind: domain.KindMovie, ContentID: text(raw, FieldMovieID)}
	case text(raw, FieldTVShowID) != "":
		entry.Ref = domain.ContentRef{Kind: domain.KindSeries, ContentID: text(raw, FieldTVShowID)}
	default:
		return entry, &domain.MalformedRecordError{Field: "content reference", RecordID: entry.ID}
	}

	return entry, nil
}

// WatchlistRecord builds the insert payload for a watchlist entry.
func WatchlistRecord(userID string, ref domain.ContentRef) domain.RawRecord {
	raw := domain.RawRecord{FieldUserID: userID}
	if ref.Kind == domain.KindSeries {
		raw[FieldTVShowID] = ref.ContentID
	} else {
		raw[FieldMovieID] = ref.ContentID
	}
	return raw
}

// ForeignKey returns the column referencing collection, e.g. tv_shows -> tv_show_id.
func ForeignKey(collection string) string {
	return inflection.Singular(collection) + "_id"
}

func text(raw domain.RawRecord, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

func optText(raw domain.RawRecord, key string) *string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil
	}
	return &s
}

func integer(raw domain.RawRecord, key string) (int, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func number(raw domain.RawRecord, key string) (float64, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// genres reads the genre column (or its "genres" alias). Text values are
// treated as a comma separated list.
func genres(raw domain.RawRecord) []string {
	v, ok := raw[FieldGenre]
	if !ok || v == nil {
		v = raw[FieldGenres]
	}

	switch g := v.(type) {
	case nil:
		return []string{}
	case string:
		return domain.ParseGenres(g)
	case []string:
		return append([]string{}, g...)
	default:
		tags, err := cast.ToStringSliceE(g)
		if err != nil {
			return []string{}
		}
		return tags
	}
}

func setText(raw domain.RawRecord, key, value string) {
	if strings.TrimSpace(value) != "" {
		raw[key] = value
	}
}
