package postgres

import (
	"time"

	"github.com/lib/pq"
	"github.com/spf13/cast"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/normalize"
)

// row is a GORM model that converts to and from the raw record shape.
type row interface {
	TableName() string
	Record() domain.RawRecord
	Fill(raw domain.RawRecord)
}

// MovieModel is the GORM model for the movies table.
type MovieModel struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title           string         `gorm:"type:text;not null"`
	Description     *string        `gorm:"type:text"`
	Genre           pq.StringArray `gorm:"type:text[]"`
	ReleaseYear     *int
	DurationMinutes *int
	Rating          *float64  `gorm:"type:numeric(3,1)"`
	PosterURL       *string   `gorm:"type:text"`
	VideoURL        *string   `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index:idx_movies_created_at,sort:desc"`
	CreatedBy       *string   `gorm:"type:text;index"`
}

// TableName returns the table name for MovieModel.
func (MovieModel) TableName() string {
	return domain.CollectionMovies
}

// Record converts the row to the raw record shape.
func (m *MovieModel) Record() domain.RawRecord {
	raw := content(m.ID, m.Title, m.Description, m.Genre, m.ReleaseYear, m.Rating, m.PosterURL, m.VideoURL, m.CreatedAt, m.CreatedBy)
	if m.DurationMinutes != nil {
		raw[normalize.FieldDurationMinutes] = *m.DurationMinutes
	}
	return raw
}

// Fill sets the model fields present in raw.
func (m *MovieModel) Fill(raw domain.RawRecord) {
	m.Title = cast.ToString(raw[normalize.FieldTitle])
	m.Description = optString(raw, normalize.FieldDescription)
	m.Genre = genreOf(raw)
	m.ReleaseYear = optInt(raw, normalize.FieldReleaseYear)
	m.DurationMinutes = optInt(raw, normalize.FieldDurationMinutes)
	m.Rating = optFloat(raw, normalize.FieldRating)
	m.PosterURL = optString(raw, normalize.FieldPosterURL)
	m.VideoURL = optString(raw, normalize.FieldVideoURL)
	m.CreatedBy = optString(raw, normalize.FieldCreatedBy)
}

// TVShowModel is the GORM model for the tv_shows table.
type TVShowModel struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string         `gorm:"type:text;not null"`
	Description *string        `gorm:"type:text"`
	Genre       pq.StringArray `gorm:"type:text[]"`
	ReleaseYear *int
	Seasons     *int
	Rating      *float64  `gorm:"type:numeric(3,1)"`
	PosterURL   *string   `gorm:"type:text"`
	VideoURL    *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_tv_shows_created_at,sort:desc"`
	CreatedBy   *string   `gorm:"type:text;index"`
}

// TableName returns the table name for TVShowModel.
func (TVShowModel) TableName() string {
	return domain.CollectionTVShows
}

// Record converts the row to the raw record shape.
func (m *TVShowModel) Record() domain.RawRecord {
	raw := content(m.ID, m.Title, m.Description, m.Genre, m.ReleaseYear, m.Rating, m.PosterURL, m.VideoURL, m.CreatedAt, m.CreatedBy)
	if m.Seasons != nil {
		raw[normalize.FieldSeasons] = *m.Seasons
	}
	return raw
}

// Fill sets the model fields present in raw.
func (m *TVShowModel) Fill(raw domain.RawRecord) {
	m.Title = cast.ToString(raw[normalize.FieldTitle])
	m.Description = optString(raw, normalize.FieldDescription)
	m.Genre = genreOf(raw)
	m.ReleaseYear = optInt(raw, normalize.FieldReleaseYear)
	m.Seasons = optInt(raw, normalize.FieldSeasons)
	m.Rating = optFloat(raw, normalize.FieldRating)
	m.PosterURL = optString(raw, normalize.FieldPosterURL)
	m.VideoURL = optString(raw, normalize.FieldVideoURL)
	m.CreatedBy = optString(raw, normalize.FieldCreatedBy)
}

// WatchlistModel is the GORM model for the watchlists table. Exactly one of
// MovieID and TVShowID is set.
type WatchlistModel struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string    `gorm:"type:text;not null;index"`
	MovieID   *string   `gorm:"type:uuid"`
	TVShowID  *string   `gorm:"column:tv_show_id;type:uuid"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for WatchlistModel.
func (WatchlistModel) TableName() string {
	return domain.CollectionWatchlists
}

// Record converts the row to the raw record shape.
func (m *WatchlistModel) Record() domain.RawRecord {
	raw := domain.RawRecord{
		normalize.FieldID:        m.ID,
		normalize.FieldUserID:    m.UserID,
		normalize.FieldCreatedAt: m.CreatedAt,
	}
	if m.MovieID != nil {
		raw[normalize.FieldMovieID] = *m.MovieID
	}
	if m.TVShowID != nil {
		raw[normalize.FieldTVShowID] = *m.TVShowID
	}
	return raw
}

// Fill sets the model fields present in raw.
func (m *WatchlistModel) Fill(raw domain.RawRecord) {
	m.UserID = cast.ToString(raw[normalize.FieldUserID])
	m.MovieID = optString(raw, normalize.FieldMovieID)
	m.TVShowID = optString(raw, normalize.FieldTVShowID)
}

func content(
	id, title string,
	description *string,
	genre pq.StringArray,
	year *int,
	rating *float64,
	poster, video *string,
	createdAt time.Time,
	createdBy *string,
) domain.RawRecord {
	raw := domain.RawRecord{
		normalize.FieldID:        id,
		normalize.FieldTitle:     title,
		normalize.FieldGenre:     []string(genre),
		normalize.FieldCreatedAt: createdAt,
	}
	setPtr(raw, normalize.FieldDescription, description)
	setPtr(raw, normalize.FieldReleaseYear, year)
	setPtr(raw, normalize.FieldRating, rating)
	setPtr(raw, normalize.FieldPosterURL, poster)
	setPtr(raw, normalize.FieldVideoURL, video)
	setPtr(raw, normalize.FieldCreatedBy, createdBy)
	return raw
}

func setPtr[T any](raw domain.RawRecord, key string, v *T) {
	if v != nil {
		raw[key] = *v
	}
}

func genreOf(raw domain.RawRecord) pq.StringArray {
	tags := cast.ToStringSlice(raw[normalize.FieldGenre])
	if tags == nil {
		return pq.StringArray{}
	}
	return tags
}

func optString(raw domain.RawRecord, key string) *string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	s := cast.ToString(v)
	return &s
}

func optInt(raw domain.RawRecord, key string) *int {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}
	return &i
}

func optFloat(raw domain.RawRecord, key string) *float64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}
