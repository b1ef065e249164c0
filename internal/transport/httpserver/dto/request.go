// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"cinepulse-catalog/internal/app/session"
	"cinepulse-catalog/internal/domain"
)

// ViewRequest represents the query parameters of a one-shot catalog view.
type ViewRequest struct {
	Kind   string `query:"kind" json:"kind" validate:"omitempty,content_kind"`
	Query  string `query:"q" json:"q" validate:"max=200"`
	Layout string `query:"layout" json:"layout" validate:"omitempty,layout"`
}

// ToViewState converts ViewRequest to a domain.ViewState, filling defaults.
func (r *ViewRequest) ToViewState() domain.ViewState {
	state := domain.DefaultViewState()
	if r.Kind != "" {
		state.ActiveKind = domain.ContentKind(r.Kind)
	}
	if r.Layout != "" {
		state.Layout = domain.Layout(r.Layout)
	}
	state.SearchTerm = r.Query

	return state
}

// UploadRequest represents the body of POST /contents. The title is checked
// by the upload use case so that blank titles fail with the domain error.
type UploadRequest struct {
	Kind            string   `json:"kind" validate:"omitempty,content_kind"`
	Title           string   `json:"title" validate:"max=300"`
	Description     string   `json:"description" validate:"max=5000"`
	Genres          []string `json:"genres" validate:"omitempty,max=20,dive,max=50"`
	GenreList       string   `json:"genre_list" validate:"max=1000"` // comma separated, used when genres is empty
	ReleaseYear     int      `json:"release_year" validate:"omitempty,min=1900"`
	DurationMinutes *int     `json:"duration_minutes" validate:"omitempty,min=1"`
	SeasonCount     *int     `json:"season_count" validate:"omitempty,min=1"`
	Rating          *float64 `json:"rating" validate:"omitempty,min=0,max=10"`
	PosterURL       string   `json:"poster_url" validate:"max=2048"`
	MediaURL        string   `json:"media_url" validate:"max=2048"`
}

// ToDraft converts UploadRequest to a domain.UploadDraft.
func (r *UploadRequest) ToDraft() domain.UploadDraft {
	genres := r.Genres
	if len(genres) == 0 && r.GenreList != "" {
		genres = domain.ParseGenres(r.GenreList)
	}

	return domain.UploadDraft{
		Kind:            domain.ContentKind(r.Kind),
		Title:           r.Title,
		Description:     r.Description,
		Genres:          genres,
		ReleaseYear:     r.ReleaseYear,
		DurationMinutes: r.DurationMinutes,
		SeasonCount:     r.SeasonCount,
		Rating:          r.Rating,
		PosterURL:       r.PosterURL,
		MediaURL:        r.MediaURL,
	}
}

// WatchlistRequest represents the body of POST /me/watchlist.
type WatchlistRequest struct {
	Kind      string `json:"kind" validate:"required,content_kind"`
	ContentID string `json:"content_id" validate:"required,max=64"`
}

// ToRef converts WatchlistRequest to a domain.ContentRef.
func (r *WatchlistRequest) ToRef() domain.ContentRef {
	return domain.ContentRef{Kind: domain.ContentKind(r.Kind), ContentID: r.ContentID}
}

// SessionPatchRequest represents the body of PATCH /sessions/:id. Absent
// fields are left unchanged.
type SessionPatchRequest struct {
	Kind       *string `json:"kind" validate:"omitempty,content_kind"`
	SearchTerm *string `json:"search_term" validate:"omitempty,max=200"`
	Layout     *string `json:"layout" validate:"omitempty,layout"`
}

// ToPatch converts SessionPatchRequest to a session.Patch.
func (r *SessionPatchRequest) ToPatch() session.Patch {
	var p session.Patch
	if r.Kind != nil {
		kind := domain.ContentKind(*r.Kind)
		p.ActiveKind = &kind
	}
	if r.SearchTerm != nil {
		term := *r.SearchTerm
		p.SearchTerm = &term
	}
	if r.Layout != nil {
		layout := domain.Layout(*r.Layout)
		p.Layout = &layout
	}

	return p
}
