package domain

import "strings"

// Layout is the presentation mode of a view. It never affects the items.
type Layout string

const (
	LayoutGrid Layout = "grid"
	LayoutList Layout = "list"
)

// Valid reports whether l is a known layout.
func (l Layout) Valid() bool {
	return l == LayoutGrid || l == LayoutList
}

// ViewState holds the transient query state of a browse view.
type ViewState struct {
	ActiveKind ContentKind `json:"active_kind"`
	SearchTerm string      `json:"search_term"`
	Layout     Layout      `json:"layout"`
}

// DefaultViewState returns the state of a freshly opened browse view.
func DefaultViewState() ViewState {
	return ViewState{
		ActiveKind: KindMovie,
		SearchTerm: "",
		Layout:     LayoutGrid,
	}
}

// Normalize replaces unknown kind or layout values with the defaults.
func (s *ViewState) Normalize() {
	if !s.ActiveKind.Valid() {
		s.ActiveKind = KindMovie
	}
	if !s.Layout.Valid() {
		s.Layout = LayoutGrid
	}
}

// DeriveView selects the items of the active kind whose title or description
// contains the search term, case-insensitively. The order established by the
// aggregation is kept. An empty term matches everything; no match yields an
// empty, non-nil slice.
func DeriveView(result *AggregationResult, state ViewState) []*ContentItem {
	view := make([]*ContentItem, 0)
	if result == nil {
		return view
	}

	term := strings.ToLower(state.SearchTerm)
	for _, item := range result.Items {
		if item.Kind != state.ActiveKind {
			continue
		}
		if term == "" || matches(item, term) {
			view = append(view, item)
		}
	}

	return view
}

// matches expects a lowercased term.
func matches(item *ContentItem, term string) bool {
	if strings.Contains(strings.ToLower(item.Title), term) {
		return true
	}
	return strings.Contains(strings.ToLower(item.DescriptionText()), term)
}
