package domain

// ContentRef points at a catalog item by kind and id.
type ContentRef struct {
	Kind      ContentKind `json:"kind"`
	ContentID string      `json:"content_id"`
}

// Key returns a stable identifier combining kind and id.
func (r ContentRef) Key() string {
	return string(r.Kind) + ":" + r.ContentID
}

// WatchlistEntry is a user's saved reference to a catalog item.
type WatchlistEntry struct {
	ID     string     `json:"id"`
	UserID string     `json:"user_id"`
	Ref    ContentRef `json:"content_ref"`
}

// ResolveWatchlist looks up every entry in catalog and returns the referenced
// items in entry order. Entries whose target is missing are dropped; their
// number is returned as dangling.
func ResolveWatchlist(entries []WatchlistEntry, catalog *AggregationResult) (items []*ContentItem, dangling int) {
	items = make([]*ContentItem, 0, len(entries))

	index := make(map[string]*ContentItem)
	if catalog != nil {
		for _, item := range catalog.Items {
			index[item.Ref().Key()] = item
		}
	}

	for _, entry := range entries {
		item, ok := index[entry.Ref.Key()]
		if !ok {
			dangling++
			continue
		}
		items = append(items, item)
	}

	return items, dangling
}
