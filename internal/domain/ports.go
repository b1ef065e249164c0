package domain

import (
	"context"
)

// RawRecord is a record as returned by the remote data service.
type RawRecord map[string]any

// Filter restricts a read to rows whose columns equal the given values.
type Filter map[string]any

// Query describes a collection read.
type Query struct {
	Filter     Filter
	OrderBy    string // column name, empty for store order
	Descending bool
	Limit      int // 0 means no limit
}

// RecentFirst returns a query ordered by created_at descending.
func RecentFirst(limit int) Query {
	return Query{OrderBy: "created_at", Descending: true, Limit: limit}
}

// Gateway is the capability to read and write named collections of the
// remote data service.
// Implementations: internal/infra/postgres, internal/infra/rest, internal/infra/memory
type Gateway interface {
	// Read returns the rows of collection matching q.
	Read(ctx context.Context, collection string, q Query) ([]RawRecord, error)

	// ReadWithJoin returns the rows of collection matching filter. Each row
	// carries the referenced row of every join collection under the join
	// collection's name (nil when the reference does not resolve).
	ReadWithJoin(ctx context.Context, collection string, filter Filter, joins ...string) ([]RawRecord, error)

	// Insert stores record and returns the stored representation, including
	// store-assigned fields such as id and created_at.
	Insert(ctx context.Context, collection string, record RawRecord) (RawRecord, error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error
}
