// Package memory provides an in-process domain.Gateway. It backs the memory
// driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/normalize"
)

// Gateway stores collections as ordered lists of raw records.
type Gateway struct {
	mu          sync.RWMutex
	collections map[string][]domain.RawRecord
	failures    map[string]error
	delays      map[string]time.Duration
	now         func() time.Time
}

// NewGateway creates an empty Gateway.
func NewGateway() *Gateway {
	return &Gateway{
		collections: make(map[string][]domain.RawRecord),
		failures:    make(map[string]error),
		delays:      make(map[string]time.Duration),
		now:         time.Now,
	}
}

// Seed appends records to collection as given, without assigning ids.
func (g *Gateway) Seed(collection string, records ...domain.RawRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, r := range records {
		g.collections[collection] = append(g.collections[collection], clone(r))
	}
}

// FailCollection makes every access to collection return err. A nil err
// clears the failure.
func (g *Gateway) FailCollection(collection string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err == nil {
		delete(g.failures, collection)
		return
	}
	g.failures[collection] = err
}

// DelayCollection makes reads of collection wait d or until the context ends.
func (g *Gateway) DelayCollection(collection string, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.delays[collection] = d
}

// Read implements domain.Gateway.
func (g *Gateway) Read(ctx context.Context, collection string, q domain.Query) ([]domain.RawRecord, error) {
	if err := g.enter(ctx, collection); err != nil {
		return nil, err
	}

	g.mu.RLock()
	rows := g.match(collection, q.Filter)
	g.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			c := compare(rows[i][q.OrderBy], rows[j][q.OrderBy])
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	return rows, nil
}

// ReadWithJoin implements domain.Gateway. The foreign key of a join
// collection is normalize.ForeignKey(join).
func (g *Gateway) ReadWithJoin(ctx context.Context, collection string, filter domain.Filter, joins ...string) ([]domain.RawRecord, error) {
	if err := g.enter(ctx, collection); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	rows := g.match(collection, filter)
	for _, row := range rows {
		for _, join := range joins {
			row[join] = nil
			fk, ok := row[normalize.ForeignKey(join)]
			if !ok || fk == nil {
				continue
			}
			if target := g.find(join, fk); target != nil {
				row[join] = target
			}
		}
	}

	return rows, nil
}

// Insert implements domain.Gateway. Missing id and created_at are assigned.
func (g *Gateway) Insert(ctx context.Context, collection string, record domain.RawRecord) (domain.RawRecord, error) {
	if err := g.enter(ctx, collection); err != nil {
		return nil, err
	}

	row := clone(record)
	if v, ok := row["id"]; !ok || v == nil || v == "" {
		row["id"] = uuid.NewString()
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = g.now().UTC().Format(time.RFC3339Nano)
	}

	g.mu.Lock()
	g.collections[collection] = append(g.collections[collection], row)
	g.mu.Unlock()

	return clone(row), nil
}

// HealthCheck implements domain.Gateway.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of records stored in collection.
func (g *Gateway) Len(collection string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.collections[collection])
}

func (g *Gateway) enter(ctx context.Context, collection string) error {
	g.mu.RLock()
	failure := g.failures[collection]
	delay := g.delays[collection]
	g.mu.RUnlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failure != nil {
		return fmt.Errorf("%s: %w", collection, failure)
	}
	return nil
}

// match returns copies of the rows of collection matching filter, in
// insertion order. Callers hold at least a read lock.
func (g *Gateway) match(collection string, filter domain.Filter) []domain.RawRecord {
	rows := make([]domain.RawRecord, 0)
	for _, r := range g.collections[collection] {
		if matches(r, filter) {
			rows = append(rows, clone(r))
		}
	}
	return rows
}

func (g *Gateway) find(collection string, id any) domain.RawRecord {
	want := cast.ToString(id)
	for _, r := range g.collections[collection] {
		if cast.ToString(r["id"]) == want {
			return clone(r)
		}
	}
	return nil
}

func matches(r domain.RawRecord, filter domain.Filter) bool {
	for col, want := range filter {
		got, ok := r[col]
		if !ok || got == nil {
			return false
		}
		if cast.ToString(got) != cast.ToString(want) {
			return false
		}
	}
	return true
}

// compare orders values as times, then numbers, then text. Missing values
// sort first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if ta, err := cast.ToTimeE(a); err == nil {
		if tb, err := cast.ToTimeE(b); err == nil {
			return ta.Compare(tb)
		}
	}
	if fa, err := cast.ToFloat64E(a); err == nil {
		if fb, err := cast.ToFloat64E(b); err == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	sa, sb := cast.ToString(a), cast.ToString(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

func clone(r domain.RawRecord) domain.RawRecord {
	out := make(domain.RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
