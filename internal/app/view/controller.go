// Package view owns the transient browse state of one consumer and keeps the
// derived view in step with it.
package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"cinepulse-catalog/internal/domain"
)

var (
	// ErrStale is returned when a fetch settled after a newer one started or
	// after the controller was closed. Its result was discarded.
	ErrStale = errors.New("fetch result superseded")

	// ErrClosed is returned by fetches started on a closed controller.
	ErrClosed = errors.New("view controller closed")
)

// Fetcher produces a fresh aggregation result.
type Fetcher interface {
	FetchCatalog(ctx context.Context) (*domain.AggregationResult, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (*domain.AggregationResult, error)

// FetchCatalog implements Fetcher.
func (f FetcherFunc) FetchCatalog(ctx context.Context) (*domain.AggregationResult, error) {
	return f(ctx)
}

// Ticket identifies one started fetch.
type Ticket struct {
	generation uint64
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	State           domain.ViewState
	Items           []*domain.ContentItem
	Loading         bool
	Err             error
	PartialFailures []domain.SourceFailure
	Dropped         int
	Counts          map[domain.ContentKind]int
	FetchedAt       time.Time
	Generation      uint64

	// ActiveKindFailed is set when the source of the active tab failed, so
	// an empty view is not mistaken for an empty catalog.
	ActiveKindFailed bool
}

// Controller holds a ViewState, the most recent aggregation result and the
// view derived from both. Every mutator recomputes the view synchronously.
// A Controller is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	state  domain.ViewState
	result *domain.AggregationResult
	items  []*domain.ContentItem
	err    error

	generation uint64
	loading    bool
	cancel     context.CancelFunc
	closed     bool

	logger *zap.Logger
}

// NewController creates a Controller in the default state with no data.
func NewController(logger *zap.Logger) *Controller {
	return NewControllerWithState(domain.DefaultViewState(), logger)
}

// NewControllerWithState creates a Controller starting from state.
func NewControllerWithState(state domain.ViewState, logger *zap.Logger) *Controller {
	state.Normalize()

	return &Controller{
		state:  state,
		items:  make([]*domain.ContentItem, 0),
		logger: logger,
	}
}

// SetActiveKind switches the kind tab. Unknown kinds leave the state unchanged.
func (c *Controller) SetActiveKind(kind domain.ContentKind) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if kind.Valid() {
		c.state.ActiveKind = kind
	}
	c.recompute()

	return c.snapshot()
}

// SetSearchTerm replaces the search term.
func (c *Controller) SetSearchTerm(term string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.SearchTerm = term
	c.recompute()

	return c.snapshot()
}

// SetLayout switches between grid and list. Unknown layouts leave the state
// unchanged.
func (c *Controller) SetLayout(layout domain.Layout) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if layout.Valid() {
		c.state.Layout = layout
	}
	c.recompute()

	return c.snapshot()
}

// Apply replaces the whole state at once.
func (c *Controller) Apply(state domain.ViewState) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	state.Normalize()
	c.state = state
	c.recompute()

	return c.snapshot()
}

// BeginFetch marks a new fetch as the active one. Results of any earlier
// ticket will be discarded by Commit.
func (c *Controller) BeginFetch() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.begin(nil)
}

// Commit applies the outcome of the fetch identified by t if it is still the
// active one. It reports whether the outcome was applied.
func (c *Controller) Commit(t Ticket, result *domain.AggregationResult, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || t.generation != c.generation {
		c.logger.Debug("stale fetch discarded",
			zap.Uint64("generation", t.generation),
			zap.Uint64("current", c.generation),
		)
		return false
	}

	c.loading = false
	c.cancel = nil
	if err != nil {
		c.result = nil
		c.err = err
	} else {
		c.result = result
		c.err = nil
	}
	c.recompute()

	return true
}

// Refresh fetches with f and commits the outcome. A newer Refresh or Close
// cancels the context handed to f; its outcome is then discarded and ErrStale
// is returned.
func (c *Controller) Refresh(ctx context.Context, f Fetcher) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	t := c.begin(cancel)
	c.mu.Unlock()
	defer cancel()

	result, err := f.FetchCatalog(fetchCtx)
	if !c.Commit(t, result, err) {
		return Snapshot{}, ErrStale
	}

	return c.Snapshot(), err
}

// Close discards any outstanding fetch. Later commits are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Closed reports whether Close was called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// State returns the current view state.
func (c *Controller) State() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Snapshot returns a consistent copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// begin supersedes the active fetch. Callers hold c.mu.
func (c *Controller) begin(cancel context.CancelFunc) Ticket {
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	c.loading = true
	c.cancel = cancel

	return Ticket{generation: c.generation}
}

func (c *Controller) recompute() {
	c.items = domain.DeriveView(c.result, c.state)
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		State:      c.state,
		Items:      append([]*domain.ContentItem(nil), c.items...),
		Loading:    c.loading,
		Err:        c.err,
		Counts:     c.result.Counts(),
		Generation: c.generation,
	}
	if s.Items == nil {
		s.Items = make([]*domain.ContentItem, 0)
	}
	if c.result != nil {
		s.PartialFailures = append([]domain.SourceFailure(nil), c.result.PartialFailures...)
		s.Dropped = c.result.Dropped
		s.FetchedAt = c.result.FetchedAt
		s.ActiveKindFailed = c.result.FailedKind(c.state.ActiveKind)
	}

	return s
}
