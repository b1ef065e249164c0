// Package session keeps the live browse views of connected consumers.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/view"
	"cinepulse-catalog/internal/domain"
)

// ErrNotFound is returned for unknown, expired or foreign session ids.
var ErrNotFound = errors.New("session not found")

// StateStore persists view state so a session survives eviction or restart.
// Implementations: internal/infra/redis
type StateStore interface {
	Save(ctx context.Context, id string, rec Record) error
	Load(ctx context.Context, id string) (Record, bool, error)
	Delete(ctx context.Context, id string) error
}

// Record is the persisted form of a session.
type Record struct {
	UserID string           `json:"user_id,omitempty"`
	State  domain.ViewState `json:"state"`
}

// Session is one live browse view.
type Session struct {
	ID         string
	UserID     string
	CreatedAt  time.Time
	Controller *view.Controller
}

// Config holds registry settings.
type Config struct {
	MaxActive int
	TTL       time.Duration
}

// Patch is a partial view state update. Nil fields are left unchanged.
// Fields are applied in the order kind, search term, layout.
type Patch struct {
	ActiveKind *domain.ContentKind
	SearchTerm *string
	Layout     *domain.Layout
}

// Registry owns the live sessions. Least recently used and idle sessions are
// evicted and their outstanding fetches discarded.
type Registry struct {
	sessions *expirable.LRU[string, *Session]
	fetcher  view.Fetcher
	store    StateStore // optional
	logger   *zap.Logger
}

// NewRegistry creates a Registry. store may be nil.
func NewRegistry(cfg Config, fetcher view.Fetcher, store StateStore, logger *zap.Logger) *Registry {
	r := &Registry{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
	r.sessions = expirable.NewLRU[string, *Session](cfg.MaxActive, r.evicted, cfg.TTL)

	return r
}

// Open starts a session for the current user of ctx and loads the catalog
// into it. A failed load still yields a session; its snapshot carries the
// error.
func (r *Registry) Open(ctx context.Context, state domain.ViewState) (*Session, view.Snapshot) {
	userID, _ := domain.UserIDFrom(ctx)

	s := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
		Controller: view.NewControllerWithState(state, r.logger),
	}
	r.sessions.Add(s.ID, s)
	r.persist(ctx, s)

	r.logger.Debug("session opened",
		zap.String("session_id", s.ID),
		zap.Int("active", r.sessions.Len()),
	)

	if _, err := s.Controller.Refresh(ctx, r.fetcher); err != nil {
		r.logger.Debug("initial load failed", zap.String("session_id", s.ID), zap.Error(err))
	}

	return s, s.Controller.Snapshot()
}

// Get returns the session id if it belongs to the current user of ctx.
// Sessions evicted from memory are restored from the store and reloaded.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	userID, _ := domain.UserIDFrom(ctx)

	if s, ok := r.sessions.Get(id); ok {
		if s.UserID != userID {
			return nil, ErrNotFound
		}
		return s, nil
	}

	if r.store == nil {
		return nil, ErrNotFound
	}

	rec, ok, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	if !ok || rec.UserID != userID {
		return nil, ErrNotFound
	}

	s := &Session{
		ID:         id,
		UserID:     rec.UserID,
		CreatedAt:  time.Now().UTC(),
		Controller: view.NewControllerWithState(rec.State, r.logger),
	}
	r.sessions.Add(id, s)
	_, _ = s.Controller.Refresh(ctx, r.fetcher)

	r.logger.Debug("session restored", zap.String("session_id", id))

	return s, nil
}

// Update applies p to the session and returns the recomputed view.
func (r *Registry) Update(ctx context.Context, id string, p Patch) (view.Snapshot, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return view.Snapshot{}, err
	}

	snap := s.Controller.Snapshot()
	if p.ActiveKind != nil {
		snap = s.Controller.SetActiveKind(*p.ActiveKind)
	}
	if p.SearchTerm != nil {
		snap = s.Controller.SetSearchTerm(*p.SearchTerm)
	}
	if p.Layout != nil {
		snap = s.Controller.SetLayout(*p.Layout)
	}
	r.persist(ctx, s)

	return snap, nil
}

// Refresh reloads the catalog into the session.
func (r *Registry) Refresh(ctx context.Context, id string) (view.Snapshot, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return view.Snapshot{}, err
	}

	snap, err := s.Controller.Refresh(ctx, r.fetcher)
	if errors.Is(err, view.ErrStale) {
		return s.Controller.Snapshot(), nil
	}

	return snap, err
}

// Close ends the session and discards its outstanding fetch.
func (r *Registry) Close(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	r.sessions.Remove(s.ID)
	if r.store != nil {
		if err := r.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting session %s: %w", id, err)
		}
	}

	return nil
}

// RefreshAll fetches the catalog once and commits it to every live session.
// It returns the number of sessions that received the result.
func (r *Registry) RefreshAll(ctx context.Context) (int, error) {
	live := r.sessions.Values()
	if len(live) == 0 {
		return 0, nil
	}

	tickets := make([]view.Ticket, len(live))
	for i, s := range live {
		tickets[i] = s.Controller.BeginFetch()
	}

	result, err := r.fetcher.FetchCatalog(ctx)

	applied := 0
	for i, s := range live {
		if s.Controller.Commit(tickets[i], result, err) {
			applied++
		}
	}

	return applied, err
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

func (r *Registry) persist(ctx context.Context, s *Session) {
	if r.store == nil {
		return
	}

	rec := Record{UserID: s.UserID, State: s.Controller.State()}
	if err := r.store.Save(ctx, s.ID, rec); err != nil {
		r.logger.Warn("failed to persist session state",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
	}
}

func (r *Registry) evicted(id string, s *Session) {
	s.Controller.Close()
	r.logger.Debug("session evicted", zap.String("session_id", id))
}
