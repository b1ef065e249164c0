package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/normalize"
)

// WatchlistService resolves and edits the current user's watchlist.
type WatchlistService struct {
	gateway domain.Gateway
	catalog *CatalogService
	logger  *zap.Logger
}

// NewWatchlistService creates a new WatchlistService.
func NewWatchlistService(gateway domain.Gateway, catalog *CatalogService, logger *zap.Logger) *WatchlistService {
	return &WatchlistService{
		gateway: gateway,
		catalog: catalog,
		logger:  logger,
	}
}

// ResolvedWatchlist is the navigable form of a watchlist.
type ResolvedWatchlist struct {
	Items           []*domain.ContentItem
	Dangling        int
	PartialFailures []domain.SourceFailure
}

// Entries returns the current user's watchlist entries in store order.
// Rows without a content reference are skipped.
func (s *WatchlistService) Entries(ctx context.Context) ([]domain.WatchlistEntry, error) {
	userID, ok := domain.UserIDFrom(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	// Targets are resolved against the aggregated catalog, not embedded.
	rows, err := s.gateway.Read(ctx, domain.CollectionWatchlists, domain.Query{
		Filter:  domain.Filter{normalize.FieldUserID: userID},
		OrderBy: normalize.FieldCreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("reading watchlist: %w", err)
	}

	entries := make([]domain.WatchlistEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := normalize.WatchlistEntry(row)
		if err != nil {
			s.logger.Debug("watchlist row dropped", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Resolve reads the watchlist and the catalog concurrently and joins them.
// Entries whose target is missing are dropped and counted as dangling.
func (s *WatchlistService) Resolve(ctx context.Context) (*ResolvedWatchlist, error) {
	if _, ok := domain.UserIDFrom(ctx); !ok {
		return nil, domain.ErrUnauthenticated
	}

	var (
		entries    []domain.WatchlistEntry
		entriesErr error
		catalog    *domain.AggregationResult
		catalogErr error
		wg         conc.WaitGroup
	)
	wg.Go(func() { entries, entriesErr = s.Entries(ctx) })
	wg.Go(func() { catalog, catalogErr = s.catalog.FetchCatalog(ctx) })
	wg.Wait()

	if entriesErr != nil {
		return nil, entriesErr
	}
	if catalogErr != nil {
		return nil, catalogErr
	}

	items, dangling := domain.ResolveWatchlist(entries, catalog)
	if dangling > 0 {
		s.logger.Debug("dangling watchlist entries dropped", zap.Int("count", dangling))
	}

	return &ResolvedWatchlist{
		Items:           items,
		Dangling:        dangling,
		PartialFailures: catalog.PartialFailures,
	}, nil
}

// Add saves ref to the current user's watchlist. Adding an item that is
// already saved returns the existing entry. A missing target is rejected with
// an error matching both domain.ErrNotFound and domain.ErrDanglingReference.
func (s *WatchlistService) Add(ctx context.Context, ref domain.ContentRef) (domain.WatchlistEntry, error) {
	userID, ok := domain.UserIDFrom(ctx)
	if !ok {
		return domain.WatchlistEntry{}, domain.ErrUnauthenticated
	}

	if _, err := s.catalog.GetContent(ctx, ref); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.WatchlistEntry{}, fmt.Errorf("%w: %w", err, domain.ErrDanglingReference)
		}
		return domain.WatchlistEntry{}, err
	}

	existing, err := s.Entries(ctx)
	if err != nil {
		return domain.WatchlistEntry{}, err
	}
	for _, e := range existing {
		if e.Ref == ref {
			return e, nil
		}
	}

	row, err := s.gateway.Insert(ctx, domain.CollectionWatchlists, normalize.WatchlistRecord(userID, ref))
	if err != nil {
		return domain.WatchlistEntry{}, fmt.Errorf("inserting watchlist entry: %w", err)
	}

	entry, err := normalize.WatchlistEntry(row)
	if err != nil {
		return domain.WatchlistEntry{}, fmt.Errorf("normalizing watchlist entry: %w", err)
	}

	s.logger.Info("watchlist entry added",
		zap.String("user_id", userID),
		zap.String("ref", ref.Key()),
	)

	return entry, nil
}

// IsUnavailable reports whether err means no catalog data could be read.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrCatalogUnavailable)
}
