package service

import (
	"context"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/domain"
)

// UserStats summarizes the current user's activity.
type UserStats struct {
	Uploads        int
	UploadsByKind  map[domain.ContentKind]int
	WatchlistCount int
}

// StatsService builds the per-user dashboard summary.
type StatsService struct {
	catalog   *CatalogService
	watchlist *WatchlistService
	logger    *zap.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(catalog *CatalogService, watchlist *WatchlistService, logger *zap.Logger) *StatsService {
	return &StatsService{
		catalog:   catalog,
		watchlist: watchlist,
		logger:    logger,
	}
}

// Stats counts the current user's uploads and watchlist entries. Both reads
// run concurrently; the watchlist count includes dangling entries.
func (s *StatsService) Stats(ctx context.Context) (*UserStats, error) {
	if _, ok := domain.UserIDFrom(ctx); !ok {
		return nil, domain.ErrUnauthenticated
	}

	var (
		uploads    *domain.AggregationResult
		uploadsErr error
		entries    []domain.WatchlistEntry
		entriesErr error
		wg         conc.WaitGroup
	)
	wg.Go(func() { uploads, uploadsErr = s.catalog.UserUploads(ctx) })
	wg.Go(func() { entries, entriesErr = s.watchlist.Entries(ctx) })
	wg.Wait()

	if uploadsErr != nil {
		return nil, uploadsErr
	}
	if entriesErr != nil {
		return nil, entriesErr
	}

	if uploads.IsPartial() {
		s.logger.Warn("upload count is partial",
			zap.Int("failed_sources", len(uploads.PartialFailures)),
		)
	}

	return &UserStats{
		Uploads:        len(uploads.Items),
		UploadsByKind:  uploads.Counts(),
		WatchlistCount: len(entries),
	}, nil
}
