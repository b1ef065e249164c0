// Package service provides application use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/normalize"
)

// Source is one catalog collection read during aggregation.
type Source struct {
	Collection string
	Kind       domain.ContentKind
}

// DefaultSources returns the catalog sources in merge order.
func DefaultSources() []Source {
	sources := make([]Source, 0, 2)
	for _, k := range domain.Kinds() {
		sources = append(sources, Source{Collection: k.Collection(), Kind: k})
	}
	return sources
}

// CatalogConfig holds aggregation settings.
type CatalogConfig struct {
	SourceTimeout time.Duration // per source read, 0 disables
	FeaturedLimit int
}

// CatalogService aggregates the movie and series collections.
type CatalogService struct {
	gateway domain.Gateway
	sources []Source
	cfg     CatalogConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewCatalogService creates a new CatalogService over the default sources.
func NewCatalogService(gateway domain.Gateway, cfg CatalogConfig, logger *zap.Logger) *CatalogService {
	if cfg.FeaturedLimit <= 0 {
		cfg.FeaturedLimit = 6
	}

	return &CatalogService{
		gateway: gateway,
		sources: DefaultSources(),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// sourceOutcome is the settled result of one source read.
type sourceOutcome struct {
	source  Source
	items   []*domain.ContentItem
	dropped int
	err     error
}

// FetchCatalog reads every source concurrently and merges the results.
// One failed source yields a partial result; all sources failing yields a
// *domain.CatalogUnavailableError and no result.
func (s *CatalogService) FetchCatalog(ctx context.Context) (*domain.AggregationResult, error) {
	return s.aggregate(ctx, domain.RecentFirst(0))
}

// UserUploads aggregates the movies and series created by the current user.
func (s *CatalogService) UserUploads(ctx context.Context) (*domain.AggregationResult, error) {
	userID, ok := domain.UserIDFrom(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	q := domain.RecentFirst(0)
	q.Filter = domain.Filter{normalize.FieldCreatedBy: userID}

	return s.aggregate(ctx, q)
}

// aggregate fans q out to every source. Reads are all in flight before any
// is awaited, and the merge only starts once every read settled.
func (s *CatalogService) aggregate(ctx context.Context, q domain.Query) (*domain.AggregationResult, error) {
	start := s.now()
	outcomes := make([]sourceOutcome, len(s.sources))

	var wg conc.WaitGroup
	for i, src := range s.sources {
		i, src := i, src
		wg.Go(func() {
			outcomes[i] = s.fetchSource(ctx, src, q)
		})
	}
	wg.Wait()

	result := &domain.AggregationResult{
		Items:     make([]*domain.ContentItem, 0),
		FetchedAt: s.now().UTC(),
	}
	for _, o := range outcomes {
		if o.err != nil {
			result.PartialFailures = append(result.PartialFailures, domain.SourceFailure{
				Source: o.source.Collection,
				Kind:   o.source.Kind,
				Err:    o.err,
			})
			continue
		}
		result.Items = append(result.Items, o.items...)
		result.Dropped += o.dropped
	}

	if len(s.sources) > 0 && len(result.PartialFailures) == len(s.sources) {
		s.logger.Error("catalog unavailable, every source failed",
			zap.Int("sources", len(s.sources)),
		)
		return nil, &domain.CatalogUnavailableError{Failures: result.PartialFailures}
	}

	s.logger.Debug("catalog aggregated",
		zap.Int("items", len(result.Items)),
		zap.Int("failed_sources", len(result.PartialFailures)),
		zap.Int("dropped", result.Dropped),
		zap.Duration("duration", s.now().Sub(start)),
	)

	return result, nil
}

// fetchSource reads and normalizes a single collection under its own deadline.
func (s *CatalogService) fetchSource(ctx context.Context, src Source, q domain.Query) sourceOutcome {
	out := sourceOutcome{source: src}

	readCtx := ctx
	if s.cfg.SourceTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, s.cfg.SourceTimeout)
		defer cancel()
	}

	records, err := s.gateway.Read(readCtx, src.Collection, q)
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) ||
			(readCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil)
		out.err = &domain.SourceFetchError{
			Source:  src.Collection,
			Kind:    src.Kind,
			Timeout: timeout,
			Err:     err,
		}
		s.logger.Warn("source fetch failed",
			zap.String("source", src.Collection),
			zap.Bool("timeout", timeout),
			zap.Error(err),
		)
		return out
	}

	items, malformed := normalize.Batch(records, src.Kind)
	for _, m := range malformed {
		s.logger.Debug("record dropped",
			zap.String("source", src.Collection),
			zap.Error(m),
		)
	}

	out.items = items
	out.dropped = len(malformed)

	return out
}

// Featured returns the most recent movies, as shown on the landing page.
func (s *CatalogService) Featured(ctx context.Context) ([]*domain.ContentItem, error) {
	src := Source{Collection: domain.CollectionMovies, Kind: domain.KindMovie}

	o := s.fetchSource(ctx, src, domain.RecentFirst(s.cfg.FeaturedLimit))
	if o.err != nil {
		return nil, o.err
	}

	return o.items, nil
}

// GetContent retrieves a single item by reference.
func (s *CatalogService) GetContent(ctx context.Context, ref domain.ContentRef) (*domain.ContentItem, error) {
	if !ref.Kind.Valid() || ref.ContentID == "" {
		return nil, domain.ErrNotFound
	}

	records, err := s.gateway.Read(ctx, ref.Kind.Collection(), domain.Query{
		Filter: domain.Filter{normalize.FieldID: ref.ContentID},
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("getting content %s: %w", ref.Key(), err)
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}

	item, err := normalize.Content(records[0], ref.Kind)
	if err != nil {
		s.logger.Warn("stored content is malformed",
			zap.String("ref", ref.Key()),
			zap.Error(err),
		)
		return nil, domain.ErrNotFound
	}

	return item, nil
}
