package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/normalize"
)

// ErrUnknownCollection is returned for collections without a table.
var ErrUnknownCollection = errors.New("unknown collection")

// uuidColumns hold uuid values; filters on them with malformed ids match nothing.
var uuidColumns = map[string]bool{
	normalize.FieldID:       true,
	normalize.FieldMovieID:  true,
	normalize.FieldTVShowID: true,
}

// Gateway implements domain.Gateway on the movies, tv_shows and watchlists
// tables.
type Gateway struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGateway creates a new PostgreSQL gateway.
func NewGateway(db *gorm.DB, logger *zap.Logger) *Gateway {
	return &Gateway{db: db, logger: logger}
}

// Read implements domain.Gateway.
func (g *Gateway) Read(ctx context.Context, collection string, q domain.Query) ([]domain.RawRecord, error) {
	if !validFilter(q.Filter) {
		return []domain.RawRecord{}, nil
	}

	return g.find(ctx, collection, func(tx *gorm.DB) *gorm.DB {
		if len(q.Filter) > 0 {
			tx = tx.Where(map[string]any(q.Filter))
		}
		if q.OrderBy != "" {
			tx = tx.Order(clause.OrderByColumn{
				Column: clause.Column{Name: q.OrderBy},
				Desc:   q.Descending,
			})
		}
		if q.Limit > 0 {
			tx = tx.Limit(q.Limit)
		}
		return tx
	})
}

// ReadWithJoin implements domain.Gateway. Rows come back in insertion order.
// Every join collection is fetched with one IN query over the referenced ids.
func (g *Gateway) ReadWithJoin(ctx context.Context, collection string, filter domain.Filter, joins ...string) ([]domain.RawRecord, error) {
	rows, err := g.Read(ctx, collection, domain.Query{Filter: filter, OrderBy: normalize.FieldCreatedAt})
	if err != nil {
		return nil, err
	}

	for _, join := range joins {
		fk := normalize.ForeignKey(join)

		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			r[join] = nil
			if id, ok := r[fk].(string); ok && id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}

		targets, err := g.find(ctx, join, func(tx *gorm.DB) *gorm.DB {
			return tx.Where("id IN ?", ids)
		})
		if err != nil {
			return nil, fmt.Errorf("joining %s: %w", join, err)
		}

		byID := make(map[string]domain.RawRecord, len(targets))
		for _, t := range targets {
			byID[t[normalize.FieldID].(string)] = t
		}
		for _, r := range rows {
			if id, ok := r[fk].(string); ok {
				if t, found := byID[id]; found {
					r[join] = t
				}
			}
		}
	}

	return rows, nil
}

// Insert implements domain.Gateway.
func (g *Gateway) Insert(ctx context.Context, collection string, record domain.RawRecord) (domain.RawRecord, error) {
	m, err := newRow(collection)
	if err != nil {
		return nil, err
	}
	m.Fill(record)

	if err := g.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", collection, err)
	}

	return m.Record(), nil
}

// HealthCheck implements domain.Gateway.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (g *Gateway) find(ctx context.Context, collection string, scope func(*gorm.DB) *gorm.DB) ([]domain.RawRecord, error) {
	tx := g.db.WithContext(ctx).Scopes(scope)

	var (
		rows []domain.RawRecord
		err  error
	)
	switch collection {
	case domain.CollectionMovies:
		rows, err = findAll[MovieModel](tx)
	case domain.CollectionTVShows:
		rows, err = findAll[TVShowModel](tx)
	case domain.CollectionWatchlists:
		rows, err = findAll[WatchlistModel](tx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if err != nil {
		g.logger.Debug("query failed", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("reading %s: %w", collection, err)
	}

	return rows, nil
}

func findAll[M any, P interface {
	*M
	row
}](tx *gorm.DB) ([]domain.RawRecord, error) {
	var models []M
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]domain.RawRecord, 0, len(models))
	for i := range models {
		out = append(out, P(&models[i]).Record())
	}

	return out, nil
}

func newRow(collection string) (row, error) {
	switch collection {
	case domain.CollectionMovies:
		return &MovieModel{}, nil
	case domain.CollectionTVShows:
		return &TVShowModel{}, nil
	case domain.CollectionWatchlists:
		return &WatchlistModel{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
}

func validFilter(filter domain.Filter) bool {
	for col, v := range filter {
		if !uuidColumns[col] {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, err := uuid.Parse(s); err != nil {
			return false
		}
	}
	return true
}
