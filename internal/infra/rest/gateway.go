package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/domain"
)

// BasePath is the path prefix of the collection endpoints.
const BasePath = "/rest/v1"

// StatusError is returned when the data service answers with an error status.
type StatusError struct {
	Collection string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: data service returned status %d", e.Collection, e.StatusCode)
	}
	return fmt.Sprintf("%s: data service returned status %d: %s", e.Collection, e.StatusCode, e.Message)
}

func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError
}

// errorBody is the error payload of the data service.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Gateway implements domain.Gateway over HTTP. Each collection has its own
// circuit breaker, so a failing collection does not block the others.
type Gateway struct {
	client   *resty.Client
	cbConfig CBConfig
	logger   *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]domain.RawRecord]
}

// NewGateway creates a new REST gateway.
func NewGateway(cfg ClientConfig, logger *zap.Logger) *Gateway {
	return &Gateway{
		client:   NewRestyClient(cfg),
		cbConfig: cfg.CB,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]domain.RawRecord]),
	}
}

// breaker returns the circuit breaker of collection, creating it on first use.
func (g *Gateway) breaker(collection string) *gobreaker.CircuitBreaker[[]domain.RawRecord] {
	g.mu.Lock()
	defer g.mu.Unlock()

	cb, ok := g.breakers[collection]
	if !ok {
		cb = NewCircuitBreaker[[]domain.RawRecord]("data_service."+collection, g.cbConfig, g.logger)
		g.breakers[collection] = cb
	}
	return cb
}

// Read implements domain.Gateway.
func (g *Gateway) Read(ctx context.Context, collection string, q domain.Query) ([]domain.RawRecord, error) {
	params := filterParams(q.Filter)
	params.Set("select", "*")
	if q.OrderBy != "" {
		dir := "asc"
		if q.Descending {
			dir = "desc"
		}
		params.Set("order", q.OrderBy+"."+dir)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	return g.get(ctx, collection, params)
}

// ReadWithJoin implements domain.Gateway using resource embedding. An
// unresolved reference embeds as null.
func (g *Gateway) ReadWithJoin(ctx context.Context, collection string, filter domain.Filter, joins ...string) ([]domain.RawRecord, error) {
	sel := make([]string, 0, len(joins)+1)
	sel = append(sel, "*")
	for _, j := range joins {
		sel = append(sel, j+"(*)")
	}

	params := filterParams(filter)
	params.Set("select", strings.Join(sel, ","))
	params.Set("order", "created_at.asc")

	rows, err := g.get(ctx, collection, params)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		for _, j := range joins {
			r[j] = embedded(r[j])
		}
	}

	return rows, nil
}

// Insert implements domain.Gateway.
func (g *Gateway) Insert(ctx context.Context, collection string, record domain.RawRecord) (domain.RawRecord, error) {
	cb := g.breaker(collection)
	rows, err := cb.Execute(func() ([]domain.RawRecord, error) {
		var result []domain.RawRecord
		var failure errorBody
		r, err := g.client.R().
			SetContext(ctx).
			SetHeader("Prefer", "return=representation").
			SetBody(record).
			SetResult(&result).
			SetError(&failure).
			Post(BasePath + "/" + collection)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, &StatusError{Collection: collection, StatusCode: r.StatusCode(), Message: failure.Message}
		}

		return result, nil
	})
	if err != nil {
		g.logger.Warn("data service insert failed",
			zap.String("collection", collection),
			zap.Error(err),
			zap.String("state", cb.State().String()),
		)

		return nil, fmt.Errorf("inserting into %s: %w", collection, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("inserting into %s: empty representation", collection)
	}

	return rows[0], nil
}

// HealthCheck verifies the data service is accessible.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	resp, err := g.client.R().
		SetContext(ctx).
		Get(BasePath + "/")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}

func (g *Gateway) get(ctx context.Context, collection string, params url.Values) ([]domain.RawRecord, error) {
	cb := g.breaker(collection)
	rows, err := cb.Execute(func() ([]domain.RawRecord, error) {
		var result []domain.RawRecord
		var failure errorBody
		r, err := g.client.R().
			SetContext(ctx).
			SetQueryParamsFromValues(params).
			SetResult(&result).
			SetError(&failure).
			Get(BasePath + "/" + collection)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, &StatusError{Collection: collection, StatusCode: r.StatusCode(), Message: failure.Message}
		}

		return result, nil
	})
	if err != nil {
		g.logger.Warn("data service read failed",
			zap.String("collection", collection),
			zap.Error(err),
			zap.String("state", cb.State().String()),
		)

		return nil, fmt.Errorf("reading %s: %w", collection, err)
	}

	if rows == nil {
		rows = []domain.RawRecord{}
	}

	g.logger.Debug("data service read completed",
		zap.String("collection", collection),
		zap.Int("count", len(rows)),
	)

	return rows, nil
}

// embedded converts a decoded embedded resource to a RawRecord, or nil.
func embedded(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return domain.RawRecord(t)
	case domain.RawRecord:
		return t
	default:
		return nil
	}
}

// filterParams renders equality filters as col=eq.value.
func filterParams(filter domain.Filter) url.Values {
	p := url.Values{}
	for col, v := range filter {
		p.Set(col, "eq."+cast.ToString(v))
	}
	return p
}
