// Package api provides the gRPC pricing table service for storefronts.
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/solatis/pricingtable/internal/display"
	"github.com/solatis/pricingtable/internal/pricing"
	"github.com/solatis/pricingtable/internal/types"
)

// Catalog resolves the products, categories and viewers a request names.
// Implemented by *store.Store.
type Catalog interface {
	Product(ctx context.Context, id types.ID) (types.Product, error)
	Category(ctx context.Context, id types.ID) (*types.Category, error)
	User(ctx context.Context, id types.ID) (*types.User, error)
}

// PricingService answers pricing table and notice requests.
// Thin orchestration layer delegating to pricing, display and the catalog.
type PricingService struct {
	engine    *pricing.Engine
	catalog   Catalog
	formatter *display.Formatter
	logger    *slog.Logger
	now       func() time.Time
}

// ServiceOption configures a PricingService.
type ServiceOption func(*PricingService)

// WithClock overrides the time source used for date windows.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *PricingService) { s.now = now }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *PricingService) { s.logger = logger }
}

// NewPricingService creates a service instance with its dependencies.
func NewPricingService(engine *pricing.Engine, catalog Catalog, formatter *display.Formatter, opts ...ServiceOption) (*PricingService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if formatter == nil {
		return nil, fmt.Errorf("formatter cannot be nil")
	}

	s := &PricingService{
		engine:    engine,
		catalog:   catalog,
		formatter: formatter,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// viewer loads the user for id, or nil for anonymous requests.
func (s *PricingService) viewer(ctx context.Context, id types.ID) (*types.User, error) {
	if id == 0 {
		return nil, nil
	}
	return s.catalog.User(ctx, id)
}
