// Package store reads and writes pricing rules and catalog data through the
// named queries in internal/core/db. It implements pricing.Repository.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/solatis/pricingtable/internal/core/db"
	"github.com/solatis/pricingtable/internal/types"
)

// Store is the SQL-backed rule and catalog store.
type Store struct {
	queries *db.Queries
	logger  *slog.Logger
}

// New creates a store over queries. A nil logger discards output.
func New(queries *db.Queries, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{queries: queries, logger: logger}
}

// ProductRuleSets returns the rule sets stored on a product, in stored order.
// A product without rules, or with unreadable rules, has none.
func (s *Store) ProductRuleSets(ctx context.Context, productID types.ID) ([]types.RuleSet, error) {
	var raw string
	err := s.queries.Get(ctx, "get-product-rule-sets", &raw, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err)
	}
	return s.decode(raw, slog.String("meta", types.MetaProductRules), slog.Int64("product_id", int64(productID))), nil
}

// OptionRuleSets returns the rule sets stored under a global option.
func (s *Store) OptionRuleSets(ctx context.Context, option string) ([]types.RuleSet, error) {
	if !types.KnownOption(option) {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownOption, option)
	}

	var raw string
	err := s.queries.Get(ctx, "get-option", &raw, option)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err)
	}
	return s.decode(raw, slog.String("option", option)), nil
}

// decode parses stored rule sets, degrading to none when malformed.
func (s *Store) decode(raw string, attrs ...any) []types.RuleSet {
	sets, err := types.DecodeRuleSets([]byte(raw))
	if err != nil {
		s.logger.Warn("ignoring malformed rule sets", append(attrs, slog.Any("error", err))...)
		return nil
	}
	return sets
}

// PutProductRuleSets replaces a product's rule sets with raw JSON.
// raw must be a JSON object or array.
func (s *Store) PutProductRuleSets(ctx context.Context, productID types.ID, raw []byte) error {
	if _, err := types.DecodeRuleSets(raw); err != nil {
		return err
	}
	if _, err := s.queries.Exec(ctx, "upsert-product-rule-sets", productID, string(raw), time.Now().UTC()); err != nil {
		return dbError(err)
	}
	return nil
}

// PutOptionRuleSets replaces the rule sets stored under a global option.
func (s *Store) PutOptionRuleSets(ctx context.Context, option string, raw []byte) error {
	if !types.KnownOption(option) {
		return fmt.Errorf("%w: %s", types.ErrUnknownOption, option)
	}
	if _, err := types.DecodeRuleSets(raw); err != nil {
		return err
	}
	if _, err := s.queries.Exec(ctx, "upsert-option", option, string(raw), time.Now().UTC()); err != nil {
		return dbError(err)
	}
	return nil
}

// dbError marks err as a storage failure.
func dbError(err error) error {
	return fmt.Errorf("%w: %w", types.ErrStorage, err)
}
