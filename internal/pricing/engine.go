// Package pricing selects and evaluates host discount rule sets.
//
// Engine is constructed once per process and shared by request handlers.
// It holds no per-request state: every operation takes an
// EvaluationContext snapshot and the rule sets it reads are never mutated.
// Host extension hooks are modelled as strategy values passed at
// construction (see Option).
package pricing

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/solatis/pricingtable/internal/types"
)

// Repository fetches stored rule sets. Implementations return an empty
// slice when nothing is configured.
type Repository interface {
	// ProductRuleSets returns the rule sets attached to a product.
	ProductRuleSets(ctx context.Context, productID types.ID) ([]types.RuleSet, error)
	// OptionRuleSets returns a global rule set option such as types.OptionCategoryRules.
	OptionRuleSets(ctx context.Context, option string) ([]types.RuleSet, error)
}

// RuleSetFilter may replace the filtered rule set list before it is rendered.
type RuleSetFilter func(ectx *types.EvaluationContext, sets []types.RuleSet) []types.RuleSet

// Engine provides rule set resolution, condition filtering and price calculation.
type Engine struct {
	repo       Repository
	evaluators map[string]ConditionEvaluator
	groups     GroupMembership
	calc       Calculator
	filter     RuleSetFilter
	location   *time.Location
	showLowest bool
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConditionEvaluator registers ev for condition type name, replacing any
// existing evaluator (including the built-in apply_to).
func WithConditionEvaluator(name string, ev ConditionEvaluator) Option {
	return func(e *Engine) {
		e.evaluators[name] = ev
	}
}

// WithGroupMembership sets the group lookup used by "groups" conditions.
func WithGroupMembership(g GroupMembership) Option {
	return func(e *Engine) {
		e.groups = g
	}
}

// WithRounding sets the rounding policy of the price calculator.
func WithRounding(p RoundingPolicy) Option {
	return func(e *Engine) {
		e.calc.Rounding = p
	}
}

// WithFixedPriceFilter sets the hook applied to fixed_price amounts.
func WithFixedPriceFilter(f FixedPriceFilter) Option {
	return func(e *Engine) {
		e.calc.FixedPrice = f
	}
}

// WithRuleSetFilter sets the hook that may replace the filtered rule list.
func WithRuleSetFilter(f RuleSetFilter) Option {
	return func(e *Engine) {
		e.filter = f
	}
}

// WithLocation sets the store timezone used to normalize rule dates.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithShowLowestPrice enables the lowest price display feature.
func WithShowLowestPrice(enabled bool) Option {
	return func(e *Engine) {
		e.showLowest = enabled
	}
}

// WithLogger sets the logger used for degraded-data warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine reading rule sets from repo.
func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:       repo,
		evaluators: make(map[string]ConditionEvaluator),
		groups:     UserGroups{},
		calc:       Calculator{Rounding: FixedDecimals(2)},
		location:   time.Local,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := e.evaluators[types.ConditionApplyTo]; !ok {
		e.evaluators[types.ConditionApplyTo] = AppliesToEvaluator{Groups: e.groups}
	}
	return e
}

// Calculator returns the price calculator configured for the engine.
func (e *Engine) Calculator() Calculator {
	return e.calc
}
