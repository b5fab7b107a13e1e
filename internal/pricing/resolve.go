package pricing

import (
	"context"
	"fmt"

	"github.com/solatis/pricingtable/internal/types"
)

// ApplicableRuleSets returns the date-active rule sets for the context product.
//
// Product rule sets come first, followed by global category rule sets whose
// collector categories and targets both intersect the product categories.
// Category sets are merged even when the product has its own sets. On a key
// collision the product set is kept. Order follows the source keys.
func (e *Engine) ApplicableRuleSets(ctx context.Context, ectx *types.EvaluationContext) ([]types.RuleSet, error) {
	productSets, err := e.repo.ProductRuleSets(ctx, ectx.Product.ID)
	if err != nil {
		return nil, fmt.Errorf("load product rule sets: %w", err)
	}
	categorySets, err := e.repo.OptionRuleSets(ctx, types.OptionCategoryRules)
	if err != nil {
		return nil, fmt.Errorf("load category rule sets: %w", err)
	}

	merged := make([]types.RuleSet, 0, len(productSets)+len(categorySets))
	seen := make(map[string]bool, len(productSets))
	for _, rs := range productSets {
		merged = append(merged, rs)
		seen[rs.Key] = true
	}

	terms := ectx.Product.CategoryIDs
	for _, rs := range categorySets {
		if seen[rs.Key] {
			e.logger.Debug("category rule set shadowed by product rule set",
				"key", rs.Key, "product_id", ectx.Product.ID)
			continue
		}
		if intersects(rs.CollectorCategories(), terms) && intersects(rs.Targets, terms) {
			merged = append(merged, rs)
		}
	}

	return activeRuleSets(merged, ectx.Now, e.location), nil
}

// PricingTables returns the rule sets to render as discount tables: the
// applicable rule sets that pass condition evaluation, after the rule set
// filter hook.
func (e *Engine) PricingTables(ctx context.Context, ectx *types.EvaluationContext) ([]types.RuleSet, error) {
	sets, err := e.ApplicableRuleSets(ctx, ectx)
	if err != nil {
		return nil, err
	}
	sets = e.FilterRuleSets(sets, ectx)
	if e.filter != nil {
		sets = e.filter(ectx, sets)
	}
	return sets, nil
}

// intersects reports whether a and b share an element.
func intersects(a, b []types.ID) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[types.ID]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	for _, id := range a {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
