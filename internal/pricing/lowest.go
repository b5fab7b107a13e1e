package pricing

import (
	"context"

	"github.com/solatis/pricingtable/internal/types"
)

// LowestPrice returns the lowest adjusted price any table rule set produces
// for the context product. ok is false when the feature is disabled or no
// continuous rule set yields a price; callers then show the regular price.
func (e *Engine) LowestPrice(ctx context.Context, ectx *types.EvaluationContext) (lowest float64, ok bool, err error) {
	if !e.showLowest {
		return 0, false, nil
	}

	sets, err := e.PricingTables(ctx, ectx)
	if err != nil {
		return 0, false, err
	}
	lowest, ok = e.LowestOf(sets, ectx.Product.Price)
	return lowest, ok, nil
}

// LowestOf returns the lowest adjusted price among already resolved rule
// sets. Block rule sets are ignored. ok is false when the feature is
// disabled or nothing yields a price.
func (e *Engine) LowestOf(sets []types.RuleSet, base float64) (lowest float64, ok bool) {
	if !e.showLowest {
		return 0, false
	}
	for _, rs := range sets {
		if rs.Mode != types.ModeContinuous {
			continue
		}
		price, found := e.calc.AdjustedPrice(rs, base)
		if !found {
			continue
		}
		if !ok || price < lowest {
			lowest, ok = price, true
		}
	}
	return lowest, ok
}
