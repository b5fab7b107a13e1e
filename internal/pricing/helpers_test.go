package pricing

import (
	"context"
	"time"

	"github.com/solatis/pricingtable/internal/types"
)

// memRepo is an in-memory Repository for engine tests.
type memRepo struct {
	products map[types.ID][]types.RuleSet
	options  map[string][]types.RuleSet
	err      error
}

func newMemRepo() *memRepo {
	return &memRepo{
		products: make(map[types.ID][]types.RuleSet),
		options:  make(map[string][]types.RuleSet),
	}
}

func (r *memRepo) ProductRuleSets(_ context.Context, productID types.ID) ([]types.RuleSet, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.products[productID], nil
}

func (r *memRepo) OptionRuleSets(_ context.Context, option string) ([]types.RuleSet, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.options[option], nil
}

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

// continuousSet builds a continuous rule set with a single rule.
func continuousSet(key string, ruleType types.RuleType, amount float64) types.RuleSet {
	return types.RuleSet{
		Key:  key,
		Mode: types.ModeContinuous,
		Rules: types.RuleList{
			{From: types.Qty(1), To: types.AnyQty(), Type: ruleType, Amount: types.Amt(amount)},
		},
	}
}

func applyTo(audience types.AppliesTo) types.Condition {
	return types.Condition{Type: types.ConditionApplyTo, Args: types.ConditionArgs{AppliesTo: audience}}
}

func rolesCondition(roles ...string) types.Condition {
	return types.Condition{
		Type: types.ConditionApplyTo,
		Args: types.ConditionArgs{AppliesTo: types.AppliesToRoles, Roles: roles},
	}
}

func productContext(id types.ID, price float64, categories ...types.ID) *types.EvaluationContext {
	return &types.EvaluationContext{
		Now:     testNow,
		Product: types.Product{ID: id, Price: price, CategoryIDs: categories},
	}
}

func keys(sets []types.RuleSet) []string {
	out := make([]string, len(sets))
	for i, rs := range sets {
		out[i] = rs.Key
	}
	return out
}
