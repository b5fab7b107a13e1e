package pricing

import (
	"context"
	"fmt"

	"github.com/solatis/pricingtable/internal/types"
)

// RoleDiscount is the account discount a logged-in viewer receives.
type RoleDiscount struct {
	DisplayName string
	Role        string
	Type        types.RuleType
	Amount      float64
	RuleSetKey  string
}

// CategoryDiscount is the discount applied to every product in a category.
type CategoryDiscount struct {
	CategoryID   types.ID
	CategoryName string
	Type         types.RuleType
	Amount       float64
	RuleSetKey   string
}

// noticeRuleType reports whether t is a notice-capable rule type.
func noticeRuleType(t types.RuleType) bool {
	return t == types.RulePercentProduct || t == types.RuleFixedProduct
}

// RoleDiscount returns the membership discount for the viewer, or nil.
//
// Only logged-in viewers on shop pages qualify. A membership rule set
// matches when the first role of its first condition equals the viewer's
// primary role and its first rule is percent_product or fixed_product.
// When several sets match the last one wins.
func (e *Engine) RoleDiscount(ctx context.Context, ectx *types.EvaluationContext) (*RoleDiscount, error) {
	if ectx.User == nil || !ectx.ShopPage {
		return nil, nil
	}
	role := ectx.User.PrimaryRole()
	if role == "" {
		return nil, nil
	}

	sets, err := e.repo.OptionRuleSets(ctx, types.OptionMembershipRules)
	if err != nil {
		return nil, fmt.Errorf("load membership rule sets: %w", err)
	}

	var found *RoleDiscount
	for _, rs := range sets {
		if len(rs.Conditions) == 0 || len(rs.Conditions[0].Args.Roles) == 0 || len(rs.Rules) == 0 {
			continue
		}
		if rs.Conditions[0].Args.Roles[0] != role {
			continue
		}
		rule := rs.Rules[0]
		if !noticeRuleType(rule.Type) {
			continue
		}
		found = &RoleDiscount{
			DisplayName: ectx.User.DisplayName,
			Role:        role,
			Type:        rule.Type,
			Amount:      rule.Amount.Value,
			RuleSetKey:  rs.Key,
		}
	}
	return found, nil
}

// CategoryDiscount returns the discount for the category being browsed, or nil.
//
// Only category pages with a current category qualify. A category rule set
// matches when the first collector category equals the current category
// and its first rule is percent_product or fixed_product. When several sets
// match the last one wins.
func (e *Engine) CategoryDiscount(ctx context.Context, ectx *types.EvaluationContext) (*CategoryDiscount, error) {
	if ectx.Category == nil || !ectx.CategoryPage || ectx.Category.ID == 0 {
		return nil, nil
	}

	sets, err := e.repo.OptionRuleSets(ctx, types.OptionCategoryNoticeRules)
	if err != nil {
		return nil, fmt.Errorf("load category notice rule sets: %w", err)
	}

	var found *CategoryDiscount
	for _, rs := range sets {
		cats := rs.CollectorCategories()
		if len(cats) == 0 || len(rs.Rules) == 0 {
			continue
		}
		if cats[0] != ectx.Category.ID {
			continue
		}
		rule := rs.Rules[0]
		if !noticeRuleType(rule.Type) {
			continue
		}
		found = &CategoryDiscount{
			CategoryID:   ectx.Category.ID,
			CategoryName: ectx.Category.Name,
			Type:         rule.Type,
			Amount:       rule.Amount.Value,
			RuleSetKey:   rs.Key,
		}
	}
	return found, nil
}
