package pricing

import (
	"slices"

	"github.com/solatis/pricingtable/internal/types"
)

/*
 * Condition evaluation.
 *
 * Each condition of a rule set evaluates to a boolean against the viewer in
 * the EvaluationContext. Results combine with conditions_type:
 *   - all: every condition true
 *   - any: at least one condition true
 *
 * Condition types resolve through the engine's evaluator registry. The
 * built-in apply_to evaluator handles audience selectors; consumers can
 * register extra types or replace apply_to entirely. Unregistered types
 * evaluate false.
 *
 * Evaluation is in insertion order. Conditions are pure functions of the
 * context so short-circuiting does not change results.
 */

// ConditionEvaluator evaluates one condition against the request context.
type ConditionEvaluator interface {
	Evaluate(cond types.Condition, ectx *types.EvaluationContext) bool
}

// ConditionEvaluatorFunc adapts a function to ConditionEvaluator.
type ConditionEvaluatorFunc func(cond types.Condition, ectx *types.EvaluationContext) bool

// Evaluate calls f.
func (f ConditionEvaluatorFunc) Evaluate(cond types.Condition, ectx *types.EvaluationContext) bool {
	return f(cond, ectx)
}

// GroupMembership answers whether a user belongs to a group.
type GroupMembership interface {
	IsMember(user *types.User, group types.ID) bool
}

// UserGroups resolves membership from the groups preloaded on the user.
type UserGroups struct{}

// IsMember reports whether group is in user.Groups.
func (UserGroups) IsMember(user *types.User, group types.ID) bool {
	if user == nil {
		return false
	}
	return slices.Contains(user.Groups, group)
}

// AppliesToEvaluator implements the apply_to condition type.
type AppliesToEvaluator struct {
	Groups GroupMembership
}

// Evaluate matches the condition audience against the current user.
func (a AppliesToEvaluator) Evaluate(cond types.Condition, ectx *types.EvaluationContext) bool {
	user := ectx.User
	switch cond.Args.AppliesTo {
	case types.AppliesToEveryone:
		return true
	case types.AppliesToUnauthenticated:
		return user == nil
	case types.AppliesToAuthenticated:
		return user != nil
	case types.AppliesToRoles:
		if user == nil {
			return false
		}
		for _, role := range cond.Args.Roles {
			if slices.Contains(user.Roles, role) {
				return true
			}
		}
		return false
	case types.AppliesToGroups:
		if user == nil || a.Groups == nil {
			return false
		}
		for _, group := range cond.Args.Groups {
			if a.Groups.IsMember(user, group) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// evaluateCondition dispatches a condition to its registered evaluator.
func (e *Engine) evaluateCondition(cond types.Condition, ectx *types.EvaluationContext) bool {
	ev, ok := e.evaluators[cond.Type]
	if !ok {
		return false
	}
	return ev.Evaluate(cond, ectx)
}

// Matches reports whether the combined conditions of rs hold for ectx.
// A rule set without conditions always matches. Unknown conditions_type
// values combine like "all".
func (e *Engine) Matches(rs types.RuleSet, ectx *types.EvaluationContext) bool {
	if len(rs.Conditions) == 0 {
		return true
	}

	if rs.ConditionsType == types.ConditionsAny {
		for _, cond := range rs.Conditions {
			if e.evaluateCondition(cond, ectx) {
				return true
			}
		}
		return false
	}

	for _, cond := range rs.Conditions {
		if !e.evaluateCondition(cond, ectx) {
			return false
		}
	}
	return true
}

// FilterRuleSets keeps the rule sets whose conditions are satisfied, in order.
func (e *Engine) FilterRuleSets(sets []types.RuleSet, ectx *types.EvaluationContext) []types.RuleSet {
	out := make([]types.RuleSet, 0, len(sets))
	for _, rs := range sets {
		if e.Matches(rs, ectx) {
			out = append(out, rs)
		}
	}
	return out
}
