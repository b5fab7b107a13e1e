// Package types provides domain models shared across pricing table components.
//
// Rule sets are produced by the host pricing plugin and stored as JSON. The
// decoders in this package are permissive: the host data was written by PHP
// and freely mixes numeric strings, numbers, "*" wildcards, and keyed objects
// where lists are expected. Fields that cannot be interpreted fall back to
// their zero value instead of failing the whole rule set.
package types

import (
	"math"
	"time"
)

// Storage keys used by the host pricing plugin.
const (
	// MetaProductRules is the per-product meta key holding rule sets.
	MetaProductRules = "_pricing_rules"

	// OptionCategoryRules holds global rule sets targeting product categories.
	OptionCategoryRules = "_a_category_pricing_rules"

	// OptionMembershipRules holds role based rule sets used for account notices.
	OptionMembershipRules = "_s_membership_pricing_rules"

	// OptionCategoryNoticeRules holds simple category rule sets used for category notices.
	OptionCategoryNoticeRules = "_s_category_pricing_rules"
)

// Unbounded is the upper quantity used when a rule has no maximum.
// math.MaxInt keeps every realistic quantity inside the range.
const Unbounded = math.MaxInt

// Mode selects how a rule set is priced.
type Mode string

const (
	// ModeContinuous is quantity-tiered pricing (buy N-M units, get a discount).
	ModeContinuous Mode = "continuous"
	// ModeBlock is "buy X get Y more discounted" pricing.
	ModeBlock Mode = "block"
)

// ConditionsType controls how condition results are combined.
type ConditionsType string

const (
	ConditionsAll ConditionsType = "all"
	ConditionsAny ConditionsType = "any"
)

// RuleType identifies a continuous rule adjustment.
// PercentProduct and FixedProduct appear in membership and category notice sets.
type RuleType string

const (
	RulePriceDiscount      RuleType = "price_discount"
	RulePercentageDiscount RuleType = "percentage_discount"
	RuleFixedPrice         RuleType = "fixed_price"
	RulePercentProduct     RuleType = "percent_product"
	RuleFixedProduct       RuleType = "fixed_product"
)

// BlockRuleType identifies a block rule adjustment.
type BlockRuleType string

const (
	BlockFixedAdjustment   BlockRuleType = "fixed_adjustment"
	BlockPercentAdjustment BlockRuleType = "percent_adjustment"
	BlockFixedPrice        BlockRuleType = "fixed_price"
)

// ConditionApplyTo is the built-in condition type matching on the viewer.
const ConditionApplyTo = "apply_to"

// AppliesTo is the audience selector of an apply_to condition.
type AppliesTo string

const (
	AppliesToEveryone        AppliesTo = "everyone"
	AppliesToAuthenticated   AppliesTo = "authenticated"
	AppliesToUnauthenticated AppliesTo = "unauthenticated"
	AppliesToRoles           AppliesTo = "roles"
	AppliesToGroups          AppliesTo = "groups"
)

// RuleSet is a collection of pricing rules plus activation conditions and an
// optional date window. Mode determines which of Rules/BlockRules is populated.
type RuleSet struct {
	Key            string          `json:"-"` // source dictionary key, preserved for ordering
	Mode           Mode            `json:"mode"`
	Rules          RuleList        `json:"rules,omitempty"`
	BlockRules     BlockRuleList   `json:"blockrules,omitempty"`
	Conditions     ConditionList   `json:"conditions,omitempty"`
	ConditionsType ConditionsType  `json:"conditions_type,omitempty"`
	DateFrom       string          `json:"date_from,omitempty"`
	DateTo         string          `json:"date_to,omitempty"`
	VariationRules *VariationRules `json:"variation_rules,omitempty"`
	Collector      *Collector      `json:"collector,omitempty"`
	Targets        IDList          `json:"targets,omitempty"`
}

// Rule is a continuous-mode quantity tier.
type Rule struct {
	From   Quantity `json:"from"`
	To     Quantity `json:"to"`
	Type   RuleType `json:"type"`
	Amount Amount   `json:"amount"`
}

// BlockRule is a block-mode offer.
type BlockRule struct {
	From   Quantity      `json:"from"`
	Adjust Quantity      `json:"adjust"`
	Type   BlockRuleType `json:"type"`
	Amount Amount        `json:"amount"`
}

// Condition gates whether a rule set applies to the current viewer.
type Condition struct {
	Type string        `json:"type"`
	Args ConditionArgs `json:"args"`
}

// ConditionArgs holds the arguments of an apply_to condition.
// Custom condition types may ignore them.
type ConditionArgs struct {
	AppliesTo AppliesTo  `json:"applies_to"`
	Roles     StringList `json:"roles,omitempty"`
	Groups    IDList     `json:"groups,omitempty"`
}

// VariationRules restricts a rule set to specific product variations.
type VariationRules struct {
	Args struct {
		Variations IDList `json:"variations,omitempty"`
	} `json:"args"`
}

// Collector describes which products a global rule set collects quantities from.
type Collector struct {
	Type string `json:"type"`
	Args struct {
		Cats IDList `json:"cats,omitempty"`
	} `json:"args"`
}

// Variations returns the variation ids the rule set is restricted to, if any.
func (rs RuleSet) Variations() []ID {
	if rs.VariationRules == nil {
		return nil
	}
	return rs.VariationRules.Args.Variations
}

// CollectorCategories returns the categories of the rule set collector.
func (rs RuleSet) CollectorCategories() []ID {
	if rs.Collector == nil {
		return nil
	}
	return rs.Collector.Args.Cats
}

// User is the logged-in viewer.
type User struct {
	ID          ID       `json:"id"`
	DisplayName string   `json:"display_name,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Groups      []ID     `json:"groups,omitempty"`
}

// PrimaryRole returns the first role of the user, or "" when none.
func (u *User) PrimaryRole() string {
	if u == nil || len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0]
}

// Category is the product category currently being browsed.
type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Product is the product whose pricing is being displayed.
type Product struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name,omitempty"`
	Price       float64 `json:"price"`
	CategoryIDs []ID    `json:"category_ids,omitempty"`
}

// EvaluationContext is the read-only snapshot for a single render request.
// User is nil for anonymous viewers; Category is nil outside category pages.
type EvaluationContext struct {
	Now          time.Time
	User         *User
	Category     *Category
	Product      Product
	ShopPage     bool
	CategoryPage bool
}
