package display

import (
	"github.com/solatis/pricingtable/internal/types"
)

// CSS classes the storefront script toggles when a variation is selected.
const (
	ClassTable           = "dynamic-pricing-table"
	ClassVariation       = "dynamic-pricing-table-variation"
	classVariationPrefix = "dynamic-pricing-table-variation-"
)

// Table is a rendered discount table for one rule set.
type Table struct {
	Key        string     `json:"key"`
	Mode       types.Mode `json:"mode"`
	Heading    []string   `json:"heading"`
	Rows       []Row      `json:"rows"`
	Classes    []string   `json:"classes"`
	Variations []types.ID `json:"variations,omitempty"`
	Hidden     bool       `json:"hidden"`
}

// Row is one quantity tier of a table.
type Row struct {
	Quantity string `json:"quantity"`
	Discount string `json:"discount"`
}

// Tables renders every rule set with a known mode, in order.
func (f *Formatter) Tables(sets []types.RuleSet) []Table {
	tables := make([]Table, 0, len(sets))
	for _, rs := range sets {
		if table, ok := f.Table(rs); ok {
			tables = append(tables, table)
		}
	}
	return tables
}

// Table renders a rule set. ok is false for unknown modes.
// Variation-restricted tables start hidden and carry one class per variation.
func (f *Formatter) Table(rs types.RuleSet) (Table, bool) {
	table := Table{
		Key:     rs.Key,
		Mode:    rs.Mode,
		Classes: []string{ClassTable},
	}

	switch rs.Mode {
	case types.ModeContinuous:
		table.Heading = []string{f.Sprintf("Quantity"), f.Sprintf("Bulk Purchase Pricing")}
		table.Rows = f.continuousRows(rs.Rules)
	case types.ModeBlock:
		table.Heading = []string{f.Sprintf("Quantity"), f.Sprintf("Special Offer Pricing")}
		table.Rows = f.blockRows(rs.BlockRules)
	default:
		return Table{}, false
	}

	if variations := rs.Variations(); len(variations) > 0 {
		table.Hidden = true
		table.Variations = variations
		table.Classes = append(table.Classes, ClassVariation)
		for _, id := range variations {
			table.Classes = append(table.Classes, classVariationPrefix+id.String())
		}
	}
	return table, true
}

func (f *Formatter) continuousRows(rules []types.Rule) []Row {
	rows := make([]Row, 0, len(rules))
	for _, rule := range rules {
		from := rule.From.Lower()

		var quantity string
		switch to := rule.To.Upper(); {
		case to == types.Unbounded:
			quantity = f.Sprintf("%s or more", f.Count(from))
		case to > from:
			quantity = f.Sprintf("%s - %s", f.Count(from), f.Count(to))
		default:
			quantity = f.Count(from)
		}

		rows = append(rows, Row{
			Quantity: quantity,
			Discount: f.ruleDiscount(rule.Type, rule.Amount.Value),
		})
	}
	return rows
}

func (f *Formatter) ruleDiscount(t types.RuleType, amount float64) string {
	switch t {
	case types.RulePriceDiscount:
		return f.Sprintf("%s Discount Per Item", f.Price(amount))
	case types.RulePercentageDiscount:
		return f.Sprintf("%s%% Discount", f.Number(amount))
	case types.RuleFixedPrice:
		return f.Sprintf("%s Per Item", f.Price(amount))
	default:
		return ""
	}
}

func (f *Formatter) blockRows(rules []types.BlockRule) []Row {
	rows := make([]Row, 0, len(rules))
	for _, rule := range rules {
		from := f.Count(rule.From.Lower())

		var quantity string
		if adjust := rule.Adjust.Upper(); adjust == types.Unbounded {
			quantity = f.Sprintf("Buy %s get any number more discounted", from)
		} else {
			quantity = f.Sprintf("Buy %s get %s more discounted", from, f.Count(adjust))
		}

		rows = append(rows, Row{
			Quantity: quantity,
			Discount: f.blockDiscount(rule.Type, rule.Amount.Value),
		})
	}
	return rows
}

func (f *Formatter) blockDiscount(t types.BlockRuleType, amount float64) string {
	switch t {
	case types.BlockFixedAdjustment:
		return f.Sprintf("%s Discount Per Item", f.Price(amount))
	case types.BlockPercentAdjustment:
		return f.Sprintf("%s%% Discount", f.Number(amount))
	case types.BlockFixedPrice:
		return f.Sprintf("%s Per Item", f.Price(amount))
	default:
		return ""
	}
}
