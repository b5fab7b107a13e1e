package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/solatis/pricingtable/internal/types"
)

/*
 * Continuous-mode price adjustment.
 *
 * The calculator walks a rule set's rules in order and does not filter by
 * the cart quantity, so the last rule determines the result:
 *   - percentage_discount: round(price - amount/100*price, decimals)
 *   - price_discount:      max(price - amount, 0)
 *   - fixed_price:         round(fixedPrice(amount), decimals)
 *   - anything else:       no result, overwriting earlier results
 *
 * A rule without a valid amount also yields no result. Quantity bounds
 * (see types.Quantity Lower/Upper) do not take part in the walk.
 */

// RoundingPolicy supplies the number of display decimals.
type RoundingPolicy interface {
	Decimals() int
}

// FixedDecimals is a RoundingPolicy with a constant decimal count.
type FixedDecimals int

// Decimals returns d.
func (d FixedDecimals) Decimals() int {
	return int(d)
}

// FixedPriceFilter may override a fixed_price amount before it is used.
type FixedPriceFilter func(amount float64, rs types.RuleSet) float64

// Calculator computes adjusted prices for continuous rule sets.
type Calculator struct {
	Rounding   RoundingPolicy
	FixedPrice FixedPriceFilter
}

// Round rounds v half away from zero to the policy's decimals. Rounding
// works on the shortest decimal form of v, so 1.005 rounds to 1.01.
func (c Calculator) Round(v float64) float64 {
	decimals := 0
	if c.Rounding != nil {
		decimals = c.Rounding.Decimals()
	}
	if decimals < 0 {
		decimals = 0
	}
	return roundDecimal(v, decimals)
}

func roundDecimal(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	whole, frac, _ := strings.Cut(strconv.FormatFloat(math.Abs(v), 'f', -1, 64), ".")
	if len(frac) <= decimals {
		return v
	}

	digits := []byte(whole + frac[:decimals])
	if frac[decimals] >= '5' {
		i := len(digits) - 1
		for ; i >= 0 && digits[i] == '9'; i-- {
			digits[i] = '0'
		}
		if i < 0 {
			digits = append([]byte{'1'}, digits...)
		} else {
			digits[i]++
		}
	}

	cut := len(digits) - decimals
	rounded, err := strconv.ParseFloat(string(digits[:cut])+"."+string(digits[cut:])+"0", 64)
	if err != nil {
		return v
	}
	return math.Copysign(rounded, v)
}

// AdjustedPrice returns the price rs produces for base. ok is false for
// non-continuous rule sets and when the last rule yields no result.
func (c Calculator) AdjustedPrice(rs types.RuleSet, base float64) (price float64, ok bool) {
	if rs.Mode != types.ModeContinuous {
		return 0, false
	}

	for _, rule := range rs.Rules {
		if !rule.Amount.Valid {
			price, ok = 0, false
			continue
		}
		amount := rule.Amount.Value

		switch rule.Type {
		case types.RulePercentageDiscount:
			price, ok = c.Round(base-(amount/100*base)), true
		case types.RulePriceDiscount:
			price, ok = math.Max(base-amount, 0), true
		case types.RuleFixedPrice:
			if c.FixedPrice != nil {
				amount = c.FixedPrice(amount, rs)
			}
			price, ok = c.Round(amount), true
		default:
			price, ok = 0, false
		}
	}
	return price, ok
}
