// Package display turns selected rule sets and discounts into display
// structures for the storefront: discount table rows and notice text.
//
// All user-facing strings go through an x/text message printer so the
// storefront locale controls number formatting and, once catalogs are
// registered, translation.
package display

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/solatis/pricingtable/internal/types"
)

// Formatter formats prices and quantities for one locale.
type Formatter struct {
	printer  *message.Printer
	symbol   string
	decimals int
}

// NewFormatter creates a formatter for locale (BCP 47), prefixing prices
// with symbol and showing decimals price decimals.
func NewFormatter(locale, symbol string, decimals int) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", types.ErrInvalidLocale, locale, err)
	}
	if decimals < 0 {
		decimals = 0
	}
	return &Formatter{
		printer:  message.NewPrinter(tag),
		symbol:   symbol,
		decimals: decimals,
	}, nil
}

// Price formats v as a price with the configured symbol and decimals.
func (f *Formatter) Price(v float64) string {
	return f.symbol + f.printer.Sprint(number.Decimal(v, number.Scale(f.decimals)))
}

// Number formats v without trailing zeros.
func (f *Formatter) Number(v float64) string {
	return f.printer.Sprint(number.Decimal(v))
}

// Count formats a quantity.
func (f *Formatter) Count(n int) string {
	return f.printer.Sprint(number.Decimal(n))
}

// Sprintf formats a message through the locale printer.
func (f *Formatter) Sprintf(key string, args ...any) string {
	return f.printer.Sprintf(key, args...)
}
