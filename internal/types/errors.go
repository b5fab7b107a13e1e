package types

import "errors"

// Sentinel errors for pricing table operations.
var (
	// ErrMalformedRuleSets indicates a stored rule set collection is not JSON array/object.
	ErrMalformedRuleSets = errors.New("malformed rule set collection")

	// ErrProductNotFound indicates the product has no catalog entry.
	ErrProductNotFound = errors.New("product not found")

	// ErrUnknownOption indicates a rule set option name the host does not define.
	ErrUnknownOption = errors.New("unknown pricing option")

	// ErrStorage indicates the rule or catalog store could not be reached.
	ErrStorage = errors.New("storage unavailable")

	// ErrInvalidLocale indicates the configured display locale cannot be parsed.
	ErrInvalidLocale = errors.New("invalid display locale")
)

// KnownOption reports whether name is one of the host's global rule set options.
func KnownOption(name string) bool {
	switch name {
	case OptionCategoryRules, OptionMembershipRules, OptionCategoryNoticeRules:
		return true
	default:
		return false
	}
}
