package pricing

import (
	"strings"
	"time"

	"github.com/solatis/pricingtable/internal/types"
)

// ruleDateLayouts are the date formats the host admin has been seen to store.
var ruleDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// parseRuleDate parses a rule set date bound and normalizes it to midnight
// in loc. Blank and unparseable values report ok=false (no bound).
func parseRuleDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range ruleDateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		t = t.In(loc)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// IsActive reports whether the rule set date window contains now.
// Bounds are inclusive midnights in loc. A rule set with no bounds is active.
func IsActive(rs types.RuleSet, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	from, hasFrom := parseRuleDate(rs.DateFrom, loc)
	to, hasTo := parseRuleDate(rs.DateTo, loc)

	active := true
	switch {
	case hasFrom && hasTo:
		active = !now.Before(from) && !now.After(to)
	case hasFrom:
		active = !now.Before(from)
	case hasTo:
		active = !now.After(to)
	}
	return active
}

// activeRuleSets keeps the rule sets whose window contains now, in order.
func activeRuleSets(sets []types.RuleSet, now time.Time, loc *time.Location) []types.RuleSet {
	out := make([]types.RuleSet, 0, len(sets))
	for _, rs := range sets {
		if IsActive(rs, now, loc) {
			out = append(out, rs)
		}
	}
	return out
}
