package pricing

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/pricingtable/internal/types"
)

func TestIsActive(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		now  time.Time
		want bool
	}{
		{name: "no bounds", want: true, now: testNow},
		{name: "inside window", from: "2024-06-01", to: "2024-06-30", now: testNow, want: true},
		{name: "before window", from: "2024-07-01", to: "2024-07-31", now: testNow, want: false},
		{name: "after window", from: "2024-05-01", to: "2024-05-31", now: testNow, want: false},
		{name: "from only, started", from: "2024-06-15", now: testNow, want: true},
		{name: "from only, not started", from: "2024-06-16", now: testNow, want: false},
		{name: "to only, running", to: "2024-06-16", now: testNow, want: true},
		{name: "to only, ended", to: "2024-06-14", now: testNow, want: false},
		{
			name: "from bound is inclusive midnight",
			from: "2024-06-15", to: "2024-06-20",
			now:  time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "to bound is midnight of the end date",
			from: "2024-06-01", to: "2024-06-15",
			now:  time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "end date after midnight is outside",
			from: "2024-06-01", to: "2024-06-15",
			now:  testNow,
			want: false,
		},
		{name: "datetime bound normalized", from: "2024-06-15 18:30:00", now: testNow, want: true},
		{name: "unparseable bound ignored", from: "soon", to: "2024-06-30", now: testNow, want: true},
		{name: "both unparseable", from: "x", to: "y", now: testNow, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := types.RuleSet{DateFrom: tt.from, DateTo: tt.to}
			if got := IsActive(rs, tt.now, time.UTC); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsActive_StoreTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	rs := types.RuleSet{DateFrom: "2024-06-16"}

	// 2024-06-15 15:00 UTC is 2024-06-16 01:00 in the store timezone.
	now := time.Date(2024, time.June, 15, 15, 0, 0, 0, time.UTC)
	if !IsActive(rs, now, loc) {
		t.Errorf("IsActive() = false, want true once the store date has started")
	}
	if IsActive(rs, now, time.UTC) {
		t.Errorf("IsActive() in UTC = true, want false")
	}
}

// Property-based test: date windows
func TestIsActive_PropertyWindow(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	base := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	day := func(n int) string { return base.AddDate(0, 0, n).Format("2006-01-02") }

	properties.Property("rule sets without bounds are always active", prop.ForAll(
		func(offsetHours int) bool {
			now := base.Add(time.Duration(offsetHours) * time.Hour)
			return IsActive(types.RuleSet{}, now, time.UTC)
		},
		gen.IntRange(-100_000, 100_000),
	))

	properties.Property("active iff from <= now <= to", prop.ForAll(
		func(from, length, nowDay int) bool {
			to := from + length
			rs := types.RuleSet{DateFrom: day(from), DateTo: day(to)}
			now := base.AddDate(0, 0, nowDay)
			want := nowDay >= from && nowDay <= to
			return IsActive(rs, now, time.UTC) == want
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 60),
		gen.IntRange(-30, 1100),
	))

	properties.TestingRun(t)
}
