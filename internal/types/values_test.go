package types

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Quantity
		wantLower int
		wantUpper int
	}{
		{name: "number", input: `5`, want: Qty(5), wantLower: 5, wantUpper: 5},
		{name: "numeric string", input: `"10"`, want: Qty(10), wantLower: 10, wantUpper: 10},
		{name: "padded string", input: `" 3 "`, want: Qty(3), wantLower: 3, wantUpper: 3},
		{name: "decimal truncates", input: `"7.9"`, want: Qty(7), wantLower: 7, wantUpper: 7},
		{name: "wildcard", input: `"*"`, want: AnyQty(), wantLower: 0, wantUpper: Unbounded},
		{name: "empty string", input: `""`, want: Quantity{}, wantLower: 0, wantUpper: Unbounded},
		{name: "null", input: `null`, want: Quantity{}, wantLower: 0, wantUpper: Unbounded},
		{name: "zero upper is unbounded", input: `0`, want: Qty(0), wantLower: 0, wantUpper: Unbounded},
		{name: "garbage", input: `"lots"`, want: Quantity{}, wantLower: 0, wantUpper: Unbounded},
		{name: "boolean", input: `true`, want: Quantity{}, wantLower: 0, wantUpper: Unbounded},
		{name: "object", input: `{"a":1}`, want: Quantity{}, wantLower: 0, wantUpper: Unbounded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			if err := json.Unmarshal([]byte(tt.input), &q); err != nil {
				t.Fatalf("Unmarshal() error = %v, want nil", err)
			}
			if q != tt.want {
				t.Errorf("Quantity = %+v, want %+v", q, tt.want)
			}
			if q.Lower() != tt.wantLower {
				t.Errorf("Lower() = %d, want %d", q.Lower(), tt.wantLower)
			}
			if q.Upper() != tt.wantUpper {
				t.Errorf("Upper() = %d, want %d", q.Upper(), tt.wantUpper)
			}
		})
	}
}

func TestQuantity_UpperIsNeverMinimum(t *testing.T) {
	for _, q := range []Quantity{{}, AnyQty(), Qty(0), Qty(-4)} {
		if q.Upper() != Unbounded {
			t.Errorf("Upper(%+v) = %d, want Unbounded", q, q.Upper())
		}
	}
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Amount
	}{
		{name: "number", input: `12.5`, want: Amt(12.5)},
		{name: "numeric string", input: `"10"`, want: Amt(10)},
		{name: "negative", input: `"-2"`, want: Amt(-2)},
		{name: "empty", input: `""`, want: Amount{}},
		{name: "null", input: `null`, want: Amount{}},
		{name: "wildcard", input: `"*"`, want: Amount{}},
		{name: "text", input: `"ten"`, want: Amount{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			if err := json.Unmarshal([]byte(tt.input), &a); err != nil {
				t.Fatalf("Unmarshal() error = %v, want nil", err)
			}
			if a != tt.want {
				t.Errorf("Amount = %+v, want %+v", a, tt.want)
			}
		})
	}
}

func TestID_UnmarshalJSON(t *testing.T) {
	var ids IDList
	if err := json.Unmarshal([]byte(`[12, "15", "x", null, 7.0]`), &ids); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}
	want := IDList{12, 15, 7}
	if len(ids) != len(want) {
		t.Fatalf("len(ids) = %d, want %d (%v)", len(ids), len(want), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

// Property-based test: any positive set quantity is its own upper and lower bound
func TestParseID(t *testing.T) {
	tests := []struct {
		input   string
		want    ID
		wantErr bool
	}{
		{input: "10", want: 10},
		{input: " 42\n", want: 42},
		{input: "ten", wantErr: true},
		{input: "", wantErr: true},
		{input: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseID(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseID(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestQuantity_PropertyBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("positive quantities bound themselves", prop.ForAll(
		func(n int) bool {
			data, err := json.Marshal(Qty(n))
			if err != nil {
				return false
			}
			var q Quantity
			if err := json.Unmarshal(data, &q); err != nil {
				return false
			}
			return q.Lower() == n && q.Upper() == n
		},
		gen.IntRange(1, 1_000_000),
	))

	properties.Property("scalar parsing never panics", prop.ForAll(
		func(s string) bool {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("parseScalar(%q) panicked: %v", s, r)
				}
			}()
			parseScalar([]byte(s))
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
