package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

/*
 * Lenient scalar coercion for host rule data.
 *
 * The host plugin stores quantities and amounts as whatever the admin form
 * posted: numbers, numeric strings, "*" wildcards or empty strings. Every
 * scalar is classified once here and the typed wrappers decide what each
 * class means for them.
 *
 * Unmarshalers in this file never return an error for well-formed JSON.
 * A value of the wrong shape degrades to "unset" so one bad field cannot
 * drop a whole rule set.
 */

type scalarKind int

const (
	scalarBlank scalarKind = iota // null, "" or absent
	scalarWildcard                // "*"
	scalarNumber
	scalarInvalid
)

// parseScalar classifies a raw JSON scalar and extracts its numeric value.
func parseScalar(data []byte) (float64, scalarKind) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, scalarBlank
	}

	var s string
	switch data[0] {
	case '"':
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, scalarInvalid
		}
	case '{', '[', 't', 'f':
		return 0, scalarInvalid
	default:
		s = string(data)
	}

	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0, scalarBlank
	case "*":
		return 0, scalarWildcard
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, scalarInvalid
	}
	return f, scalarNumber
}

// Quantity is a quantity bound as stored by the host: a number, "*" or blank.
// The zero value is an unset bound.
type Quantity struct {
	N        int
	Wildcard bool
	Set      bool
}

// Qty returns a set quantity of n.
func Qty(n int) Quantity {
	return Quantity{N: n, Set: true}
}

// AnyQty returns the "*" wildcard quantity.
func AnyQty() Quantity {
	return Quantity{Wildcard: true, Set: true}
}

// Lower interprets the quantity as a lower bound. "*" and blank mean 0.
func (q Quantity) Lower() int {
	if !q.Set || q.Wildcard {
		return 0
	}
	return q.N
}

// Upper interprets the quantity as an upper bound.
// Blank, "*" and values below 1 mean Unbounded.
func (q Quantity) Upper() int {
	if !q.Set || q.Wildcard || q.N < 1 {
		return Unbounded
	}
	return q.N
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	f, kind := parseScalar(data)
	switch kind {
	case scalarWildcard:
		*q = AnyQty()
	case scalarNumber:
		switch {
		case f >= float64(math.MaxInt):
			*q = Qty(math.MaxInt)
		case f <= float64(math.MinInt):
			*q = Qty(math.MinInt)
		default:
			*q = Qty(int(math.Trunc(f)))
		}
	default:
		*q = Quantity{}
	}
	return nil
}

// MarshalJSON implements json.Marshaler using the host's encoding.
func (q Quantity) MarshalJSON() ([]byte, error) {
	switch {
	case !q.Set:
		return []byte(`""`), nil
	case q.Wildcard:
		return []byte(`"*"`), nil
	default:
		return []byte(strconv.Itoa(q.N)), nil
	}
}

// Amount is a decimal rule amount. Valid is false when the host left it
// blank or stored something that is not a number.
type Amount struct {
	Value float64
	Valid bool
}

// Amt returns a valid amount.
func Amt(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	f, kind := parseScalar(data)
	if kind != scalarNumber {
		*a = Amount{}
		return nil
	}
	*a = Amt(f)
	return nil
}

// MarshalJSON implements json.Marshaler. Invalid amounts encode as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(a.Value, 'f', -1, 64)), nil
}

// ID is a numeric host identifier (product, category, variation, user, group).
// Accepts JSON numbers and numeric strings.
type ID int64

// UnmarshalJSON implements json.Unmarshaler. Non-numeric values decode as 0.
func (id *ID) UnmarshalJSON(data []byte) error {
	f, kind := parseScalar(data)
	if kind != scalarNumber {
		*id = 0
		return nil
	}
	*id = ID(int64(f))
	return nil
}

// String returns the decimal form of the id.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a decimal id.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(n), nil
}
