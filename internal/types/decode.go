package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

/*
 * Order-preserving decoding of host collections.
 *
 * PHP arrays serialize either as JSON lists or, once keys are not sequential,
 * as JSON objects. Rule sets are keyed objects ("set_1", "set_2") and their
 * order is meaningful: tables render in source order and the last matching
 * notice wins. Go maps lose that order, so every collection is walked token
 * by token and decoded into a slice, keeping the source key.
 */

var errNotCollection = errors.New("not a JSON array or object")

type entry struct {
	Key   string
	Value json.RawMessage
}

// orderedEntries returns the members of a JSON array or object in source order.
// Array members are keyed by their index.
func orderedEntries(data []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, errNotCollection
	}

	var out []entry
	switch delim {
	case '[':
		for i := 0; dec.More(); i++ {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, err
			}
			out = append(out, entry{Key: strconv.Itoa(i), Value: raw})
		}
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, err
			}
			out = append(out, entry{Key: key, Value: raw})
		}
	default:
		return nil, errNotCollection
	}

	// closing delimiter
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// collectionValues is orderedEntries for callers that only need values.
// Non-collections yield no values.
func collectionValues(data []byte) []json.RawMessage {
	entries, err := orderedEntries(data)
	if err != nil {
		return nil
	}
	values := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		values[i] = e.Value
	}
	return values
}

// decodeLenient decodes a JSON object into v, tolerating fields of the wrong
// type. Returns false when raw is not an object.
func decodeLenient(raw json.RawMessage, v any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	err := json.Unmarshal(raw, v)
	if err == nil {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// RuleList is an ordered list of continuous rules.
type RuleList []Rule

// UnmarshalJSON implements json.Unmarshaler. Members that are not objects are skipped.
func (l *RuleList) UnmarshalJSON(data []byte) error {
	var out RuleList
	for _, raw := range collectionValues(data) {
		var r Rule
		if decodeLenient(raw, &r) {
			out = append(out, r)
		}
	}
	*l = out
	return nil
}

// BlockRuleList is an ordered list of block rules.
type BlockRuleList []BlockRule

// UnmarshalJSON implements json.Unmarshaler. Members that are not objects are skipped.
func (l *BlockRuleList) UnmarshalJSON(data []byte) error {
	var out BlockRuleList
	for _, raw := range collectionValues(data) {
		var r BlockRule
		if decodeLenient(raw, &r) {
			out = append(out, r)
		}
	}
	*l = out
	return nil
}

// ConditionList is an ordered list of conditions.
type ConditionList []Condition

// UnmarshalJSON implements json.Unmarshaler. Members that are not objects are skipped.
func (l *ConditionList) UnmarshalJSON(data []byte) error {
	var out ConditionList
	for _, raw := range collectionValues(data) {
		var c Condition
		if decodeLenient(raw, &c) {
			out = append(out, c)
		}
	}
	*l = out
	return nil
}

// IDList is an ordered list of ids. Non-numeric members are skipped.
type IDList []ID

// UnmarshalJSON implements json.Unmarshaler.
func (l *IDList) UnmarshalJSON(data []byte) error {
	var out IDList
	for _, raw := range collectionValues(data) {
		f, kind := parseScalar(raw)
		if kind != scalarNumber {
			continue
		}
		out = append(out, ID(int64(f)))
	}
	*l = out
	return nil
}

// StringList is an ordered list of strings. Numbers are kept in their
// textual form; other members are skipped.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var out StringList
	for _, raw := range collectionValues(data) {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		switch raw[0] {
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				out = append(out, s)
			}
		case '{', '[', 't', 'f', 'n':
		default:
			out = append(out, string(raw))
		}
	}
	*l = out
	return nil
}

// DecodeRuleSets decodes a stored rule set collection, preserving source
// order and keys. Empty or null input yields no rule sets. Members that are
// not objects are skipped. Only a collection that cannot be parsed at all
// returns ErrMalformedRuleSets.
func DecodeRuleSets(data []byte) ([]RuleSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return nil, nil
	}

	entries, err := orderedEntries(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRuleSets, err)
	}

	sets := make([]RuleSet, 0, len(entries))
	for _, e := range entries {
		var rs RuleSet
		if !decodeLenient(e.Value, &rs) {
			continue
		}
		rs.Key = e.Key
		sets = append(sets, rs)
	}
	return sets, nil
}

// EncodeRuleSets encodes rule sets as a JSON object keyed by RuleSet.Key,
// in slice order. Sets without a key are keyed by their position.
func EncodeRuleSets(sets []RuleSet) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rs := range sets {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := rs.Key
		if key == "" {
			key = strconv.Itoa(i)
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(rs)
		if err != nil {
			return nil, fmt.Errorf("encode rule set %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
