package model

import (
	"bytes"
	"encoding/json"
)

// Report is the opaque result of a qualifier test run. The host never inspects
// its fields; it only decides whether a report exists and serializes it for
// storage.
type Report json.RawMessage

// MarshalJSON implements json.Marshaler, passing the raw bytes through.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.RawMessage(r).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Report) UnmarshalJSON(data []byte) error {
	return (*json.RawMessage)(r).UnmarshalJSON(data)
}

// Empty reports whether the report carries no result. A missing value, JSON
// null, or an empty object/array all count as empty; this is the truthiness
// test behind the "persist only non-empty reports" invariant.
func (r Report) Empty() bool {
	trimmed := bytes.TrimSpace([]byte(r))
	switch {
	case len(trimmed) == 0:
		return true
	case bytes.Equal(trimmed, []byte("null")):
		return true
	case bytes.Equal(trimmed, []byte("{}")):
		return true
	case bytes.Equal(trimmed, []byte("[]")):
		return true
	}
	return false
}
