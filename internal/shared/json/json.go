// Package json re-exports the standard encoding/json entry points under a
// stable import path so call sites read identically across the codebase
// regardless of which concrete implementation backs them.
package json

import "encoding/json"

// Marshal mirrors encoding/json.Marshal.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent mirrors encoding/json.MarshalIndent.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

// Unmarshal mirrors encoding/json.Unmarshal.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Valid reports whether data is well-formed JSON.
func Valid(data []byte) bool {
	return json.Valid(data)
}
