// Package idgen centralizes the identifier generation used outside the
// hierarchical Task ID scheme: session IDs, tool-call IDs, log IDs.
package idgen

import "github.com/google/uuid"

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return "sess_" + uuid.NewString()
}

// NewToolCallID returns a fresh tool-call identifier.
func NewToolCallID() string {
	return "call_" + uuid.NewString()
}

// NewLogID returns a fresh per-request log correlation identifier.
func NewLogID() string {
	return uuid.NewString()
}

// NewProjectID returns a fresh fallback project slug, used when the caller
// doesn't supply one derived from the query text.
func NewProjectID() string {
	return "proj_" + uuid.NewString()
}
