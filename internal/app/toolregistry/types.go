// Package toolregistry implements a named, typed tool callable registry
// plus the sandboxed filesystem tool set every agent invokes through it.
package toolregistry

import "context"

// Call is a request to invoke a named tool.
type Call struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Result is what a tool invocation returns. Content carries the
// string-or-error payload the caller renders; Error, when set, marks
// the call as failed without losing the descriptive Content.
type Result struct {
	CallID   string
	Content  string
	Error    error
	Metadata map[string]any
}

// Definition describes a tool for an LLM's function-calling schema.
type Definition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Metadata carries registry bookkeeping independent of the LLM-facing
// Definition: whether the tool is dangerous (requires approval) and
// which category it belongs to.
type Metadata struct {
	Name      string
	Category  string
	Dangerous bool
}

// Executor is a named, typed callable: name, description, input schema,
// and an invoke(args) that returns a string or error.
type Executor interface {
	Definition() Definition
	Metadata() Metadata
	Execute(ctx context.Context, call Call) (*Result, error)
}
