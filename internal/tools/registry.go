// Package tools provides the tool registry for the conversation engine: a
// fixed mapping from tool name to callable capability plus its declared
// invocation schema.
package tools

import (
	"context"

	"github.com/tikasheba/vaccine-ai/internal/llm"
)

// Tool is a named capability the model may invoke mid-conversation.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string

	// Declaration returns the schema presented to the model.
	Declaration() llm.ToolDecl

	// Run executes the tool. The returned string is the entire tool
	// output fed back to the model.
	Run(ctx context.Context, args map[string]any) (string, error)
}

// Registry is an immutable name → Tool mapping.
//
// Registry is built once at startup and is safe for concurrent use
// (pure lookup, no mutable state).
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry from the given tools. Later duplicates
// of a name replace earlier ones.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if _, exists := r.tools[t.Name()]; !exists {
			r.order = append(r.order, t.Name())
		}
		r.tools[t.Name()] = t
	}
	return r
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Declarations returns the schemas for the named tools, in the given
// order. Unknown names are skipped.
func (r *Registry) Declarations(names []string) []llm.ToolDecl {
	decls := make([]llm.ToolDecl, 0, len(names))
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			decls = append(decls, t.Declaration())
		}
	}
	return decls
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	cp := make([]string, len(r.order))
	copy(cp, r.order)
	return cp
}
