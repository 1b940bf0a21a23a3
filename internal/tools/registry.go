// Package tools defines the catalog of callable tools the model can invoke,
// validates their inputs against JSON schemas, and executes them against
// the tenant's data.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/contact4labs-eng/costwise/internal/llm"
)

// Handler executes one tool invocation for a tenant. The returned value is
// serialized to JSON and handed back to the model verbatim.
type Handler func(ctx context.Context, tenantID string, input json.RawMessage) (interface{}, error)

// Descriptor declares one tool: its public name, the description shown to
// the model, its input schema, and the handler that runs it.
type Descriptor struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// Registry holds the compiled tool catalog. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	tools   map[string]*registered
	ordered []string
}

type registered struct {
	desc   Descriptor
	schema *jsonschema.Schema
}

// NewRegistry compiles every descriptor's input schema and indexes the
// catalog by name. Duplicate names and invalid schemas are construction
// errors.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	r := &Registry{tools: make(map[string]*registered, len(descriptors))}
	for _, desc := range descriptors {
		if desc.Name == "" {
			return nil, fmt.Errorf("tools: descriptor with empty name")
		}
		if _, exists := r.tools[desc.Name]; exists {
			return nil, fmt.Errorf("tools: duplicate tool %q", desc.Name)
		}
		if desc.Handler == nil {
			return nil, fmt.Errorf("tools: tool %q has no handler", desc.Name)
		}

		schema, err := jsonschema.CompileString(desc.Name+".json", string(desc.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("tools: compile schema for %q: %w", desc.Name, err)
		}
		r.tools[desc.Name] = &registered{desc: desc, schema: schema}
		r.ordered = append(r.ordered, desc.Name)
	}
	sort.Strings(r.ordered)
	return r, nil
}

// Lookup returns the descriptor and compiled schema for a tool name.
func (r *Registry) Lookup(name string) (Descriptor, *jsonschema.Schema, bool) {
	reg, ok := r.tools[name]
	if !ok {
		return Descriptor{}, nil, false
	}
	return reg.desc, reg.schema, true
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ToolDefs renders the catalog in the shape the model gateway publishes.
func (r *Registry) ToolDefs() []llm.ToolDef {
	out := make([]llm.ToolDef, 0, len(r.ordered))
	for _, name := range r.ordered {
		reg := r.tools[name]
		out = append(out, llm.ToolDef{
			Name:        reg.desc.Name,
			Description: reg.desc.Description,
			InputSchema: reg.desc.InputSchema,
		})
	}
	return out
}
