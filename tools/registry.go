package tools

import (
	"errors"
	"fmt"

	jsv "github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrDuplicateTool is returned when two definitions share a name.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Registry maps tool names to definitions. It is not mutated after
// construction, so concurrent lookups need no locking.
type Registry struct {
	byName   map[string]ToolDefinition
	compiled map[string]*jsv.Schema
	order    []string
}

// NewRegistry indexes defs by name, keeping registration order for
// Definitions, and compiles each input schema once.
func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{
		byName:   make(map[string]ToolDefinition, len(defs)),
		compiled: make(map[string]*jsv.Schema, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("tool name is empty")
		}
		if d.Function == nil {
			return nil, fmt.Errorf("tool %s has no function", d.Name)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
		}
		compiled, err := compileSchema(d.Name, d.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: schema: %w", d.Name, err)
		}
		r.byName[d.Name] = d
		r.compiled[d.Name] = compiled
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// Builtin returns all tool definitions wired for the agent.
func Builtin() []ToolDefinition {
	return []ToolDefinition{ReadFileDefinition}
}

// DefaultRegistry returns a registry holding the builtin tools.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err) // builtin names are fixed and unique
	}
	return r
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Definitions returns the registered tools in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }
